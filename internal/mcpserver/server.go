// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Laguz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/metadata"
	"github.com/starford/laguz/internal/schema"
	"github.com/starford/laguz/internal/session"
	"github.com/starford/laguz/internal/table"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp      *server.MCPServer
	reg      *schema.Registry
	sessions *session.Manager
	meta     metadata.Source
}

// New creates a new MCP server with all Laguz tools registered.
func New(reg *schema.Registry, sessions *session.Manager, meta metadata.Source) *Server {
	s := &Server{reg: reg, sessions: sessions, meta: meta}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("parse_document",
		mcp.WithDescription("Run HTML markup through the document codec and return its "+
			"canonical form. Markup MUST follow the document format contract. Read the "+
			"contract first via the laguz://document-format resource."),
		mcp.WithString("markup", mcp.Required(), mcp.Description("HTML markup to normalize")),
	), s.parseDocument)

	s.mcp.AddTool(mcp.NewTool("render_document",
		mcp.WithDescription("Return the canonical serialized content of a stored document. "+
			"Opens a fresh empty document if none exists under that name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name (no extension, no path separators)")),
	), s.renderDocument)

	s.mcp.AddTool(mcp.NewTool("style_table",
		mcp.WithDescription("Apply a style preset to the table region enclosing a node: "+
			"the single cell, its row, its column, or the whole table. The edit is one "+
			"atomic, undoable operation."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of a node inside the table (cell or descendant)")),
		mcp.WithString("mode", mcp.Required(), mcp.Description("Target scope: cell, row, column or table")),
		mcp.WithString("preset", mcp.Required(), mcp.Description("Preset name, e.g. Professional or Accent")),
	), s.styleTable)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve page metadata (title, description, image, card type) "+
			"for a URL, for building a link card."),
		mcp.WithString("url", mcp.Required(), mcp.Description("URL to resolve; scheme may be omitted")),
	), s.resolveLink)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("laguz://document-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical HTML document format the codec accepts and emits."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) parseDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markup, err := req.RequireString("markup")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := document.Parse(markup, s.reg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("markup could not be parsed: %v", err)), nil
	}
	return mcp.NewToolResultText(document.Serialize(doc, s.reg)), nil
}

func (s *Server) renderDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.sessions.Open(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(c.Content()), nil
}

func (s *Server) styleTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodeID, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := req.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	preset, err := req.RequireString("preset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c, err := s.sessions.Open(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	engine := table.NewEngine(c.Dispatcher())
	if err := engine.ApplyPreset(nodeID, table.Mode(mode), preset); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(c.Content()), nil
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	meta, err := s.meta.Resolve(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(meta, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "laguz://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
