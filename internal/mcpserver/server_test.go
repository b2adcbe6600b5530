package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/metadata"
	"github.com/starford/laguz/internal/schema"
	"github.com/starford/laguz/internal/session"
	"github.com/starford/laguz/internal/sse"
)

type stubMeta struct{}

func (stubMeta) Resolve(ctx context.Context, rawURL string) (metadata.Meta, error) {
	normalized, err := metadata.Normalize(rawURL)
	if err != nil {
		return metadata.Meta{}, err
	}
	return metadata.Fill(metadata.Meta{}, normalized), nil
}

func testServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()

	broker := sse.NewBroker()
	t.Cleanup(broker.Close)
	sessions, err := session.NewManager(t.TempDir(), schema.Default(), broker, nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(schema.Default(), sessions, stubMeta{}), sessions
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "parse_document":
		result, err = srv.parseDocument(ctx, req)
	case "render_document":
		result, err = srv.renderDocument(ctx, req)
	case "style_table":
		result, err = srv.styleTable(ctx, req)
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestParseDocument(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "parse_document", map[string]interface{}{
		"markup": "<div><p>hello</p></div>",
	})
	if text := resultText(r); text != "<p>hello</p>" {
		t.Errorf("parse result = %q, want wrapper dropped", text)
	}
}

func TestParseDocumentInvalid(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "parse_document", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing markup")
	}
}

func TestRenderDocumentFresh(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "render_document", map[string]interface{}{"name": "scratch"})
	if text := resultText(r); text != "<p></p>" {
		t.Errorf("fresh document = %q, want empty paragraph", text)
	}
}

func TestStyleTable(t *testing.T) {
	srv, sessions := testServer(t)

	c, err := sessions.Open("notes")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetContent("<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>"); err != nil {
		t.Fatal(err)
	}

	var cellID string
	document.Walk(c.Dispatcher().Document().Root, func(n *document.Node) document.WalkStatus {
		if cellID == "" && n.Type == schema.TableCell {
			cellID = n.ID
		}
		return document.WalkContinue
	})
	if cellID == "" {
		t.Fatal("no table cell found")
	}

	r := callTool(t, srv, "style_table", map[string]interface{}{
		"name":    "notes",
		"node_id": cellID,
		"mode":    "row",
		"preset":  "Accent",
	})
	text := resultText(r)
	if got := strings.Count(text, `data-background-color="#ffcc00"`); got != 2 {
		t.Errorf("styled cells = %d, want 2; content = %s", got, text)
	}
}

func TestStyleTableUnknownPreset(t *testing.T) {
	srv, sessions := testServer(t)

	c, err := sessions.Open("notes")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetContent("<table><tr><td>a</td></tr></table>"); err != nil {
		t.Fatal(err)
	}
	var cellID string
	document.Walk(c.Dispatcher().Document().Root, func(n *document.Node) document.WalkStatus {
		if cellID == "" && n.Type == schema.TableCell {
			cellID = n.ID
		}
		return document.WalkContinue
	})

	r := callTool(t, srv, "style_table", map[string]interface{}{
		"name":    "notes",
		"node_id": cellID,
		"mode":    "cell",
		"preset":  "Neon",
	})
	if !r.IsError {
		t.Error("expected error for unknown preset")
	}
}

func TestResolveLink(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "resolve_link", map[string]interface{}{"url": "github.com/starford/laguz"})
	text := resultText(r)
	if !strings.Contains(text, `"domain": "github.com"`) {
		t.Errorf("resolve result missing domain: %s", text)
	}
	if !strings.Contains(text, `"type": "github"`) {
		t.Errorf("resolve result missing card type: %s", text)
	}
}
