package api

import "github.com/starford/laguz/internal/metadata"

// RenderRequest is the request body for normalizing markup.
type RenderRequest struct {
	Markup    string `json:"markup" validate:"required"`
	Highlight bool   `json:"highlight,omitempty"`
}

// RenderResponse carries the canonical markup, the parsed tree, and tree
// stats.
type RenderResponse struct {
	Markup      string    `json:"markup" validate:"required"`
	Highlighted string    `json:"highlighted,omitempty"`
	Tree        *TreeNode `json:"tree,omitempty"`
	NodeCount   int       `json:"nodeCount" example:"12" validate:"required"`
}

// TreeNode is the JSON projection of a parsed document node. Node
// identities are process-internal and never leave through this shape.
type TreeNode struct {
	Type    string            `json:"type"`
	Attrs   map[string]string `json:"attrs,omitempty"`
	Text    string            `json:"text,omitempty"`
	Marks   []TreeMark        `json:"marks,omitempty"`
	Content []TreeNode        `json:"content,omitempty"`
}

// TreeMark is the JSON projection of a mark on a text node.
type TreeMark struct {
	Type  string            `json:"type"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// MetadataRequest is the request body for resolving page metadata.
type MetadataRequest struct {
	URL string `json:"url" example:"https://example.com/article" validate:"required"`
}

// MetadataResponse is the resolved metadata (aliased from the domain
// layer).
type MetadataResponse = metadata.Meta

// GenerateRequest is the request body for AI generation. Either Preset or
// Instruction must be set.
type GenerateRequest struct {
	Preset      string `json:"preset,omitempty" example:"summarize"`
	Instruction string `json:"instruction,omitempty"`
	Context     string `json:"context,omitempty"`
}

// GenerateResponse carries the generated markup fragment.
type GenerateResponse struct {
	Content string `json:"content" validate:"required"`
}

// SchemaResponse lists the registered document vocabulary.
type SchemaResponse struct {
	Nodes []string `json:"nodes" validate:"required"`
	Marks []string `json:"marks" validate:"required"`
}

// DocumentListResponse lists the documents available for editing.
type DocumentListResponse struct {
	Documents []string `json:"documents" validate:"required"`
}

// DocumentResponse carries one document's serialized content.
type DocumentResponse struct {
	Name    string `json:"name" example:"meeting-notes" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// DocumentUpdateRequest replaces a document's content wholesale.
type DocumentUpdateRequest struct {
	Content string `json:"content" validate:"required"`
}

// DocumentUpdateResponse reports whether the update changed anything: an
// echo of the editor's own output is absorbed without an edit.
type DocumentUpdateResponse struct {
	Name    string `json:"name" validate:"required"`
	Changed bool   `json:"changed"`
	Content string `json:"content" validate:"required"`
}
