package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/laguz/internal/assist"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/metadata"
	"github.com/starford/laguz/internal/schema"
)

// Service backs the HTTP handlers: markup normalization, page metadata,
// and AI generation.
type Service struct {
	reg      *schema.Registry
	meta     metadata.Source
	assister *assist.Client
	log      *slog.Logger
}

// NewService creates the API service. assister may be nil when no
// generation backend is configured.
func NewService(reg *schema.Registry, meta metadata.Source, assister *assist.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{reg: reg, meta: meta, assister: assister, log: log}
}

// RenderResult is the outcome of running markup through the codec.
type RenderResult struct {
	Markup      string
	Highlighted string
	Tree        TreeNode
	NodeCount   int
}

// Render parses markup and serializes it back, yielding the canonical
// form. With highlighting on, a preview rendition with colored code
// blocks is included as well.
func (s *Service) Render(markup string, highlight bool) (RenderResult, error) {
	doc, err := document.Parse(markup, s.reg)
	if err != nil {
		return RenderResult{}, fmt.Errorf("parse markup: %w", err)
	}

	count := 0
	document.Walk(doc.Root, func(n *document.Node) document.WalkStatus {
		count++
		return document.WalkContinue
	})

	res := RenderResult{
		Markup:    document.Serialize(doc, s.reg),
		Tree:      treeNode(doc.Root),
		NodeCount: count,
	}
	if highlight {
		res.Highlighted = document.NewSerializer(s.reg, document.Options{HighlightCode: true}).Serialize(doc)
	}
	return res, nil
}

func treeNode(n *document.Node) TreeNode {
	out := TreeNode{Type: string(n.Type), Text: n.Text}
	if len(n.Attrs) > 0 {
		out.Attrs = map[string]string(n.Attrs)
	}
	for _, m := range n.Marks {
		tm := TreeMark{Type: string(m.Type)}
		if len(m.Attrs) > 0 {
			tm.Attrs = map[string]string(m.Attrs)
		}
		out.Marks = append(out.Marks, tm)
	}
	for _, c := range n.Children {
		out.Content = append(out.Content, treeNode(c))
	}
	return out
}

// Metadata resolves page metadata for a URL.
func (s *Service) Metadata(ctx context.Context, rawURL string) (metadata.Meta, error) {
	return s.meta.Resolve(ctx, rawURL)
}

// Generate builds a prompt from the request and asks the backend for a
// markup fragment, then normalizes the fragment through the codec so only
// registered markup reaches the caller.
func (s *Service) Generate(ctx context.Context, preset, instruction, contextText string) (string, error) {
	var builder *assist.PromptBuilder
	if preset != "" {
		b, err := assist.NewPresetPrompt(preset)
		if err != nil {
			return "", err
		}
		builder = b
	} else {
		builder = assist.NewPrompt(instruction)
	}

	fragment, err := s.assister.Generate(ctx, builder.WithContext(contextText).Build())
	if err != nil {
		return "", err
	}

	doc, err := document.Parse(fragment, s.reg)
	if err != nil {
		return "", fmt.Errorf("generated fragment unparseable: %w", err)
	}
	return document.Serialize(doc, s.reg), nil
}

// AssistEnabled reports whether a generation backend is configured.
func (s *Service) AssistEnabled() bool {
	return s.assister != nil
}

// SchemaInfo describes the registered document vocabulary.
type SchemaInfo struct {
	Nodes []string
	Marks []string
}

// Schema returns the registered node and mark types.
func (s *Service) Schema() SchemaInfo {
	nodes := s.reg.NodeTypes()
	marks := s.reg.MarkTypes()
	info := SchemaInfo{
		Nodes: make([]string, len(nodes)),
		Marks: make([]string, len(marks)),
	}
	for i, n := range nodes {
		info.Nodes[i] = string(n)
	}
	for i, m := range marks {
		info.Marks[i] = string(m)
	}
	return info
}
