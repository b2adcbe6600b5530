package nodeview

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/editor"
	"github.com/starford/laguz/internal/metadata"
	"github.com/starford/laguz/internal/schema"
)

// LinkCardResolver turns a pasted URL into a link card node. Metadata
// sources are consulted in order until one produces both a title and a
// description; whatever is still missing afterwards falls back to the
// hostname. Each new input supersedes the one before it: a resolution
// still in flight when the user types a new URL is discarded when it
// lands.
type LinkCardResolver struct {
	dispatcher *editor.Dispatcher
	reg        *schema.Registry
	sources    []metadata.Source

	token   atomic.Int64
	mu      sync.Mutex
	pending int
}

// NewLinkCardResolver creates a resolver consulting the given sources in
// order.
func NewLinkCardResolver(d *editor.Dispatcher, reg *schema.Registry, sources ...metadata.Source) *LinkCardResolver {
	return &LinkCardResolver{dispatcher: d, reg: reg, sources: sources}
}

// Pending reports whether a resolution is in flight. The insertion UI
// stays disabled while it is.
func (r *LinkCardResolver) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending > 0
}

// Resolve normalizes the URL and walks the source chain. Source errors are
// skipped, not fatal; a URL no source can describe still yields a card
// built from its hostname.
func (r *LinkCardResolver) Resolve(ctx context.Context, rawURL string) (metadata.Meta, error) {
	normalized, err := metadata.Normalize(rawURL)
	if err != nil {
		return metadata.Meta{}, fmt.Errorf("link card url: %v: %w", err, apperr.ErrInvalidAttrs)
	}

	var meta metadata.Meta
	for _, src := range r.sources {
		m, err := src.Resolve(ctx, normalized)
		if err != nil {
			continue
		}
		meta = merge(meta, m)
		if meta.Complete() {
			break
		}
	}
	return metadata.Fill(meta, normalized), nil
}

// Insert resolves the URL and inserts a link card after the given block.
// Returns false when the result was superseded by a newer input and
// nothing was inserted.
func (r *LinkCardResolver) Insert(ctx context.Context, afterNodeID, rawURL string) (bool, error) {
	token := r.token.Add(1)
	r.mu.Lock()
	r.pending++
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.pending--
		r.mu.Unlock()
	}()

	meta, err := r.Resolve(ctx, rawURL)
	if err != nil {
		return false, err
	}
	if r.token.Load() != token {
		return false, nil
	}

	doc := r.dispatcher.Document()
	parent, idx := doc.Parent(afterNodeID)
	if parent == nil {
		return false, fmt.Errorf("link card insert after %s: %w", afterNodeID, apperr.ErrNotFound)
	}
	attrs, err := r.reg.FillDefaults(schema.LinkCard, cardAttrs(meta))
	if err != nil {
		return false, err
	}
	node := document.NewNode(schema.LinkCard, attrs)
	if err := r.dispatcher.Dispatch(editor.InsertNode{ParentID: parent.ID, Index: idx + 1, Node: node}); err != nil {
		return false, err
	}
	return true, nil
}

func cardAttrs(m metadata.Meta) schema.Attrs {
	attrs := schema.Attrs{"href": m.URL}
	set := func(k, v string) {
		if v != "" {
			attrs[k] = v
		}
	}
	set("title", m.Title)
	set("description", m.Description)
	set("image", m.Image)
	set("siteName", m.SiteName)
	set("domain", m.Domain)
	set("type", m.Type)
	return attrs
}

// merge fills empty fields of a with values from b, keeping earlier
// sources authoritative.
func merge(a, b metadata.Meta) metadata.Meta {
	if a.Title == "" {
		a.Title = b.Title
	}
	if a.Description == "" {
		a.Description = b.Description
	}
	if a.Image == "" {
		a.Image = b.Image
	}
	if a.SiteName == "" {
		a.SiteName = b.SiteName
	}
	if a.Domain == "" {
		a.Domain = b.Domain
	}
	if a.Type == "" {
		a.Type = b.Type
	}
	return a
}
