package nodeview

import (
	"fmt"
	"sync"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/editor"
	"github.com/starford/laguz/internal/schema"
)

// ImmediateEditor writes an attribute through to the document on every
// keystroke. Used for low-stakes fields like an image's alt text, where
// each edit is cheap and undo granularity does not matter.
type ImmediateEditor struct {
	dispatcher *editor.Dispatcher
	nodeID     string
}

// NewImmediateEditor binds an editor to a node.
func NewImmediateEditor(d *editor.Dispatcher, nodeID string) *ImmediateEditor {
	return &ImmediateEditor{dispatcher: d, nodeID: nodeID}
}

// Set writes one attribute value immediately.
func (e *ImmediateEditor) Set(attr, value string) error {
	return e.dispatcher.Dispatch(editor.SetAttrs{
		NodeID: e.nodeID,
		Attrs:  schema.Attrs{attr: value},
	})
}

// GatedEditor stages attribute edits and writes them only on Save, as one
// transaction. Used for fields where a half-typed value must never reach
// the document, like an audio or video source URL and its dimensions.
// Cancel throws the staged values away; the fields fall back to the
// snapshot taken when the editor opened.
type GatedEditor struct {
	mu         sync.Mutex
	dispatcher *editor.Dispatcher
	nodeID     string
	open       bool
	snapshot   schema.Attrs
	staged     schema.Attrs
}

// NewGatedEditor binds a staged editor to a node.
func NewGatedEditor(d *editor.Dispatcher, nodeID string) *GatedEditor {
	return &GatedEditor{dispatcher: d, nodeID: nodeID}
}

// Open snapshots the node's current attributes and starts staging.
// Reopening an already open editor discards any staged edits.
func (e *GatedEditor) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.dispatcher.Document().FindByID(e.nodeID)
	if n == nil {
		return fmt.Errorf("editor open: %w", apperr.ErrNotFound)
	}
	e.snapshot = n.Attrs.Clone()
	e.staged = schema.Attrs{}
	e.open = true
	return nil
}

// Set stages one attribute value. No document write happens until Save.
func (e *GatedEditor) Set(attr, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return fmt.Errorf("editor set before open: %w", apperr.ErrInvalidAttrs)
	}
	e.staged[attr] = value
	return nil
}

// Value returns the field value as currently displayed: the staged edit if
// one exists, otherwise the snapshot.
func (e *GatedEditor) Value(attr string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.staged[attr]; ok {
		return v
	}
	return e.snapshot.Get(attr)
}

// Save writes all staged values as a single edit and closes the editor.
// Saving with nothing staged closes without touching the document.
func (e *GatedEditor) Save() error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return nil
	}
	staged := e.staged
	e.open = false
	e.snapshot, e.staged = nil, nil
	e.mu.Unlock()

	if len(staged) == 0 {
		return nil
	}
	return e.dispatcher.Dispatch(editor.SetAttrs{NodeID: e.nodeID, Attrs: staged})
}

// Cancel discards staged edits and closes the editor. The document was
// never written, so there is nothing to roll back.
func (e *GatedEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	e.snapshot, e.staged = nil, nil
}
