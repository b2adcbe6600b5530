package editor

import (
	"log/slog"
	"sync"

	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/schema"
)

// DefaultHistoryDepth bounds the undo stack.
const DefaultHistoryDepth = 100

// ChangeListener observes the document after every successful dispatch,
// including undo and redo. It is called exactly once per logical edit.
type ChangeListener func(d *document.Document)

// Dispatcher owns the live document and applies transactions to it. Every
// successful dispatch pushes one undo entry; a Batch counts as one. Failed
// transactions leave the document and the history untouched.
type Dispatcher struct {
	mu        sync.Mutex
	reg       *schema.Registry
	doc       *document.Document
	undo      []*document.Document
	redo      []*document.Document
	depth     int
	listeners []ChangeListener
	log       *slog.Logger
}

// NewDispatcher creates a dispatcher over the given document.
func NewDispatcher(doc *document.Document, reg *schema.Registry, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{reg: reg, doc: doc, depth: DefaultHistoryDepth, log: log}
}

// SetHistoryDepth bounds the undo stack; entries beyond it are discarded
// oldest first. A depth below one disables history.
func (dp *Dispatcher) SetHistoryDepth(depth int) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.depth = depth
}

// OnChange registers a listener for successful edits.
func (dp *Dispatcher) OnChange(fn ChangeListener) {
	dp.mu.Lock()
	dp.listeners = append(dp.listeners, fn)
	dp.mu.Unlock()
}

// Document returns a snapshot of the current document. Callers must not
// mutate it; edits go through Dispatch.
func (dp *Dispatcher) Document() *document.Document {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.doc
}

// Dispatch applies one transaction. The edit is applied to a clone first,
// so a mid-batch failure never leaves a half-applied document behind.
func (dp *Dispatcher) Dispatch(tx Transaction) error {
	dp.mu.Lock()
	next := dp.doc.Clone()
	if err := tx.apply(next, dp.reg); err != nil {
		dp.mu.Unlock()
		dp.log.Debug("transaction rejected", "error", err)
		return err
	}
	dp.pushUndo(dp.doc)
	dp.redo = nil
	dp.doc = next
	listeners, doc := dp.listeners, dp.doc
	dp.mu.Unlock()

	for _, fn := range listeners {
		fn(doc)
	}
	return nil
}

// Undo restores the document to the state before the most recent dispatch.
// Reports whether there was anything to undo.
func (dp *Dispatcher) Undo() bool {
	dp.mu.Lock()
	if len(dp.undo) == 0 {
		dp.mu.Unlock()
		return false
	}
	prev := dp.undo[len(dp.undo)-1]
	dp.undo = dp.undo[:len(dp.undo)-1]
	dp.redo = append(dp.redo, dp.doc)
	dp.doc = prev
	listeners, doc := dp.listeners, dp.doc
	dp.mu.Unlock()

	for _, fn := range listeners {
		fn(doc)
	}
	return true
}

// Redo reverses the most recent Undo.
func (dp *Dispatcher) Redo() bool {
	dp.mu.Lock()
	if len(dp.redo) == 0 {
		dp.mu.Unlock()
		return false
	}
	next := dp.redo[len(dp.redo)-1]
	dp.redo = dp.redo[:len(dp.redo)-1]
	dp.undo = append(dp.undo, dp.doc)
	dp.doc = next
	listeners, doc := dp.listeners, dp.doc
	dp.mu.Unlock()

	for _, fn := range listeners {
		fn(doc)
	}
	return true
}

// CanUndo reports whether the undo stack is non-empty.
func (dp *Dispatcher) CanUndo() bool {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return len(dp.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (dp *Dispatcher) CanRedo() bool {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return len(dp.redo) > 0
}

func (dp *Dispatcher) pushUndo(snapshot *document.Document) {
	if dp.depth < 1 {
		return
	}
	dp.undo = append(dp.undo, snapshot)
	if len(dp.undo) > dp.depth {
		dp.undo = dp.undo[len(dp.undo)-dp.depth:]
	}
}
