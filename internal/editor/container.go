package editor

import (
	"log/slog"
	"sync"

	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/schema"
)

// ContentListener observes the serialized document after each logical edit.
type ContentListener func(markup string)

// Container binds a dispatcher to an embedding application. Inbound, it
// accepts wholesale content replacement through SetContent; outbound, it
// emits the serialized document once per logical edit. A SetContent whose
// markup equals the last emitted string is treated as the container's own
// output echoing back and is ignored, which breaks the feedback loop that
// binding content both ways would otherwise create.
type Container struct {
	mu          sync.Mutex
	dispatcher  *Dispatcher
	reg         *schema.Registry
	view        *ViewState
	lastEmitted string
	listeners   []ContentListener
	log         *slog.Logger
}

// NewContainer creates a container over a fresh single-paragraph document.
func NewContainer(reg *schema.Registry, log *slog.Logger) *Container {
	if log == nil {
		log = slog.Default()
	}
	c := &Container{
		reg:  reg,
		view: NewViewState(),
		log:  log,
	}
	c.dispatcher = NewDispatcher(document.New(), reg, log)
	c.dispatcher.OnChange(c.afterEdit)
	return c
}

// Dispatcher exposes the editing entry point.
func (c *Container) Dispatcher() *Dispatcher { return c.dispatcher }

// View exposes the transient per-node state table.
func (c *Container) View() *ViewState { return c.view }

// OnContent registers a listener for outbound content.
func (c *Container) OnContent(fn ContentListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Content returns the current serialized document.
func (c *Container) Content() string {
	return document.Serialize(c.dispatcher.Document(), c.reg)
}

// SetContent replaces the document wholesale from external markup. It
// reports whether the document changed; an echo of the container's own last
// output is a no-op. Replacement goes through the dispatcher, so it is
// undoable like any other edit.
func (c *Container) SetContent(markup string) (bool, error) {
	c.mu.Lock()
	if markup == c.lastEmitted {
		c.mu.Unlock()
		c.log.Debug("content echo suppressed")
		return false, nil
	}
	c.mu.Unlock()

	doc, err := document.Parse(markup, c.reg)
	if err != nil {
		return false, err
	}
	if err := c.dispatcher.Dispatch(ReplaceDocument{Root: doc.Root}); err != nil {
		return false, err
	}
	return true, nil
}

// afterEdit runs once per successful dispatch: it keeps the document
// endable (a trailing paragraph after a final atom or table block), prunes
// stale view state, and emits the new content.
func (c *Container) afterEdit(d *document.Document) {
	ensureTrailingParagraph(d)
	c.view.Prune(d.IDs())

	out := document.Serialize(d, c.reg)
	c.mu.Lock()
	c.lastEmitted = out
	listeners := c.listeners
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(out)
	}
}

// ensureTrailingParagraph appends an empty paragraph whenever the document
// does not end in one, so there is always somewhere to keep typing.
func ensureTrailingParagraph(d *document.Document) {
	children := d.Root.Children
	if len(children) > 0 && children[len(children)-1].Type == schema.Paragraph {
		return
	}
	d.Root.Append(document.NewNode(schema.Paragraph, nil))
}
