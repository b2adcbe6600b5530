package editor

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/schema"
)

func newTestContainer(t *testing.T, markup string) *Container {
	t.Helper()
	c := NewContainer(schema.Default(), nil)
	if markup != "" {
		if _, err := c.SetContent(markup); err != nil {
			t.Fatalf("SetContent(%q): %v", markup, err)
		}
	}
	return c
}

func firstChild(c *Container) *document.Node {
	return c.Dispatcher().Document().Root.Children[0]
}

func TestDispatch_SetAttrsNotifiesOnce(t *testing.T) {
	c := newTestContainer(t, "<p>hi</p>")
	para := firstChild(c)

	calls := 0
	c.Dispatcher().OnChange(func(*document.Document) { calls++ })

	if err := c.Dispatcher().Dispatch(SetAttrs{NodeID: para.ID, Attrs: schema.Attrs{"align": "center"}}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if calls != 1 {
		t.Errorf("listener calls = %d, want 1", calls)
	}
	if got := firstChild(c).Attrs.Get("align"); got != "center" {
		t.Errorf("align = %q, want center", got)
	}
}

func TestDispatch_SetAttrsEmptyValueRemoves(t *testing.T) {
	c := newTestContainer(t, `<p data-align style="text-align: right">x</p>`)
	para := firstChild(c)
	if err := c.Dispatcher().Dispatch(SetAttrs{NodeID: para.ID, Attrs: schema.Attrs{"align": ""}}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := firstChild(c).Attrs.Get("align"); got != "" {
		t.Errorf("align = %q, want removed", got)
	}
}

func TestDispatch_UnknownNodeFails(t *testing.T) {
	c := newTestContainer(t, "<p>hi</p>")
	err := c.Dispatcher().Dispatch(SetAttrs{NodeID: "nope", Attrs: schema.Attrs{"align": "left"}})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestBatch_IsAtomic(t *testing.T) {
	c := newTestContainer(t, "<p>one</p><p>two</p>")
	doc := c.Dispatcher().Document()
	a, b := doc.Root.Children[0], doc.Root.Children[1]

	calls := 0
	c.Dispatcher().OnChange(func(*document.Document) { calls++ })

	err := c.Dispatcher().Dispatch(Batch{Transactions: []Transaction{
		SetAttrs{NodeID: a.ID, Attrs: schema.Attrs{"align": "right"}},
		SetAttrs{NodeID: "missing", Attrs: schema.Attrs{"align": "right"}},
	}})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if calls != 0 {
		t.Errorf("listener calls after failed batch = %d, want 0", calls)
	}
	if got := firstChild(c).Attrs.Get("align"); got != "" {
		t.Errorf("first paragraph align = %q, want untouched", got)
	}
	_ = b
}

func TestBatch_OneUndoEntry(t *testing.T) {
	c := newTestContainer(t, "<p>one</p><p>two</p>")
	doc := c.Dispatcher().Document()
	a, b := doc.Root.Children[0], doc.Root.Children[1]

	err := c.Dispatcher().Dispatch(Batch{Transactions: []Transaction{
		SetAttrs{NodeID: a.ID, Attrs: schema.Attrs{"align": "right"}},
		SetAttrs{NodeID: b.ID, Attrs: schema.Attrs{"align": "right"}},
	}})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !c.Dispatcher().Undo() {
		t.Fatal("Undo returned false")
	}
	doc = c.Dispatcher().Document()
	for i, n := range doc.Root.Children[:2] {
		if n.Attrs.Get("align") != "" {
			t.Errorf("child %d align = %q after undo, want unset", i, n.Attrs.Get("align"))
		}
	}
	// One entry left: the initial content load.
	if !c.Dispatcher().Undo() {
		t.Fatal("undo of initial load failed")
	}
	if c.Dispatcher().Undo() {
		t.Error("third Undo succeeded, batch must be a single history entry")
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	c := newTestContainer(t, "<p>hi</p>")
	para := firstChild(c)
	if err := c.Dispatcher().Dispatch(SetNodeType{NodeID: para.ID, Type: schema.Heading, Attrs: schema.Attrs{"level": "2"}}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !c.Dispatcher().Undo() {
		t.Fatal("Undo returned false")
	}
	if got := firstChild(c).Type; got != schema.Paragraph {
		t.Errorf("type after undo = %s, want paragraph", got)
	}
	if !c.Dispatcher().Redo() {
		t.Fatal("Redo returned false")
	}
	if got := firstChild(c).Type; got != schema.Heading {
		t.Errorf("type after redo = %s, want heading", got)
	}
}

func TestDispatch_ClearsRedo(t *testing.T) {
	c := newTestContainer(t, "<p>hi</p>")
	para := firstChild(c)
	d := c.Dispatcher()
	if err := d.Dispatch(SetAttrs{NodeID: para.ID, Attrs: schema.Attrs{"align": "left"}}); err != nil {
		t.Fatal(err)
	}
	d.Undo()
	if err := d.Dispatch(SetAttrs{NodeID: para.ID, Attrs: schema.Attrs{"align": "right"}}); err != nil {
		t.Fatal(err)
	}
	if d.Redo() {
		t.Error("Redo succeeded after a fresh dispatch")
	}
}

func TestHistoryDepth_DropsOldest(t *testing.T) {
	c := newTestContainer(t, "")
	d := c.Dispatcher()
	d.SetHistoryDepth(2)
	para := firstChild(c)
	for _, align := range []string{"left", "center", "right"} {
		if err := d.Dispatch(SetAttrs{NodeID: para.ID, Attrs: schema.Attrs{"align": align}}); err != nil {
			t.Fatal(err)
		}
	}
	undos := 0
	for d.Undo() {
		undos++
	}
	if undos != 2 {
		t.Errorf("undo count = %d, want capped at 2", undos)
	}
}

func TestInsertDelete(t *testing.T) {
	c := newTestContainer(t, "<p>one</p>")
	d := c.Dispatcher()
	root := d.Document().Root
	hr := document.NewNode(schema.HorizontalRule, nil)
	if err := d.Dispatch(InsertNode{ParentID: root.ID, Index: 1, Node: hr}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := d.Document().Root.Children[1].Type; got != schema.HorizontalRule {
		t.Fatalf("child 1 = %s, want horizontalRule", got)
	}
	if err := d.Dispatch(DeleteNode{NodeID: hr.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, n := range d.Document().Root.Children {
		if n.Type == schema.HorizontalRule {
			t.Error("horizontal rule still present after delete")
		}
	}
}

func TestContainer_EchoSuppressed(t *testing.T) {
	c := newTestContainer(t, "<p>hello</p>")

	var emitted []string
	c.OnContent(func(markup string) { emitted = append(emitted, markup) })

	para := firstChild(c)
	if err := c.Dispatcher().Dispatch(SetAttrs{NodeID: para.ID, Attrs: schema.Attrs{"align": "center"}}); err != nil {
		t.Fatal(err)
	}
	if len(emitted) != 1 {
		t.Fatalf("emissions = %d, want 1", len(emitted))
	}

	changed, err := c.SetContent(emitted[0])
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("echo of own output reported as a change")
	}
	if len(emitted) != 1 {
		t.Errorf("emissions after echo = %d, want still 1", len(emitted))
	}

	changed, err = c.SetContent("<p>from outside</p>")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("genuinely new content reported as no change")
	}
}

func TestContainer_TrailingParagraphAfterTable(t *testing.T) {
	c := newTestContainer(t, "<table><tr><td><p>x</p></td></tr></table>")
	children := c.Dispatcher().Document().Root.Children
	last := children[len(children)-1]
	if last.Type != schema.Paragraph {
		t.Errorf("last child = %s, want appended paragraph", last.Type)
	}
	if !strings.HasSuffix(c.Content(), "<p></p>") {
		t.Errorf("content %q does not end with empty paragraph", c.Content())
	}
}

func TestContainer_TrailingParagraphAfterHeading(t *testing.T) {
	c := newTestContainer(t, "<h2>title</h2>")
	children := c.Dispatcher().Document().Root.Children
	last := children[len(children)-1]
	if last.Type != schema.Paragraph {
		t.Errorf("last child = %s, want appended paragraph", last.Type)
	}
	if !strings.HasSuffix(c.Content(), "<p></p>") {
		t.Errorf("content %q does not end with empty paragraph", c.Content())
	}
}

func TestViewState_PrunedOnDelete(t *testing.T) {
	c := newTestContainer(t, "<p>one</p><p>two</p>")
	para := firstChild(c)
	c.View().Set(para.ID, "selected", true)

	if err := c.Dispatcher().Dispatch(DeleteNode{NodeID: para.ID}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.View().Get(para.ID, "selected"); ok {
		t.Error("view state survived node deletion")
	}
}

func TestViewState_NeverSerialized(t *testing.T) {
	c := newTestContainer(t, "<p>one</p>")
	c.View().Set(firstChild(c).ID, "resizing", true)
	if strings.Contains(c.Content(), "resizing") {
		t.Errorf("view state leaked into markup: %q", c.Content())
	}
}
