// Package toolbar implements the command layer driving the editing UI:
// mark toggles, block conversions, list nesting, and media insertion. Every
// command resolves its effect against the current document, dispatches
// transactions, and is a silent no-op where it does not apply.
package toolbar

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/editor"
	"github.com/starford/laguz/internal/schema"
)

// MaxListDepth bounds list nesting; Indent beyond it is a no-op.
const MaxListDepth = 6

// Toolbar issues editing commands against a dispatcher. The node identity
// passed to each command is the block (or anything inside the block) the
// caret is in.
type Toolbar struct {
	d   *editor.Dispatcher
	reg *schema.Registry
}

// New creates a toolbar bound to the dispatcher.
func New(d *editor.Dispatcher, reg *schema.Registry) *Toolbar {
	return &Toolbar{d: d, reg: reg}
}

// ToggleMark applies the mark to the block's text when any of it lacks the
// mark, and removes it when the whole block already carries it.
func (t *Toolbar) ToggleMark(nodeID string, mark schema.MarkType, attrs schema.Attrs) error {
	if t.IsMarkActive(nodeID, mark) {
		return t.d.Dispatch(editor.RemoveMark{NodeID: nodeID, Type: mark})
	}
	return t.d.Dispatch(editor.AddMark{NodeID: nodeID, Mark: document.Mark{Type: mark, Attrs: attrs.Clone()}})
}

// SetColor sets the text color on the block, or clears it when color is
// empty.
func (t *Toolbar) SetColor(nodeID, color string) error {
	if color == "" {
		return t.d.Dispatch(editor.RemoveMark{NodeID: nodeID, Type: schema.TextStyle})
	}
	return t.d.Dispatch(editor.AddMark{NodeID: nodeID, Mark: document.Mark{
		Type: schema.TextStyle, Attrs: schema.Attrs{"color": color},
	}})
}

// SetHighlight sets the highlight color on the block, or clears it.
func (t *Toolbar) SetHighlight(nodeID, color string) error {
	if color == "" {
		return t.d.Dispatch(editor.RemoveMark{NodeID: nodeID, Type: schema.Highlight})
	}
	return t.d.Dispatch(editor.AddMark{NodeID: nodeID, Mark: document.Mark{
		Type: schema.Highlight, Attrs: schema.Attrs{"color": color},
	}})
}

// IsMarkActive reports whether every text node in the block carries the
// mark. A block with no text is never active.
func (t *Toolbar) IsMarkActive(nodeID string, mark schema.MarkType) bool {
	n := t.d.Document().FindByID(nodeID)
	if n == nil {
		return false
	}
	texts := 0
	active := true
	document.Walk(n, func(c *document.Node) document.WalkStatus {
		if c.Type == schema.Text {
			texts++
			if !c.HasMark(mark) {
				active = false
				return document.WalkStop
			}
		}
		return document.WalkContinue
	})
	return texts > 0 && active
}

// ToggleHeading converts the block to a heading of the given level. A
// heading already at that level reverts to a paragraph; a heading at a
// different level moves to the new level.
func (t *Toolbar) ToggleHeading(nodeID string, level int) error {
	block := t.block(nodeID)
	if block == nil {
		return fmt.Errorf("toggle heading: %w", apperr.ErrNotFound)
	}
	if block.Type == schema.Heading && block.Attrs.Get("level") == strconv.Itoa(level) {
		return t.d.Dispatch(editor.SetNodeType{NodeID: block.ID, Type: schema.Paragraph})
	}
	return t.d.Dispatch(editor.SetNodeType{
		NodeID: block.ID, Type: schema.Heading,
		Attrs: schema.Attrs{"level": strconv.Itoa(level)},
	})
}

// ToggleBlockquote wraps the block in a blockquote, or unwraps it when the
// block already sits directly inside one.
func (t *Toolbar) ToggleBlockquote(nodeID string) error {
	doc := t.d.Document()
	block := t.block(nodeID)
	if block == nil {
		return fmt.Errorf("toggle blockquote: %w", apperr.ErrNotFound)
	}
	parent, idx := doc.Parent(block.ID)
	if parent != nil && parent.Type == schema.Blockquote {
		return t.unwrap(doc, parent)
	}
	// The clone inside the wrapper keeps the block's identity, so the
	// original must be gone before the wrapper lands.
	wrapper := document.NewNode(schema.Blockquote, nil).Append(block.Clone())
	return t.d.Dispatch(editor.Batch{Transactions: []editor.Transaction{
		editor.DeleteNode{NodeID: block.ID},
		editor.InsertNode{ParentID: parent.ID, Index: idx, Node: wrapper},
	}})
}

// ToggleCodeBlock converts the block to a code block carrying its plain
// text, or back to a paragraph.
func (t *Toolbar) ToggleCodeBlock(nodeID, language string) error {
	block := t.block(nodeID)
	if block == nil {
		return fmt.Errorf("toggle code block: %w", apperr.ErrNotFound)
	}
	if block.Type == schema.CodeBlock {
		text := block.TextContent()
		return t.d.Dispatch(editor.Batch{Transactions: []editor.Transaction{
			editor.SetNodeType{NodeID: block.ID, Type: schema.Paragraph},
			editor.ReplaceChildren{NodeID: block.ID, Children: textChildren(text)},
		}})
	}
	attrs := schema.Attrs{}
	if language != "" {
		attrs["language"] = language
	}
	return t.d.Dispatch(editor.Batch{Transactions: []editor.Transaction{
		editor.SetNodeType{NodeID: block.ID, Type: schema.CodeBlock, Attrs: attrs},
		editor.ReplaceChildren{NodeID: block.ID, Children: textChildren(block.TextContent())},
	}})
}

// ToggleList wraps the block in a list of the given type, converts a list
// of the other type in place, or unwraps when the block is already in a
// list of that type.
func (t *Toolbar) ToggleList(nodeID string, listType schema.NodeType) error {
	if listType != schema.BulletList && listType != schema.OrderedList {
		return fmt.Errorf("toggle list %q: %w", listType, apperr.ErrInvalidAttrs)
	}
	doc := t.d.Document()
	block := t.block(nodeID)
	if block == nil {
		return fmt.Errorf("toggle list: %w", apperr.ErrNotFound)
	}
	if item, list := enclosingListItem(doc, block.ID); item != nil {
		if list.Type == listType {
			return t.d.Dispatch(editor.Batch{Transactions: []editor.Transaction{
				t.liftOutOfList(doc, item, list),
			}})
		}
		return t.d.Dispatch(editor.SetNodeType{NodeID: list.ID, Type: listType})
	}
	parent, idx := doc.Parent(block.ID)
	if parent == nil {
		return fmt.Errorf("toggle list: %w", apperr.ErrNotFound)
	}
	list := document.NewNode(listType, nil).
		Append(document.NewNode(schema.ListItem, nil).Append(block.Clone()))
	return t.d.Dispatch(editor.Batch{Transactions: []editor.Transaction{
		editor.DeleteNode{NodeID: block.ID},
		editor.InsertNode{ParentID: parent.ID, Index: idx, Node: list},
	}})
}

// Indent nests the list item under its preceding sibling. The first item of
// a list has nothing to nest under, and nesting past MaxListDepth is
// refused; both are silent no-ops.
func (t *Toolbar) Indent(nodeID string) error {
	doc := t.d.Document()
	block := t.block(nodeID)
	if block == nil {
		return fmt.Errorf("indent: %w", apperr.ErrNotFound)
	}
	item, list := enclosingListItem(doc, block.ID)
	if item == nil {
		return nil
	}
	_, idx := doc.Parent(item.ID)
	if idx == 0 {
		return nil
	}
	if listDepth(doc, item.ID) >= MaxListDepth {
		return nil
	}
	prev := list.Children[idx-1]
	sub := document.NewNode(list.Type, nil).Append(item.Clone())
	return t.d.Dispatch(editor.Batch{Transactions: []editor.Transaction{
		editor.DeleteNode{NodeID: item.ID},
		editor.InsertNode{ParentID: prev.ID, Index: len(prev.Children), Node: sub},
	}})
}

// Outdent lifts the list item one level: out of a nested list into the
// parent item's list, or out of a top-level list entirely.
func (t *Toolbar) Outdent(nodeID string) error {
	doc := t.d.Document()
	block := t.block(nodeID)
	if block == nil {
		return fmt.Errorf("outdent: %w", apperr.ErrNotFound)
	}
	item, list := enclosingListItem(doc, block.ID)
	if item == nil {
		return nil
	}
	listParent, _ := doc.Parent(list.ID)
	if listParent != nil && listParent.Type == schema.ListItem {
		outerList, outerIdx := doc.Parent(listParent.ID)
		moved := item.Clone()
		txs := []editor.Transaction{
			editor.DeleteNode{NodeID: item.ID},
			editor.InsertNode{ParentID: outerList.ID, Index: outerIdx + 1, Node: moved},
		}
		if len(list.Children) == 1 {
			txs = append(txs, editor.DeleteNode{NodeID: list.ID})
		}
		return t.d.Dispatch(editor.Batch{Transactions: txs})
	}
	return t.d.Dispatch(editor.Batch{Transactions: []editor.Transaction{
		t.liftOutOfList(doc, item, list),
	}})
}

// SetTextAlign sets the alignment attribute on the block.
func (t *Toolbar) SetTextAlign(nodeID, align string) error {
	block := t.block(nodeID)
	if block == nil {
		return fmt.Errorf("set text align: %w", apperr.ErrNotFound)
	}
	return t.d.Dispatch(editor.SetAttrs{NodeID: block.ID, Attrs: schema.Attrs{"align": align}})
}

// SetLink applies a link mark over the block's text.
func (t *Toolbar) SetLink(nodeID, href, target string) error {
	if err := validation.Validate(href, validation.Required, is.RequestURI); err != nil {
		return fmt.Errorf("set link: %v: %w", err, apperr.ErrInvalidAttrs)
	}
	attrs := schema.Attrs{"href": href}
	if target != "" {
		attrs["target"] = target
	}
	return t.d.Dispatch(editor.AddMark{NodeID: nodeID, Mark: document.Mark{Type: schema.LinkMark, Attrs: attrs}})
}

// RemoveLink strips link marks from the block. Outside a link it is a
// no-op: removal dispatches nothing when no text carries the mark.
func (t *Toolbar) RemoveLink(nodeID string) error {
	n := t.d.Document().FindByID(nodeID)
	if n == nil {
		return fmt.Errorf("remove link: %w", apperr.ErrNotFound)
	}
	linked := false
	document.Walk(n, func(c *document.Node) document.WalkStatus {
		if c.Type == schema.Text && c.HasMark(schema.LinkMark) {
			linked = true
			return document.WalkStop
		}
		return document.WalkContinue
	})
	if !linked {
		return nil
	}
	return t.d.Dispatch(editor.RemoveMark{NodeID: nodeID, Type: schema.LinkMark})
}

// InsertHorizontalRule inserts a rule after the block.
func (t *Toolbar) InsertHorizontalRule(nodeID string) error {
	return t.insertAfter(nodeID, document.NewNode(schema.HorizontalRule, nil))
}

// InsertImage inserts an image node after the block.
func (t *Toolbar) InsertImage(nodeID string, attrs schema.Attrs) error {
	if err := validation.Validate(attrs.Get("src"), validation.Required); err != nil {
		return fmt.Errorf("insert image: %v: %w", err, apperr.ErrInvalidAttrs)
	}
	return t.insertAtom(nodeID, schema.Image, attrs)
}

// InsertVideo inserts a video node after the block.
func (t *Toolbar) InsertVideo(nodeID string, attrs schema.Attrs) error {
	if err := validation.Validate(attrs.Get("src"), validation.Required); err != nil {
		return fmt.Errorf("insert video: %v: %w", err, apperr.ErrInvalidAttrs)
	}
	return t.insertAtom(nodeID, schema.Video, attrs)
}

// InsertAudio inserts an audio node after the block.
func (t *Toolbar) InsertAudio(nodeID string, attrs schema.Attrs) error {
	if err := validation.Validate(attrs.Get("src"), validation.Required); err != nil {
		return fmt.Errorf("insert audio: %v: %w", err, apperr.ErrInvalidAttrs)
	}
	return t.insertAtom(nodeID, schema.Audio, attrs)
}

// InsertLinkCard inserts a link card after the block.
func (t *Toolbar) InsertLinkCard(nodeID string, attrs schema.Attrs) error {
	if err := validation.Validate(attrs.Get("href"), validation.Required, is.RequestURI); err != nil {
		return fmt.Errorf("insert link card: %v: %w", err, apperr.ErrInvalidAttrs)
	}
	return t.insertAtom(nodeID, schema.LinkCard, attrs)
}

// InsertTable inserts an empty rows x cols table after the block.
func (t *Toolbar) InsertTable(nodeID string, rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("insert table %dx%d: %w", rows, cols, apperr.ErrInvalidAttrs)
	}
	tbl := document.NewNode(schema.Table, nil)
	for r := 0; r < rows; r++ {
		row := document.NewNode(schema.TableRow, nil)
		for c := 0; c < cols; c++ {
			cellType := schema.TableCell
			if r == 0 {
				cellType = schema.TableHeader
			}
			row.Append(document.NewNode(cellType, nil).
				Append(document.NewNode(schema.Paragraph, nil)))
		}
		tbl.Append(row)
	}
	return t.insertAfter(nodeID, tbl)
}

func (t *Toolbar) insertAtom(nodeID string, nodeType schema.NodeType, attrs schema.Attrs) error {
	filled, err := t.reg.FillDefaults(nodeType, attrs)
	if err != nil {
		return err
	}
	return t.insertAfter(nodeID, document.NewNode(nodeType, filled))
}

func (t *Toolbar) insertAfter(nodeID string, node *document.Node) error {
	doc := t.d.Document()
	block := t.block(nodeID)
	if block == nil {
		return fmt.Errorf("insert %s: %w", node.Type, apperr.ErrNotFound)
	}
	parent, idx := doc.Parent(block.ID)
	if parent == nil {
		return fmt.Errorf("insert %s: %w", node.Type, apperr.ErrNotFound)
	}
	return t.d.Dispatch(editor.InsertNode{ParentID: parent.ID, Index: idx + 1, Node: node})
}

// block resolves a node identity to the top-level-ish block it belongs to:
// the nearest ancestor that is a direct child of the doc, a list item, a
// blockquote, or a table cell.
func (t *Toolbar) block(nodeID string) *document.Node {
	doc := t.d.Document()
	n := doc.FindByID(nodeID)
	if n == nil {
		return nil
	}
	chain := append([]*document.Node{n}, doc.Ancestors(nodeID)...)
	for i, a := range chain {
		if i+1 >= len(chain) {
			return nil
		}
		switch chain[i+1].Type {
		case schema.Doc, schema.ListItem, schema.Blockquote, schema.TableCell, schema.TableHeader:
			return a
		}
	}
	return nil
}

// unwrap replaces a wrapper with its children.
func (t *Toolbar) unwrap(doc *document.Document, wrapper *document.Node) error {
	parent, idx := doc.Parent(wrapper.ID)
	if parent == nil {
		return fmt.Errorf("unwrap %s: %w", wrapper.Type, apperr.ErrNotFound)
	}
	txs := []editor.Transaction{editor.DeleteNode{NodeID: wrapper.ID}}
	for i, c := range wrapper.Children {
		txs = append(txs, editor.InsertNode{ParentID: parent.ID, Index: idx + i, Node: c.Clone()})
	}
	return t.d.Dispatch(editor.Batch{Transactions: txs})
}

// liftOutOfList builds the transaction moving a list item's blocks out to
// where the list sits. A list left empty is removed.
func (t *Toolbar) liftOutOfList(doc *document.Document, item, list *document.Node) editor.Transaction {
	listParent, listIdx := doc.Parent(list.ID)
	txs := []editor.Transaction{}
	for i, c := range item.Children {
		txs = append(txs, editor.InsertNode{ParentID: listParent.ID, Index: listIdx + 1 + i, Node: c.Clone()})
	}
	txs = append(txs, editor.DeleteNode{NodeID: item.ID})
	if len(list.Children) == 1 {
		txs = append(txs, editor.DeleteNode{NodeID: list.ID})
	}
	return editor.Batch{Transactions: txs}
}

func textChildren(text string) []*document.Node {
	if text == "" {
		return nil
	}
	return []*document.Node{document.NewText(text)}
}

func enclosingListItem(doc *document.Document, id string) (item, list *document.Node) {
	chain := doc.Ancestors(id)
	for i, a := range chain {
		if a.Type == schema.ListItem && i+1 < len(chain) {
			switch chain[i+1].Type {
			case schema.BulletList, schema.OrderedList:
				return a, chain[i+1]
			}
		}
	}
	return nil, nil
}

// listDepth counts how many list items enclose the given item, itself
// included.
func listDepth(doc *document.Document, itemID string) int {
	depth := 1
	for _, a := range doc.Ancestors(itemID) {
		if a.Type == schema.ListItem {
			depth++
		}
	}
	return depth
}
