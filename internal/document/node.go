// Package document implements the document tree and its markup codec: an
// ordered tree of typed nodes whose only externally observable form is a
// serialized markup string.
package document

import (
	"github.com/google/uuid"

	"github.com/starford/laguz/internal/schema"
)

// Mark is a formatting annotation attached to an inline text run.
type Mark struct {
	Type  schema.MarkType
	Attrs schema.Attrs
}

// Node is a typed entity in the document tree. ID is a stable identity used
// by the editor's view-state side table and by transactions; it is never
// serialized and survives attribute updates.
type Node struct {
	ID       string
	Type     schema.NodeType
	Attrs    schema.Attrs
	Text     string // text nodes only
	Marks    []Mark // text nodes only
	Children []*Node
}

// NewNode creates a node with a fresh identity.
func NewNode(t schema.NodeType, attrs schema.Attrs) *Node {
	return &Node{ID: uuid.NewString(), Type: t, Attrs: attrs.Clone()}
}

// NewText creates an inline text node.
func NewText(text string, marks ...Mark) *Node {
	return &Node{ID: uuid.NewString(), Type: schema.Text, Text: text, Marks: marks}
}

// Append adds children and returns the node for chaining in builders.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// HasMark reports whether a text node carries a mark of the given type.
func (n *Node) HasMark(t schema.MarkType) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// MarkAttrs returns the attributes of the given mark, if present.
func (n *Node) MarkAttrs(t schema.MarkType) (schema.Attrs, bool) {
	for _, m := range n.Marks {
		if m.Type == t {
			return m.Attrs, true
		}
	}
	return nil, false
}

// Clone deep-copies the node. Identities are preserved: clones are used for
// undo snapshots, where a node must stay the same node across restore.
func (n *Node) Clone() *Node {
	out := &Node{
		ID:    n.ID,
		Type:  n.Type,
		Attrs: n.Attrs.Clone(),
		Text:  n.Text,
	}
	if n.Marks != nil {
		out.Marks = make([]Mark, len(n.Marks))
		for i, m := range n.Marks {
			out.Marks[i] = Mark{Type: m.Type, Attrs: m.Attrs.Clone()}
		}
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Size returns the node's span in document positions: text nodes count
// their runes, childless leaves count one, and every other node adds an
// open and a close boundary around its content. The table engine depends
// on this accounting to reconstruct cell positions.
func (n *Node) Size() int {
	if n.Type == schema.Text {
		return len([]rune(n.Text))
	}
	if len(n.Children) == 0 {
		return 1
	}
	size := 2
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

// Text content of the subtree, concatenated.
func (n *Node) TextContent() string {
	if n.Type == schema.Text {
		return n.Text
	}
	var out string
	for _, c := range n.Children {
		out += c.TextContent()
	}
	return out
}

// WalkStatus controls tree traversal.
type WalkStatus int

const (
	WalkContinue WalkStatus = iota
	WalkSkipChildren
	WalkStop
)

// Walk visits n and its descendants depth-first, pre-order.
func Walk(n *Node, fn func(n *Node) WalkStatus) WalkStatus {
	switch fn(n) {
	case WalkStop:
		return WalkStop
	case WalkSkipChildren:
		return WalkContinue
	}
	for _, c := range n.Children {
		if Walk(c, fn) == WalkStop {
			return WalkStop
		}
	}
	return WalkContinue
}

// Document is an ordered tree of nodes rooted at a doc node.
type Document struct {
	Root *Node
}

// New returns an empty document holding a single default paragraph, the
// shape a new note starts from.
func New() *Document {
	root := NewNode(schema.Doc, nil)
	root.Append(NewNode(schema.Paragraph, nil))
	return &Document{Root: root}
}

// Clone deep-copies the document, preserving node identities.
func (d *Document) Clone() *Document {
	return &Document{Root: d.Root.Clone()}
}

// FindByID returns the node with the given identity, or nil.
func (d *Document) FindByID(id string) *Node {
	var found *Node
	Walk(d.Root, func(n *Node) WalkStatus {
		if n.ID == id {
			found = n
			return WalkStop
		}
		return WalkContinue
	})
	return found
}

// Parent returns the parent of the node with the given identity and the
// node's index among its siblings. Returns (nil, -1) for the root or an
// unknown identity.
func (d *Document) Parent(id string) (*Node, int) {
	var parent *Node
	idx := -1
	Walk(d.Root, func(n *Node) WalkStatus {
		for i, c := range n.Children {
			if c.ID == id {
				parent = n
				idx = i
				return WalkStop
			}
		}
		return WalkContinue
	})
	return parent, idx
}

// Ancestors returns the chain from the node's parent outward to the root.
func (d *Document) Ancestors(id string) []*Node {
	var chain []*Node
	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		if n.ID == id {
			return true
		}
		for _, c := range n.Children {
			if visit(c) {
				chain = append(chain, n)
				return true
			}
		}
		return false
	}
	visit(d.Root)
	return chain
}

// Contains reports whether the identity is present in the tree.
func (d *Document) Contains(id string) bool {
	return d.FindByID(id) != nil
}

// IDs returns the set of all node identities in the tree.
func (d *Document) IDs() map[string]struct{} {
	out := map[string]struct{}{}
	Walk(d.Root, func(n *Node) WalkStatus {
		out[n.ID] = struct{}{}
		return WalkContinue
	})
	return out
}
