// Package editor implements the editing framework around the document
// tree: transactions describing edits, a dispatcher that applies them with
// undo history, a view-state side table, and the document container that
// mediates between the engine and an embedding application.
package editor

import (
	"fmt"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/schema"
)

// Transaction is a single edit applied to a document. Implementations are
// value types; apply mutates the given document in place and reports the
// first failure. A failed transaction must leave the document unchanged,
// which the dispatcher guarantees by applying against a snapshot.
type Transaction interface {
	apply(d *document.Document, reg *schema.Registry) error
}

// SetAttrs replaces the named attributes on a node, keeping the rest.
// An empty value removes the attribute.
type SetAttrs struct {
	NodeID string
	Attrs  schema.Attrs
}

func (t SetAttrs) apply(d *document.Document, reg *schema.Registry) error {
	n := d.FindByID(t.NodeID)
	if n == nil {
		return fmt.Errorf("set attrs %s: %w", t.NodeID, apperr.ErrNotFound)
	}
	next := n.Attrs.Clone()
	if next == nil {
		next = schema.Attrs{}
	}
	for k, v := range t.Attrs {
		if v == "" {
			delete(next, k)
		} else {
			next[k] = v
		}
	}
	if spec, ok := reg.Node(n.Type); ok {
		next = spec.FillDefaults(next)
		if err := spec.CheckRequired(next); err != nil {
			return err
		}
	}
	n.Attrs = next
	return nil
}

// SetNodeType converts a node to another registered type, replacing its
// attributes with the given set filled with the new type's defaults.
// Children are kept as they are.
type SetNodeType struct {
	NodeID string
	Type   schema.NodeType
	Attrs  schema.Attrs
}

func (t SetNodeType) apply(d *document.Document, reg *schema.Registry) error {
	n := d.FindByID(t.NodeID)
	if n == nil {
		return fmt.Errorf("set node type %s: %w", t.NodeID, apperr.ErrNotFound)
	}
	attrs, err := reg.FillDefaults(t.Type, t.Attrs)
	if err != nil {
		return err
	}
	n.Type = t.Type
	n.Attrs = attrs
	return nil
}

// InsertNode inserts a subtree under the parent at the given child index.
// An index past the end appends.
type InsertNode struct {
	ParentID string
	Index    int
	Node     *document.Node
}

func (t InsertNode) apply(d *document.Document, reg *schema.Registry) error {
	parent := d.FindByID(t.ParentID)
	if parent == nil {
		return fmt.Errorf("insert under %s: %w", t.ParentID, apperr.ErrNotFound)
	}
	if spec, ok := reg.Node(t.Node.Type); ok {
		if err := spec.CheckRequired(t.Node.Attrs); err != nil {
			return err
		}
	}
	i := t.Index
	if i < 0 || i > len(parent.Children) {
		i = len(parent.Children)
	}
	parent.Children = append(parent.Children[:i], append([]*document.Node{t.Node}, parent.Children[i:]...)...)
	return nil
}

// DeleteNode removes a subtree. Deleting the root is rejected.
type DeleteNode struct {
	NodeID string
}

func (t DeleteNode) apply(d *document.Document, reg *schema.Registry) error {
	parent, idx := d.Parent(t.NodeID)
	if parent == nil {
		return fmt.Errorf("delete %s: %w", t.NodeID, apperr.ErrNotFound)
	}
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	return nil
}

// ReplaceChildren swaps a node's entire child list.
type ReplaceChildren struct {
	NodeID   string
	Children []*document.Node
}

func (t ReplaceChildren) apply(d *document.Document, reg *schema.Registry) error {
	n := d.FindByID(t.NodeID)
	if n == nil {
		return fmt.Errorf("replace children of %s: %w", t.NodeID, apperr.ErrNotFound)
	}
	n.Children = t.Children
	return nil
}

// ReplaceDocument swaps the whole tree for the given root.
type ReplaceDocument struct {
	Root *document.Node
}

func (t ReplaceDocument) apply(d *document.Document, reg *schema.Registry) error {
	if t.Root == nil || t.Root.Type != schema.Doc {
		return fmt.Errorf("replace document: %w", apperr.ErrInvalidAttrs)
	}
	d.Root = t.Root
	return nil
}

// AddMark applies a mark to every text node in the subtree rooted at
// NodeID, replacing an existing mark of the same type.
type AddMark struct {
	NodeID string
	Mark   document.Mark
}

func (t AddMark) apply(d *document.Document, reg *schema.Registry) error {
	n := d.FindByID(t.NodeID)
	if n == nil {
		return fmt.Errorf("add mark to %s: %w", t.NodeID, apperr.ErrNotFound)
	}
	document.Walk(n, func(c *document.Node) document.WalkStatus {
		if c.Type != schema.Text {
			return document.WalkContinue
		}
		for i := range c.Marks {
			if c.Marks[i].Type == t.Mark.Type {
				c.Marks[i] = t.Mark
				return document.WalkContinue
			}
		}
		c.Marks = append(c.Marks, t.Mark)
		return document.WalkContinue
	})
	return nil
}

// RemoveMark strips a mark type from every text node in the subtree.
type RemoveMark struct {
	NodeID string
	Type   schema.MarkType
}

func (t RemoveMark) apply(d *document.Document, reg *schema.Registry) error {
	n := d.FindByID(t.NodeID)
	if n == nil {
		return fmt.Errorf("remove mark from %s: %w", t.NodeID, apperr.ErrNotFound)
	}
	document.Walk(n, func(c *document.Node) document.WalkStatus {
		if c.Type != schema.Text {
			return document.WalkContinue
		}
		kept := c.Marks[:0]
		for _, m := range c.Marks {
			if m.Type != t.Type {
				kept = append(kept, m)
			}
		}
		c.Marks = kept
		return document.WalkContinue
	})
	return nil
}

// Batch applies its members in order as one atomic edit: one history entry,
// one change notification, and all-or-nothing on failure.
type Batch struct {
	Transactions []Transaction
}

func (t Batch) apply(d *document.Document, reg *schema.Registry) error {
	for _, tx := range t.Transactions {
		if err := tx.apply(d, reg); err != nil {
			return err
		}
	}
	return nil
}
