// Package table implements targeting and bulk styling for table regions:
// resolving a selection to the cells it covers and applying a style to all
// of them as one atomic, undoable edit.
package table

import (
	"fmt"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/editor"
	"github.com/starford/laguz/internal/schema"
)

// Mode selects the scope a cell selection expands to.
type Mode string

const (
	ModeCell   Mode = "cell"
	ModeRow    Mode = "row"
	ModeColumn Mode = "column"
	ModeTable  Mode = "table"
)

// CellStyle is the styling applied to targeted cells. Empty fields are left
// untouched on the cell, so a partial style never erases what it does not
// mention.
type CellStyle struct {
	Background  string
	TextColor   string
	BorderWidth string
	BorderStyle string
	BorderColor string
	Padding     string
	Align       string
}

func (s CellStyle) attrs() schema.Attrs {
	out := schema.Attrs{}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("background", s.Background)
	set("textColor", s.TextColor)
	set("borderWidth", s.BorderWidth)
	set("borderStyle", s.BorderStyle)
	set("borderColor", s.BorderColor)
	set("padding", s.Padding)
	set("align", s.Align)
	return out
}

// Preset styles offered by the styling UI.
var Presets = map[string]CellStyle{
	"Professional": {
		Background: "#f8f9fa", TextColor: "#212529",
		BorderWidth: "1px", BorderStyle: "solid", BorderColor: "#dee2e6",
		Padding: "8px",
	},
	"Accent": {
		Background: "#ffcc00", TextColor: "#000000",
		BorderWidth: "2px", BorderStyle: "solid", BorderColor: "#e6b800",
		Padding: "8px", Align: "center",
	},
}

// Engine resolves selections inside tables and applies bulk styles through
// a dispatcher.
type Engine struct {
	dispatcher *editor.Dispatcher
}

// NewEngine creates an engine bound to the dispatcher.
func NewEngine(d *editor.Dispatcher) *Engine {
	return &Engine{dispatcher: d}
}

// ResolveTargets expands the node carrying the selection to the cell
// identities the mode covers. The node may be the cell itself or anything
// inside one; the walk ascends to the nearest enclosing cell, then to its
// row and table. A selection outside any table is an error, which callers
// treat as a no-op.
//
// Column targeting matches by index: rows shorter than the anchor column
// contribute nothing, so a ragged table degrades to styling the cells that
// exist rather than failing.
func (e *Engine) ResolveTargets(d *document.Document, nodeID string, mode Mode) ([]string, error) {
	cell, row, tbl := enclosing(d, nodeID)
	if cell == nil || row == nil || tbl == nil {
		return nil, fmt.Errorf("resolve %s targets from %s: %w", mode, nodeID, apperr.ErrNoEnclosingTable)
	}

	switch mode {
	case ModeCell:
		return []string{cell.ID}, nil
	case ModeRow:
		return cellIDs(row.Children), nil
	case ModeColumn:
		col := childIndex(row, cell.ID)
		var out []string
		for _, r := range tbl.Children {
			if col < len(r.Children) {
				out = append(out, r.Children[col].ID)
			}
		}
		return out, nil
	case ModeTable:
		var out []string
		for _, r := range tbl.Children {
			out = append(out, cellIDs(r.Children)...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("resolve targets: unknown mode %q: %w", mode, apperr.ErrInvalidAttrs)
	}
}

// ApplyStyle styles every cell the selection covers as one batch: a single
// history entry, a single change notification, and nothing applied when any
// target fails.
func (e *Engine) ApplyStyle(nodeID string, mode Mode, style CellStyle) error {
	targets, err := e.ResolveTargets(e.dispatcher.Document(), nodeID, mode)
	if err != nil {
		return err
	}
	attrs := style.attrs()
	txs := make([]editor.Transaction, 0, len(targets))
	for _, id := range targets {
		txs = append(txs, editor.SetAttrs{NodeID: id, Attrs: attrs})
	}
	return e.dispatcher.Dispatch(editor.Batch{Transactions: txs})
}

// ApplyPreset applies a named preset style.
func (e *Engine) ApplyPreset(nodeID string, mode Mode, name string) error {
	style, ok := Presets[name]
	if !ok {
		return fmt.Errorf("preset %q: %w", name, apperr.ErrNotFound)
	}
	return e.ApplyStyle(nodeID, mode, style)
}

// CellAt returns the cell spanning the given document position, using the
// size accounting of the tree: text counts runes, childless leaves count
// one, containers add an open and close boundary. Returns nil when the
// position falls outside every cell.
func CellAt(d *document.Document, pos int) *document.Node {
	var found *document.Node
	var walk func(n *document.Node, start int)
	walk = func(n *document.Node, start int) {
		if found != nil {
			return
		}
		end := start + n.Size()
		if pos < start || pos >= end {
			return
		}
		if n.Type == schema.TableCell || n.Type == schema.TableHeader {
			found = n
		}
		off := start + 1
		if n.Type == schema.Doc {
			off = start
		}
		for _, c := range n.Children {
			walk(c, off)
			off += c.Size()
		}
	}
	walk(d.Root, 0)
	return found
}

// enclosing ascends from the node to its cell, row, and table. Any of the
// three may be nil when the node is not inside a complete table structure.
func enclosing(d *document.Document, nodeID string) (cell, row, tbl *document.Node) {
	n := d.FindByID(nodeID)
	if n == nil {
		return nil, nil, nil
	}
	chain := append([]*document.Node{n}, d.Ancestors(nodeID)...)
	for i, a := range chain {
		if a.Type == schema.TableCell || a.Type == schema.TableHeader {
			cell = a
			if i+1 < len(chain) && chain[i+1].Type == schema.TableRow {
				row = chain[i+1]
			}
			if i+2 < len(chain) && chain[i+2].Type == schema.Table {
				tbl = chain[i+2]
			}
			return cell, row, tbl
		}
	}
	return nil, nil, nil
}

func childIndex(parent *document.Node, id string) int {
	for i, c := range parent.Children {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func cellIDs(cells []*document.Node) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.ID)
	}
	return out
}
