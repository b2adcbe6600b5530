// Package schema defines the document node type registry: the set of node
// kinds the engine understands, each with an attribute schema, a markup
// parse rule, and a markup serialize rule.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/laguz/internal/apperr"
)

// NodeType identifies a registered document node kind.
type NodeType string

const (
	Doc            NodeType = "doc"
	Paragraph      NodeType = "paragraph"
	Heading        NodeType = "heading"
	BulletList     NodeType = "bulletList"
	OrderedList    NodeType = "orderedList"
	ListItem       NodeType = "listItem"
	Blockquote     NodeType = "blockquote"
	CodeBlock      NodeType = "codeBlock"
	Table          NodeType = "table"
	TableRow       NodeType = "tableRow"
	TableCell      NodeType = "tableCell"
	TableHeader    NodeType = "tableHeader"
	LinkCard       NodeType = "linkCard"
	Image          NodeType = "image"
	Video          NodeType = "video"
	Audio          NodeType = "audio"
	HorizontalRule NodeType = "horizontalRule"
	Text           NodeType = "text"
)

// MarkType identifies a formatting annotation on inline text.
type MarkType string

const (
	Bold      MarkType = "bold"
	Italic    MarkType = "italic"
	Underline MarkType = "underline"
	Strike    MarkType = "strike"
	CodeMark  MarkType = "code"
	LinkMark  MarkType = "link"
	TextStyle MarkType = "textStyle"
	Highlight MarkType = "highlight"
)

// Attrs is a node's attribute set. Values are the strings that appear on
// the wire; absent keys are treated as the schema default.
type Attrs map[string]string

// Get returns the value for key, or "" when absent.
func (a Attrs) Get(key string) string {
	if a == nil {
		return ""
	}
	return a[key]
}

// Clone returns a copy of the attribute set.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return Attrs{}
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Equal reports whether two attribute sets carry the same values, treating
// absent keys and empty values as equivalent.
func (a Attrs) Equal(b Attrs) bool {
	for k, v := range a {
		if v != "" && b.Get(k) != v {
			return false
		}
	}
	for k, v := range b {
		if v != "" && a.Get(k) != v {
			return false
		}
	}
	return true
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Attr is a single markup attribute. Order matters for serialization, so
// elements carry slices rather than maps.
type Attr struct {
	Key string
	Val string
}

// Element is the markup-level view of a node that parse and serialize rules
// operate on: a tag plus an ordered attribute list. The codec in the
// document package converts real markup to and from this shape.
type Element struct {
	Tag  string
	Attr []Attr
}

// NewElement creates an element with the given tag.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Get returns the raw attribute value for key, or "".
func (e *Element) Get(key string) string {
	for _, a := range e.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Has reports whether the attribute is present, even when empty.
func (e *Element) Has(key string) bool {
	for _, a := range e.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// DataOr returns the data-<name> attribute when present, otherwise the
// native <name> attribute. Explicit data attributes always win.
func (e *Element) DataOr(name string) string {
	if v := e.Get("data-" + name); v != "" {
		return v
	}
	return e.Get(name)
}

// StyleProp returns a single property from the inline style attribute.
func (e *Element) StyleProp(prop string) string {
	return ParseStyle(e.Get("style"))[prop]
}

// Set appends or replaces an attribute, preserving insertion order.
func (e *Element) Set(key, val string) *Element {
	for i, a := range e.Attr {
		if a.Key == key {
			e.Attr[i].Val = val
			return e
		}
	}
	e.Attr = append(e.Attr, Attr{Key: key, Val: val})
	return e
}

// SetIf appends the attribute only when val is non-empty. Unset attributes
// are omitted from serialized markup entirely.
func (e *Element) SetIf(key, val string) *Element {
	if val == "" {
		return e
	}
	return e.Set(key, val)
}

// ParseStyle splits an inline style declaration into properties.
func ParseStyle(style string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// StyleProps composes an inline style string from property/value pairs in
// the order given, skipping empty values. Composition order is part of each
// node type's serialize rule: later properties override earlier ones.
func StyleProps(pairs ...[2]string) string {
	var b strings.Builder
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(p[0])
		b.WriteString(": ")
		b.WriteString(p[1])
	}
	return b.String()
}

// AttrDef declares one attribute in a node type's schema.
type AttrDef struct {
	Name     string
	Default  string
	Required bool
}

// ParseRule extracts a node's attributes from a markup element. ok is false
// when the element does not match this node type.
type ParseRule func(el *Element) (attrs Attrs, ok bool)

// RenderRule produces the markup element for a node's attributes. It must
// be a pure function of attrs, omit unset values, and compose derived style
// strings in the type's declared order.
type RenderRule func(attrs Attrs) *Element

// NodeSpec describes one registered node type.
type NodeSpec struct {
	Type    NodeType
	Group   string // "block" or "inline"
	Atom    bool   // atom nodes have no editable content
	Content string // content model, e.g. "block+", "inline*", "tableRow+"
	Tags    []string
	Attrs   []AttrDef
	Parse   ParseRule
	Render  RenderRule
}

// Defaults returns a fresh attribute set populated with schema defaults.
func (s *NodeSpec) Defaults() Attrs {
	out := Attrs{}
	for _, d := range s.Attrs {
		if d.Default != "" {
			out[d.Name] = d.Default
		}
	}
	return out
}

// FillDefaults returns attrs with missing keys populated from the schema.
func (s *NodeSpec) FillDefaults(attrs Attrs) Attrs {
	out := s.Defaults()
	for k, v := range attrs {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// CheckRequired verifies that every required attribute is set.
func (s *NodeSpec) CheckRequired(attrs Attrs) error {
	for _, d := range s.Attrs {
		if d.Required && attrs.Get(d.Name) == "" {
			return fmt.Errorf("%w: %s requires %q", apperr.ErrInvalidAttrs, s.Type, d.Name)
		}
	}
	return nil
}

// MarkSpec describes one registered mark type.
type MarkSpec struct {
	Type   MarkType
	Tags   []string
	Attrs  []AttrDef
	Parse  ParseRule
	Render RenderRule
}
