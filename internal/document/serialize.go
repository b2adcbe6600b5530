package document

import (
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma"
	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"

	"github.com/starford/laguz/internal/schema"
)

// Options control preview-oriented rendering. The zero value produces the
// canonical serialization, which is what round-trips through Parse.
type Options struct {
	// HighlightCode renders code block bodies through chroma with inline
	// styles. Highlighted output is for preview only and is not expected
	// to round-trip.
	HighlightCode bool
	// ChromaStyle selects the highlight style; empty means "github".
	ChromaStyle string
}

// Serializer renders a document tree back to its markup string using the
// registry's serialize rules.
type Serializer struct {
	reg  *schema.Registry
	opts Options
}

// NewSerializer creates a serializer with the given options.
func NewSerializer(reg *schema.Registry, opts Options) *Serializer {
	return &Serializer{reg: reg, opts: opts}
}

// Serialize renders the canonical markup string for a document.
func Serialize(d *Document, reg *schema.Registry) string {
	return NewSerializer(reg, Options{}).Serialize(d)
}

// Serialize renders the document.
func (s *Serializer) Serialize(d *Document) string {
	var b strings.Builder
	for _, c := range d.Root.Children {
		s.renderNode(&b, c)
	}
	return b.String()
}

var voidTags = map[string]bool{"img": true, "hr": true, "br": true}

func (s *Serializer) renderNode(b *strings.Builder, n *Node) {
	if n.Type == schema.Text {
		s.renderText(b, n)
		return
	}
	spec, ok := s.reg.Node(n.Type)
	if !ok || spec.Render == nil {
		// Unregistered types are never emitted.
		return
	}

	switch n.Type {
	case schema.CodeBlock:
		s.renderCodeBlock(b, n, spec)
		return
	case schema.Image:
		s.renderImage(b, n, spec)
		return
	}

	el := spec.Render(n.Attrs)
	writeOpenTag(b, el)
	if voidTags[el.Tag] {
		return
	}
	for _, c := range n.Children {
		s.renderNode(b, c)
	}
	writeCloseTag(b, el)
}

// renderText emits the escaped text wrapped in its mark tags, first mark
// outermost. Newlines become <br> so they survive reparsing.
func (s *Serializer) renderText(b *strings.Builder, n *Node) {
	var open, close strings.Builder
	for i := range n.Marks {
		spec, ok := s.reg.Mark(n.Marks[i].Type)
		if !ok || spec.Render == nil {
			continue
		}
		el := spec.Render(n.Marks[i].Attrs)
		writeOpenTag(&open, el)
		// Closing tags accumulate in reverse.
		var c strings.Builder
		writeCloseTag(&c, el)
		closeStr := c.String() + close.String()
		close.Reset()
		close.WriteString(closeStr)
	}
	b.WriteString(open.String())
	b.WriteString(strings.ReplaceAll(html.EscapeString(n.Text), "\n", "<br>"))
	b.WriteString(close.String())
}

func (s *Serializer) renderCodeBlock(b *strings.Builder, n *Node, spec *schema.NodeSpec) {
	el := spec.Render(n.Attrs)
	writeOpenTag(b, el)
	lang := n.Attrs.Get("language")
	code := schema.NewElement("code")
	if lang != "" {
		code.Set("class", "language-"+lang)
	}
	writeOpenTag(b, code)
	text := n.TextContent()
	if s.opts.HighlightCode {
		b.WriteString(s.highlight(text, lang))
	} else {
		b.WriteString(html.EscapeString(text))
	}
	writeCloseTag(b, code)
	writeCloseTag(b, el)
}

// renderImage wraps the img in an anchor when linkHref is set, keeping an
// image that is also a link a single atomic node on the wire.
func (s *Serializer) renderImage(b *strings.Builder, n *Node, spec *schema.NodeSpec) {
	href := n.Attrs.Get("linkHref")
	if href != "" {
		anchor := schema.NewElement("a").Set("href", href)
		writeOpenTag(b, anchor)
		writeOpenTag(b, spec.Render(n.Attrs))
		writeCloseTag(b, anchor)
		return
	}
	writeOpenTag(b, spec.Render(n.Attrs))
}

func (s *Serializer) highlight(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := s.opts.ChromaStyle
	if styleName == "" {
		styleName = "github"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}
	var out strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.PreventSurroundingPre(true))
	if err := formatter.Format(&out, style, iterator); err != nil {
		return html.EscapeString(code)
	}
	return out.String()
}

func writeOpenTag(b *strings.Builder, el *schema.Element) {
	b.WriteByte('<')
	b.WriteString(el.Tag)
	for _, a := range el.Attr {
		fmt.Fprintf(b, ` %s="%s"`, a.Key, html.EscapeString(a.Val))
	}
	b.WriteByte('>')
}

func writeCloseTag(b *strings.Builder, el *schema.Element) {
	b.WriteString("</")
	b.WriteString(el.Tag)
	b.WriteByte('>')
}
