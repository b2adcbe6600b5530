package document

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/laguz/internal/schema"
)

// Tags removed outright during parsing, subtree included.
var droppedTags = map[string]bool{
	"script": true, "style": true, "head": true, "meta": true,
	"link": true, "title": true, "colgroup": true, "col": true,
	"iframe": true, "template": true,
}

// Structural wrappers the HTML parser introduces or that carry no meaning
// for the document model; their children are lifted into the parent.
var liftedTags = map[string]bool{
	"html": true, "body": true, "tbody": true, "thead": true,
	"tfoot": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "figure": true, "font": true,
}

// Parse builds a document from a serialized markup string. Markup whose
// tag matches no registered node or mark is dropped, with children lifted
// into the surrounding context where the content model allows. An empty or
// blank input yields the default single-paragraph document.
func Parse(markup string, reg *schema.Registry) (*Document, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	frags, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	p := &parser{reg: reg}
	root := NewNode(schema.Doc, nil)
	p.parseBlocks(root, frags)
	if len(root.Children) == 0 {
		root.Append(NewNode(schema.Paragraph, nil))
	}
	return &Document{Root: root}, nil
}

type parser struct {
	reg *schema.Registry
}

// parseBlocks fills parent with block nodes from the given markup
// siblings. Bare inline content (text runs, mark tags) is collected into
// implicit paragraphs so block containers always hold blocks.
func (p *parser) parseBlocks(parent *Node, nodes []*html.Node) {
	var inline []*html.Node
	flush := func() {
		if len(inline) == 0 {
			return
		}
		para := NewNode(schema.Paragraph, nil)
		p.parseInline(para, inline, nil)
		if len(para.Children) > 0 {
			parent.Append(para)
		}
		inline = nil
	}

	for _, hn := range nodes {
		switch hn.Type {
		case html.TextNode:
			if strings.TrimSpace(hn.Data) != "" {
				inline = append(inline, hn)
			}
		case html.ElementNode:
			tag := hn.Data
			if droppedTags[tag] {
				continue
			}
			if tag == "a" {
				if img := soleImageChild(hn); img != nil {
					flush()
					if node := p.parseLinkedImage(hn, img); node != nil {
						parent.Append(node)
					}
					continue
				}
			}
			if node, ok := p.tryNode(hn); ok {
				flush()
				parent.Append(node)
				continue
			}
			if len(p.reg.MarksForTag(tag)) > 0 || tag == "br" {
				inline = append(inline, hn)
				continue
			}
			// Unregistered block-ish element: lift children.
			flush()
			p.parseBlocks(parent, childList(hn))
		}
	}
	flush()
}

// tryNode attempts to parse an element as a registered node type.
func (p *parser) tryNode(hn *html.Node) (*Node, bool) {
	el := toElement(hn)
	if hn.Data == "pre" {
		foldCodeChild(hn, el)
	}
	for _, spec := range p.reg.NodesForTag(hn.Data) {
		attrs, ok := spec.Parse(el)
		if !ok {
			continue
		}
		node := NewNode(spec.Type, spec.FillDefaults(attrs))
		p.parseContent(node, spec, hn)
		return node, true
	}
	return nil, false
}

func (p *parser) parseContent(node *Node, spec *schema.NodeSpec, hn *html.Node) {
	switch {
	case spec.Atom:
		// Attribute-driven; no editable content.
	case spec.Type == schema.CodeBlock:
		text := strings.TrimSuffix(codeText(hn), "\n")
		if text != "" {
			node.Append(NewText(text))
		}
	case spec.Type == schema.Table:
		p.parseTableRows(node, hn)
	case spec.Type == schema.TableRow:
		p.parseRowCells(node, hn)
	case strings.HasPrefix(spec.Content, "inline"):
		p.parseInline(node, childList(hn), nil)
	default:
		p.parseBlocks(node, childList(hn))
	}
}

// parseTableRows collects tr descendants, descending through the section
// wrappers the HTML parser inserts. Anything else inside the table is
// dropped: the model is strictly table → tableRow* → cells.
func (p *parser) parseTableRows(table *Node, hn *html.Node) {
	for _, c := range childList(hn) {
		if c.Type != html.ElementNode {
			continue
		}
		if liftedTags[c.Data] {
			p.parseTableRows(table, c)
			continue
		}
		if c.Data == "tr" {
			if row, ok := p.tryNode(c); ok {
				table.Append(row)
			}
		}
	}
}

func (p *parser) parseRowCells(row *Node, hn *html.Node) {
	for _, c := range childList(hn) {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		if cell, ok := p.tryNode(c); ok {
			row.Append(cell)
		}
	}
}

// parseInline fills container with text nodes carrying the active marks.
func (p *parser) parseInline(container *Node, nodes []*html.Node, marks []Mark) {
	for _, hn := range nodes {
		switch hn.Type {
		case html.TextNode:
			text := hn.Data
			if strings.TrimSpace(text) == "" {
				// Collapse whitespace-only runs; keep a single space
				// between words, drop formatting newlines.
				if strings.Contains(text, "\n") || len(container.Children) == 0 {
					continue
				}
				text = " "
			}
			container.Append(NewText(text, copyMarks(marks)...))
		case html.ElementNode:
			tag := hn.Data
			if droppedTags[tag] {
				continue
			}
			if tag == "br" {
				container.Append(NewText("\n", copyMarks(marks)...))
				continue
			}
			if tag == "img" {
				if node, ok := p.tryNode(hn); ok {
					container.Append(node)
				}
				continue
			}
			if tag == "a" {
				if img := soleImageChild(hn); img != nil {
					if node := p.parseLinkedImage(hn, img); node != nil {
						container.Append(node)
					}
					continue
				}
			}
			if mark, ok := p.tryMark(hn); ok {
				next := marks
				if !containsMark(marks, mark.Type) {
					next = append(copyMarks(marks), mark)
				}
				p.parseInline(container, childList(hn), next)
				continue
			}
			// Unregistered inline element: lift children.
			p.parseInline(container, childList(hn), marks)
		}
	}
}

func (p *parser) tryMark(hn *html.Node) (Mark, bool) {
	el := toElement(hn)
	for _, spec := range p.reg.MarksForTag(hn.Data) {
		attrs, ok := spec.Parse(el)
		if !ok {
			continue
		}
		return Mark{Type: spec.Type, Attrs: fillMarkDefaults(spec, attrs)}, true
	}
	return Mark{}, false
}

// parseLinkedImage folds an <a> wrapping a lone <img> back into a single
// image node carrying the href as linkHref. An image that is also a link
// stays one atomic node.
func (p *parser) parseLinkedImage(anchor, img *html.Node) *Node {
	node, ok := p.tryNode(img)
	if !ok {
		return nil
	}
	if href := toElement(anchor).Get("href"); href != "" {
		node.Attrs["linkHref"] = href
	}
	return node
}

func toElement(hn *html.Node) *schema.Element {
	el := schema.NewElement(hn.Data)
	for _, a := range hn.Attr {
		el.Set(a.Key, a.Val)
	}
	return el
}

// foldCodeChild copies the inner <code> element's class onto the pre
// element so the codeBlock parse rule sees the language annotation.
func foldCodeChild(pre *html.Node, el *schema.Element) {
	for _, c := range childList(pre) {
		if c.Type == html.ElementNode && c.Data == "code" {
			if cls := toElement(c).Get("class"); cls != "" && el.Get("class") == "" {
				el.Set("class", cls)
			}
			return
		}
	}
}

func codeText(hn *html.Node) string {
	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(hn)
	return b.String()
}

// soleImageChild returns the img element when the anchor wraps exactly one
// image and no visible text, the shape serialized for linked images.
func soleImageChild(anchor *html.Node) *html.Node {
	var img *html.Node
	for _, c := range childList(anchor) {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		case html.ElementNode:
			if c.Data != "img" || img != nil {
				return nil
			}
			img = c
		}
	}
	return img
}

func childList(hn *html.Node) []*html.Node {
	var out []*html.Node
	for c := hn.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func copyMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	out := make([]Mark, len(marks))
	copy(out, marks)
	return out
}

func containsMark(marks []Mark, t schema.MarkType) bool {
	for _, m := range marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

func fillMarkDefaults(spec *schema.MarkSpec, attrs schema.Attrs) schema.Attrs {
	out := attrs.Clone()
	for _, d := range spec.Attrs {
		if d.Default != "" && out.Get(d.Name) == "" {
			out[d.Name] = d.Default
		}
	}
	return out
}
