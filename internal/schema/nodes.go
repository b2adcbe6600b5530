package schema

import (
	"strconv"
	"strings"
)

// Default returns a registry with every built-in node and mark type
// registered. This is the schema the editor surface ships with.
func Default() *Registry {
	r := NewRegistry()

	r.RegisterNode(docSpec())
	r.RegisterNode(textSpec())
	r.RegisterNode(paragraphSpec())
	r.RegisterNode(headingSpec())
	r.RegisterNode(bulletListSpec())
	r.RegisterNode(orderedListSpec())
	r.RegisterNode(listItemSpec())
	r.RegisterNode(blockquoteSpec())
	r.RegisterNode(codeBlockSpec())
	r.RegisterNode(tableSpec())
	r.RegisterNode(tableRowSpec())
	r.RegisterNode(tableCellSpec(TableCell, "td"))
	r.RegisterNode(tableCellSpec(TableHeader, "th"))
	r.RegisterNode(imageSpec())
	r.RegisterNode(linkCardSpec())
	r.RegisterNode(mediaSpec(Video, "video"))
	r.RegisterNode(mediaSpec(Audio, "audio"))
	r.RegisterNode(horizontalRuleSpec())

	registerDefaultMarks(r)
	return r
}

func docSpec() *NodeSpec {
	return &NodeSpec{Type: Doc, Group: "block", Content: "block+"}
}

func textSpec() *NodeSpec {
	return &NodeSpec{Type: Text, Group: "inline"}
}

func paragraphSpec() *NodeSpec {
	return &NodeSpec{
		Type:    Paragraph,
		Group:   "block",
		Content: "inline*",
		Tags:    []string{"p"},
		Attrs:   []AttrDef{{Name: "align"}},
		Parse: func(el *Element) (Attrs, bool) {
			attrs := Attrs{}
			if v := el.DataOr("align"); v != "" {
				attrs["align"] = v
			} else if v := el.StyleProp("text-align"); v != "" {
				attrs["align"] = v
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement("p")
			el.SetIf("data-align", a.Get("align"))
			el.SetIf("style", StyleProps([2]string{"text-align", a.Get("align")}))
			return el
		},
	}
}

func headingSpec() *NodeSpec {
	return &NodeSpec{
		Type:    Heading,
		Group:   "block",
		Content: "inline*",
		Tags:    []string{"h1", "h2", "h3", "h4", "h5", "h6"},
		Attrs:   []AttrDef{{Name: "level", Default: "1"}},
		Parse: func(el *Element) (Attrs, bool) {
			if len(el.Tag) != 2 || el.Tag[0] != 'h' {
				return nil, false
			}
			return Attrs{"level": el.Tag[1:]}, true
		},
		Render: func(a Attrs) *Element {
			level, err := strconv.Atoi(a.Get("level"))
			if err != nil || level < 1 || level > 6 {
				level = 1
			}
			return NewElement("h" + strconv.Itoa(level))
		},
	}
}

func bulletListSpec() *NodeSpec {
	return &NodeSpec{
		Type:    BulletList,
		Group:   "block",
		Content: "listItem+",
		Tags:    []string{"ul"},
		Parse:   func(*Element) (Attrs, bool) { return Attrs{}, true },
		Render:  func(Attrs) *Element { return NewElement("ul") },
	}
}

func orderedListSpec() *NodeSpec {
	return &NodeSpec{
		Type:    OrderedList,
		Group:   "block",
		Content: "listItem+",
		Tags:    []string{"ol"},
		Attrs:   []AttrDef{{Name: "start", Default: "1"}},
		Parse: func(el *Element) (Attrs, bool) {
			attrs := Attrs{}
			if v := el.Get("start"); v != "" {
				attrs["start"] = v
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement("ol")
			if v := a.Get("start"); v != "" && v != "1" {
				el.Set("start", v)
			}
			return el
		},
	}
}

func listItemSpec() *NodeSpec {
	return &NodeSpec{
		Type:    ListItem,
		Group:   "block",
		Content: "block+",
		Tags:    []string{"li"},
		Parse:   func(*Element) (Attrs, bool) { return Attrs{}, true },
		Render:  func(Attrs) *Element { return NewElement("li") },
	}
}

func blockquoteSpec() *NodeSpec {
	return &NodeSpec{
		Type:    Blockquote,
		Group:   "block",
		Content: "block+",
		Tags:    []string{"blockquote"},
		Parse:   func(*Element) (Attrs, bool) { return Attrs{}, true },
		Render:  func(Attrs) *Element { return NewElement("blockquote") },
	}
}

// codeBlockSpec matches <pre>. The codec folds the inner <code> element's
// class onto the pre element before calling Parse, and emits the wrapping
// <code class="language-..."> on serialization.
func codeBlockSpec() *NodeSpec {
	return &NodeSpec{
		Type:    CodeBlock,
		Group:   "block",
		Content: "text*",
		Tags:    []string{"pre"},
		Attrs:   []AttrDef{{Name: "language"}},
		Parse: func(el *Element) (Attrs, bool) {
			attrs := Attrs{}
			if v := el.Get("data-language"); v != "" {
				attrs["language"] = v
			} else if cls := el.Get("class"); strings.HasPrefix(cls, "language-") {
				attrs["language"] = strings.TrimPrefix(cls, "language-")
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement("pre")
			el.SetIf("data-language", a.Get("language"))
			return el
		},
	}
}

func tableSpec() *NodeSpec {
	return &NodeSpec{
		Type:    Table,
		Group:   "block",
		Content: "tableRow+",
		Tags:    []string{"table"},
		Parse:   func(*Element) (Attrs, bool) { return Attrs{}, true },
		Render:  func(Attrs) *Element { return NewElement("table") },
	}
}

func tableRowSpec() *NodeSpec {
	return &NodeSpec{
		Type:    TableRow,
		Content: "(tableCell|tableHeader)+",
		Tags:    []string{"tr"},
		Parse:   func(*Element) (Attrs, bool) { return Attrs{}, true },
		Render:  func(Attrs) *Element { return NewElement("tr") },
	}
}

// tableCellSpec covers both tableCell (<td>) and tableHeader (<th>).
// Styling attributes are written as explicit data attributes and composed
// into the inline style in declared order: background, text color, border,
// padding, alignment.
func tableCellSpec(t NodeType, tag string) *NodeSpec {
	return &NodeSpec{
		Type:    t,
		Content: "block+",
		Tags:    []string{tag},
		Attrs: []AttrDef{
			{Name: "colspan", Default: "1"},
			{Name: "rowspan", Default: "1"},
			{Name: "background"},
			{Name: "textColor"},
			{Name: "borderWidth"},
			{Name: "borderStyle"},
			{Name: "borderColor"},
			{Name: "padding"},
			{Name: "align"},
		},
		Parse: func(el *Element) (Attrs, bool) {
			attrs := Attrs{}
			if v := el.Get("colspan"); v != "" {
				attrs["colspan"] = v
			}
			if v := el.Get("rowspan"); v != "" {
				attrs["rowspan"] = v
			}
			setFrom := func(key, data, styleProp string) {
				if v := el.Get(data); v != "" {
					attrs[key] = v
				} else if v := el.StyleProp(styleProp); v != "" {
					attrs[key] = v
				}
			}
			setFrom("background", "data-background-color", "background-color")
			setFrom("textColor", "data-text-color", "color")
			setFrom("padding", "data-padding", "padding")
			setFrom("align", "data-align", "text-align")
			if v := el.Get("data-border-width"); v != "" {
				attrs["borderWidth"] = v
				attrs["borderStyle"] = el.Get("data-border-style")
				attrs["borderColor"] = el.Get("data-border-color")
			} else if w, s, c := splitBorder(el.StyleProp("border")); w != "" {
				attrs["borderWidth"], attrs["borderStyle"], attrs["borderColor"] = w, s, c
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement(tag)
			if v := a.Get("colspan"); v != "" && v != "1" {
				el.Set("colspan", v)
			}
			if v := a.Get("rowspan"); v != "" && v != "1" {
				el.Set("rowspan", v)
			}
			el.SetIf("data-background-color", a.Get("background"))
			el.SetIf("data-text-color", a.Get("textColor"))
			el.SetIf("data-border-width", a.Get("borderWidth"))
			el.SetIf("data-border-style", a.Get("borderStyle"))
			el.SetIf("data-border-color", a.Get("borderColor"))
			el.SetIf("data-padding", a.Get("padding"))
			el.SetIf("data-align", a.Get("align"))
			el.SetIf("style", StyleProps(
				[2]string{"background-color", a.Get("background")},
				[2]string{"color", a.Get("textColor")},
				[2]string{"border", joinBorder(a.Get("borderWidth"), a.Get("borderStyle"), a.Get("borderColor"))},
				[2]string{"padding", a.Get("padding")},
				[2]string{"text-align", a.Get("align")},
			))
			return el
		},
	}
}

// imageSpec matches <img>. The style string appends border after the
// dimensions so a border declaration always overrides. linkHref is not
// rendered here: the codec wraps the image in an anchor when it is set and
// folds the wrapper back into this attribute on parse.
func imageSpec() *NodeSpec {
	return &NodeSpec{
		Type:  Image,
		Group: "block",
		Atom:  true,
		Tags:  []string{"img"},
		Attrs: []AttrDef{
			{Name: "src", Required: true},
			{Name: "alt"},
			{Name: "title"},
			{Name: "width", Default: "auto"},
			{Name: "height", Default: "auto"},
			{Name: "align", Default: "center"},
			{Name: "border"},
			{Name: "linkHref"},
		},
		Parse: func(el *Element) (Attrs, bool) {
			src := el.Get("src")
			if src == "" {
				return nil, false
			}
			attrs := Attrs{"src": src}
			if v := el.Get("alt"); v != "" {
				attrs["alt"] = v
			}
			if v := el.Get("title"); v != "" {
				attrs["title"] = v
			}
			if v := el.DataOr("width"); v != "" {
				attrs["width"] = v
			} else if v := el.StyleProp("width"); v != "" {
				attrs["width"] = v
			}
			if v := el.DataOr("height"); v != "" {
				attrs["height"] = v
			} else if v := el.StyleProp("height"); v != "" {
				attrs["height"] = v
			}
			if v := el.Get("data-align"); v != "" {
				attrs["align"] = v
			} else if f := el.StyleProp("float"); f == "left" || f == "right" {
				attrs["align"] = f
			}
			if v := el.Get("data-style-border"); v != "" {
				attrs["border"] = v
			} else if v := el.StyleProp("border"); v != "" {
				attrs["border"] = v
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement("img")
			el.Set("src", a.Get("src"))
			el.SetIf("alt", a.Get("alt"))
			el.SetIf("title", a.Get("title"))
			width, height := a.Get("width"), a.Get("height")
			if width == "auto" {
				width = ""
			}
			if height == "auto" {
				height = ""
			}
			el.SetIf("data-width", width)
			el.SetIf("data-height", height)
			if v := a.Get("align"); v != "" && v != "center" {
				el.Set("data-align", v)
			}
			el.SetIf("data-style-border", a.Get("border"))
			el.SetIf("style", StyleProps(
				[2]string{"width", width},
				[2]string{"height", height},
				[2]string{"border", a.Get("border")},
			))
			return el
		},
	}
}

// linkCardSpec is the atom node for fetched URL previews. All content is
// attribute-driven; the wire shape is a div discriminated by
// data-type="link-card".
func linkCardSpec() *NodeSpec {
	return &NodeSpec{
		Type:  LinkCard,
		Group: "block",
		Atom:  true,
		Tags:  []string{"div"},
		Attrs: []AttrDef{
			{Name: "href", Required: true},
			{Name: "title"},
			{Name: "description"},
			{Name: "image"},
			{Name: "siteName"},
			{Name: "domain"},
			{Name: "type", Default: "generic"},
		},
		Parse: func(el *Element) (Attrs, bool) {
			if el.Get("data-type") != "link-card" {
				return nil, false
			}
			attrs := Attrs{"href": el.Get("data-href")}
			if attrs["href"] == "" {
				return nil, false
			}
			for wire, name := range map[string]string{
				"data-title":       "title",
				"data-description": "description",
				"data-image":       "image",
				"data-site-name":   "siteName",
				"data-domain":      "domain",
				"data-card-type":   "type",
			} {
				if v := el.Get(wire); v != "" {
					attrs[name] = v
				}
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement("div")
			el.Set("data-type", "link-card")
			el.Set("data-href", a.Get("href"))
			el.SetIf("data-title", a.Get("title"))
			el.SetIf("data-description", a.Get("description"))
			el.SetIf("data-image", a.Get("image"))
			el.SetIf("data-site-name", a.Get("siteName"))
			el.SetIf("data-domain", a.Get("domain"))
			if v := a.Get("type"); v != "" && v != "generic" {
				el.Set("data-card-type", v)
			}
			return el
		},
	}
}

// mediaSpec covers video and audio. Dimensions are carried as data
// attributes plus a derived style string, matching the image shape, since
// resize writes px-suffixed values the native attributes cannot hold.
func mediaSpec(t NodeType, tag string) *NodeSpec {
	return &NodeSpec{
		Type:  t,
		Group: "block",
		Atom:  true,
		Tags:  []string{tag},
		Attrs: []AttrDef{
			{Name: "src", Required: true},
			{Name: "width"},
			{Name: "height"},
			{Name: "controls", Default: "true"},
		},
		Parse: func(el *Element) (Attrs, bool) {
			src := el.Get("src")
			if src == "" {
				return nil, false
			}
			attrs := Attrs{"src": src}
			if v := el.DataOr("width"); v != "" {
				attrs["width"] = v
			} else if v := el.StyleProp("width"); v != "" {
				attrs["width"] = v
			}
			if v := el.DataOr("height"); v != "" {
				attrs["height"] = v
			} else if v := el.StyleProp("height"); v != "" {
				attrs["height"] = v
			}
			if !el.Has("controls") {
				attrs["controls"] = "false"
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement(tag)
			el.Set("src", a.Get("src"))
			el.SetIf("data-width", a.Get("width"))
			el.SetIf("data-height", a.Get("height"))
			if a.Get("controls") != "false" {
				el.Set("controls", "controls")
			}
			el.SetIf("style", StyleProps(
				[2]string{"width", a.Get("width")},
				[2]string{"height", a.Get("height")},
			))
			return el
		},
	}
}

func horizontalRuleSpec() *NodeSpec {
	return &NodeSpec{
		Type:   HorizontalRule,
		Group:  "block",
		Atom:   true,
		Tags:   []string{"hr"},
		Parse:  func(*Element) (Attrs, bool) { return Attrs{}, true },
		Render: func(Attrs) *Element { return NewElement("hr") },
	}
}

// splitBorder decomposes a CSS border shorthand into width, style, color.
// Only the simple "Wpx style color" form is recognized.
func splitBorder(border string) (width, style, color string) {
	parts := strings.Fields(border)
	if len(parts) < 2 {
		return "", "", ""
	}
	width = parts[0]
	style = parts[1]
	if len(parts) > 2 {
		color = strings.Join(parts[2:], " ")
	}
	return width, style, color
}

// joinBorder composes the border shorthand, returning "" unless a width is
// present. A width without a style defaults to solid so the declaration
// stays valid.
func joinBorder(width, style, color string) string {
	if width == "" {
		return ""
	}
	if style == "" {
		style = "solid"
	}
	parts := []string{width, style}
	if color != "" {
		parts = append(parts, color)
	}
	return strings.Join(parts, " ")
}
