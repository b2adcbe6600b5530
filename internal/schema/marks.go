package schema

func registerDefaultMarks(r *Registry) {
	simpleMark := func(t MarkType, renderTag string, tags ...string) *MarkSpec {
		return &MarkSpec{
			Type:   t,
			Tags:   tags,
			Parse:  func(*Element) (Attrs, bool) { return Attrs{}, true },
			Render: func(Attrs) *Element { return NewElement(renderTag) },
		}
	}

	r.RegisterMark(simpleMark(Bold, "strong", "strong", "b"))
	r.RegisterMark(simpleMark(Italic, "em", "em", "i"))
	r.RegisterMark(simpleMark(Underline, "u", "u"))
	r.RegisterMark(simpleMark(Strike, "s", "s", "del", "strike"))
	r.RegisterMark(simpleMark(CodeMark, "code", "code"))

	r.RegisterMark(&MarkSpec{
		Type:  LinkMark,
		Tags:  []string{"a"},
		Attrs: []AttrDef{{Name: "href", Required: true}, {Name: "target"}},
		Parse: func(el *Element) (Attrs, bool) {
			href := el.Get("href")
			if href == "" {
				return nil, false
			}
			attrs := Attrs{"href": href}
			if v := el.Get("target"); v != "" {
				attrs["target"] = v
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement("a")
			el.Set("href", a.Get("href"))
			el.SetIf("target", a.Get("target"))
			return el
		},
	})

	// textStyle only matches spans that actually declare a color; bare
	// spans stay unrecognized so their children are lifted instead.
	r.RegisterMark(&MarkSpec{
		Type:  TextStyle,
		Tags:  []string{"span"},
		Attrs: []AttrDef{{Name: "color", Required: true}},
		Parse: func(el *Element) (Attrs, bool) {
			color := el.Get("data-color")
			if color == "" {
				color = el.StyleProp("color")
			}
			if color == "" {
				return nil, false
			}
			return Attrs{"color": color}, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement("span")
			el.Set("data-color", a.Get("color"))
			el.Set("style", StyleProps([2]string{"color", a.Get("color")}))
			return el
		},
	})

	r.RegisterMark(&MarkSpec{
		Type:  Highlight,
		Tags:  []string{"mark"},
		Attrs: []AttrDef{{Name: "color"}},
		Parse: func(el *Element) (Attrs, bool) {
			attrs := Attrs{}
			if v := el.Get("data-color"); v != "" {
				attrs["color"] = v
			} else if v := el.StyleProp("background-color"); v != "" {
				attrs["color"] = v
			}
			return attrs, true
		},
		Render: func(a Attrs) *Element {
			el := NewElement("mark")
			el.SetIf("data-color", a.Get("color"))
			el.SetIf("style", StyleProps([2]string{"background-color", a.Get("color")}))
			return el
		},
	})
}
