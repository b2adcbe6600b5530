package nodeview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/laguz/internal/document"
	"github.com/starford/laguz/internal/editor"
	"github.com/starford/laguz/internal/metadata"
	"github.com/starford/laguz/internal/schema"
)

func setup(t *testing.T, markup string) *editor.Container {
	t.Helper()
	c := editor.NewContainer(schema.Default(), nil)
	if _, err := c.SetContent(markup); err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	return c
}

func imageNode(t *testing.T, c *editor.Container) *document.Node {
	t.Helper()
	img := c.Dispatcher().Document().Root.Children[0]
	if img.Type != schema.Image {
		t.Fatalf("first node = %s, want image", img.Type)
	}
	return img
}

func TestResize_CommitsOnceOnEnd(t *testing.T) {
	c := setup(t, `<img src="/a.png" data-width="200px" data-height="150px">`)
	img := imageNode(t, c)
	rc := NewResizeController(c.Dispatcher(), NewViewStateLock(c.View()))

	emissions := 0
	c.OnContent(func(string) { emissions++ })

	if err := rc.Start(img.ID, 200, 150, 10, 10, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, step := range [][2]int{{40, 20}, {80, 40}, {100, 50}} {
		if _, _, ok := rc.Move(10+step[0], 10+step[1]); !ok {
			t.Fatal("Move reported inactive gesture")
		}
	}
	if emissions != 0 {
		t.Fatalf("emissions during drag = %d, want 0", emissions)
	}

	if err := rc.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	if emissions != 1 {
		t.Errorf("emissions = %d, want exactly one commit", emissions)
	}
	got := imageNode(t, c).Attrs
	if got.Get("width") != "300px" || got.Get("height") != "200px" {
		t.Errorf("dimensions = %q x %q, want 300px x 200px", got.Get("width"), got.Get("height"))
	}
	if !strings.Contains(c.Content(), "width: 300px; height: 200px") {
		t.Errorf("content = %q, want committed style", c.Content())
	}
}

func TestResize_ClampsToMinimum(t *testing.T) {
	c := setup(t, `<img src="/a.png">`)
	img := imageNode(t, c)
	rc := NewResizeController(c.Dispatcher(), nil)

	if err := rc.Start(img.ID, 200, 150, 0, 0, false); err != nil {
		t.Fatal(err)
	}
	w, h, _ := rc.Move(-500, -500)
	if w != MinDimension || h != MinDimension {
		t.Errorf("clamped box = %dx%d, want %dx%d", w, h, MinDimension, MinDimension)
	}
}

func TestResize_AspectLockFollowsLargerDelta(t *testing.T) {
	c := setup(t, `<img src="/a.png">`)
	img := imageNode(t, c)
	rc := NewResizeController(c.Dispatcher(), nil)

	// 2:1 box. A mostly-horizontal drag drives width; height follows.
	if err := rc.Start(img.ID, 200, 100, 0, 0, true); err != nil {
		t.Fatal(err)
	}
	w, h, _ := rc.Move(100, 10)
	if w != 300 || h != 150 {
		t.Errorf("horizontal drive = %dx%d, want 300x150", w, h)
	}

	// A mostly-vertical drag drives height; width follows.
	w, h, _ = rc.Move(10, 100)
	if h != 200 || w != 400 {
		t.Errorf("vertical drive = %dx%d, want 400x200", w, h)
	}
}

func TestResize_AbortReleasesWithoutWriting(t *testing.T) {
	c := setup(t, `<img src="/a.png" data-width="200px">`)
	img := imageNode(t, c)
	lock := NewViewStateLock(c.View())
	rc := NewResizeController(c.Dispatcher(), lock)

	before := c.Content()
	if err := rc.Start(img.ID, 200, 150, 0, 0, false); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.View().Get(img.ID, "gestureLock"); !ok {
		t.Fatal("gesture lock not taken")
	}
	rc.Move(100, 100)
	rc.Abort()

	if c.Content() != before {
		t.Error("abort changed the document")
	}
	if _, ok := c.View().Get(img.ID, "gestureLock"); ok {
		t.Error("gesture lock leaked after abort")
	}
	if rc.Active() {
		t.Error("controller still active after abort")
	}
}

func TestResize_RestartAbortsPrevious(t *testing.T) {
	c := setup(t, `<img src="/a.png"><img src="/b.png">`)
	doc := c.Dispatcher().Document()
	a, b := doc.Root.Children[0], doc.Root.Children[1]
	lock := NewViewStateLock(c.View())
	rc := NewResizeController(c.Dispatcher(), lock)

	if err := rc.Start(a.ID, 100, 100, 0, 0, false); err != nil {
		t.Fatal(err)
	}
	if err := rc.Start(b.ID, 100, 100, 0, 0, false); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.View().Get(a.ID, "gestureLock"); ok {
		t.Error("first gesture's lock survived a restart")
	}
}

func TestImmediateEditor(t *testing.T) {
	c := setup(t, `<img src="/a.png">`)
	img := imageNode(t, c)
	e := NewImmediateEditor(c.Dispatcher(), img.ID)

	emissions := 0
	c.OnContent(func(string) { emissions++ })
	for _, v := range []string{"c", "ca", "cat"} {
		if err := e.Set("alt", v); err != nil {
			t.Fatal(err)
		}
	}
	if emissions != 3 {
		t.Errorf("emissions = %d, want one per keystroke", emissions)
	}
	if got := imageNode(t, c).Attrs.Get("alt"); got != "cat" {
		t.Errorf("alt = %q, want cat", got)
	}
}

func TestGatedEditor_SaveWritesOnce(t *testing.T) {
	c := setup(t, `<video src="/old.mp4"></video>`)
	vid := c.Dispatcher().Document().Root.Children[0]
	e := NewGatedEditor(c.Dispatcher(), vid.ID)

	emissions := 0
	c.OnContent(func(string) { emissions++ })

	if err := e.Open(); err != nil {
		t.Fatal(err)
	}
	e.Set("src", "/new.mp4")
	e.Set("width", "560px")
	if emissions != 0 {
		t.Fatalf("emissions while staging = %d, want 0", emissions)
	}
	if got := e.Value("src"); got != "/new.mp4" {
		t.Errorf("staged value = %q, want /new.mp4", got)
	}

	if err := e.Save(); err != nil {
		t.Fatal(err)
	}
	if emissions != 1 {
		t.Errorf("emissions = %d, want single save", emissions)
	}
	got := c.Dispatcher().Document().Root.Children[0].Attrs
	if got.Get("src") != "/new.mp4" || got.Get("width") != "560px" {
		t.Errorf("attrs = %v, want staged values committed", got)
	}
}

func TestGatedEditor_CancelDiscards(t *testing.T) {
	c := setup(t, `<audio src="/keep.mp3"></audio>`)
	aud := c.Dispatcher().Document().Root.Children[0]
	e := NewGatedEditor(c.Dispatcher(), aud.ID)

	if err := e.Open(); err != nil {
		t.Fatal(err)
	}
	e.Set("src", "/typo")
	e.Cancel()

	if got := c.Dispatcher().Document().Root.Children[0].Attrs.Get("src"); got != "/keep.mp3" {
		t.Errorf("src = %q, want untouched after cancel", got)
	}
	if err := e.Set("src", "/late"); err == nil {
		t.Error("Set after cancel succeeded, want rejection")
	}
}

// stubSource returns a fixed result or error, optionally running a hook
// before answering.
type stubSource struct {
	meta   metadata.Meta
	err    error
	hits   int
	before func()
}

func (s *stubSource) Resolve(ctx context.Context, rawURL string) (metadata.Meta, error) {
	s.hits++
	if s.before != nil {
		s.before()
	}
	return s.meta, s.err
}

func TestLinkCardResolver_StopsAtFirstComplete(t *testing.T) {
	first := &stubSource{meta: metadata.Meta{Title: "T", Description: "D"}}
	second := &stubSource{meta: metadata.Meta{Title: "other"}}
	c := setup(t, "<p>x</p>")
	r := NewLinkCardResolver(c.Dispatcher(), schema.Default(), first, second)

	m, err := r.Resolve(context.Background(), "example.com/page")
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "T" || m.Description != "D" {
		t.Errorf("meta = %+v, want first source's result", m)
	}
	if second.hits != 0 {
		t.Error("second source consulted after first was complete")
	}
	if m.URL != "https://example.com/page" {
		t.Errorf("URL = %q, want https prefix added", m.URL)
	}
}

func TestLinkCardResolver_SourceErrorsSkipped(t *testing.T) {
	failing := &stubSource{err: errors.New("down")}
	working := &stubSource{meta: metadata.Meta{Title: "T", Description: "D"}}
	c := setup(t, "<p>x</p>")
	r := NewLinkCardResolver(c.Dispatcher(), schema.Default(), failing, working)

	m, err := r.Resolve(context.Background(), "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "T" {
		t.Errorf("meta = %+v, want fallthrough to working source", m)
	}
}

func TestLinkCardResolver_HostnameFallback(t *testing.T) {
	empty := &stubSource{}
	c := setup(t, "<p>x</p>")
	r := NewLinkCardResolver(c.Dispatcher(), schema.Default(), empty)

	m, err := r.Resolve(context.Background(), "https://www.unknown-blog.example/post/1")
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "unknown-blog.example" || m.Domain != "unknown-blog.example" {
		t.Errorf("meta = %+v, want hostname fallbacks", m)
	}
	if m.Description != "https://www.unknown-blog.example/post/1" {
		t.Errorf("description = %q, want the normalized URL", m.Description)
	}
	if m.Type != "generic" {
		t.Errorf("type = %q, want generic", m.Type)
	}
}

func TestLinkCardResolver_Insert(t *testing.T) {
	src := &stubSource{meta: metadata.Meta{Title: "GitHub", Description: "Repo", SiteName: "GitHub"}}
	c := setup(t, "<p>x</p>")
	r := NewLinkCardResolver(c.Dispatcher(), schema.Default(), src)
	para := c.Dispatcher().Document().Root.Children[0]

	ok, err := r.Insert(context.Background(), para.ID, "github.com/owner/repo")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Insert reported superseded result")
	}
	card := c.Dispatcher().Document().Root.Children[1]
	if card.Type != schema.LinkCard {
		t.Fatalf("node = %s, want linkCard", card.Type)
	}
	if card.Attrs.Get("type") != "github" {
		t.Errorf("card type = %q, want github classification", card.Attrs.Get("type"))
	}
	if !strings.Contains(c.Content(), `data-type="link-card"`) {
		t.Errorf("content = %q, want serialized card", c.Content())
	}
}

func TestLinkCardResolver_StaleResultDiscarded(t *testing.T) {
	c := setup(t, "<p>x</p>")
	var r *LinkCardResolver
	// A newer input arrives while the first resolution is in flight.
	src := &stubSource{
		meta:   metadata.Meta{Title: "T", Description: "D"},
		before: func() { r.token.Add(1) },
	}
	r = NewLinkCardResolver(c.Dispatcher(), schema.Default(), src)
	para := c.Dispatcher().Document().Root.Children[0]

	before := len(c.Dispatcher().Document().Root.Children)
	ok, err := r.Insert(context.Background(), para.ID, "https://slow.example")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("superseded insert reported success")
	}
	if got := len(c.Dispatcher().Document().Root.Children); got != before {
		t.Error("superseded insert still modified the document")
	}
}
