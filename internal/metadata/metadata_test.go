package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const fixturePage = `<!DOCTYPE html>
<html><head>
<title>Plain Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description.">
<meta property="og:image" content="https://example.com/og.png">
<meta property="og:site_name" content="Example Site">
<meta name="description" content="Plain description.">
</head><body><p>og:title in body must be ignored</p></body></html>`

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
		wantErr  bool
	}{
		{"example.com", "https://example.com", false},
		{"example.com/path?q=1", "https://example.com/path?q=1", false},
		{"http://example.com", "http://example.com", false},
		{"https://example.com", "https://example.com", false},
		{"", "", true},
		{"   ", "", true},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Normalize(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Normalize(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct{ url, want string }{
		{"https://www.youtube.com/watch?v=x", "youtube"},
		{"https://youtu.be/x", "youtube"},
		{"https://x.com/someone/status/1", "twitter"},
		{"https://github.com/owner/repo", "github"},
		{"https://en.wikipedia.org/wiki/Go", "wikipedia"},
		{"https://open.spotify.com/track/x", "spotify"},
		{"https://some.random.site/page", "generic"},
	}
	for _, tc := range cases {
		if got := Classify(tc.url); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestParsePage_OGWins(t *testing.T) {
	m, err := ParsePage(strings.NewReader(fixturePage))
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if m.Title != "OG Title" {
		t.Errorf("Title = %q, want og:title over <title>", m.Title)
	}
	if m.Description != "OG description." {
		t.Errorf("Description = %q, want og:description over meta description", m.Description)
	}
	if m.Image != "https://example.com/og.png" || m.SiteName != "Example Site" {
		t.Errorf("Image/SiteName = %q/%q, want og values", m.Image, m.SiteName)
	}
}

func TestParsePage_FallsBackToTitleTag(t *testing.T) {
	m, err := ParsePage(strings.NewReader(`<html><head><title>Only Title</title></head><body></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "Only Title" {
		t.Errorf("Title = %q, want <title> fallback", m.Title)
	}
}

func TestFill_HostnameFallbacks(t *testing.T) {
	m := Fill(Meta{}, "https://www.example.com/deep/page")
	if m.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", m.Domain)
	}
	if m.Title != "example.com" || m.SiteName != "example.com" {
		t.Errorf("Title/SiteName = %q/%q, want hostname fallbacks", m.Title, m.SiteName)
	}
	if m.Description != "https://www.example.com/deep/page" {
		t.Errorf("Description = %q, want the normalized URL", m.Description)
	}
	if m.Type != "generic" {
		t.Errorf("Type = %q, want generic", m.Type)
	}
}

func TestService_ResolveAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(fixturePage))
	}))
	defer srv.Close()

	s := NewService(nil)
	m, err := s.Resolve(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Title != "OG Title" || !m.Complete() {
		t.Errorf("meta = %+v, want complete og metadata", m)
	}
	if m.URL != srv.URL {
		t.Errorf("URL = %q, want %q", m.URL, srv.URL)
	}

	if _, err := s.Resolve(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("fetches = %d, want cached second resolve", got)
	}
}

func TestService_UnreachableHostDegrades(t *testing.T) {
	s := NewService(nil)
	m, err := s.Resolve(context.Background(), "http://127.0.0.1:1/nope")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Title != "127.0.0.1" || m.Domain != "127.0.0.1" {
		t.Errorf("meta = %+v, want hostname fallbacks on fetch failure", m)
	}
}

func TestService_InvalidURL(t *testing.T) {
	s := NewService(nil)
	if _, err := s.Resolve(context.Background(), "   "); err == nil {
		t.Error("Resolve of blank input succeeded, want error")
	}
}

type chainStub struct {
	meta Meta
	err  error
}

func (s chainStub) Resolve(ctx context.Context, rawURL string) (Meta, error) {
	return s.meta, s.err
}

func TestChain_StopsAtComplete(t *testing.T) {
	c := Chain{
		chainStub{err: context.DeadlineExceeded},
		chainStub{meta: Meta{Title: "First", Description: "d"}},
		chainStub{meta: Meta{Title: "Second", Description: "d"}},
	}
	m, err := c.Resolve(context.Background(), "example.com/x")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Title != "First" {
		t.Errorf("title = %q, want first complete source", m.Title)
	}
	if m.Domain != "example.com" {
		t.Errorf("domain = %q, want hostname fill", m.Domain)
	}
}

func TestChain_AllFailFallsBack(t *testing.T) {
	c := Chain{chainStub{err: context.DeadlineExceeded}}
	m, err := c.Resolve(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Title != "example.com" {
		t.Errorf("title = %q, want hostname fallback", m.Title)
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth = %q, want bearer token", got)
		}
		w.Write([]byte(`{"title":"Remote","description":"d","domain":"r.test"}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithSourceToken("tok"))
	m, err := src.Resolve(context.Background(), "https://r.test/x")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Title != "Remote" || m.Domain != "r.test" {
		t.Errorf("meta = %+v, want decoded response", m)
	}
}
