package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"

	"github.com/starford/laguz/internal/apperr"
)

const (
	defaultFetchTimeout = 5 * time.Second
	defaultMaxBodySize  = 1 << 20 // 1 MiB of page head is plenty for meta tags
	defaultCacheTTL     = 15 * time.Minute
)

// Service fetches pages and extracts their metadata. Concurrent requests
// for the same URL collapse into one fetch, and results are cached for a
// TTL so a note full of links to the same page costs one round trip.
type Service struct {
	client  *http.Client
	log     *slog.Logger
	maxBody int64
	ttl     time.Duration

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	meta    Meta
	expires time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithHTTPClient overrides the fetch client.
func WithHTTPClient(c *http.Client) ServiceOption {
	return func(s *Service) { s.client = c }
}

// WithCacheTTL overrides how long resolved metadata is kept.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.ttl = ttl }
}

// WithMaxBodySize overrides the fetch size cap.
func WithMaxBodySize(n int64) ServiceOption {
	return func(s *Service) { s.maxBody = n }
}

// NewService creates a page metadata service.
func NewService(log *slog.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		client:  &http.Client{Timeout: defaultFetchTimeout},
		log:     log,
		maxBody: defaultMaxBodySize,
		ttl:     defaultCacheTTL,
		cache:   map[string]cacheEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve fetches the URL and extracts metadata, serving from cache when
// fresh. Fetch and parse failures degrade to hostname fallbacks rather
// than erroring: a link card is always produced.
func (s *Service) Resolve(ctx context.Context, rawURL string) (Meta, error) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return Meta{}, fmt.Errorf("resolve metadata: %v: %w", err, apperr.ErrInvalidAttrs)
	}

	s.mu.Lock()
	if e, ok := s.cache[normalized]; ok && time.Now().Before(e.expires) {
		s.mu.Unlock()
		return e.meta, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(normalized, func() (any, error) {
		meta := s.fetch(ctx, normalized)
		meta = Fill(meta, normalized)
		s.mu.Lock()
		s.cache[normalized] = cacheEntry{meta: meta, expires: time.Now().Add(s.ttl)}
		s.mu.Unlock()
		return meta, nil
	})
	if err != nil {
		return Meta{}, err
	}
	return v.(Meta), nil
}

func (s *Service) fetch(ctx context.Context, rawURL string) Meta {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Meta{}
	}
	req.Header.Set("Accept", "text/html")
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("metadata fetch failed", "url", rawURL, "error", err)
		return Meta{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.log.Debug("metadata fetch non-200", "url", rawURL, "status", resp.StatusCode)
		return Meta{}
	}
	meta, err := ParsePage(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		s.log.Debug("metadata parse failed", "url", rawURL, "error", err)
		return Meta{}
	}
	return meta
}

// ParsePage extracts metadata from an HTML page: Open Graph tags first,
// twitter card tags next, then the plain <title> and description meta.
func ParsePage(r io.Reader) (Meta, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Meta{}, err
	}

	var m Meta
	var title string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				name, content := metaAttr(n, "property"), metaAttr(n, "content")
				if name == "" {
					name = metaAttr(n, "name")
				}
				applyMeta(&m, strings.ToLower(name), content)
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "body":
				// Meta tags live in the head.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)

	if m.Title == "" {
		m.Title = title
	}
	return m, nil
}

// applyMeta fills the first empty slot a tag maps to; og: beats twitter:
// beats plain names because og: tags are visited with their value applied
// only when the field is still empty and sources are checked in that
// order per field.
func applyMeta(m *Meta, name, content string) {
	if content == "" {
		return
	}
	switch name {
	case "og:title":
		m.Title = content
	case "og:description":
		m.Description = content
	case "og:image":
		m.Image = content
	case "og:site_name":
		m.SiteName = content
	case "og:type":
		m.Type = classifyOGType(content)
	case "twitter:title":
		if m.Title == "" {
			m.Title = content
		}
	case "twitter:description":
		if m.Description == "" {
			m.Description = content
		}
	case "twitter:image":
		if m.Image == "" {
			m.Image = content
		}
	case "description":
		if m.Description == "" {
			m.Description = content
		}
	}
}

func classifyOGType(og string) string {
	switch {
	case strings.HasPrefix(og, "video"):
		return "video"
	case strings.HasPrefix(og, "music"):
		return "audio"
	case og == "article":
		return "article"
	default:
		return ""
	}
}

func metaAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
