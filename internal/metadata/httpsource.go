package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/starford/laguz/internal/apperr"
)

// HTTPSource resolves metadata through a backend endpoint, the path the
// editor takes in a browser where cross-origin fetches are off the table.
type HTTPSource struct {
	endpoint string
	client   *http.Client
	token    string
}

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithSourceClient overrides the HTTP client.
func WithSourceClient(c *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithSourceToken sends a bearer token with each request.
func WithSourceToken(token string) HTTPSourceOption {
	return func(s *HTTPSource) { s.token = token }
}

// NewHTTPSource creates a source posting to the given metadata endpoint.
func NewHTTPSource(endpoint string, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{endpoint: endpoint, client: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve posts the URL to the endpoint and decodes the returned metadata.
func (s *HTTPSource) Resolve(ctx context.Context, rawURL string) (Meta, error) {
	body, err := json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		return Meta{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Meta{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Meta{}, fmt.Errorf("metadata endpoint: %v: %w", err, apperr.ErrUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Meta{}, fmt.Errorf("metadata endpoint status %d: %w", resp.StatusCode, apperr.ErrUnavailable)
	}

	var m Meta
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return Meta{}, fmt.Errorf("metadata endpoint decode: %w", err)
	}
	return m, nil
}
