// Package assist builds prompts for and talks to an AI generation backend.
// The backend returns markup fragments that are inserted straight into the
// document, so prompts pin the output format down hard.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/starford/laguz/internal/apperr"
)

// formatInstruction is appended to every prompt. Generated output goes
// directly into the editor, so anything that is not clean markup corrupts
// the document.
const formatInstruction = "Respond with HTML markup only, using p, h1-h6, ul, ol, li, " +
	"blockquote, pre, strong, em and a tags. No markdown, no code fences, " +
	"no commentary before or after the markup."

// Presets are the canned operations the assist menu offers. The key is the
// preset name; the value phrases the task.
var Presets = map[string]string{
	"continue":  "Continue writing from where the following text leaves off.",
	"summarize": "Summarize the following text in a short paragraph.",
	"improve":   "Rewrite the following text with better clarity and flow, keeping its meaning.",
	"outline":   "Produce a heading and bullet outline for the following topic.",
	"translate": "Translate the following text to English.",
}

// PromptBuilder assembles the final prompt from a preset or free-form
// instruction plus document context.
type PromptBuilder struct {
	instruction string
	context     string
}

// NewPrompt starts a builder from a free-form instruction.
func NewPrompt(instruction string) *PromptBuilder {
	return &PromptBuilder{instruction: instruction}
}

// NewPresetPrompt starts a builder from a named preset.
func NewPresetPrompt(name string) (*PromptBuilder, error) {
	task, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("assist preset %q: %w", name, apperr.ErrNotFound)
	}
	return &PromptBuilder{instruction: task}, nil
}

// WithContext attaches the selected document text the instruction operates
// on.
func (b *PromptBuilder) WithContext(text string) *PromptBuilder {
	b.context = text
	return b
}

// Build produces the prompt string sent to the backend.
func (b *PromptBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString(b.instruction)
	sb.WriteString("\n\n")
	sb.WriteString(formatInstruction)
	if b.context != "" {
		sb.WriteString("\n\n---\n")
		sb.WriteString(b.context)
	}
	return sb.String()
}

// Client calls the generation backend. The backend's response schema is
// not fully pinned down across deployments: some return the fragment under
// "content", others under "result". Both are accepted.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.client = c }
}

// WithToken sends a bearer token with each request.
func WithToken(token string) ClientOption {
	return func(cl *Client) { cl.token = token }
}

// NewClient creates a client for the given endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Content string `json:"content"`
	Result  string `json:"result"`
	Error   string `json:"error"`
}

// Generate sends the prompt and returns the generated markup fragment.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("assist backend: %v: %w", err, apperr.ErrUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assist backend status %d: %w", resp.StatusCode, apperr.ErrUnavailable)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("assist backend decode: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("assist backend: %s: %w", out.Error, apperr.ErrUnavailable)
	}
	fragment := out.Content
	if fragment == "" {
		fragment = out.Result
	}
	if strings.TrimSpace(fragment) == "" {
		return "", fmt.Errorf("assist backend returned empty fragment: %w", apperr.ErrUnavailable)
	}
	return fragment, nil
}
