// Package metadata resolves page metadata for link cards: title,
// description, preview image, and a platform classification derived from
// the hostname. Resolution never fails outright; whatever could not be
// fetched degrades to hostname fallbacks.
package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/laguz/internal/apperr"
)

// Meta is the resolved metadata for a URL. Every field may be empty except
// URL and Domain, which the resolver always derives.
type Meta struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	SiteName    string `json:"siteName"`
	Domain      string `json:"domain"`
	Type        string `json:"type"`
}

// Source provides metadata for a URL. Implementations return what they
// found; an error means the source could not be consulted at all, and the
// resolver moves on to the next one.
type Source interface {
	Resolve(ctx context.Context, rawURL string) (Meta, error)
}

// Chain consults sources in order, stopping at the first complete result.
// Sources that error are skipped. The returned meta always carries hostname
// fallbacks, so a chain where everything fails still yields a card.
type Chain []Source

// Resolve implements Source.
func (c Chain) Resolve(ctx context.Context, rawURL string) (Meta, error) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return Meta{}, fmt.Errorf("url %q: %w", rawURL, apperr.ErrInvalidAttrs)
	}
	var best Meta
	var have bool
	for _, s := range c {
		m, err := s.Resolve(ctx, normalized)
		if err != nil {
			continue
		}
		if m.Complete() {
			return Fill(m, normalized), nil
		}
		if !have {
			best, have = m, true
		}
	}
	return Fill(best, normalized), nil
}

// platformHosts maps known hostnames to a card type. Subdomains of a
// listed host classify the same.
var platformHosts = map[string]string{
	"youtube.com":    "youtube",
	"youtu.be":       "youtube",
	"twitter.com":    "twitter",
	"x.com":          "twitter",
	"github.com":     "github",
	"gitlab.com":     "gitlab",
	"vimeo.com":      "vimeo",
	"spotify.com":    "spotify",
	"soundcloud.com": "soundcloud",
	"instagram.com":  "instagram",
	"facebook.com":   "facebook",
	"linkedin.com":   "linkedin",
	"reddit.com":     "reddit",
	"medium.com":     "medium",
	"wikipedia.org":  "wikipedia",
}

// Normalize ensures the URL carries a scheme, defaulting to https. Returns
// an error only when the input cannot be a URL at all.
func Normalize(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", &url.Error{Op: "normalize", URL: rawURL, Err: url.InvalidHostError("")}
	}
	return u.String(), nil
}

// Classify maps a URL's hostname to a platform card type. Hosts outside
// the known set are "generic".
func Classify(rawURL string) string {
	host := Hostname(rawURL)
	for h, t := range platformHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return t
		}
	}
	return "generic"
}

// Hostname extracts the bare hostname, lowercased, www stripped.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// Fill completes a Meta with hostname fallbacks: a URL whose page gave no
// title is still presented as a card, just a thinner one.
func Fill(m Meta, rawURL string) Meta {
	m.URL = rawURL
	if m.Domain == "" {
		m.Domain = Hostname(rawURL)
	}
	if m.SiteName == "" {
		m.SiteName = m.Domain
	}
	if m.Title == "" {
		m.Title = m.Domain
	}
	if m.Description == "" {
		m.Description = rawURL
	}
	if m.Type == "" {
		m.Type = Classify(rawURL)
	}
	return m
}

// Complete reports whether the meta carries enough to stop consulting
// further sources.
func (m Meta) Complete() bool {
	return m.Title != "" && m.Description != ""
}
