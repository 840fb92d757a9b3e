// Package embed resolves provider URL templates into embed URLs.
package embed

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"zetflix/internal/media"
	"zetflix/internal/provider"
)

var (
	// ErrUnsupportedKind means the provider does not serve the requested content kind.
	ErrUnsupportedKind = errors.New("provider does not support content kind")
	// ErrMissingTemplate means the provider has no URL template for the requested kind.
	ErrMissingTemplate = errors.New("provider has no URL template for content kind")
)

// Build resolves p's template for req into a URL. It has no side effects.
func Build(p provider.Provider, req media.PlaybackRequest) (string, error) {
	kind := req.Content.Kind
	if !p.Supports(kind) {
		return "", fmt.Errorf("%s: %s: %w", p.ID, kind, ErrUnsupportedKind)
	}
	tmpl, ok := p.Template(kind)
	if !ok {
		return "", fmt.Errorf("%s: %s: %w", p.ID, kind, ErrMissingTemplate)
	}

	req = req.Normalized()
	year := ""
	if req.Content.Year > 0 {
		year = strconv.Itoa(req.Content.Year)
	}

	r := strings.NewReplacer(
		provider.PlaceholderID, url.PathEscape(req.Content.ExternalID),
		provider.PlaceholderSeason, strconv.Itoa(req.Season),
		provider.PlaceholderEpisode, strconv.Itoa(req.Episode),
		provider.PlaceholderTitleSlug, Slug(req.Content.Title),
		provider.PlaceholderYear, year,
		provider.PlaceholderTitleQuery, url.QueryEscape(req.Content.Title),
	)
	return r.Replace(tmpl), nil
}

// Source pairs a provider with the URL it would play for a request.
type Source struct {
	Provider provider.Provider `json:"provider"`
	URL      string            `json:"url,omitempty"`
	Err      error             `json:"-"`
}

// Lister is the subset of the registry needed to enumerate candidates.
type Lister interface {
	List(kind media.Kind) []provider.Provider
}

// Sources resolves every candidate provider for req in priority order.
// Providers whose template fails to build are kept with Err set.
func Sources(reg Lister, req media.PlaybackRequest) []Source {
	providers := reg.List(req.Content.Kind)
	out := make([]Source, 0, len(providers))
	for _, p := range providers {
		u, err := Build(p, req)
		out = append(out, Source{Provider: p, URL: u, Err: err})
	}
	return out
}
