// Package provider holds the static catalog of embed providers and the
// registry that orders them for playback.
package provider

import (
	"slices"

	"zetflix/internal/media"
)

// Status marks whether a provider takes part in playback.
type Status int

const (
	Active Status = iota
	Disabled
)

func (s Status) String() string {
	if s == Disabled {
		return "disabled"
	}
	return "active"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Template placeholders understood by the embed URL builder.
const (
	PlaceholderID         = "{id}"
	PlaceholderSeason     = "{season}"
	PlaceholderEpisode    = "{episode}"
	PlaceholderTitleSlug  = "{titleSlug}"
	PlaceholderYear       = "{year}"
	PlaceholderTitleQuery = "{titleQuery}"
)

// Placeholders lists every placeholder a template may use.
var Placeholders = []string{
	PlaceholderID,
	PlaceholderSeason,
	PlaceholderEpisode,
	PlaceholderTitleSlug,
	PlaceholderYear,
	PlaceholderTitleQuery,
}

// Provider is a third-party embed endpoint able to serve one or more content kinds.
type Provider struct {
	ID          string                `json:"id"`
	DisplayName string                `json:"name"`
	Priority    int                   `json:"priority"` // higher is tried first
	Kinds       []media.Kind          `json:"kinds"`
	Status      Status                `json:"status"`
	Templates   map[media.Kind]string `json:"-"`
}

// Supports reports whether the provider claims the given kind.
func (p Provider) Supports(kind media.Kind) bool {
	return slices.Contains(p.Kinds, kind)
}

// Template returns the URL template for kind, if any.
func (p Provider) Template(kind media.Kind) (string, bool) {
	t, ok := p.Templates[kind]
	return t, ok && t != ""
}
