package provider

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"zetflix/internal/httputil"
	"zetflix/internal/media"
)

// ValidationError rejects a malformed provider entry at registry load time.
type ValidationError struct {
	ProviderID string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	id := e.ProviderID
	if id == "" {
		id = "<unnamed>"
	}
	return fmt.Sprintf("provider %s: %s: %s", id, e.Field, e.Reason)
}

// Registry is the read-only, priority-ordered catalog of providers.
// It is safe for concurrent use once constructed.
type Registry struct {
	providers []Provider
	byID      map[string]int
}

// NewRegistry validates every provider and builds a registry preserving insertion order.
// The first malformed entry rejects the whole set.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make([]Provider, 0, len(providers)),
		byID:      make(map[string]int, len(providers)),
	}
	for _, p := range providers {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, &ValidationError{ProviderID: p.ID, Field: "id", Reason: "duplicate id"}
		}
		p.Kinds = slices.Clone(p.Kinds)
		templates := make(map[media.Kind]string, len(p.Templates))
		for k, v := range p.Templates {
			templates[k] = v
		}
		p.Templates = templates

		r.byID[p.ID] = len(r.providers)
		r.providers = append(r.providers, p)
	}
	return r, nil
}

// List returns the active providers supporting kind, highest priority first.
// Ties keep insertion order. The result is a fresh slice.
func (r *Registry) List(kind media.Kind) []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Status == Active && p.Supports(kind) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Get looks a provider up by id regardless of its status.
func (r *Registry) Get(id string) (Provider, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Provider{}, false
	}
	return r.providers[i], true
}

// All returns every provider in insertion order.
func (r *Registry) All() []Provider {
	return slices.Clone(r.providers)
}

// Len returns the number of registered providers.
func (r *Registry) Len() int { return len(r.providers) }

var (
	validProviderID = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	placeholderRE   = regexp.MustCompile(`\{[^{}]*\}`)
	sampleValues    = strings.NewReplacer(
		PlaceholderID, "550",
		PlaceholderSeason, "1",
		PlaceholderEpisode, "1",
		PlaceholderTitleSlug, "sample-title",
		PlaceholderYear, "1999",
		PlaceholderTitleQuery, "sample+title",
	)
)

func validate(p Provider) error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Reason: "cannot be empty"}
	}
	if !validProviderID.MatchString(p.ID) {
		return &ValidationError{ProviderID: p.ID, Field: "id", Reason: "must be lowercase letters, digits and hyphens"}
	}
	if len(p.Kinds) == 0 {
		return &ValidationError{ProviderID: p.ID, Field: "kinds", Reason: "at least one content kind is required"}
	}
	for _, kind := range p.Kinds {
		tmpl, ok := p.Template(kind)
		if !ok {
			return &ValidationError{ProviderID: p.ID, Field: "templates", Reason: fmt.Sprintf("no template for kind %s", kind)}
		}
		for _, ph := range placeholderRE.FindAllString(tmpl, -1) {
			if !slices.Contains(Placeholders, ph) {
				return &ValidationError{ProviderID: p.ID, Field: "templates", Reason: fmt.Sprintf("unknown placeholder %s in %s template", ph, kind)}
			}
		}
		if err := httputil.ValidateURL(sampleValues.Replace(tmpl)); err != nil {
			return &ValidationError{ProviderID: p.ID, Field: "templates", Reason: fmt.Sprintf("%s template: %v", kind, err)}
		}
	}
	return nil
}
