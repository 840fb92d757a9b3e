package provider

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"zetflix/internal/config"
	"zetflix/internal/media"
)

func mk(id string, priority int, kinds ...media.Kind) Provider {
	p := Provider{ID: id, DisplayName: id, Priority: priority, Kinds: kinds, Templates: map[media.Kind]string{}}
	for _, k := range kinds {
		p.Templates[k] = "https://" + id + ".example/" + k.String() + "/{id}/{season}/{episode}"
	}
	return p
}

func ids(ps []Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestListOrdersByPriorityStable(t *testing.T) {
	reg, err := NewRegistry(
		mk("low", 1, media.Movie),
		mk("tie-a", 5, media.Movie, media.TV),
		mk("high", 9, media.Movie),
		mk("tie-b", 5, media.Movie),
		mk("tv-only", 7, media.TV),
	)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	got := ids(reg.List(media.Movie))
	want := []string{"high", "tie-a", "tie-b", "low"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List(movie) mismatch (-want +got):\n%s", diff)
	}

	got = ids(reg.List(media.TV))
	want = []string{"tv-only", "tie-a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List(tv) mismatch (-want +got):\n%s", diff)
	}
}

func TestListSkipsDisabledAndUnknownKinds(t *testing.T) {
	off := mk("off", 10, media.Movie)
	off.Status = Disabled
	reg, err := NewRegistry(off, mk("on", 1, media.Movie))
	if err != nil {
		t.Fatal(err)
	}

	if got := ids(reg.List(media.Movie)); !cmp.Equal(got, []string{"on"}) {
		t.Errorf("List(movie) = %v, want [on]", got)
	}
	if got := reg.List(media.Anime); len(got) != 0 {
		t.Errorf("List(anime) = %v, want empty", ids(got))
	}
	if _, ok := reg.Get("off"); !ok {
		t.Error("Get should find disabled providers")
	}
}

func TestListIncludesEachProviderOnce(t *testing.T) {
	reg, err := NewRegistry(Defaults()...)
	if err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	for _, kind := range media.Kinds {
		list := reg.List(kind)
		seen := map[string]int{}
		for i, p := range list {
			seen[p.ID]++
			if i > 0 && list[i-1].Priority < p.Priority {
				t.Errorf("%s: %s (priority %d) listed after %s (priority %d)", kind, p.ID, p.Priority, list[i-1].ID, list[i-1].Priority)
			}
		}
		for _, p := range reg.All() {
			want := 0
			if p.Status == Active && p.Supports(kind) {
				want = 1
			}
			if seen[p.ID] != want {
				t.Errorf("%s: provider %s listed %d times, want %d", kind, p.ID, seen[p.ID], want)
			}
		}
	}
}

func TestListReturnsCopy(t *testing.T) {
	reg, err := NewRegistry(mk("a", 2, media.Movie), mk("b", 1, media.Movie))
	if err != nil {
		t.Fatal(err)
	}
	list := reg.List(media.Movie)
	list[0].Priority = -100
	if got := reg.List(media.Movie)[0]; got.ID != "a" || got.Priority != 2 {
		t.Errorf("registry mutated through List result: %+v", got)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	missingTemplate := mk("missing", 1, media.Movie)
	missingTemplate.Kinds = append(missingTemplate.Kinds, media.TV)

	unknownPlaceholder := mk("unknown", 1, media.Movie)
	unknownPlaceholder.Templates[media.Movie] = "https://unknown.example/{tmdbId}"

	plainHTTP := mk("plain", 1, media.Movie)
	plainHTTP.Templates[media.Movie] = "http://plain.example/{id}"

	tests := []struct {
		name      string
		providers []Provider
		field     string
	}{
		{"empty id", []Provider{mk("", 1, media.Movie)}, "id"},
		{"bad id", []Provider{mk("Bad ID", 1, media.Movie)}, "id"},
		{"duplicate id", []Provider{mk("dup", 1, media.Movie), mk("dup", 2, media.TV)}, "id"},
		{"no kinds", []Provider{{ID: "none", Templates: map[media.Kind]string{}}}, "kinds"},
		{"missing template", []Provider{missingTemplate}, "templates"},
		{"unknown placeholder", []Provider{unknownPlaceholder}, "templates"},
		{"plain http", []Provider{plainHTTP}, "templates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.providers...)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q (%v)", verr.Field, tt.field, err)
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	entries := []config.ProviderConfig{
		{
			ID:        "mirror",
			Name:      "Mirror",
			Priority:  11,
			Kinds:     []string{"movie"},
			Templates: map[string]string{"movie": "https://mirror.example/e/{id}"},
		},
		{
			ID:        "vidsrc-pro",
			Name:      "VidSrc Pro (override)",
			Priority:  3,
			Kinds:     []string{"movie"},
			Templates: map[string]string{"movie": "https://vidsrc.example/movie/{id}"},
		},
	}

	providers, err := FromConfig(entries, []string{"vidsrc-xyz"})
	if err != nil {
		t.Fatalf("FromConfig() error: %v", err)
	}
	reg, err := NewRegistry(providers...)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	movies := ids(reg.List(media.Movie))
	if movies[0] != "mirror" {
		t.Errorf("first movie provider = %s, want mirror", movies[0])
	}
	for _, id := range movies {
		if id == "vidsrc-xyz" {
			t.Error("disabled provider listed")
		}
	}
	override, _ := reg.Get("vidsrc-pro")
	if override.Priority != 3 || override.Supports(media.TV) {
		t.Errorf("override not applied: %+v", override)
	}
	if reg.Len() != len(Defaults())+1 {
		t.Errorf("Len() = %d, want %d", reg.Len(), len(Defaults())+1)
	}
}

func TestFromConfigErrors(t *testing.T) {
	if _, err := FromConfig(nil, []string{"nope"}); err == nil {
		t.Error("expected error for unknown disabled provider")
	}
	bad := []config.ProviderConfig{{ID: "x", Kinds: []string{"podcast"}}}
	if _, err := FromConfig(bad, nil); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestLoad(t *testing.T) {
	cfg := config.Default()
	cfg.DisabledProviders = []string{"youtube-trailers", "archive-org"}

	reg, err := Load(cfg)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := len(reg.List(media.Movie)); got != 8 {
		t.Errorf("active movie providers = %d, want 8", got)
	}
	if got := ids(reg.List(media.Anime)); !cmp.Equal(got, []string{"animepahe", "gogoanime", "9anime", "crunchyroll-free"}) {
		t.Errorf("anime providers = %v", got)
	}
}
