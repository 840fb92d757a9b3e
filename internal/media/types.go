// Package media defines shared types for the zetflix application.
package media

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies which catalog a piece of content comes from.
type Kind int

const (
	Movie Kind = iota
	TV
	Anime
)

// Kinds lists every content kind in display order.
var Kinds = []Kind{Movie, TV, Anime}

func (k Kind) String() string {
	switch k {
	case Movie:
		return "movie"
	case TV:
		return "tv"
	case Anime:
		return "anime"
	default:
		return "unknown"
	}
}

// ParseKind accepts the canonical names plus a few common aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "film":
		return Movie, nil
	case "tv", "show", "shows", "series":
		return TV, nil
	case "anime":
		return Anime, nil
	default:
		return Movie, fmt.Errorf("unknown content kind %q (valid: movie, tv, anime)", s)
	}
}

// Episodic reports whether content of this kind is split into episodes.
func (k Kind) Episodic() bool { return k == TV || k == Anime }

// HasSeasons reports whether content of this kind is grouped into seasons.
func (k Kind) HasSeasons() bool { return k == TV }

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ContentItem is the source-agnostic representation of a movie, show or anime.
// Zero values mean the field is unknown.
type ContentItem struct {
	Kind           Kind     `json:"kind"`
	ExternalID     string   `json:"id"`
	Title          string   `json:"title"`
	AlternateTitle string   `json:"alternate_title,omitempty"`
	PosterURL      string   `json:"poster_url,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	Year           int      `json:"year,omitempty"`
	Overview       string   `json:"overview,omitempty"`
	SeasonCount    int      `json:"season_count,omitempty"`
	EpisodeCount   int      `json:"episode_count,omitempty"`
	Popularity     float64  `json:"popularity,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Status         string   `json:"status,omitempty"`
	Format         string   `json:"format,omitempty"`
}

// Key identifies an item within its own backend namespace.
func (c ContentItem) Key() string {
	return c.Kind.String() + ":" + c.ExternalID
}

// DisplayTitle renders a single-line label for selection menus.
func (c ContentItem) DisplayTitle() string {
	var b strings.Builder
	b.WriteString(c.Title)
	if c.Year > 0 {
		fmt.Fprintf(&b, " (%d)", c.Year)
	}
	fmt.Fprintf(&b, " [%s]", c.Kind)
	if c.Rating > 0 {
		fmt.Fprintf(&b, " %.1f", c.Rating)
	}
	return b.String()
}

// PlaybackRequest asks for a specific item, season and episode.
// Season and Episode are 1-based; 0 means "not specified".
type PlaybackRequest struct {
	Content ContentItem `json:"content"`
	Season  int         `json:"season,omitempty"`
	Episode int         `json:"episode,omitempty"`
}

// Normalized fills omitted season/episode numbers with 1.
func (r PlaybackRequest) Normalized() PlaybackRequest {
	if r.Season < 1 {
		r.Season = 1
	}
	if r.Episode < 1 {
		r.Episode = 1
	}
	return r
}

// Label renders the request for logs and player titles.
func (r PlaybackRequest) Label() string {
	r = r.Normalized()
	switch {
	case r.Content.Kind.HasSeasons():
		return fmt.Sprintf("%s S%02dE%02d", r.Content.Title, r.Season, r.Episode)
	case r.Content.Kind.Episodic():
		return fmt.Sprintf("%s E%02d", r.Content.Title, r.Episode)
	default:
		return r.Content.Title
	}
}

// SearchResultSet is the merged outcome of one search call.
type SearchResultSet struct {
	Query      string        `json:"query"`
	Items      []ContentItem `json:"items"`
	TotalCount int           `json:"total_count"`
}

// Row is one titled strip of content on the home screen.
type Row struct {
	Key   string        `json:"key"`
	Title string        `json:"title"`
	Items []ContentItem `json:"items"`
}

// Genre is a browsable category. Anime genres are queried by name.
type Genre struct {
	Kind Kind   `json:"kind"`
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Season represents a TV show season.
type Season struct {
	Number       int    `json:"number"`
	Name         string `json:"name,omitempty"`
	EpisodeCount int    `json:"episode_count,omitempty"`
}

// Episode represents a single episode.
type Episode struct {
	Number   int    `json:"number"`
	Title    string `json:"title,omitempty"`
	AirDate  string `json:"air_date,omitempty"`
	Overview string `json:"overview,omitempty"`
}

// HistoryEntry represents a single entry in the watch history.
type HistoryEntry struct {
	Kind       Kind      `json:"kind"`
	ExternalID string    `json:"id"`
	Title      string    `json:"title"`
	Year       int       `json:"year,omitempty"`
	Season     int       `json:"season,omitempty"`  // 0 for movies
	Episode    int       `json:"episode,omitempty"` // 0 for movies
	ProviderID string    `json:"provider,omitempty"`
	WatchedAt  time.Time `json:"watched_at"`
}

// Content rebuilds the minimal ContentItem needed to resume playback.
func (e HistoryEntry) Content() ContentItem {
	return ContentItem{Kind: e.Kind, ExternalID: e.ExternalID, Title: e.Title, Year: e.Year}
}
