// Package history records what was watched so playback can be resumed.
// Entries are keyed by content (kind + id); saving the same content again
// replaces the old entry and moves it to the front.
package history

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"zetflix/internal/config"
	"zetflix/internal/media"
)

// ErrNotFound is returned by Remove when no entry matches.
var ErrNotFound = errors.New("history: entry not found")

// Store persists watch history. Load returns entries newest first.
type Store interface {
	Load() ([]media.HistoryEntry, error)
	Save(entry media.HistoryEntry) error
	Remove(kind media.Kind, id string) error
	Latest(kind media.Kind, id string) (media.HistoryEntry, bool, error)
	Close() error
}

// Open returns the backend selected by cfg.HistoryBackend.
func Open(cfg *config.Config) (Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	switch cfg.HistoryBackend {
	case config.HistorySQLite:
		return OpenSQLite(path)
	case config.HistoryTSV, "":
		return NewTSV(path), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

// prepare stamps entries saved without a time.
func prepare(e media.HistoryEntry) media.HistoryEntry {
	if e.WatchedAt.IsZero() {
		e.WatchedAt = time.Now()
	}
	e.WatchedAt = e.WatchedAt.UTC().Truncate(time.Second)
	return e
}

func sameContent(a media.HistoryEntry, kind media.Kind, id string) bool {
	return a.Kind == kind && a.ExternalID == id
}

func sortNewestFirst(entries []media.HistoryEntry) {
	slices.SortStableFunc(entries, func(a, b media.HistoryEntry) int {
		return b.WatchedAt.Compare(a.WatchedAt)
	})
}

// FormatForDisplay renders one line per entry for fzf selection.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		req := media.PlaybackRequest{Content: e.Content(), Season: e.Season, Episode: e.Episode}
		var b strings.Builder
		b.WriteString(req.Label())
		fmt.Fprintf(&b, " [%s]", e.Kind)
		if e.ProviderID != "" {
			fmt.Fprintf(&b, " via %s", e.ProviderID)
		}
		if !e.WatchedAt.IsZero() {
			fmt.Fprintf(&b, " - %s", e.WatchedAt.Local().Format("2006-01-02"))
		}
		items = append(items, b.String())
	}
	return items
}
