package history

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"zetflix/internal/media"
)

// TSV columns: kind, id, title, year, season, episode, provider, watched_at
const numColumns = 8

// TSV stores history as a tab-separated file rewritten atomically on every change.
type TSV struct {
	mu   sync.Mutex
	path string
}

// NewTSV returns a store backed by the file at path. The file is created on first save.
func NewTSV(path string) *TSV {
	return &TSV{path: path}
}

// Load reads every entry, newest first. A missing file is an empty history.
func (s *TSV) Load() ([]media.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *TSV) load() ([]media.HistoryEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	var entries []media.HistoryEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	sortNewestFirst(entries)
	return entries, nil
}

// Save inserts entry or replaces the entry for the same content.
func (s *TSV) Save(entry media.HistoryEntry) error {
	entry = prepare(entry)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	out := make([]media.HistoryEntry, 0, len(entries)+1)
	out = append(out, entry)
	for _, e := range entries {
		if !sameContent(e, entry.Kind, entry.ExternalID) {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return s.write(out)
}

// Remove deletes the entry for the given content.
func (s *TSV) Remove(kind media.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	out := entries[:0]
	for _, e := range entries {
		if !sameContent(e, kind, id) {
			out = append(out, e)
		}
	}
	if len(out) == len(entries) {
		return ErrNotFound
	}
	return s.write(out)
}

// Latest returns the entry for the given content, if any.
func (s *TSV) Latest(kind media.Kind, id string) (media.HistoryEntry, bool, error) {
	entries, err := s.Load()
	if err != nil {
		return media.HistoryEntry{}, false, err
	}
	for _, e := range entries {
		if sameContent(e, kind, id) {
			return e, true, nil
		}
	}
	return media.HistoryEntry{}, false, nil
}

// Close is a no-op; every write is already durable.
func (s *TSV) Close() error { return nil }

func (s *TSV) write(entries []media.HistoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(formatLine(e))
		buf.WriteByte('\n')
	}
	if err := renameio.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

func parseLine(line string) (media.HistoryEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < numColumns {
		return media.HistoryEntry{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(fields))
	}
	kind, err := media.ParseKind(fields[0])
	if err != nil {
		return media.HistoryEntry{}, err
	}
	if fields[1] == "" {
		return media.HistoryEntry{}, fmt.Errorf("empty id")
	}
	watched, err := time.Parse(time.RFC3339, fields[7])
	if err != nil {
		return media.HistoryEntry{}, fmt.Errorf("watched_at: %w", err)
	}

	year, _ := strconv.Atoi(fields[3])
	season, _ := strconv.Atoi(fields[4])
	episode, _ := strconv.Atoi(fields[5])

	return media.HistoryEntry{
		Kind:       kind,
		ExternalID: fields[1],
		Title:      fields[2],
		Year:       year,
		Season:     season,
		Episode:    episode,
		ProviderID: fields[6],
		WatchedAt:  watched,
	}, nil
}

var fieldCleaner = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func formatLine(e media.HistoryEntry) string {
	return strings.Join([]string{
		e.Kind.String(),
		fieldCleaner.Replace(e.ExternalID),
		fieldCleaner.Replace(e.Title),
		strconv.Itoa(e.Year),
		strconv.Itoa(e.Season),
		strconv.Itoa(e.Episode),
		fieldCleaner.Replace(e.ProviderID),
		e.WatchedAt.UTC().Format(time.RFC3339),
	}, "\t")
}
