package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"zetflix/internal/media"
)

// row is the database form of a history entry. (kind, external_id) is unique.
type row struct {
	ID         uint   `gorm:"primaryKey"`
	Kind       string `gorm:"uniqueIndex:idx_history_content;not null"`
	ExternalID string `gorm:"uniqueIndex:idx_history_content;not null"`
	Title      string
	Year       int
	Season     int
	Episode    int
	ProviderID string
	WatchedAt  time.Time `gorm:"index"`
}

func (row) TableName() string { return "history" }

func toRow(e media.HistoryEntry) row {
	return row{
		Kind:       e.Kind.String(),
		ExternalID: e.ExternalID,
		Title:      e.Title,
		Year:       e.Year,
		Season:     e.Season,
		Episode:    e.Episode,
		ProviderID: e.ProviderID,
		WatchedAt:  e.WatchedAt,
	}
}

func (r row) entry() (media.HistoryEntry, error) {
	kind, err := media.ParseKind(r.Kind)
	if err != nil {
		return media.HistoryEntry{}, err
	}
	return media.HistoryEntry{
		Kind:       kind,
		ExternalID: r.ExternalID,
		Title:      r.Title,
		Year:       r.Year,
		Season:     r.Season,
		Episode:    r.Episode,
		ProviderID: r.ProviderID,
		WatchedAt:  r.WatchedAt.UTC(),
	}, nil
}

// SQLite stores history in a SQLite database through gorm.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Load returns every entry, newest first.
func (s *SQLite) Load() ([]media.HistoryEntry, error) {
	var rows []row
	if err := s.db.Order("watched_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	entries := make([]media.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Save inserts entry or replaces the entry for the same content.
func (s *SQLite) Save(entry media.HistoryEntry) error {
	r := toRow(prepare(entry))
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "year", "season", "episode", "provider_id", "watched_at"}),
	}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// Remove deletes the entry for the given content.
func (s *SQLite) Remove(kind media.Kind, id string) error {
	res := s.db.Where("kind = ? AND external_id = ?", kind.String(), id).Delete(&row{})
	if res.Error != nil {
		return fmt.Errorf("removing history: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Latest returns the entry for the given content, if any.
func (s *SQLite) Latest(kind media.Kind, id string) (media.HistoryEntry, bool, error) {
	var r row
	err := s.db.Where("kind = ? AND external_id = ?", kind.String(), id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return media.HistoryEntry{}, false, nil
	}
	if err != nil {
		return media.HistoryEntry{}, false, fmt.Errorf("reading history: %w", err)
	}
	e, err := r.entry()
	if err != nil {
		return media.HistoryEntry{}, false, err
	}
	return e, true, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
