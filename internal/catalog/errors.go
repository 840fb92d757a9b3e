package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendUnavailable matches every failed or timed-out backend call.
	ErrBackendUnavailable = errors.New("catalog: backend unavailable")
	// ErrNotEpisodic is returned when seasons or episodes are requested for a movie.
	ErrNotEpisodic = errors.New("catalog: content has no episodes")
	// ErrInvalidID is returned when an item's external id is not a backend id.
	ErrInvalidID = errors.New("catalog: invalid external id")

	errNotConfigured = errors.New("backend not configured")
)

// BackendError wraps the failure of one backend call.
type BackendError struct {
	Backend string // "tmdb" or "anilist"
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is makes every BackendError match ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}
