package playback

import (
	"errors"
	"fmt"
	"strings"

	"zetflix/internal/media"
)

var (
	// ErrNoProvidersAvailable is returned by Start when no active provider serves the content kind.
	ErrNoProvidersAvailable = errors.New("no providers available")
	// ErrProviderLoadFailed wraps the error of every failed or timed-out attempt.
	ErrProviderLoadFailed = errors.New("provider failed to load")
	// ErrLoadTimeout is the cause recorded for attempts that never signalled.
	ErrLoadTimeout = errors.New("load timed out")
	// ErrAllProvidersExhausted matches the ExhaustedError published when every provider failed.
	ErrAllProvidersExhausted = errors.New("all providers exhausted")

	ErrIdle            = errors.New("no content selected")
	ErrNotEpisodic     = errors.New("content has no seasons or episodes")
	ErrInvalidState    = errors.New("command not valid in current state")
	ErrNoMoreProviders = errors.New("no untried providers left")
	ErrInvalidNumber   = errors.New("season and episode numbers start at 1")
)

// ExhaustedError reports every attempt made for a request that no provider could play.
type ExhaustedError struct {
	Request  media.PlaybackRequest
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.ProviderID, a.Outcome))
	}
	return fmt.Sprintf("%s: %s: tried %s", ErrAllProvidersExhausted, e.Request.Label(), strings.Join(parts, ", "))
}

// Is makes ExhaustedError match ErrAllProvidersExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllProvidersExhausted
}

// ProviderIDs lists the attempted providers in order.
func (e *ExhaustedError) ProviderIDs() []string {
	ids := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		ids = append(ids, a.ProviderID)
	}
	return ids
}
