package playback

import (
	"time"

	"zetflix/internal/media"
)

// State is a playback session state.
type State int

const (
	Idle State = iota
	Selecting
	Attempting
	Succeeded
	ExhaustedFailed
	SwitchingSeason
	SwitchingEpisode
)

var stateNames = [...]string{
	Idle:             "idle",
	Selecting:        "selecting",
	Attempting:       "attempting",
	Succeeded:        "succeeded",
	ExhaustedFailed:  "exhausted",
	SwitchingSeason:  "switching_season",
	SwitchingEpisode: "switching_episode",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of one provider attempt.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeLoaded
	OutcomeFailed
	OutcomeTimedOut
	OutcomeSkipped // abandoned by ManualSwitchNext
)

var outcomeNames = [...]string{
	OutcomePending:  "pending",
	OutcomeLoaded:   "loaded",
	OutcomeFailed:   "failed",
	OutcomeTimedOut: "timed_out",
	OutcomeSkipped:  "skipped",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// MarshalText renders the outcome name in JSON.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Attempt records one provider trial.
type Attempt struct {
	Seq        uint64    `json:"seq"`
	ProviderID string    `json:"provider"`
	URL        string    `json:"url,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at,omitzero"`
	Outcome    Outcome   `json:"outcome"`
	Err        error     `json:"-"`
}

// Transition is a snapshot of a session published on every state change.
type Transition struct {
	State      State                 `json:"state"`
	ProviderID string                `json:"provider,omitempty"`
	Request    media.PlaybackRequest `json:"request"`
	Attempts   []Attempt             `json:"attempts"`
	Err        error                 `json:"-"`
	At         time.Time             `json:"at"`
}

// Current returns the latest attempt, if any.
func (t Transition) Current() (Attempt, bool) {
	if len(t.Attempts) == 0 {
		return Attempt{}, false
	}
	return t.Attempts[len(t.Attempts)-1], true
}
