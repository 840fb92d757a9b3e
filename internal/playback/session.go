// Package playback drives a single playback interaction: it tries providers
// in priority order against a video surface until one loads, falling back on
// errors and timeouts.
package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"zetflix/internal/embed"
	xlog "zetflix/internal/log"
	"zetflix/internal/media"
	"zetflix/internal/metrics"
	"zetflix/internal/provider"
)

const (
	DefaultLoadTimeout = 20 * time.Second
	DefaultSettleDelay = 1500 * time.Millisecond
)

// Surface is the video frame a session loads embed URLs into. Implementations
// must not invoke the callbacks from inside SetSource.
type Surface interface {
	SetSource(url string)
	OnLoadSuccess(func())
	OnLoadError(func(error))
	Clear()
}

// BuildFunc resolves a provider's URL for a request.
type BuildFunc func(provider.Provider, media.PlaybackRequest) (string, error)

// Option configures a Session.
type Option func(*Session)

// WithLoadTimeout bounds how long an attempt may wait for a signal.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Session) { s.loadTimeout = d }
}

// WithSettleDelay sets the pause between a failed attempt and the next one.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Session) { s.settleDelay = d }
}

// WithScheduler replaces the timer source.
func WithScheduler(sched Scheduler) Option {
	return func(s *Session) { s.sched = sched }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithBuilder replaces embed.Build.
func WithBuilder(b BuildFunc) Option {
	return func(s *Session) { s.build = b }
}

// Session is a playback state machine bound to one surface. All methods are
// safe for concurrent use; surface and timer callbacks are serialized with
// commands and ignored once the attempt they belong to is no longer current.
type Session struct {
	id          string
	reg         embed.Lister
	surface     Surface
	build       BuildFunc
	sched       Scheduler
	loadTimeout time.Duration
	settleDelay time.Duration
	log         zerolog.Logger

	mu           sync.Mutex
	state        State
	req          media.PlaybackRequest
	candidates   []provider.Provider
	next         int // candidates[:next] have been tried
	attempts     []Attempt
	seq          uint64
	pending      Timer
	countingDown bool
	lastErr      error
	subs         map[int]chan Transition
	nextSub      int
}

// New creates an idle session.
func New(reg embed.Lister, surface Surface, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		reg:         reg,
		surface:     surface,
		build:       embed.Build,
		sched:       clock{},
		loadTimeout: DefaultLoadTimeout,
		settleDelay: DefaultSettleDelay,
		log:         xlog.WithComponent("playback"),
		subs:        make(map[int]chan Transition),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session", s.id).Logger()
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Start begins playback of req, abandoning whatever the session was doing.
func (s *Session) Start(req media.PlaybackRequest) error {
	req = req.Normalized()
	candidates := s.reg.List(req.Content.Kind)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	if len(candidates) == 0 {
		s.surface.Clear()
		s.candidates = nil
		s.req = media.PlaybackRequest{}
		if s.state != Idle {
			s.state = Idle
			s.publishLocked(nil)
		}
		return fmt.Errorf("%w for %s", ErrNoProvidersAvailable, req.Content.Kind)
	}

	s.req = req
	s.candidates = candidates
	s.log.Info().Str("request", req.Label()).Int("providers", len(candidates)).Msg("playback started")
	s.selectLocked()
	return nil
}

// ChangeSeason switches a show to season n, episode 1, and retries every provider.
func (s *Session) ChangeSeason(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return ErrIdle
	}
	if !s.req.Content.Kind.HasSeasons() {
		return ErrNotEpisodic
	}
	if n < 1 {
		return ErrInvalidNumber
	}
	s.switchLocked(SwitchingSeason, n, 1)
	return nil
}

// ChangeEpisode switches to episode n of the current season and retries every provider.
func (s *Session) ChangeEpisode(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return ErrIdle
	}
	if !s.req.Content.Kind.Episodic() {
		return ErrNotEpisodic
	}
	if n < 1 {
		return ErrInvalidNumber
	}
	s.switchLocked(SwitchingEpisode, s.req.Season, n)
	return nil
}

// ManualSwitchNext abandons the current provider and tries the next one.
func (s *Session) ManualSwitchNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelCountdownLocked()
	switch s.state {
	case Attempting:
		s.stopPendingLocked()
		s.seq++
		s.finishLocked(OutcomeSkipped, nil)
		if s.next >= len(s.candidates) {
			s.exhaustLocked()
			return nil
		}
		s.selectLocked()
		return nil
	case Succeeded:
		if s.next >= len(s.candidates) {
			return ErrNoMoreProviders
		}
		s.seq++
		s.selectLocked()
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, s.state)
	}
}

// Retry forgets the tried providers and starts over from the highest priority.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelCountdownLocked()
	if s.state != ExhaustedFailed && s.state != Succeeded {
		return fmt.Errorf("%w: %s", ErrInvalidState, s.state)
	}
	s.resetLocked()
	s.selectLocked()
	return nil
}

// Stop clears the surface and returns the session to Idle.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	s.resetLocked()
	s.surface.Clear()
	s.candidates = nil
	s.req = media.PlaybackRequest{}
	s.state = Idle
	s.publishLocked(nil)
}

// Close stops the session and closes every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// ScheduleNextEpisode moves to the next episode after countdown unless a
// command arrives first. The session holds SwitchingEpisode while waiting.
func (s *Session) ScheduleNextEpisode(countdown time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return ErrIdle
	}
	if !s.req.Content.Kind.Episodic() {
		return ErrNotEpisodic
	}
	if s.state != Succeeded {
		return fmt.Errorf("%w: %s", ErrInvalidState, s.state)
	}

	s.stopPendingLocked()
	s.seq++
	seq := s.seq
	s.countingDown = true
	s.state = SwitchingEpisode
	s.publishLocked(nil)
	s.pending = s.sched.AfterFunc(countdown, func() { s.autoplay(seq) })
	return nil
}

// CancelNextEpisode stops a pending countdown. It reports whether one was pending.
func (s *Session) CancelNextEpisode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.countingDown {
		return false
	}
	s.cancelCountdownLocked()
	s.publishLocked(nil)
	return true
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(s.lastErr)
}

// Subscribe returns a channel receiving every subsequent transition. Sends
// never block: a full channel drops the transition. The returned func
// unsubscribes and closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan Transition, func()) {
	ch := make(chan Transition, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) switchLocked(state State, season, episode int) {
	s.resetLocked()
	s.req.Season = season
	s.req.Episode = episode
	s.state = state
	s.publishLocked(nil)
	s.log.Info().Str("request", s.req.Label()).Msg("switching")
	s.selectLocked()
}

// resetLocked invalidates pending callbacks and forgets the tried providers.
func (s *Session) resetLocked() {
	s.stopPendingLocked()
	s.countingDown = false
	s.seq++
	s.attempts = nil
	s.next = 0
	s.lastErr = nil
}

func (s *Session) stopPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Session) cancelCountdownLocked() {
	if !s.countingDown {
		return
	}
	s.stopPendingLocked()
	s.countingDown = false
	s.seq++
	s.state = Succeeded
}

func (s *Session) selectLocked() {
	s.state = Selecting
	s.lastErr = nil
	s.publishLocked(nil)
	s.attemptNextLocked()
}

// attemptNextLocked tries candidates until one is handed to the surface or
// none remain. Build failures move straight on without a settle delay.
func (s *Session) attemptNextLocked() {
	for {
		if s.next >= len(s.candidates) {
			s.exhaustLocked()
			return
		}
		p := s.candidates[s.next]
		s.next++
		s.seq++
		seq := s.seq

		url, err := s.build(p, s.req)
		s.attempts = append(s.attempts, Attempt{
			Seq:        seq,
			ProviderID: p.ID,
			URL:        url,
			StartedAt:  time.Now(),
			Outcome:    OutcomePending,
		})
		s.state = Attempting
		s.publishLocked(nil)

		if err != nil {
			cause := fmt.Errorf("%w: %s: %w", ErrProviderLoadFailed, p.ID, err)
			s.finishLocked(OutcomeFailed, cause)
			if s.next < len(s.candidates) {
				s.state = Selecting
				s.lastErr = cause
				s.publishLocked(cause)
			}
			continue
		}

		s.log.Debug().Str("provider", p.ID).Uint64("seq", seq).Msg("attempting provider")
		s.surface.OnLoadSuccess(func() { s.loaded(seq) })
		s.surface.OnLoadError(func(err error) { s.failed(seq, err) })
		s.surface.SetSource(url)
		s.pending = s.sched.AfterFunc(s.loadTimeout, func() { s.timedOut(seq) })
		return
	}
}

func (s *Session) finishLocked(outcome Outcome, err error) {
	if len(s.attempts) == 0 {
		return
	}
	a := &s.attempts[len(s.attempts)-1]
	a.Outcome = outcome
	a.EndedAt = time.Now()
	a.Err = err
	metrics.PlaybackAttemptsTotal.WithLabelValues(a.ProviderID, outcome.String()).Inc()
}

// failLocked records the current attempt's failure and schedules the next one.
func (s *Session) failLocked(outcome Outcome, cause error) {
	s.stopPendingLocked()
	s.finishLocked(outcome, cause)
	s.log.Debug().Err(cause).Str("outcome", outcome.String()).Msg("attempt failed")

	if s.next >= len(s.candidates) {
		s.exhaustLocked()
		return
	}
	s.state = Selecting
	s.lastErr = cause
	s.publishLocked(cause)

	seq := s.seq
	s.pending = s.sched.AfterFunc(s.settleDelay, func() { s.resume(seq) })
}

func (s *Session) exhaustLocked() {
	s.stopPendingLocked()
	s.surface.Clear()
	err := &ExhaustedError{Request: s.req, Attempts: append([]Attempt(nil), s.attempts...)}
	s.state = ExhaustedFailed
	s.lastErr = err
	metrics.PlaybackExhaustedTotal.Inc()
	s.log.Warn().Strs("tried", err.ProviderIDs()).Str("request", s.req.Label()).Msg("all providers exhausted")
	s.publishLocked(err)
}

func (s *Session) loaded(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq || s.state != Attempting {
		s.log.Debug().Uint64("seq", seq).Msg("ignoring stale load signal")
		return
	}
	s.stopPendingLocked()
	s.finishLocked(OutcomeLoaded, nil)
	s.state = Succeeded
	s.lastErr = nil
	s.log.Info().Str("provider", s.attempts[len(s.attempts)-1].ProviderID).Msg("provider loaded")
	s.publishLocked(nil)
}

func (s *Session) failed(seq uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq || s.state != Attempting {
		s.log.Debug().Uint64("seq", seq).Msg("ignoring stale error signal")
		return
	}
	id := s.attempts[len(s.attempts)-1].ProviderID
	s.failLocked(OutcomeFailed, fmt.Errorf("%w: %s: %w", ErrProviderLoadFailed, id, err))
}

func (s *Session) timedOut(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq || s.state != Attempting {
		return
	}
	s.pending = nil
	id := s.attempts[len(s.attempts)-1].ProviderID
	s.failLocked(OutcomeTimedOut, fmt.Errorf("%w: %s: %w", ErrProviderLoadFailed, id, ErrLoadTimeout))
}

func (s *Session) resume(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq || s.state != Selecting {
		return
	}
	s.pending = nil
	s.attemptNextLocked()
}

func (s *Session) autoplay(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq || !s.countingDown {
		return
	}
	s.pending = nil
	s.switchLocked(SwitchingEpisode, s.req.Season, s.req.Episode+1)
}

func (s *Session) transitionLocked(err error) Transition {
	t := Transition{
		State:    s.state,
		Request:  s.req,
		Attempts: append([]Attempt(nil), s.attempts...),
		Err:      err,
		At:       time.Now(),
	}
	if n := len(s.attempts); n > 0 && (s.state == Attempting || s.state == Succeeded || s.state == SwitchingEpisode) {
		t.ProviderID = s.attempts[n-1].ProviderID
	}
	return t
}

func (s *Session) publishLocked(err error) {
	if len(s.subs) == 0 {
		return
	}
	t := s.transitionLocked(err)
	for id, ch := range s.subs {
		select {
		case ch <- t:
		default:
			s.log.Warn().Int("subscriber", id).Str("state", t.State.String()).Msg("subscriber full, transition dropped")
		}
	}
}
