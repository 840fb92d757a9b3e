package server

import (
	"errors"
	"sync"
	"time"

	"zetflix/internal/metrics"
	"zetflix/internal/playback"
	"zetflix/internal/surface"
)

var errTooManySessions = errors.New("session limit reached")

// session pairs a playback session with the remote surface its client drives.
type session struct {
	playback *playback.Session
	remote   *surface.Remote
	lastSeen time.Time // guarded by sessionStore.mu
}

// sessionStore holds live sessions. A session idle for longer than ttl is
// closed by reap, or when add needs its slot.
type sessionStore struct {
	mu    sync.Mutex
	max   int
	ttl   time.Duration
	now   func() time.Time
	items map[string]*session
}

func newSessionStore(max int, ttl time.Duration) *sessionStore {
	return &sessionStore{max: max, ttl: ttl, now: time.Now, items: make(map[string]*session)}
}

func (s *sessionStore) add(sess *session) error {
	s.mu.Lock()
	now := s.now()
	expired := s.expiredLocked(now)
	if s.max > 0 && len(s.items) >= s.max {
		s.mu.Unlock()
		s.close(expired)
		return errTooManySessions
	}
	sess.lastSeen = now
	s.items[sess.playback.ID()] = sess
	s.mu.Unlock()

	metrics.ActiveSessions.Inc()
	s.close(expired)
	return nil
}

// get returns a session and marks it as used.
func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// remove closes and forgets a session. It reports whether the id was known.
func (s *sessionStore) remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.close([]*session{sess})
	return true
}

// reap closes every session idle for longer than the ttl and returns how many
// it closed.
func (s *sessionStore) reap() int {
	s.mu.Lock()
	expired := s.expiredLocked(s.now())
	s.mu.Unlock()

	s.close(expired)
	return len(expired)
}

// expiredLocked unlinks idle sessions; the caller closes them after unlocking.
func (s *sessionStore) expiredLocked(now time.Time) []*session {
	if s.ttl <= 0 {
		return nil
	}
	var expired []*session
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.items, id)
			expired = append(expired, sess)
		}
	}
	return expired
}

func (s *sessionStore) close(sessions []*session) {
	for _, sess := range sessions {
		metrics.ActiveSessions.Dec()
		sess.playback.Close()
	}
}

func (s *sessionStore) closeAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.remove(id)
	}
}
