package surface

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrStaleToken is returned by Report for a token that is no longer current.
var ErrStaleToken = errors.New("surface: stale or unknown token")

// Source is the URL a Remote surface currently shows, tagged with a token the
// client echoes back when it reports the load result.
type Source struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// Remote is a surface whose load signals come from an external client. Each
// SetSource issues a new token so that reports for older sources are refused.
type Remote struct {
	mu        sync.Mutex
	current   Source
	onSuccess func()
	onError   func(error)
}

// NewRemote creates an empty remote surface.
func NewRemote() *Remote {
	return &Remote{}
}

func (r *Remote) SetSource(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = Source{Token: uuid.NewString(), URL: url}
}

func (r *Remote) OnLoadSuccess(cb func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSuccess = cb
}

func (r *Remote) OnLoadError(cb func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = cb
}

func (r *Remote) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = Source{}
}

// Current returns the source being shown, if any.
func (r *Remote) Current() (Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current.Token != ""
}

// Report delivers the client's load result for token. A nil err is a success.
func (r *Remote) Report(token string, err error) error {
	r.mu.Lock()
	if token == "" || token != r.current.Token {
		r.mu.Unlock()
		return ErrStaleToken
	}
	success, fail := r.onSuccess, r.onError
	r.mu.Unlock()

	if err != nil {
		if fail != nil {
			fail(err)
		}
		return nil
	}
	if success != nil {
		success()
	}
	return nil
}
