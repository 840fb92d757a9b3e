package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"zetflix/internal/anilist"
	"zetflix/internal/embed"
	"zetflix/internal/httputil"
	"zetflix/internal/media"
	"zetflix/internal/playback"
	"zetflix/internal/provider"
	"zetflix/internal/surface"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rows": s.catalog.Home(r.Context())})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Search(r.Context(), r.URL.Query().Get("q")))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Suggest(r.Context(), r.URL.Query().Get("q")))
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"genres": s.catalog.Genres(r.Context())})
}

func (s *Server) handleGenre(w http.ResponseWriter, r *http.Request) {
	kind, err := media.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeBadRequest(w, "genre id must be a positive integer")
		return
	}

	genre := media.Genre{Kind: kind, ID: id, Name: r.URL.Query().Get("name")}
	if kind == media.Anime && genre.Name == "" {
		if id > len(anilist.Genres) {
			writeNotFound(w, "unknown anime genre")
			return
		}
		genre.Name = anilist.Genres[id-1]
	}
	writeJSON(w, http.StatusOK, map[string]any{"genre": genre, "items": s.catalog.ByGenre(r.Context(), genre)})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string]any{"providers": s.providers.All()})
		return
	}
	kind, err := media.ParseKind(raw)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.providers.List(kind)})
}

// handleEmbed resolves one provider's URL without starting a session, for
// clients that pick sources themselves.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	p, ok := s.providers.Get(chi.URLParam(r, "provider"))
	if !ok {
		writeNotFound(w, "unknown provider")
		return
	}
	req, err := requestFromQuery(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	u, err := embed.Build(p, req)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"provider": p.ID, "url": u})
}

func requestFromQuery(r *http.Request) (media.PlaybackRequest, error) {
	q := r.URL.Query()
	kind, err := media.ParseKind(q.Get("kind"))
	if err != nil {
		return media.PlaybackRequest{}, err
	}
	req := media.PlaybackRequest{
		Content: media.ContentItem{Kind: kind, ExternalID: q.Get("id"), Title: q.Get("title")},
	}
	if err := httputil.ValidateID(req.Content.ExternalID); err != nil {
		return media.PlaybackRequest{}, err
	}
	for name, dst := range map[string]*int{
		"year":    &req.Content.Year,
		"season":  &req.Season,
		"episode": &req.Episode,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return media.PlaybackRequest{}, fmt.Errorf("%s must be a non-negative integer", name)
		}
		*dst = n
	}
	return req, nil
}

type attemptView struct {
	playback.Attempt
	Error string `json:"error,omitempty"`
}

type sessionView struct {
	ID         string                `json:"id"`
	State      playback.State        `json:"state"`
	ProviderID string                `json:"provider,omitempty"`
	Request    media.PlaybackRequest `json:"request"`
	Attempts   []attemptView         `json:"attempts"`
	Error      string                `json:"error,omitempty"`
	Source     *surface.Source       `json:"source,omitempty"`
}

func viewOf(id string, sess *session) sessionView {
	t := sess.playback.Snapshot()
	v := sessionView{
		ID:         id,
		State:      t.State,
		ProviderID: t.ProviderID,
		Request:    t.Request,
		Attempts:   make([]attemptView, 0, len(t.Attempts)),
	}
	for _, a := range t.Attempts {
		av := attemptView{Attempt: a}
		if a.Err != nil {
			av.Error = a.Err.Error()
		}
		v.Attempts = append(v.Attempts, av)
	}
	if t.Err != nil {
		v.Error = t.Err.Error()
	}
	if src, ok := sess.remote.Current(); ok {
		v.Source = &src
	}
	return v
}

// createSessionBody is a media.PlaybackRequest whose kind must be given
// explicitly; the zero Kind would otherwise read as a movie.
type createSessionBody struct {
	Content struct {
		media.ContentItem
		Kind *media.Kind `json:"kind"`
	} `json:"content"`
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.Content.Kind == nil {
		writeBadRequest(w, "content.kind is required")
		return
	}
	req := media.PlaybackRequest{Content: body.Content.ContentItem, Season: body.Season, Episode: body.Episode}
	req.Content.Kind = *body.Content.Kind
	if err := httputil.ValidateID(req.Content.ExternalID); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	sess := &session{remote: surface.NewRemote()}
	sess.playback = playback.New(s.providers, sess.remote, s.cfg.Session...)
	if err := s.sessions.add(sess); err != nil {
		writeError(w, http.StatusServiceUnavailable, "session_limit", err.Error())
		return
	}
	if err := sess.playback.Start(req); err != nil {
		s.sessions.remove(sess.playback.ID())
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess.playback.ID(), sess))
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, id string, sess *session)

// withSession resolves {id} and hands the session to fn.
func (s *Server) withSession(fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, ok := s.sessions.get(id)
		if !ok {
			writeNotFound(w, "unknown session")
			return
		}
		fn(w, r, id, sess)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request, id string, sess *session) {
	writeJSON(w, http.StatusOK, viewOf(id, sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(chi.URLParam(r, "id")) {
		writeNotFound(w, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type signalBody struct {
	Token string `json:"token"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request, id string, sess *session) {
	var body signalBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	var loadErr error
	if !body.OK {
		msg := strings.TrimSpace(body.Error)
		if msg == "" {
			msg = "client reported load error"
		}
		loadErr = errors.New(msg)
	}
	if err := sess.remote.Report(body.Token, loadErr); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(id, sess))
}

type numberBody struct {
	Number int `json:"number"`
}

// numberCommand adapts a session command taking a number from the JSON body.
func numberCommand(apply func(*playback.Session, int) error) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, id string, sess *session) {
		var body numberBody
		if err := decodeJSON(w, r, &body); err != nil {
			writeBadRequest(w, "invalid request body: "+err.Error())
			return
		}
		if err := apply(sess.playback, body.Number); err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(id, sess))
	}
}

func command(apply func(*playback.Session) error) sessionHandler {
	return func(w http.ResponseWriter, _ *http.Request, id string, sess *session) {
		if err := apply(sess.playback); err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(id, sess))
	}
}

func scheduleNext(p *playback.Session, seconds int) error {
	if seconds < 0 {
		return playback.ErrInvalidNumber
	}
	return p.ScheduleNextEpisode(time.Duration(seconds) * time.Second)
}

func cancelNext(p *playback.Session) error {
	if !p.CancelNextEpisode() {
		return fmt.Errorf("%w: no countdown pending", playback.ErrInvalidState)
	}
	return nil
}

var _ Providers = (*provider.Registry)(nil)
