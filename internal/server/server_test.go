package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xlog "zetflix/internal/log"
	"zetflix/internal/media"
	"zetflix/internal/playback"
	"zetflix/internal/provider"
)

type fakeCatalog struct {
	lastQuery string
	lastGenre media.Genre
}

func (f *fakeCatalog) Home(context.Context) []media.Row {
	return []media.Row{{Key: "trending_movies", Title: "Trending Movies", Items: []media.ContentItem{{Kind: media.Movie, ExternalID: "550"}}}}
}

func (f *fakeCatalog) Search(_ context.Context, q string) media.SearchResultSet {
	f.lastQuery = q
	return media.SearchResultSet{Query: q, Items: []media.ContentItem{{Kind: media.Movie, ExternalID: "550", Title: "Fight Club"}}, TotalCount: 1}
}

func (f *fakeCatalog) Suggest(ctx context.Context, q string) media.SearchResultSet {
	return f.Search(ctx, q)
}

func (f *fakeCatalog) Genres(context.Context) []media.Genre {
	return []media.Genre{{Kind: media.Movie, ID: 28, Name: "Action"}}
}

func (f *fakeCatalog) ByGenre(_ context.Context, g media.Genre) []media.ContentItem {
	f.lastGenre = g
	return []media.ContentItem{}
}

func testProviders(t *testing.T) *provider.Registry {
	t.Helper()
	reg, err := provider.NewRegistry(
		provider.Provider{ID: "alpha", Priority: 2, Kinds: []media.Kind{media.Movie, media.TV}, Templates: map[media.Kind]string{
			media.Movie: "https://alpha.example/movie/{id}",
			media.TV:    "https://alpha.example/tv/{id}/{season}/{episode}",
		}},
		provider.Provider{ID: "beta", Priority: 1, Kinds: []media.Kind{media.Movie, media.TV}, Templates: map[media.Kind]string{
			media.Movie: "https://beta.example/movie/{id}",
			media.TV:    "https://beta.example/tv/{id}/{season}/{episode}",
		}},
	)
	require.NoError(t, err)
	return reg
}

func newTestServer(t *testing.T, cfg Config) (*Server, *fakeCatalog) {
	t.Helper()
	xlog.Configure(xlog.Config{Level: "disabled"})
	cat := &fakeCatalog{}
	cfg.Session = append(cfg.Session, playback.WithSettleDelay(0), playback.WithLogger(xlog.Nop()))
	s := New(cat, testProviders(t), cfg)
	t.Cleanup(s.Close)
	return s, cat
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type viewJSON struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Provider string `json:"provider"`
	Error    string `json:"error"`
	Attempts []struct {
		Provider string `json:"provider"`
		Outcome  string `json:"outcome"`
		Error    string `json:"error"`
	} `json:"attempts"`
	Source *struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	} `json:"source"`
}

type errorJSON struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

var fightClub = map[string]any{"content": map[string]any{"kind": "movie", "id": "550", "title": "Fight Club"}}

func TestSessionReachesSucceededViaSignal(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodPost, "/api/sessions", fightClub)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decode[viewJSON](t, rec)
	assert.Equal(t, "attempting", v.State)
	require.NotNil(t, v.Source)
	assert.Equal(t, "https://alpha.example/movie/550", v.Source.URL)

	rec = do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/signal", map[string]any{"token": v.Source.Token, "ok": false, "error": "blocked by CSP"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var next viewJSON
	require.Eventually(t, func() bool {
		next = decode[viewJSON](t, do(t, s, http.MethodGet, "/api/sessions/"+v.ID, nil))
		return next.State == "attempting" && next.Provider == "beta"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "https://beta.example/movie/550", next.Source.URL)
	assert.Equal(t, "failed", next.Attempts[0].Outcome)
	assert.Contains(t, next.Attempts[0].Error, "blocked by CSP")

	rec = do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/signal", map[string]any{"token": next.Source.Token, "ok": true})
	require.Equal(t, http.StatusOK, rec.Code)
	done := decode[viewJSON](t, rec)
	assert.Equal(t, "succeeded", done.State)
	assert.Equal(t, "beta", done.Provider)

	rec = do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/next", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_more_providers", decode[errorJSON](t, rec).Error)
}

func TestSignalWithStaleToken(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	v := decode[viewJSON](t, do(t, s, http.MethodPost, "/api/sessions", fightClub))

	rec := do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/signal", map[string]any{"token": "nope", "ok": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "stale_token", decode[errorJSON](t, rec).Error)
}

func TestSessionCommandErrors(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	v := decode[viewJSON](t, do(t, s, http.MethodPost, "/api/sessions", fightClub))

	rec := do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/season", map[string]int{"number": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "not_episodic", decode[errorJSON](t, rec).Error)

	rec = do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/retry", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEpisodeCommand(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	body := map[string]any{"content": map[string]any{"kind": "tv", "id": "1399", "title": "Game of Thrones"}, "season": 2, "episode": 3}
	v := decode[viewJSON](t, do(t, s, http.MethodPost, "/api/sessions", body))
	assert.Equal(t, "https://alpha.example/tv/1399/2/3", v.Source.URL)

	rec := do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/episode", map[string]int{"number": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://alpha.example/tv/1399/2/4", decode[viewJSON](t, rec).Source.URL)

	rec = do(t, s, http.MethodPost, "/api/sessions/"+v.ID+"/episode", map[string]int{"number": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSessionErrors(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodPost, "/api/sessions", map[string]any{"content": map[string]any{"kind": "anime", "id": "21", "title": "One Piece"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "no_providers", decode[errorJSON](t, rec).Error)

	rec = do(t, s, http.MethodPost, "/api/sessions", map[string]any{"content": map[string]any{"kind": "movie", "id": "../etc"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/sessions", map[string]any{"content": map[string]any{"kind": "podcast", "id": "1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/sessions", map[string]any{"content": map[string]any{"id": "550", "title": "Fight Club"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorJSON](t, rec).Detail, "content.kind")
}

func TestDeleteSession(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	v := decode[viewJSON](t, do(t, s, http.MethodPost, "/api/sessions", fightClub))

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/sessions/"+v.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/"+v.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/sessions/"+v.ID, nil).Code)
}

func TestSessionLimit(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxSessions: 1})
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/sessions", fightClub).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/sessions", fightClub).Code)
}

func TestIdleSessionFreesItsSlot(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxSessions: 1, SessionTTL: time.Minute})
	now := time.Now()
	s.sessions.now = func() time.Time { return now }

	first := decode[viewJSON](t, do(t, s, http.MethodPost, "/api/sessions", fightClub))

	now = now.Add(45 * time.Second)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/sessions/"+first.ID, nil).Code)

	// idle 45s since the last request, under the ttl
	now = now.Add(45 * time.Second)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/sessions", fightClub).Code)

	now = now.Add(time.Minute)
	rec := do(t, s, http.MethodPost, "/api/sessions", fightClub)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEqual(t, first.ID, decode[viewJSON](t, rec).ID)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/"+first.ID, nil).Code)
}

func TestReapClosesIdleSessions(t *testing.T) {
	s, _ := newTestServer(t, Config{SessionTTL: time.Minute})
	now := time.Now()
	s.sessions.now = func() time.Time { return now }

	idle := decode[viewJSON](t, do(t, s, http.MethodPost, "/api/sessions", fightClub))
	now = now.Add(50 * time.Second)
	active := decode[viewJSON](t, do(t, s, http.MethodPost, "/api/sessions", fightClub))

	assert.Zero(t, s.sessions.reap())

	now = now.Add(20 * time.Second)
	assert.Equal(t, 1, s.sessions.reap())
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/"+idle.ID, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/sessions/"+active.ID, nil).Code)
}

func TestCatalogRoutes(t *testing.T) {
	s, cat := newTestServer(t, Config{})

	rec := do(t, s, http.MethodGet, "/api/search?q=fight+club", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fight club", cat.lastQuery)
	set := decode[media.SearchResultSet](t, rec)
	assert.Equal(t, 1, set.TotalCount)
	assert.Equal(t, media.Movie, set.Items[0].Kind)

	rec = do(t, s, http.MethodGet, "/api/home", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trending_movies")

	rec = do(t, s, http.MethodGet, "/api/genres/anime/9", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, media.Genre{Kind: media.Anime, ID: 9, Name: "Mecha"}, cat.lastGenre)

	rec = do(t, s, http.MethodGet, "/api/genres/movie/28?name=Action", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, media.Genre{Kind: media.Movie, ID: 28, Name: "Action"}, cat.lastGenre)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/genres/movie/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/genres/anime/99", nil).Code)
}

func TestProvidersRoute(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodGet, "/api/providers?kind=tv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Providers []struct {
			ID string `json:"id"`
		} `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Providers, 2)
	assert.Equal(t, "alpha", body.Providers[0].ID)

	rec = do(t, s, http.MethodGet, "/api/providers?kind=anime", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Providers)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/providers?kind=radio", nil).Code)
}

func TestEmbedRoute(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s, http.MethodGet, "/api/embed/beta?kind=tv&id=1399&season=3&episode=9", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://beta.example/tv/1399/3/9", decode[map[string]string](t, rec)["url"])

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/embed/gamma?kind=tv&id=1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/embed/beta?kind=tv&id=1&season=x", nil).Code)

	rec = do(t, s, http.MethodGet, "/api/embed/beta?kind=anime&id=21", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, Config{RateLimit: 2})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/genres", nil).Code)
	}
	rec := do(t, s, http.MethodGet, "/api/genres", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit_exceeded", decode[errorJSON](t, rec).Error)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", nil).Code, "health is not rate limited")
}
