// Package server exposes the catalog and playback sessions over a JSON HTTP API
// for browser front ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	xlog "zetflix/internal/log"
	"zetflix/internal/media"
	"zetflix/internal/playback"
	"zetflix/internal/provider"
)

const (
	defaultMaxSessions = 64
	defaultSessionTTL  = 30 * time.Minute
	minReapInterval    = time.Second
	shutdownTimeout    = 5 * time.Second
)

// Catalog is the read side of the API.
type Catalog interface {
	Home(ctx context.Context) []media.Row
	Search(ctx context.Context, query string) media.SearchResultSet
	Suggest(ctx context.Context, query string) media.SearchResultSet
	Genres(ctx context.Context) []media.Genre
	ByGenre(ctx context.Context, genre media.Genre) []media.ContentItem
}

// Providers is the registry view the API needs.
type Providers interface {
	List(kind media.Kind) []provider.Provider
	All() []provider.Provider
	Get(id string) (provider.Provider, bool)
}

// Config tunes the server.
type Config struct {
	RateLimit   int // requests per minute per client IP; 0 disables limiting
	MaxSessions int
	SessionTTL  time.Duration // idle time after which a session is closed
	Session     []playback.Option
}

// Server serves the JSON API.
type Server struct {
	catalog   Catalog
	providers Providers
	cfg       Config
	sessions  *sessionStore
	log       zerolog.Logger
	router    chi.Router
}

// New creates a server and its routes.
func New(catalog Catalog, providers Providers, cfg Config) *Server {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	s := &Server{
		catalog:   catalog,
		providers: providers,
		cfg:       cfg,
		sessions:  newSessionStore(cfg.MaxSessions, cfg.SessionTTL),
		log:       xlog.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(rateLimit(s.cfg.RateLimit, time.Minute))
		}

		r.Get("/home", s.handleHome)
		r.Get("/search", s.handleSearch)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/genres", s.handleGenres)
		r.Get("/genres/{kind}/{id}", s.handleGenre)
		r.Get("/providers", s.handleProviders)
		r.Get("/embed/{provider}", s.handleEmbed)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleGetSession))
			r.Delete("/", s.handleDeleteSession)
			r.Post("/signal", s.withSession(s.handleSignal))
			r.Post("/season", s.withSession(numberCommand((*playback.Session).ChangeSeason)))
			r.Post("/episode", s.withSession(numberCommand((*playback.Session).ChangeEpisode)))
			r.Post("/next", s.withSession(command((*playback.Session).ManualSwitchNext)))
			r.Post("/retry", s.withSession(command((*playback.Session).Retry)))
			r.Post("/autoplay", s.withSession(numberCommand(scheduleNext)))
			r.Delete("/autoplay", s.withSession(command(cancelNext)))
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down and
// closes every session.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.reapIdle(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.sessions.closeAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.closeAll()
	<-errCh
	if err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

// reapIdle closes abandoned sessions until ctx is cancelled.
func (s *Server) reapIdle(ctx context.Context) {
	interval := max(s.cfg.SessionTTL/2, minReapInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.reap(); n > 0 {
				s.log.Info().Int("sessions", n).Dur("ttl", s.cfg.SessionTTL).Msg("closed idle sessions")
			}
		}
	}
}

// Close releases every session.
func (s *Server) Close() {
	s.sessions.closeAll()
}

// requestLogger logs each request once it completes.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := log.Debug()
			if status >= http.StatusInternalServerError {
				ev = log.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// rateLimit limits requests per client IP, answering 429 with a JSON body.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, try again later")
		}),
	)
}
