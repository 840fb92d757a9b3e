// Package catalog aggregates the movie/TV and anime metadata backends into a
// single catalog: search, home rows, genres and episode listings.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"zetflix/internal/anilist"
	xlog "zetflix/internal/log"
	"zetflix/internal/media"
	"zetflix/internal/metrics"
	"zetflix/internal/tmdb"
)

const (
	backendTMDB    = "tmdb"
	backendAniList = "anilist"

	defaultBackendTimeout = 10 * time.Second
	defaultPerPage        = 20
	defaultPosterSize     = "w342"

	suggestMovieTV = 6
	suggestAnime   = 4
)

// MovieTV is the movie and TV metadata backend.
type MovieTV interface {
	SearchMulti(ctx context.Context, query string, page int) (*tmdb.Page, error)
	List(ctx context.Context, list tmdb.List, page int) (*tmdb.Page, error)
	Discover(ctx context.Context, mediaType string, genreID, page int) (*tmdb.Page, error)
	Genres(ctx context.Context, mediaType string) ([]tmdb.Genre, error)
	Movie(ctx context.Context, id int64) (*tmdb.Movie, error)
	TV(ctx context.Context, id int64) (*tmdb.TV, error)
	Season(ctx context.Context, tvID int64, season int) (*tmdb.Season, error)
}

// Anime is the anime metadata backend.
type Anime interface {
	Trending(ctx context.Context, page, perPage int) (*anilist.Page, error)
	Search(ctx context.Context, query string, page, perPage int) (*anilist.Page, error)
	ByGenre(ctx context.Context, genre string, page, perPage int) (*anilist.Page, error)
}

// Service fans requests out to both backends. A nil backend behaves like one
// that always fails.
type Service struct {
	movies     MovieTV
	anime      Anime
	timeout    time.Duration
	perPage    int
	posterSize string
	log        zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBackendTimeout bounds each individual backend call.
func WithBackendTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPerPage sets the AniList page size for search, trending and genre listings.
func WithPerPage(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// WithPosterSize sets the TMDB image size used for poster URLs.
func WithPosterSize(size string) Option {
	return func(s *Service) { s.posterSize = size }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a catalog service over the given backends.
func New(movies MovieTV, anime Anime, opts ...Option) *Service {
	s := &Service{
		movies:     movies,
		anime:      anime,
		timeout:    defaultBackendTimeout,
		perPage:    defaultPerPage,
		posterSize: defaultPosterSize,
		log:        xlog.WithComponent("catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// call runs fn under the per-backend timeout, records metrics and wraps failures
// in a BackendError.
func (s *Service) call(ctx context.Context, backend, op string, fn func(context.Context) error) error {
	if (backend == backendTMDB && s.movies == nil) || (backend == backendAniList && s.anime == nil) {
		return &BackendError{Backend: backend, Op: op, Err: errNotConfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	metrics.BackendRequestsTotal.WithLabelValues(backend, op, metrics.Outcome(err)).Inc()
	metrics.BackendRequestDuration.WithLabelValues(backend).Observe(elapsed.Seconds())

	if err != nil {
		s.log.Warn().Err(err).
			Str("backend", backend).
			Str("op", op).
			Dur("duration", elapsed).
			Msg("backend unavailable")
		return &BackendError{Backend: backend, Op: op, Err: err}
	}
	return nil
}

// Search queries both backends concurrently. A backend that fails or times out
// contributes no items; results are movie/TV items first, then anime, each in
// backend order.
func (s *Service) Search(ctx context.Context, query string) media.SearchResultSet {
	return s.search(ctx, query, s.perPage, 0, 0)
}

// Suggest is a short Search for type-ahead: at most six movie/TV items and four anime.
func (s *Service) Suggest(ctx context.Context, query string) media.SearchResultSet {
	return s.search(ctx, query, 5, suggestMovieTV, suggestAnime)
}

func (s *Service) search(ctx context.Context, query string, perPage, movieLimit, animeLimit int) media.SearchResultSet {
	query = strings.TrimSpace(query)
	set := media.SearchResultSet{Query: query, Items: []media.ContentItem{}}
	if query == "" {
		return set
	}

	var movieItems, animeItems []media.ContentItem
	var g errgroup.Group
	g.Go(func() error {
		_ = s.call(ctx, backendTMDB, "search", func(ctx context.Context) error {
			page, err := s.movies.SearchMulti(ctx, query, 1)
			if err != nil {
				return err
			}
			movieItems = fromTMDBResults(page.Results, media.Movie, s.posterSize)
			return nil
		})
		return nil
	})
	g.Go(func() error {
		_ = s.call(ctx, backendAniList, "search", func(ctx context.Context) error {
			page, err := s.anime.Search(ctx, query, 1, perPage)
			if err != nil {
				return err
			}
			animeItems = fromAniListPage(page)
			return nil
		})
		return nil
	})
	_ = g.Wait()

	movieItems = truncate(Dedupe(movieItems), movieLimit)
	animeItems = truncate(Dedupe(animeItems), animeLimit)
	set.Items = append(set.Items, movieItems...)
	set.Items = append(set.Items, animeItems...)
	set.TotalCount = len(set.Items)

	s.log.Debug().Str("query", query).
		Int("movie_tv", len(movieItems)).
		Int("anime", len(animeItems)).
		Msg("search merged")
	return set
}

func truncate(items []media.ContentItem, limit int) []media.ContentItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// ByGenre lists a genre ordered by descending popularity. Movie and TV genres
// query both discover endpoints; anime genres are queried by name.
func (s *Service) ByGenre(ctx context.Context, genre media.Genre) []media.ContentItem {
	if genre.Kind == media.Anime {
		var items []media.ContentItem
		_ = s.call(ctx, backendAniList, "genre", func(ctx context.Context) error {
			page, err := s.anime.ByGenre(ctx, genre.Name, 1, s.perPage)
			if err != nil {
				return err
			}
			items = fromAniListPage(page)
			return nil
		})
		return MergeByPopularity(Dedupe(items))
	}

	var movies, shows []media.ContentItem
	discover := func(mediaType string, kind media.Kind, dst *[]media.ContentItem) func() error {
		return func() error {
			_ = s.call(ctx, backendTMDB, "discover_"+mediaType, func(ctx context.Context) error {
				page, err := s.movies.Discover(ctx, mediaType, genre.ID, 1)
				if err != nil {
					return err
				}
				*dst = fromTMDBResults(page.Results, kind, s.posterSize)
				return nil
			})
			return nil
		}
	}

	var g errgroup.Group
	g.Go(discover("movie", media.Movie, &movies))
	g.Go(discover("tv", media.TV, &shows))
	_ = g.Wait()
	return MergeByPopularity(Dedupe(movies), Dedupe(shows))
}

type homeRow struct {
	key   string
	title string
	list  tmdb.List // empty for the anime row
}

var homeRows = []homeRow{
	{"trending_movies", "Trending Movies", tmdb.TrendingMovies},
	{"trending_tv", "Trending TV Shows", tmdb.TrendingTV},
	{"trending_anime", "Trending Anime", ""},
	{"popular_movies", "Popular Movies", tmdb.PopularMovies},
	{"popular_tv", "Popular TV Shows", tmdb.PopularTV},
	{"top_rated_movies", "Top Rated Movies", tmdb.TopRatedMovies},
	{"top_rated_tv", "Top Rated TV Shows", tmdb.TopRatedTV},
	{"upcoming_movies", "Upcoming Movies", tmdb.UpcomingMovies},
	{"now_playing", "Now Playing", tmdb.NowPlayingMovies},
}

// Home fetches the home screen rows concurrently. Rows that fail or come back
// empty are omitted; the rest keep their fixed order.
func (s *Service) Home(ctx context.Context) []media.Row {
	items := make([][]media.ContentItem, len(homeRows))

	var g errgroup.Group
	for i, row := range homeRows {
		g.Go(func() error {
			if row.list == "" {
				_ = s.call(ctx, backendAniList, "trending", func(ctx context.Context) error {
					page, err := s.anime.Trending(ctx, 1, s.perPage)
					if err != nil {
						return err
					}
					items[i] = fromAniListPage(page)
					return nil
				})
				return nil
			}
			_ = s.call(ctx, backendTMDB, row.key, func(ctx context.Context) error {
				page, err := s.movies.List(ctx, row.list, 1)
				if err != nil {
					return err
				}
				kind := media.Movie
				if row.list.MediaType() == "tv" {
					kind = media.TV
				}
				items[i] = fromTMDBResults(page.Results, kind, s.posterSize)
				return nil
			})
			return nil
		})
	}
	_ = g.Wait()

	rows := make([]media.Row, 0, len(homeRows))
	for i, row := range homeRows {
		deduped := Dedupe(items[i])
		if len(deduped) == 0 {
			continue
		}
		rows = append(rows, media.Row{Key: row.key, Title: row.title, Items: deduped})
	}
	return rows
}

// Genres lists the browsable genres: TMDB movie genres, TV-only genres, then
// AniList's fixed list. A failed TMDB list is left out.
func (s *Service) Genres(ctx context.Context) []media.Genre {
	var movieGenres, tvGenres []tmdb.Genre
	var g errgroup.Group
	g.Go(func() error {
		_ = s.call(ctx, backendTMDB, "genres_movie", func(ctx context.Context) (err error) {
			movieGenres, err = s.movies.Genres(ctx, "movie")
			return err
		})
		return nil
	})
	g.Go(func() error {
		_ = s.call(ctx, backendTMDB, "genres_tv", func(ctx context.Context) (err error) {
			tvGenres, err = s.movies.Genres(ctx, "tv")
			return err
		})
		return nil
	})
	_ = g.Wait()

	seen := make(map[int]struct{}, len(movieGenres)+len(tvGenres))
	out := make([]media.Genre, 0, len(movieGenres)+len(tvGenres)+len(anilist.Genres))
	for _, list := range []struct {
		kind   media.Kind
		genres []tmdb.Genre
	}{{media.Movie, movieGenres}, {media.TV, tvGenres}} {
		for _, gen := range list.genres {
			if _, dup := seen[gen.ID]; dup {
				continue
			}
			seen[gen.ID] = struct{}{}
			out = append(out, media.Genre{Kind: list.kind, ID: gen.ID, Name: gen.Name})
		}
	}
	for i, name := range anilist.Genres {
		out = append(out, media.Genre{Kind: media.Anime, ID: i + 1, Name: name})
	}
	return out
}
