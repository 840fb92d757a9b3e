package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"zetflix/internal/httputil"
	xlog "zetflix/internal/log"
)

const (
	defaultBaseURL     = "https://api.themoviedb.org/3"
	defaultLanguage    = "en-US"
	defaultTimeout     = 10 * time.Second
	defaultMinInterval = 250 * time.Millisecond
	defaultCacheTTL    = time.Hour
)

var (
	// ErrMissingAPIKey is returned before any request when no key is configured.
	ErrMissingAPIKey = errors.New("tmdb: api key not configured")
	// ErrUnauthorized is returned for HTTP 401 (bad or revoked key).
	ErrUnauthorized = errors.New("tmdb: unauthorized")
	// ErrNotFound is returned when the requested resource doesn't exist.
	ErrNotFound = errors.New("tmdb: not found")
	// ErrRateLimited is returned for HTTP 429.
	ErrRateLimited = errors.New("tmdb: rate limited")
)

// List names a paged catalog endpoint.
type List string

const (
	TrendingMovies   List = "trending/movie/week"
	TrendingTV       List = "trending/tv/week"
	PopularMovies    List = "movie/popular"
	PopularTV        List = "tv/popular"
	TopRatedMovies   List = "movie/top_rated"
	TopRatedTV       List = "tv/top_rated"
	UpcomingMovies   List = "movie/upcoming"
	NowPlayingMovies List = "movie/now_playing"
)

// MediaType reports whether the list holds movies or shows.
func (l List) MediaType() string {
	if strings.Contains(string(l), "tv") {
		return "tv"
	}
	return "movie"
}

// Client is a TMDB API client. Requests are spaced by a client-side limiter,
// identical in-flight requests are coalesced and responses are cached.
type Client struct {
	apiKey      string
	baseURL     string
	language    string
	httpClient  *http.Client
	limiter     *rate.Limiter
	timeout     time.Duration
	minInterval time.Duration
	cacheTTL    time.Duration
	cache       *gocache.Cache
	group       singleflight.Group
	log         zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request, including time spent waiting on the limiter.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		c.httpClient = httputil.NewClient(d)
	}
}

// WithMinInterval sets the minimum spacing between requests. Zero disables spacing.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.minInterval = d }
}

// WithCacheTTL sets the response cache TTL. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// WithLanguage sets the language parameter sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		language:    defaultLanguage,
		httpClient:  httputil.NewClient(defaultTimeout),
		timeout:     defaultTimeout,
		minInterval: defaultMinInterval,
		cacheTTL:    defaultCacheTTL,
		log:         xlog.WithComponent("tmdb"),
	}
	for _, opt := range opts {
		opt(c)
	}

	limit := rate.Inf
	if c.minInterval > 0 {
		limit = rate.Every(c.minInterval)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	if c.cacheTTL > 0 {
		c.cache = gocache.New(c.cacheTTL, 2*c.cacheTTL)
	}
	return c
}

// List fetches one page of a catalog list such as trending or popular.
func (c *Client) List(ctx context.Context, list List, page int) (*Page, error) {
	var out Page
	if err := c.get(ctx, strings.Split(string(list), "/"), pageParams(page), &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", list, err)
	}
	return &out, nil
}

// SearchMulti searches movies, shows and people in one call.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*Page, error) {
	params := pageParams(page)
	params.Set("query", query)
	params.Set("include_adult", "false")

	var out Page
	if err := c.get(ctx, []string{"search", "multi"}, params, &out); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &out, nil
}

// Discover lists titles of mediaType ("movie" or "tv") in a genre, most popular first.
func (c *Client) Discover(ctx context.Context, mediaType string, genreID, page int) (*Page, error) {
	params := pageParams(page)
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")

	var out Page
	if err := c.get(ctx, []string{"discover", mediaType}, params, &out); err != nil {
		return nil, fmt.Errorf("discover %s genre %d: %w", mediaType, genreID, err)
	}
	return &out, nil
}

// Genres returns the official genre list for mediaType ("movie" or "tv").
func (c *Client) Genres(ctx context.Context, mediaType string) ([]Genre, error) {
	var out genreList
	if err := c.get(ctx, []string{"genre", mediaType, "list"}, nil, &out); err != nil {
		return nil, fmt.Errorf("%s genres: %w", mediaType, err)
	}
	return out.Genres, nil
}

// Movie fetches movie details including videos and credits.
func (c *Client) Movie(ctx context.Context, id int64) (*Movie, error) {
	var out Movie
	if err := c.get(ctx, []string{"movie", strconv.FormatInt(id, 10)}, detailParams(), &out); err != nil {
		return nil, fmt.Errorf("movie %d: %w", id, err)
	}
	return &out, nil
}

// TV fetches show details including videos and credits.
func (c *Client) TV(ctx context.Context, id int64) (*TV, error) {
	var out TV
	if err := c.get(ctx, []string{"tv", strconv.FormatInt(id, 10)}, detailParams(), &out); err != nil {
		return nil, fmt.Errorf("tv %d: %w", id, err)
	}
	return &out, nil
}

// Season fetches one season of a show with its episodes.
func (c *Client) Season(ctx context.Context, tvID int64, season int) (*Season, error) {
	var out Season
	segments := []string{"tv", strconv.FormatInt(tvID, 10), "season", strconv.Itoa(season)}
	if err := c.get(ctx, segments, nil, &out); err != nil {
		return nil, fmt.Errorf("tv %d season %d: %w", tvID, season, err)
	}
	return &out, nil
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func detailParams() url.Values {
	return url.Values{"append_to_response": {"videos,credits"}}
}

// get performs a cached, coalesced, rate-limited GET and decodes the body into out.
func (c *Client) get(ctx context.Context, segments []string, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("language", c.language)

	// The key never includes the api key so it is safe to log.
	key := strings.Join(segments, "/") + "?" + params.Encode()
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			return decode(body.([]byte), out)
		}
	}

	// The shared request outlives any single caller: it runs detached from the
	// caller that started it and is bounded by the client timeout instead.
	ch := c.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		q := url.Values{}
		for k, vs := range params {
			q[k] = vs
		}
		q.Set("api_key", c.apiKey)
		endpoint := httputil.BuildURL(c.baseURL, q, segments...)

		start := time.Now()
		body, err := httputil.GetJSON(ctx, c.httpClient, endpoint)
		c.log.Debug().
			Str("path", key).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("tmdb request")
		if err != nil {
			return nil, classify(err)
		}
		if c.cache != nil {
			c.cache.SetDefault(key, body)
		}
		return body, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if res.Shared {
			c.log.Debug().Str("path", key).Msg("coalesced tmdb request")
		}
		return decode(res.Val.([]byte), out)
	}
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func classify(err error) error {
	var se *httputil.StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return err
	}
}
