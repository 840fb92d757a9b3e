package anilist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"zetflix/internal/httputil"
	xlog "zetflix/internal/log"
)

const (
	defaultURL         = "https://graphql.anilist.co"
	defaultTimeout     = 8 * time.Second
	defaultMinInterval = time.Second
	defaultPerPage     = 20
	maxPerPage         = 50
)

// ErrRequestFailed matches every failure of a query, whether the transport failed
// or the response carried an application-level error list.
var ErrRequestFailed = errors.New("anilist: request failed")

// GraphQLError reports the errors array of a GraphQL response.
type GraphQLError struct {
	Status   int // HTTP status, 200 when the errors came with a successful response
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "anilist: graphql error: " + strings.Join(e.Messages, ", ")
}

// Is makes GraphQLError match ErrRequestFailed.
func (e *GraphQLError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Client is an AniList GraphQL client. Calls are spaced at least one interval apart.
type Client struct {
	url         string
	httpClient  *http.Client
	limiter     *rate.Limiter
	minInterval time.Duration
	log         zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithURL sets a custom endpoint (for testing).
func WithURL(u string) Option {
	return func(c *Client) { c.url = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request made with the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = httputil.NewClient(d) }
}

// WithMinInterval sets the minimum spacing between calls. Zero disables spacing.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.minInterval = d }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a new AniList client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url:         defaultURL,
		httpClient:  httputil.NewClient(defaultTimeout),
		minInterval: defaultMinInterval,
		log:         xlog.WithComponent("anilist"),
	}
	for _, opt := range opts {
		opt(c)
	}
	limit := rate.Inf
	if c.minInterval > 0 {
		limit = rate.Every(c.minInterval)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	return c
}

// Trending returns currently airing anime ordered by trend.
func (c *Client) Trending(ctx context.Context, page, perPage int) (*Page, error) {
	return c.page(ctx, "TrendingAnime", trendingQuery, pageVars(page, perPage))
}

// Search returns anime matching query in AniList relevance order.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) (*Page, error) {
	vars := pageVars(page, perPage)
	vars["search"] = query
	return c.page(ctx, "SearchAnime", searchQuery, vars)
}

// ByGenre returns anime of a genre, most popular first.
func (c *Client) ByGenre(ctx context.Context, genre string, page, perPage int) (*Page, error) {
	vars := pageVars(page, perPage)
	vars["genre"] = genre
	return c.page(ctx, "AnimeByGenre", genreQuery, vars)
}

func pageVars(page, perPage int) map[string]any {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return map[string]any{"page": page, "perPage": perPage}
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type response struct {
	Data *struct {
		Page *Page `json:"Page"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"errors"`
}

func (c *Client) page(ctx context.Context, op, query string, vars map[string]any) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, op, err)
	}

	start := time.Now()
	body, err := httputil.PostJSON(ctx, c.httpClient, c.url, request{Query: query, OperationName: op, Variables: vars})
	c.log.Debug().Str("op", op).Dur("duration", time.Since(start)).Err(err).Msg("anilist request")

	var resp response
	if len(body) > 0 {
		if jerr := json.Unmarshal(body, &resp); jerr != nil && err == nil {
			return nil, fmt.Errorf("%w: %s: decode response: %w", ErrRequestFailed, op, jerr)
		}
	}

	if len(resp.Errors) > 0 {
		gerr := &GraphQLError{Status: http.StatusOK}
		var se *httputil.StatusError
		if errors.As(err, &se) {
			gerr.Status = se.Code
		}
		for _, e := range resp.Errors {
			gerr.Messages = append(gerr.Messages, e.Message)
		}
		return nil, gerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, op, err)
	}
	if resp.Data == nil || resp.Data.Page == nil {
		return nil, fmt.Errorf("%w: %s: response has no page", ErrRequestFailed, op)
	}
	return resp.Data.Page, nil
}
