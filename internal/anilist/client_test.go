package anilist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xlog "zetflix/internal/log"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)
	base := []Option{WithURL(srv.URL), WithHTTPClient(srv.Client()), WithMinInterval(0), WithLogger(xlog.Nop())}
	return NewClient(append(base, opts...)...)
}

const pageBody = `{
  "data": {
    "Page": {
      "pageInfo": {"total": 2, "currentPage": 1, "lastPage": 1, "hasNextPage": false},
      "media": [
        {"id": 154587, "title": {"romaji": "Sousou no Frieren", "english": "Frieren: Beyond Journey's End", "native": "葬送のフリーレン"},
         "averageScore": 91, "episodes": 28, "status": "FINISHED", "format": "TV", "startDate": {"year": 2023}, "popularity": 400000},
        {"id": 21, "title": {"romaji": "ONE PIECE", "english": null, "native": "ONE PIECE"}, "status": "RELEASING", "format": "TV"}
      ]
    }
  }
}`

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req struct {
			Query         string         `json:"query"`
			OperationName string         `json:"operationName"`
			Variables     map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SearchAnime", req.OperationName)
		assert.Contains(t, req.Query, "search: $search")
		assert.Equal(t, "frieren", req.Variables["search"])
		assert.Equal(t, float64(2), req.Variables["page"])
		assert.Equal(t, float64(5), req.Variables["perPage"])
		_, _ = w.Write([]byte(pageBody))
	})

	page, err := client.Search(context.Background(), "frieren", 2, 5)
	require.NoError(t, err)
	require.Len(t, page.Media, 2)
	assert.Equal(t, "Frieren: Beyond Journey's End", page.Media[0].Title.Preferred())
	assert.Equal(t, "ONE PIECE", page.Media[1].Title.Preferred())
	assert.Equal(t, 2, page.PageInfo.Total)
}

func TestQueriesUseExpectedSort(t *testing.T) {
	var (
		mu  sync.Mutex
		ops []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		ops = append(ops, req.OperationName)
		mu.Unlock()
		switch req.OperationName {
		case "TrendingAnime":
			assert.Contains(t, req.Query, "TRENDING_DESC")
		case "AnimeByGenre":
			assert.Contains(t, req.Query, "POPULARITY_DESC")
			assert.Equal(t, "Mecha", req.Variables["genre"])
			assert.Equal(t, float64(50), req.Variables["perPage"], "perPage is capped")
		}
		_, _ = w.Write([]byte(pageBody))
	})

	ctx := context.Background()
	_, err := client.Trending(ctx, 1, 20)
	require.NoError(t, err)
	_, err = client.ByGenre(ctx, "Mecha", 1, 500)
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"TrendingAnime", "AnimeByGenre"}, ops)
}

func TestGraphQLErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"errors with 200", http.StatusOK, `{"data": null, "errors": [{"message": "Invalid genre", "status": 400}]}`},
		{"errors with 400", http.StatusBadRequest, `{"errors": [{"message": "Syntax Error"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.ByGenre(context.Background(), "Nope", 1, 10)

			var gerr *GraphQLError
			require.True(t, errors.As(err, &gerr), "got %v", err)
			assert.Equal(t, tt.status, gerr.Status)
			assert.ErrorIs(t, err, ErrRequestFailed)
		})
	}
}

func TestTransportFailuresShareSignal(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := client.Trending(context.Background(), 1, 10)
		assert.ErrorIs(t, err, ErrRequestFailed)
	})

	t.Run("timeout", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := client.Trending(ctx, 1, 10)
		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("empty data", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": null}`))
		})
		_, err := client.Trending(context.Background(), 1, 10)
		assert.ErrorIs(t, err, ErrRequestFailed)
	})
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Currently Airing", StatusLabel("RELEASING"))
	assert.Equal(t, "On Hiatus", StatusLabel("HIATUS"))
	assert.Equal(t, "SOMETHING", StatusLabel("SOMETHING"))
	assert.Equal(t, "TV", FormatLabel("TV_SHORT"))
	assert.Equal(t, "Movie", FormatLabel("MOVIE"))
	assert.Equal(t, "Unknown", FormatLabel(""))
}

func TestTitlePreferred(t *testing.T) {
	assert.Equal(t, "English", Title{English: "English", Romaji: "Romaji", Native: "Native"}.Preferred())
	assert.Equal(t, "Romaji", Title{Romaji: "Romaji", Native: "Native"}.Preferred())
	assert.Equal(t, "Native", Title{Native: "Native"}.Preferred())
}
