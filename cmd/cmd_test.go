package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zetflix/internal/config"
	"zetflix/internal/media"
	"zetflix/internal/player"
)

var testGenres = []media.Genre{
	{Kind: media.Movie, ID: 28, Name: "Action"},
	{Kind: media.TV, ID: 10759, Name: "Action & Adventure"},
	{Kind: media.Anime, ID: 1, Name: "Action"},
	{Kind: media.Anime, ID: 9, Name: "Mecha"},
}

func TestFilterGenres(t *testing.T) {
	assert.Len(t, filterGenres(testGenres, media.Movie), 2)
	assert.Len(t, filterGenres(testGenres, media.TV), 2)
	anime := filterGenres(testGenres, media.Anime)
	require.Len(t, anime, 2)
	assert.Equal(t, "Mecha", anime[1].Name)
}

func TestFindGenre(t *testing.T) {
	g, ok := findGenre(testGenres, " mecha ")
	require.True(t, ok)
	assert.Equal(t, media.Anime, g.Kind)

	g, ok = findGenre(testGenres, "ACTION")
	require.True(t, ok)
	assert.Equal(t, media.Movie, g.Kind, "first match wins")

	_, ok = findGenre(testGenres, "Western")
	assert.False(t, ok)
}

func TestFilterKind(t *testing.T) {
	items := []media.ContentItem{{Kind: media.Movie, ExternalID: "1"}, {Kind: media.Anime, ExternalID: "2"}}

	flagKind = ""
	got, err := filterKind(items)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	flagKind = "anime"
	t.Cleanup(func() { flagKind = "" })
	got, err = filterKind(items)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ExternalID)

	flagKind = "radio"
	_, err = filterKind(items)
	assert.Error(t, err)
}

func TestPickWithoutPrompt(t *testing.T) {
	seasons := []media.Season{{Number: 1}, {Number: 2}}
	s, err := pickSeason(seasons, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Number)
	_, err = pickSeason(seasons, 5)
	assert.Error(t, err)

	s, err = pickSeason(seasons[:1], 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Number)

	episodes := []media.Episode{{Number: 1}, {Number: 2}, {Number: 3}}
	n, err := pickEpisode(episodes, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = pickEpisode(episodes, 4)
	assert.Error(t, err)
}

func TestAutoplayNext(t *testing.T) {
	cfg = config.Default()
	t.Cleanup(func() { cfg = nil })

	tv := media.PlaybackRequest{Content: media.ContentItem{Kind: media.TV}, Season: 1, Episode: 3}
	movie := media.PlaybackRequest{Content: media.ContentItem{Kind: media.Movie}}

	assert.True(t, autoplayNext(&player.MPV{}, tv, 10))
	assert.True(t, autoplayNext(&player.MPV{}, tv, 0), "unknown episode count keeps going")
	assert.False(t, autoplayNext(&player.MPV{}, tv, 3), "last episode")
	assert.False(t, autoplayNext(&player.MPV{}, movie, 0))
	assert.False(t, autoplayNext(player.NewBrowser(), tv, 10), "browser does not block")

	cfg.Playback.Autoplay = false
	assert.False(t, autoplayNext(&player.MPV{}, tv, 10))
}

func TestNextEpisodeLabel(t *testing.T) {
	tests := []struct {
		name string
		req  media.PlaybackRequest
		want string
	}{
		{"tv", media.PlaybackRequest{Content: media.ContentItem{Kind: media.TV, Title: "Dark"}, Season: 2, Episode: 3}, "Dark S02E04"},
		{"tv defaults", media.PlaybackRequest{Content: media.ContentItem{Kind: media.TV, Title: "Dark"}}, "Dark S01E02"},
		{"anime", media.PlaybackRequest{Content: media.ContentItem{Kind: media.Anime, Title: "Frieren"}, Episode: 27}, "Frieren E28"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextEpisode(tt.req).Label())
		})
	}
}
