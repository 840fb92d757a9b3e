package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zetflix/internal/catalog"
	"zetflix/internal/media"
	"zetflix/internal/ui"
)

// searchRun is the default command: zetflix <query>
func searchRun(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		var err error
		query, err = ui.Input("Search")
		if err != nil {
			return fmt.Errorf("no search query provided")
		}
	}

	cat := newCatalog()
	set := cat.Search(cmd.Context(), query)
	items, err := filterKind(set.Items)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no results for %q", query)
	}

	selected, err := ui.SelectContent("Select", items)
	if err != nil {
		return err
	}
	return resolveAndPlay(cmd.Context(), cat, selected, flagSeason, flagEpisode)
}

func filterKind(items []media.ContentItem) ([]media.ContentItem, error) {
	kind, ok, err := kindFilter()
	if err != nil || !ok {
		return items, err
	}
	out := make([]media.ContentItem, 0, len(items))
	for _, it := range items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out, nil
}

// resolveAndPlay picks season and episode where needed, then hands the request
// to a playback session.
func resolveAndPlay(ctx context.Context, cat *catalog.Service, item media.ContentItem, season, episode int) error {
	store := openHistory()
	if store != nil {
		defer store.Close()
	}

	if flagContinue && store != nil {
		if e, ok, err := store.Latest(item.Kind, item.ExternalID); err == nil && ok {
			season, episode = e.Season, e.Episode
			fmt.Fprintf(os.Stderr, "Resuming %s\n", media.PlaybackRequest{Content: item, Season: season, Episode: episode}.Label())
		}
	}

	lastEpisode := 0
	switch item.Kind {
	case media.TV:
		seasons, err := cat.Seasons(ctx, item)
		if err != nil {
			return fmt.Errorf("getting seasons: %w", err)
		}
		if len(seasons) == 0 {
			return fmt.Errorf("no seasons found")
		}
		chosen, err := pickSeason(seasons, season)
		if err != nil {
			return err
		}
		season = chosen.Number

		episodes, err := cat.Episodes(ctx, item, season)
		if err != nil && !errors.Is(err, catalog.ErrBackendUnavailable) {
			return fmt.Errorf("getting episodes: %w", err)
		}
		if len(episodes) > 0 {
			if episode, err = pickEpisode(episodes, episode); err != nil {
				return err
			}
			lastEpisode = episodes[len(episodes)-1].Number
		} else if episode == 0 {
			episode = 1
		}
	case media.Anime:
		lastEpisode = item.EpisodeCount
		if episode == 0 && lastEpisode > 1 {
			var err error
			episode, err = ui.SelectNumber("Episode", lastEpisode, func(i int) string { return fmt.Sprintf("Episode %d", i) })
			if err != nil {
				return err
			}
		}
	}

	req := media.PlaybackRequest{Content: item, Season: season, Episode: episode}.Normalized()
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	if flagJSON {
		return printSources(reg, req)
	}
	return play(ctx, reg, store, req, lastEpisode)
}

func pickSeason(seasons []media.Season, want int) (media.Season, error) {
	if want > 0 {
		for _, s := range seasons {
			if s.Number == want {
				return s, nil
			}
		}
		return media.Season{}, fmt.Errorf("season %d not found", want)
	}
	if len(seasons) == 1 {
		return seasons[0], nil
	}
	labels := make([]string, len(seasons))
	for i, s := range seasons {
		labels[i] = fmt.Sprintf("Season %d", s.Number)
		if s.Name != "" && s.Name != labels[i] {
			labels[i] += ": " + s.Name
		}
	}
	idx, err := ui.Select("Season", labels)
	if err != nil {
		return media.Season{}, err
	}
	return seasons[idx], nil
}

func pickEpisode(episodes []media.Episode, want int) (int, error) {
	if want > 0 {
		for _, ep := range episodes {
			if ep.Number == want {
				return want, nil
			}
		}
		return 0, fmt.Errorf("episode %d not found", want)
	}
	labels := make([]string, len(episodes))
	for i, ep := range episodes {
		labels[i] = fmt.Sprintf("Episode %d", ep.Number)
		if ep.Title != "" {
			labels[i] += ": " + ep.Title
		}
	}
	idx, err := ui.Select("Episode", labels)
	if err != nil {
		return 0, err
	}
	return episodes[idx].Number, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
