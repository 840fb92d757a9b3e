package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"zetflix/internal/media"
	"zetflix/internal/ui"
)

var trendingCmd = &cobra.Command{
	Use:   "trending [movies|tv|anime]",
	Short: "Browse trending content",
	Args:  cobra.MaximumNArgs(1),
	RunE:  trendingRun,
}

var trendingRows = map[media.Kind]string{
	media.Movie: "trending_movies",
	media.TV:    "trending_tv",
	media.Anime: "trending_anime",
}

func trendingRun(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args)
	if err != nil {
		return err
	}

	cat := newCatalog()
	var items []media.ContentItem
	for _, row := range cat.Home(cmd.Context()) {
		if row.Key == trendingRows[kind] {
			items = row.Items
			break
		}
	}
	if len(items) == 0 {
		fmt.Println("No trending content found.")
		return nil
	}

	selected, err := ui.SelectContent("Trending "+kind.String(), items)
	if err != nil {
		return err
	}
	return resolveAndPlay(cmd.Context(), cat, selected, flagSeason, flagEpisode)
}

// parseKindArg reads an optional kind argument, falling back to --kind and then movies.
func parseKindArg(args []string) (media.Kind, error) {
	if len(args) > 0 {
		return media.ParseKind(args[0])
	}
	kind, _, err := kindFilter()
	return kind, err
}
