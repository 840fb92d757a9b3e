package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"zetflix/internal/media"
	"zetflix/internal/ui"
)

var genreCmd = &cobra.Command{
	Use:   "genre [name]",
	Short: "Browse a genre",
	Long:  "Browse a genre. Without a name the genre list is shown; --kind narrows it.",
	Args:  cobra.ArbitraryArgs,
	RunE:  genreRun,
}

func genreRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cat := newCatalog()

	genres := cat.Genres(ctx)
	if kind, ok, err := kindFilter(); err != nil {
		return err
	} else if ok {
		genres = filterGenres(genres, kind)
	}
	if len(genres) == 0 {
		return fmt.Errorf("no genres available")
	}

	var genre media.Genre
	if name := strings.Join(args, " "); name != "" {
		g, ok := findGenre(genres, name)
		if !ok {
			return fmt.Errorf("unknown genre %q", name)
		}
		genre = g
	} else {
		labels := make([]string, len(genres))
		for i, g := range genres {
			labels[i] = fmt.Sprintf("%s [%s]", g.Name, g.Kind)
		}
		idx, err := ui.Select("Genre", labels)
		if err != nil {
			return err
		}
		genre = genres[idx]
	}

	items, err := filterKind(cat.ByGenre(ctx, genre))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Printf("Nothing found for %s.\n", genre.Name)
		return nil
	}
	selected, err := ui.SelectContent(genre.Name, items)
	if err != nil {
		return err
	}
	return resolveAndPlay(ctx, cat, selected, flagSeason, flagEpisode)
}

func filterGenres(genres []media.Genre, kind media.Kind) []media.Genre {
	out := make([]media.Genre, 0, len(genres))
	for _, g := range genres {
		// TMDB genres browse movies and TV together
		if (g.Kind == media.Anime) == (kind == media.Anime) {
			out = append(out, g)
		}
	}
	return out
}

// findGenre matches by name, case-insensitively. The first match wins.
func findGenre(genres []media.Genre, name string) (media.Genre, bool) {
	for _, g := range genres {
		if strings.EqualFold(g.Name, strings.TrimSpace(name)) {
			return g, true
		}
	}
	return media.Genre{}, false
}
