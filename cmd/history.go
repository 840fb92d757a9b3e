package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"zetflix/internal/history"
	"zetflix/internal/ui"
)

var flagRemove bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Resume from watch history",
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().BoolVar(&flagRemove, "remove", false, "Remove the selected entry instead of playing it")
}

func historyRun(cmd *cobra.Command, args []string) error {
	if !cfg.History {
		return fmt.Errorf("history is disabled in the config")
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	entries, err := store.Load()
	store.Close()
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if flagJSON {
		return printJSON(map[string]any{"entries": entries})
	}
	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	idx, err := ui.Select("History", history.FormatForDisplay(entries))
	if err != nil {
		return err
	}
	selected := entries[idx]

	if flagRemove {
		store, err := history.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Remove(selected.Kind, selected.ExternalID)
	}

	cat := newCatalog()
	item := selected.Content()
	if details, err := cat.Details(cmd.Context(), item); err == nil {
		item = details
	}
	return resolveAndPlay(cmd.Context(), cat, item, selected.Season, selected.Episode)
}
