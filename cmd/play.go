package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"zetflix/internal/embed"
	"zetflix/internal/history"
	xlog "zetflix/internal/log"
	"zetflix/internal/media"
	"zetflix/internal/playback"
	"zetflix/internal/player"
	"zetflix/internal/surface"
	"zetflix/internal/ui"
)

// play runs a playback session against a probing surface, opens the winning
// URL and, for blocking players, rolls on to the next episode.
func play(ctx context.Context, reg embed.Lister, store history.Store, req media.PlaybackRequest, lastEpisode int) error {
	pl := player.New(cfg.Player)
	if !pl.Available() {
		return fmt.Errorf("player %q not found in PATH", pl.Name())
	}

	probe := surface.NewProbe(
		surface.WithProbeTimeout(cfg.Playback.ProbeTimeout),
		surface.WithLogger(xlog.WithComponent("probe")),
	)
	defer probe.Close()

	sess := playback.New(reg, probe,
		playback.WithLoadTimeout(cfg.Playback.LoadTimeout),
		playback.WithSettleDelay(cfg.Playback.SettleDelay),
	)
	defer sess.Close()

	updates, unsubscribe := sess.Subscribe(32)
	defer unsubscribe()

	if err := sess.Start(req); err != nil {
		return err
	}

	title := req.Label()
	for {
		var won playback.Transition
		var err error
		if ui.Interactive() {
			won, err = ui.WatchSession(ctx, title, sess, updates)
		} else {
			won, err = waitSettled(ctx, updates)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		cur, _ := won.Current()
		fmt.Fprintf(os.Stderr, "Playing %s via %s\n", won.Request.Label(), cur.ProviderID)

		if err := pl.Play(ctx, cur.URL, won.Request.Label()); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
		record(store, won.Request, cur.ProviderID)

		if !autoplayNext(pl, won.Request, lastEpisode) {
			return nil
		}
		if err := sess.ScheduleNextEpisode(cfg.Playback.AutoplayCountdown); err != nil {
			return err
		}
		// the session still holds this episode until the countdown fires
		title = nextEpisode(won.Request).Label()
		fmt.Fprintf(os.Stderr, "Next episode in %s (Ctrl-C to stop)\n", cfg.Playback.AutoplayCountdown)
	}
}

// nextEpisode is the request autoplay moves on to after req.
func nextEpisode(req media.PlaybackRequest) media.PlaybackRequest {
	req = req.Normalized()
	req.Episode++
	return req
}

func autoplayNext(pl player.Player, req media.PlaybackRequest, lastEpisode int) bool {
	if !cfg.Playback.Autoplay || !req.Content.Kind.Episodic() {
		return false
	}
	// only mpv blocks until the episode is over
	if _, ok := pl.(*player.MPV); !ok {
		return false
	}
	return lastEpisode == 0 || req.Episode < lastEpisode
}

// waitSettled follows transitions until a provider loads or every provider failed.
func waitSettled(ctx context.Context, updates <-chan playback.Transition) (playback.Transition, error) {
	for {
		select {
		case <-ctx.Done():
			return playback.Transition{}, ctx.Err()
		case t, ok := <-updates:
			if !ok {
				return playback.Transition{}, errors.New("playback session closed")
			}
			switch t.State {
			case playback.Attempting:
				fmt.Fprintf(os.Stderr, "Trying %s...\n", t.ProviderID)
			case playback.Selecting:
				if t.Err != nil {
					fmt.Fprintf(os.Stderr, "  %v\n", t.Err)
				}
			case playback.Succeeded:
				return t, nil
			case playback.ExhaustedFailed:
				return t, t.Err
			}
		}
	}
}

func record(store history.Store, req media.PlaybackRequest, providerID string) {
	if store == nil {
		return
	}
	entry := media.HistoryEntry{
		Kind:       req.Content.Kind,
		ExternalID: req.Content.ExternalID,
		Title:      req.Content.Title,
		Year:       req.Content.Year,
		ProviderID: providerID,
	}
	if req.Content.Kind.Episodic() {
		entry.Season, entry.Episode = req.Season, req.Episode
	}
	if err := store.Save(entry); err != nil {
		log := xlog.WithComponent("history")
		log.Warn().Err(err).Msg("saving history failed")
	}
}

// openHistory returns nil when history is disabled or cannot be opened.
func openHistory() history.Store {
	if !cfg.History {
		return nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		log := xlog.WithComponent("history")
		log.Warn().Err(err).Msg("history unavailable")
		return nil
	}
	return store
}

type sourceView struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// printSources writes every candidate embed URL for req without probing them.
func printSources(reg embed.Lister, req media.PlaybackRequest) error {
	sources := embed.Sources(reg, req)
	out := struct {
		Title   string                `json:"title"`
		Request media.PlaybackRequest `json:"request"`
		Sources []sourceView          `json:"sources"`
	}{Title: req.Label(), Request: req, Sources: make([]sourceView, 0, len(sources))}
	for _, s := range sources {
		v := sourceView{Provider: s.Provider.ID, Name: s.Provider.DisplayName, URL: s.URL}
		if s.Err != nil {
			v.Error = s.Err.Error()
		}
		out.Sources = append(out.Sources, v)
	}
	return printJSON(out)
}
