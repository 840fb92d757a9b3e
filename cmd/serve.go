package cmd

import (
	"github.com/spf13/cobra"

	xlog "zetflix/internal/log"
	"zetflix/internal/playback"
	"zetflix/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog and playback sessions over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	addr := cfg.Server.Listen
	if flagListen != "" {
		addr = flagListen
	}

	srv := server.New(newCatalog(), reg, server.Config{
		RateLimit:   cfg.Server.RateLimit,
		MaxSessions: cfg.Server.MaxSessions,
		SessionTTL:  cfg.Server.SessionTTL,
		Session: []playback.Option{
			playback.WithLoadTimeout(cfg.Playback.LoadTimeout),
			playback.WithSettleDelay(cfg.Playback.SettleDelay),
			playback.WithLogger(xlog.WithComponent("playback")),
		},
	})
	return srv.ListenAndServe(cmd.Context(), addr)
}
