// Package player opens a resolved embed URL for the user.
// Every launch uses exec.Command with an explicit argument slice; nothing is
// passed through a shell.
package player

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"zetflix/internal/httputil"
)

// Player opens embed pages.
type Player interface {
	// Play opens url. Players that own a window (mpv) return when playback
	// ends; browser launchers return once the page has been handed off.
	Play(ctx context.Context, url, title string) error

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name. Unknown names fall back to the system browser.
func New(name string) Player {
	switch strings.ToLower(name) {
	case "mpv":
		return &MPV{}
	case "firefox", "chromium", "iina":
		return &Generic{name: strings.ToLower(name)}
	default:
		return NewBrowser()
	}
}

func checkURL(url string) error {
	if err := httputil.ValidateURL(url); err != nil {
		return fmt.Errorf("refusing to open %q: %w", httputil.Redact(url), err)
	}
	return nil
}

func available(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}
