package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// MPV plays the embed page in mpv, which resolves it through its yt-dlp hook.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool { return available("mpv") }

func mpvArgs(url, title string) []string {
	args := []string{url, "--really-quiet"}
	if title != "" {
		args = append(args, "--force-media-title="+title)
	}
	return args
}

// Play blocks until mpv exits. Quitting mpv is not an error.
func (m *MPV) Play(ctx context.Context, url, title string) error {
	if err := checkURL(url); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, "mpv", mpvArgs(url, title)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		// mpv exits 4 when the user quits
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 4 {
			return nil
		}
		return fmt.Errorf("running mpv: %w", err)
	}
	return nil
}
