package player

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Generic launches a named browser or player binary with the URL as its only argument.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool { return available(g.name) }

// Play starts the program and returns without waiting for it to exit.
func (g *Generic) Play(ctx context.Context, url, _ string) error {
	if err := checkURL(url); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, g.name, url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", g.name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Browser hands the URL to the desktop's default browser.
type Browser struct {
	goos string
}

// NewBrowser returns a launcher for the current OS.
func NewBrowser() *Browser {
	return &Browser{goos: runtime.GOOS}
}

func (b *Browser) Name() string { return "browser" }

func (b *Browser) Available() bool {
	bin, _ := b.command("")
	return available(bin)
}

// command returns the opener binary and its argv for the OS.
func (b *Browser) command(url string) (string, []string) {
	switch b.goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

func (b *Browser) Play(ctx context.Context, url, _ string) error {
	if err := checkURL(url); err != nil {
		return err
	}
	bin, args := b.command(url)
	if err := exec.CommandContext(ctx, bin, args...).Run(); err != nil {
		return fmt.Errorf("opening browser with %s: %w", bin, err)
	}
	return nil
}
