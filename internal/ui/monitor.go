package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"zetflix/internal/playback"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Interactive reports whether stderr is a terminal the monitor can draw on.
func Interactive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// Controls are the session commands the monitor binds to keys.
type Controls interface {
	ManualSwitchNext() error
	Retry() error
}

type transitionMsg playback.Transition

type closedMsg struct{}

// monitor follows a playback session until a provider loads. n skips to the
// next provider, r retries after exhaustion, q quits.
type monitor struct {
	title   string
	ctl     Controls
	updates <-chan playback.Transition
	spinner spinner.Model

	last    playback.Transition
	settled bool
	closed  bool
	notice  string
}

func newMonitor(title string, ctl Controls, updates <-chan playback.Transition) *monitor {
	return &monitor{
		title:   title,
		ctl:     ctl,
		updates: updates,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		last:    playback.Transition{State: playback.Selecting},
	}
}

func (m *monitor) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait())
}

func (m *monitor) wait() tea.Cmd {
	return func() tea.Msg {
		t, ok := <-m.updates
		if !ok {
			return closedMsg{}
		}
		return transitionMsg(t)
	}
}

func (m *monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "n":
			m.command(m.ctl.ManualSwitchNext)
		case "r":
			m.command(m.ctl.Retry)
		}
		return m, nil
	case transitionMsg:
		m.last = playback.Transition(msg)
		if m.last.State == playback.Succeeded {
			m.settled = true
			return m, tea.Quit
		}
		return m, m.wait()
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *monitor) command(fn func() error) {
	m.notice = ""
	if err := fn(); err != nil {
		m.notice = err.Error()
	}
}

func (m *monitor) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	for _, a := range m.last.Attempts {
		switch a.Outcome {
		case playback.OutcomeLoaded:
			fmt.Fprintf(&b, "  %s %s\n", okStyle.Render("✓"), a.ProviderID)
		case playback.OutcomePending:
			fmt.Fprintf(&b, "  %s %s\n", m.spinner.View(), a.ProviderID)
		default:
			line := fmt.Sprintf("%s %s", a.ProviderID, a.Outcome)
			if a.Err != nil {
				line += ": " + a.Err.Error()
			}
			fmt.Fprintf(&b, "  %s %s\n", errStyle.Render("✗"), mutedStyle.Render(line))
		}
	}

	switch m.last.State {
	case playback.ExhaustedFailed:
		b.WriteString(errStyle.Render("All providers failed."))
		b.WriteString("\n")
	case playback.Selecting, playback.SwitchingEpisode, playback.SwitchingSeason:
		fmt.Fprintf(&b, "  %s %s\n", m.spinner.View(), mutedStyle.Render(m.last.State.String()))
	}
	if m.notice != "" {
		b.WriteString(errStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("n next provider • r retry • q quit"))
	b.WriteString("\n")
	return b.String()
}

// result maps the final model state onto WatchSession's return values.
func (m *monitor) result() (playback.Transition, error) {
	switch {
	case m.settled:
		return m.last, nil
	case m.closed:
		return m.last, errors.New("playback session closed")
	case m.last.State == playback.ExhaustedFailed && m.last.Err != nil:
		return m.last, m.last.Err
	default:
		return m.last, ErrCancelled
	}
}

// WatchSession draws the session's progress on stderr until a provider loads,
// the user quits, or ctx is done.
func WatchSession(ctx context.Context, title string, ctl Controls, updates <-chan playback.Transition) (playback.Transition, error) {
	m := newMonitor(title, ctl, updates)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return m.last, ctx.Err()
		}
		return m.last, fmt.Errorf("session monitor: %w", err)
	}
	return m.result()
}
