// Package ui provides a fzf launcher abstraction.
// Items are piped to fzf via stdin as plain text; no preview command or other
// shell-evaluated string ever carries remote data.
package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"zetflix/internal/media"
)

// ErrCancelled is returned when the user dismisses fzf.
var ErrCancelled = errors.New("selection cancelled")

var lineCleaner = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// numbered prefixes each item with its index so the choice maps back reliably.
func numbered(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d\t%s\n", i, lineCleaner.Replace(item))
	}
	return b.String()
}

// parseSelection extracts the index from a numbered fzf line.
func parseSelection(out string, n int) (int, error) {
	selected := strings.TrimSpace(out)
	if selected == "" {
		return -1, ErrCancelled
	}
	field, _, _ := strings.Cut(selected, "\t")
	idx, err := strconv.Atoi(field)
	if err != nil {
		return -1, fmt.Errorf("parsing selection index: %w", err)
	}
	if idx < 0 || idx >= n {
		return -1, fmt.Errorf("selection index %d out of range", idx)
	}
	return idx, nil
}

// Select presents items via fzf and returns the chosen index.
func Select(prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}
	fzfPath, err := exec.LookPath("fzf")
	if err != nil {
		return -1, fmt.Errorf("fzf not found in PATH: %w", err)
	}

	cmd := exec.Command(fzfPath,
		"--prompt", prompt+" > ",
		"--height", "40%",
		"--reverse",
		"--with-nth", "2..",
		"--delimiter", "\t",
		"--no-multi",
		"--cycle",
	)
	cmd.Stdin = strings.NewReader(numbered(items))
	cmd.Stderr = os.Stderr
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && (exitErr.ExitCode() == 130 || exitErr.ExitCode() == 1) {
			return -1, ErrCancelled
		}
		return -1, fmt.Errorf("fzf failed: %w", err)
	}
	return parseSelection(stdout.String(), len(items))
}

// SelectContent lets the user pick one catalog item.
func SelectContent(prompt string, items []media.ContentItem) (media.ContentItem, error) {
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = it.DisplayTitle()
	}
	idx, err := Select(prompt, labels)
	if err != nil {
		return media.ContentItem{}, err
	}
	return items[idx], nil
}

// SelectNumber picks from 1..n, labelling each choice with label(i).
func SelectNumber(prompt string, n int, label func(i int) string) (int, error) {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = label(i + 1)
	}
	idx, err := Select(prompt, labels)
	if err != nil {
		return 0, err
	}
	return idx + 1, nil
}

// Confirm asks a yes/no question via fzf.
func Confirm(prompt string) (bool, error) {
	idx, err := Select(prompt, []string{"Yes", "No"})
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

// Input prompts for free text using fzf's --print-query.
func Input(prompt string) (string, error) {
	fzfPath, err := exec.LookPath("fzf")
	if err != nil {
		return "", fmt.Errorf("fzf not found in PATH: %w", err)
	}

	cmd := exec.Command(fzfPath,
		"--prompt", prompt+" > ",
		"--height", "10%",
		"--reverse",
		"--print-query",
		"--no-info",
	)
	cmd.Stdin = strings.NewReader("")
	cmd.Stderr = os.Stderr
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// fzf exits 1 with --print-query and no match
	_ = cmd.Run()

	query, _, _ := strings.Cut(stdout.String(), "\n")
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("no input provided")
	}
	return query, nil
}
