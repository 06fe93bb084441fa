// Package termstyle decides how today's date is highlighted on a terminal.
package termstyle

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/zapponejosh/textcal/internal/config"
)

// Highlighter returns a function that styles today's day number for w, or
// nil when w should get plain text (the renderer then falls back to
// brackets).
//
// mode is one of config.ColorAuto, ColorAlways or ColorNever. In auto mode
// styling is used only when w is a terminal.
func Highlighter(w io.Writer, mode string) func(string) string {
	switch mode {
	case config.ColorNever:
		return nil
	case config.ColorAlways:
		return newHighlighter(w, termenv.ANSI)
	}

	if !isTerminal(w) {
		return nil
	}
	renderer := lipgloss.NewRenderer(w)
	if renderer.ColorProfile() == termenv.Ascii {
		return nil
	}
	return style(renderer)
}

func newHighlighter(w io.Writer, profile termenv.Profile) func(string) string {
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(profile)
	return style(renderer)
}

func style(renderer *lipgloss.Renderer) func(string) string {
	s := renderer.NewStyle().
		Bold(true).
		Reverse(true)
	return func(text string) string {
		return s.Render(text)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
