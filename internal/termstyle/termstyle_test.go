package termstyle

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zapponejosh/textcal/internal/config"
)

func TestHighlighter_Never(t *testing.T) {
	if h := Highlighter(&bytes.Buffer{}, config.ColorNever); h != nil {
		t.Error("Highlighter(never) returned a styler, want nil")
	}
}

func TestHighlighter_AutoNotTerminal(t *testing.T) {
	if h := Highlighter(&bytes.Buffer{}, config.ColorAuto); h != nil {
		t.Error("Highlighter(auto) on a buffer returned a styler, want nil")
	}
}

func TestHighlighter_Always(t *testing.T) {
	h := Highlighter(&bytes.Buffer{}, config.ColorAlways)
	if h == nil {
		t.Fatal("Highlighter(always) = nil, want styler")
	}

	out := h("15")
	if !strings.Contains(out, "15") {
		t.Errorf("styled output %q lost the day number", out)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("styled output %q has no escape sequence", out)
	}
}
