package calendar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// HeaderWidth is the field the "Month Year" title is centered in.
const HeaderWidth = 20

// RenderOptions controls how grids are printed.
type RenderOptions struct {
	// Today marks a day for highlighting. Nil disables highlighting.
	Today *Date

	// Highlight decorates the 2-character day number of today's cell.
	// When nil, today is wrapped in brackets, which widens that cell to
	// four characters.
	Highlight func(string) string
}

// Lines returns the printed form of g: a blank separator, the centered
// title, the weekday labels, then one line per week.
func (g Grid) Lines(opts RenderOptions) []string {
	lines := make([]string, 0, len(g.Weeks)+3)
	lines = append(lines,
		"",
		center(fmt.Sprintf("%s %d", MonthName(g.Month), g.Year), HeaderWidth),
		strings.Join(WeekdayLabels[:], " "),
	)

	var b strings.Builder
	for _, week := range g.Weeks {
		b.Reset()
		for _, cell := range week {
			writeCell(&b, cell, opts.Highlight)
		}
		lines = append(lines, b.String())
	}
	return lines
}

func writeCell(b *strings.Builder, cell Cell, highlight func(string) string) {
	switch {
	case cell.Empty():
		b.WriteString("   ")
	case cell.Today && highlight != nil:
		b.WriteString(highlight(fmt.Sprintf("%2d", cell.Day)))
		b.WriteByte(' ')
	case cell.Today:
		fmt.Fprintf(b, "[%2d]", cell.Day)
	default:
		fmt.Fprintf(b, "%2d ", cell.Day)
	}
}

// center pads s on both sides to width, putting the odd space on the right.
func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// RenderMonth writes the calendar of month in year to w.
func RenderMonth(w io.Writer, year int, month time.Month, opts RenderOptions) error {
	grid, err := BuildGrid(year, month, opts.Today)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, line := range grid.Lines(opts) {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// RenderYear writes all twelve months of year to w, January first.
// Grids are built before anything is written, so a failing month leaves w
// untouched and the error is reported once for the whole year.
func RenderYear(w io.Writer, year int, opts RenderOptions) error {
	grids, err := BuildYear(year, opts.Today)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, grid := range grids {
		for _, line := range grid.Lines(opts) {
			bw.WriteString(line)
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// BuildYear returns the grids of January through December of year.
func BuildYear(year int, today *Date) ([]Grid, error) {
	grids := make([]Grid, 0, 12)
	for month := time.January; month <= time.December; month++ {
		grid, err := BuildGrid(year, month, today)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}
		grids = append(grids, grid)
	}
	return grids, nil
}
