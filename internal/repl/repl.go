// Package repl implements the interactive console loop: prompt for a year,
// optionally a month, print the calendar, repeat until "quit".
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/zapponejosh/textcal/internal/calendar"
	"github.com/zapponejosh/textcal/internal/database"
	"github.com/zapponejosh/textcal/internal/logger"
)

// Prompts shown to the user.
const (
	YearPrompt  = "Enter a year (e.g., 2025) or 'quit' to exit: "
	MonthPrompt = "Enter a month (e.g., January) or leave blank for full year: "

	quitCommand = "quit"
)

// Messages printed for recoverable input errors.
const (
	msgNotNumeric   = "Please enter a valid year (numeric)."
	msgYearTooEarly = "Please enter a year of 1582 or later (Gregorian calendar)."
	msgInvalidMonth = "Invalid month name. Please use full month names (e.g., January)."
)

// Recorder stores successful renders. *database.DB satisfies it.
type Recorder interface {
	RecordLookup(ctx context.Context, year, month int, source database.Source) (*database.Lookup, error)
}

// Options configures a Session. Zero values are usable.
type Options struct {
	// Now supplies "today" for highlighting. Defaults to time.Now.
	Now func() time.Time

	// Highlight styles today's day number; nil means brackets.
	Highlight func(string) string

	// Recorder receives every successful render. Optional.
	Recorder Recorder

	Logger *slog.Logger
}

// Session is one console conversation.
type Session struct {
	in        *lineReader
	out       io.Writer
	now       func() time.Time
	highlight func(string) string
	recorder  Recorder
	logger    *slog.Logger
}

// New creates a session reading commands from in and printing to out.
func New(in io.Reader, out io.Writer, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Session{
		in:        newLineReader(in),
		out:       out,
		now:       opts.Now,
		highlight: opts.Highlight,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
	}
}

type state int

const (
	stateAwaitYear state = iota
	stateAwaitMonth
	stateRendering
	stateExit
)

func (s state) String() string {
	switch s {
	case stateAwaitYear:
		return "await_year"
	case stateAwaitMonth:
		return "await_month"
	case stateRendering:
		return "rendering"
	case stateExit:
		return "exit"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// request carries the accepted input between states.
type request struct {
	year  int
	month time.Month // 0 for a full year
}

// Run drives the loop until the user types quit, input ends, or ctx is
// cancelled. Cancellation also interrupts a pending prompt. Input errors are
// printed and the loop continues; only read failures and cancellation are
// returned.
func (s *Session) Run(ctx context.Context) error {
	st := stateAwaitYear
	var req request

	for st != stateExit {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := s.step(ctx, st, &req)
		if errors.Is(err, io.EOF) {
			s.logger.Debug("input closed", slog.String("state", st.String()))
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
		st = next
	}

	return nil
}

// step runs one state and returns the next. A panic anywhere in the cycle
// is reported and the loop returns to AwaitYear.
func (s *Session) step(ctx context.Context, st state, req *request) (next state, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered",
				slog.Any("error", r),
				slog.String("state", st.String()),
			)
			fmt.Fprintf(s.out, "An error occurred: %v\n", r)
			next, err = stateAwaitYear, nil
		}
	}()

	switch st {
	case stateAwaitYear:
		return s.awaitYear(ctx, req)
	case stateAwaitMonth:
		return s.awaitMonth(ctx, req)
	case stateRendering:
		s.render(ctx, req.year, req.month)
		return stateAwaitYear, nil
	default:
		return stateExit, nil
	}
}

func (s *Session) awaitYear(ctx context.Context, req *request) (state, error) {
	line, err := s.prompt(ctx, YearPrompt)
	if err != nil {
		return stateExit, err
	}
	if strings.EqualFold(strings.TrimSpace(line), quitCommand) {
		return stateExit, nil
	}

	year, err := calendar.ParseYear(line)
	if err != nil {
		s.reportInputError(err)
		return stateAwaitYear, nil
	}

	*req = request{year: year}
	return stateAwaitMonth, nil
}

func (s *Session) awaitMonth(ctx context.Context, req *request) (state, error) {
	line, err := s.prompt(ctx, MonthPrompt)
	if err != nil {
		return stateExit, err
	}
	if strings.TrimSpace(line) == "" {
		return stateRendering, nil
	}

	month, err := calendar.ParseMonth(line)
	if err != nil {
		s.reportInputError(err)
		return stateAwaitYear, nil
	}

	req.month = month
	return stateRendering, nil
}

// prompt prints text and reads one line. It returns io.EOF when input ends
// and ctx.Err() when ctx is cancelled first.
func (s *Session) prompt(ctx context.Context, text string) (string, error) {
	fmt.Fprint(s.out, text)
	line, err := s.in.ReadLine(ctx)
	if err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return line, err
}

func (s *Session) reportInputError(err error) {
	s.logger.Debug("rejected input", slog.Any("error", err))

	switch {
	case errors.Is(err, calendar.ErrNotNumeric):
		fmt.Fprintln(s.out, msgNotNumeric)
	case errors.Is(err, calendar.ErrYearTooEarly):
		fmt.Fprintln(s.out, msgYearTooEarly)
	case errors.Is(err, calendar.ErrInvalidMonth):
		fmt.Fprintln(s.out, msgInvalidMonth)
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

// render prints one month, or the whole year when month is 0, and records
// the lookup. Render errors are printed, not returned.
func (s *Session) render(ctx context.Context, year int, month time.Month) {
	if err := s.draw(year, month); err != nil {
		s.logger.Warn("render failed",
			slog.Int("year", year),
			slog.Int("month", int(month)),
			slog.Any("error", err),
		)
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.record(ctx, year, month)
}

func (s *Session) draw(year int, month time.Month) error {
	today := calendar.DateOf(s.now())
	opts := calendar.RenderOptions{
		Today:     &today,
		Highlight: s.highlight,
	}
	if month == 0 {
		return calendar.RenderYear(s.out, year, opts)
	}
	return calendar.RenderMonth(s.out, year, month, opts)
}

func (s *Session) record(ctx context.Context, year int, month time.Month) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.RecordLookup(ctx, year, int(month), database.SourceConsole); err != nil {
		s.logger.Warn("failed to record lookup",
			slog.Int("year", year),
			slog.Any("error", err),
		)
	}
}

// RunOnce validates yearInput and monthInput like the interactive prompts
// and renders a single calendar. Unlike Run, input errors are returned.
func (s *Session) RunOnce(ctx context.Context, yearInput, monthInput string) error {
	year, err := calendar.ParseYear(yearInput)
	if err != nil {
		return err
	}

	var month time.Month
	if strings.TrimSpace(monthInput) != "" {
		if month, err = calendar.ParseMonth(monthInput); err != nil {
			return err
		}
	}

	if err := s.draw(year, month); err != nil {
		return err
	}
	s.record(ctx, year, month)
	return nil
}
