// Package main is the console calendar generator.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/zapponejosh/textcal/internal/config"
	"github.com/zapponejosh/textcal/internal/database"
	"github.com/zapponejosh/textcal/internal/logger"
	"github.com/zapponejosh/textcal/internal/repl"
	"github.com/zapponejosh/textcal/internal/termstyle"
)

var version = "dev"

const banner = "Welcome to the 400-Year Calendar Generator!"

type flags struct {
	year    string
	month   string
	color   string
	history int
	version bool
}

func parseFlags(args []string, cfg *config.Config) (*flags, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("textcal", pflag.ContinueOnError)
	fs.StringVarP(&f.year, "year", "y", "", "Render this year and exit instead of prompting")
	fs.StringVarP(&f.month, "month", "m", "", "Month name to render with --year (default: full year)")
	fs.StringVar(&f.color, "color", cfg.Color, "Highlight today: auto, always, never")
	fs.IntVar(&f.history, "history", 0, "Print the N most recent lookups and exit (requires DATABASE_PATH)")
	fs.BoolVar(&f.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := config.ValidateColor(f.color); err != nil {
		return nil, err
	}
	if f.month != "" && f.year == "" {
		return nil, errors.New("--month requires --year")
	}
	if f.history < 0 {
		return nil, fmt.Errorf("--history must be positive, got %d", f.history)
	}
	return f, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	f, err := parseFlags(os.Args[1:], cfg)
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	if f.version {
		fmt.Printf("textcal %s\n", version)
		return
	}

	log := logger.Setup(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f, os.Stdin, os.Stdout, log); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, f *flags, in io.Reader, out *os.File, log *slog.Logger) error {
	var db *database.DB
	if cfg.HistoryEnabled() {
		var err error
		db, err = database.OpenAndMigrate(ctx, cfg.DatabasePath, log)
		if err != nil {
			return fmt.Errorf("open lookup history: %w", err)
		}
		defer db.Close()
	}

	if f.history > 0 {
		if db == nil {
			return errors.New("--history requires DATABASE_PATH")
		}
		return printHistory(ctx, out, db, f.history)
	}

	opts := repl.Options{
		Highlight: termstyle.Highlighter(out, f.color),
		Logger:    log,
	}
	// A nil *database.DB must not become a non-nil Recorder
	if db != nil {
		opts.Recorder = db
	}
	session := repl.New(in, out, opts)

	if f.year != "" {
		return session.RunOnce(ctx, f.year, f.month)
	}

	fmt.Fprintln(out, banner)
	err := session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out)
		return nil
	}
	return err
}

func printHistory(ctx context.Context, w io.Writer, db *database.DB, limit int) error {
	lookups, err := db.RecentLookups(ctx, limit)
	if err != nil {
		return err
	}
	if len(lookups) == 0 {
		fmt.Fprintln(w, "No lookups recorded yet.")
		return nil
	}
	for _, l := range lookups {
		what := "full year"
		if !l.IsFullYear() {
			what = fmt.Sprintf("month %02d", *l.Month)
		}
		fmt.Fprintf(w, "%s  %d  %-9s  %s\n",
			l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Year, what, l.Source)
	}
	return nil
}
