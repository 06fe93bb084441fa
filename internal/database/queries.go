package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidLookup is returned when a lookup fails validation before insert
	ErrInvalidLookup = errors.New("invalid lookup")
)

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

// =============================================================================
// Helper Functions
// =============================================================================

// timestampFormat has a fixed-width fraction so stored timestamps sort
// lexically in time order.
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns nil if parsing fails.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err == nil {
		return &t
	}

	// SQLite datetime('now') format (no timezone)
	t, err = time.Parse("2006-01-02 15:04:05", ns.String)
	if err == nil {
		return &t
	}

	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLookup(s scanner) (*Lookup, error) {
	var l Lookup
	var month sql.NullInt64
	var source string
	var createdAt sql.NullString

	if err := s.Scan(&l.ID, &l.Year, &month, &source, &createdAt); err != nil {
		return nil, err
	}

	if month.Valid {
		m := int(month.Int64)
		l.Month = &m
	}
	l.Source = Source(source)
	if t := parseTimestamp(createdAt); t != nil {
		l.CreatedAt = *t
	}
	return &l, nil
}

// =============================================================================
// Lookup Queries
// =============================================================================

// RecordLookup stores one calendar render. month is 1-12, or 0 for a full
// year.
func (db *DB) RecordLookup(ctx context.Context, year, month int, source Source) (*Lookup, error) {
	if !source.IsValid() {
		return nil, fmt.Errorf("source %q: %w", source, ErrInvalidLookup)
	}
	if month < 0 || month > 12 {
		return nil, fmt.Errorf("month %d: %w", month, ErrInvalidLookup)
	}

	var monthArg any
	if month != 0 {
		monthArg = month
	}
	createdAt := db.now().UTC()

	result, err := db.ExecContext(ctx,
		"INSERT INTO lookups (year, month, source, created_at) VALUES (?, ?, ?, ?)",
		year, monthArg, string(source), createdAt.Format(timestampFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert lookup: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get lookup id: %w", err)
	}

	lookup := &Lookup{
		ID:        id,
		Year:      year,
		Source:    source,
		CreatedAt: createdAt,
	}
	if month != 0 {
		lookup.Month = &month
	}
	return lookup, nil
}

// GetLookup retrieves a lookup by ID.
// Returns ErrNotFound if it doesn't exist.
func (db *DB) GetLookup(ctx context.Context, id int64) (*Lookup, error) {
	row := db.QueryRowContext(ctx,
		"SELECT id, year, month, source, created_at FROM lookups WHERE id = ?",
		id,
	)
	lookup, err := scanLookup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query lookup: %w", err)
	}
	return lookup, nil
}

// RecentLookups returns up to limit lookups, newest first.
// Returns an empty slice when nothing has been recorded.
func (db *DB) RecentLookups(ctx context.Context, limit int) ([]Lookup, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, year, month, source, created_at
		FROM lookups
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent lookups: %w", err)
	}
	defer rows.Close()

	lookups := []Lookup{}
	for rows.Next() {
		lookup, err := scanLookup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		lookups = append(lookups, *lookup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookups: %w", err)
	}

	return lookups, nil
}

// TopYears returns the most looked-up years, most frequent first.
func (db *DB) TopYears(ctx context.Context, limit int) ([]YearCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT year, COUNT(*) AS n
		FROM lookups
		GROUP BY year
		ORDER BY n DESC, year ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top years: %w", err)
	}
	defer rows.Close()

	counts := []YearCount{}
	for rows.Next() {
		var c YearCount
		if err := rows.Scan(&c.Year, &c.Count); err != nil {
			return nil, fmt.Errorf("scan year count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate year counts: %w", err)
	}

	return counts, nil
}
