package database

import (
	"time"
)

// Source identifies where a lookup came from.
type Source string

const (
	SourceConsole Source = "console"
	SourceAPI     Source = "api"
)

// IsValid checks if a source is one of the known values.
func (s Source) IsValid() bool {
	return s == SourceConsole || s == SourceAPI
}

// Lookup is one recorded calendar render: a full year when Month is nil,
// otherwise a single month.
type Lookup struct {
	ID        int64     `json:"id"`
	Year      int       `json:"year"`
	Month     *int      `json:"month,omitempty"` // 1-12, nil for a full year
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// IsFullYear reports whether the lookup rendered all twelve months.
func (l Lookup) IsFullYear() bool {
	return l.Month == nil
}

// YearCount is the number of lookups recorded for one year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}
