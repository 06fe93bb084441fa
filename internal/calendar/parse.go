package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day without a time of day or location. It is used to
// pass "today" into the renderers so they never read the clock themselves.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// WeekdayLabels is the header row of every month grid, Sunday first.
var WeekdayLabels = [7]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// MonthName returns the canonical English name of month
// (January through December).
func MonthName(month time.Month) string {
	return month.String()
}

// ParseYear parses console or URL input as a renderable year.
// Surrounding whitespace is ignored.
func ParseYear(input string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("parse year %q: %w", input, ErrNotNumeric)
	}
	if err := ValidateYear(year); err != nil {
		return 0, err
	}
	return year, nil
}

// ParseMonth matches input case-insensitively against the twelve canonical
// month names. Abbreviations are not accepted.
func ParseMonth(input string) (time.Month, error) {
	name := strings.TrimSpace(input)
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("parse month %q: %w", input, ErrInvalidMonth)
}

// ParseMonthOrNumber accepts either a canonical month name or a month
// number 1-12, as used in URL paths.
func ParseMonthOrNumber(input string) (time.Month, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("parse month %q: %w", input, ErrMonthOutOfRange)
		}
		return time.Month(n), nil
	}
	return ParseMonth(input)
}
