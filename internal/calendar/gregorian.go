// Package calendar provides Gregorian calendar arithmetic and text rendering
// of month and year calendars.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// MinYear is the first year accepted for rendering. The Gregorian calendar
// was introduced in October 1582; earlier years are rejected rather than
// extrapolated.
const MinYear = 1582

// Error kinds reported by this package. Callers classify with errors.Is.
var (
	// ErrNotNumeric is returned when year input does not parse as an integer.
	ErrNotNumeric = errors.New("year is not numeric")

	// ErrYearTooEarly is returned for years before MinYear.
	ErrYearTooEarly = errors.New("year is before the Gregorian calendar")

	// ErrInvalidMonth is returned when a month name is not recognized.
	ErrInvalidMonth = errors.New("invalid month name")

	// ErrMonthOutOfRange is returned when a month number is outside [1,12].
	ErrMonthOutOfRange = errors.New("month out of range")

	// ErrInvalidDate is returned when a (year, month, 1) triple is not a
	// representable calendar date.
	ErrInvalidDate = errors.New("invalid year or month")
)

// cycleYears is the length of the Gregorian leap cycle. It spans 146097
// days, a whole number of weeks, so weekdays repeat every cycleYears.
const cycleYears = 400

// daysPerMonth is indexed by month-1 for a common year.
var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear reports whether year is a leap year in the proleptic Gregorian
// calendar: divisible by 4, except centuries not divisible by 400.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(month time.Month, year int) (int, error) {
	if month < time.January || month > time.December {
		return 0, fmt.Errorf("days in month %d: %w", int(month), ErrMonthOutOfRange)
	}
	if month == time.February && IsLeapYear(year) {
		return 29, nil
	}
	return daysPerMonth[month-1], nil
}

// FirstWeekday returns the weekday of the first day of month in year,
// 0=Sunday through 6=Saturday.
//
// The year is first folded into 2000..2399, the cycle with the same
// weekdays, because time.Date overflows for very large years. time.Date
// also normalizes out-of-range months silently, so the month is checked
// first.
func FirstWeekday(year int, month time.Month) (int, error) {
	if month < time.January || month > time.December {
		return 0, fmt.Errorf("first weekday of %d-%02d: %w", year, int(month), ErrInvalidDate)
	}
	equivalent := 2000 + ((year%cycleYears)+cycleYears)%cycleYears
	first := time.Date(equivalent, month, 1, 0, 0, 0, 0, time.UTC)
	return int(first.Weekday()), nil
}

// ValidateYear checks that year can be rendered.
func ValidateYear(year int) error {
	if year < MinYear {
		return fmt.Errorf("year %d: %w", year, ErrYearTooEarly)
	}
	return nil
}
