package calendar

import (
	"fmt"
	"time"
)

// Cell is one slot of a week row. Day is 0 for padding.
type Cell struct {
	Day   int  `json:"day"`
	Today bool `json:"today,omitempty"`
}

// Empty reports whether the cell is padding.
func (c Cell) Empty() bool {
	return c.Day == 0
}

// Grid is a month laid out into 7-column weeks, Sunday first.
type Grid struct {
	Year   int
	Month  time.Month
	Offset int // weekday index of day 1
	Days   int
	Weeks  [][7]Cell
}

// BuildGrid lays out month of year. If today is non-nil and falls inside the
// month, the matching cell is flagged.
//
// The grid has ceil((Offset+Days)/7) weeks and exactly Days non-empty cells,
// numbered 1..Days in slot order.
func BuildGrid(year int, month time.Month, today *Date) (Grid, error) {
	offset, err := FirstWeekday(year, month)
	if err != nil {
		return Grid{}, fmt.Errorf("build grid: %w", err)
	}
	days, err := DaysInMonth(month, year)
	if err != nil {
		return Grid{}, fmt.Errorf("build grid: %w", err)
	}

	todayDay := 0
	if today != nil && today.Year == year && today.Month == month {
		todayDay = today.Day
	}

	lines := (offset + days + 6) / 7
	weeks := make([][7]Cell, lines)
	for week := range weeks {
		for slot := 0; slot < 7; slot++ {
			day := week*7 + slot - offset + 1
			if day < 1 || day > days {
				continue
			}
			weeks[week][slot] = Cell{Day: day, Today: day == todayDay}
		}
	}

	return Grid{
		Year:   year,
		Month:  month,
		Offset: offset,
		Days:   days,
		Weeks:  weeks,
	}, nil
}
