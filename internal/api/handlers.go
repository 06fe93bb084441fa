package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/textcal/internal/calendar"
	"github.com/zapponejosh/textcal/internal/config"
	"github.com/zapponejosh/textcal/internal/database"
	"github.com/zapponejosh/textcal/internal/logger"
)

// Lookup list bounds for GET /api/v1/lookups
const (
	defaultLookupLimit = 20
	maxLookupLimit     = 100
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db     *database.DB
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		db:     db,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// MonthResponse is the JSON form of one month grid.
type MonthResponse struct {
	Year         int                `json:"year"`
	Month        int                `json:"month"`
	Name         string             `json:"name"`
	FirstWeekday int                `json:"first_weekday"`
	Days         int                `json:"days"`
	Weeks        [][7]calendar.Cell `json:"weeks"`
}

// YearResponse is the JSON form of a full year.
type YearResponse struct {
	Year   int             `json:"year"`
	Leap   bool            `json:"leap"`
	Months []MonthResponse `json:"months"`
}

// LookupStats summarizes recorded lookups.
type LookupStats struct {
	TopYears []database.YearCount `json:"top_years"`
}

func newMonthResponse(g calendar.Grid) MonthResponse {
	return MonthResponse{
		Year:         g.Year,
		Month:        int(g.Month),
		Name:         calendar.MonthName(g.Month),
		FirstWeekday: g.Offset,
		Days:         g.Days,
		Weeks:        g.Weeks,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]string{
		"status": "healthy",
	})
}

// GetYear handles GET /api/v1/calendar/{year}
func (h *Handlers) GetYear(w http.ResponseWriter, r *http.Request) {
	year, err := calendar.ParseYear(chi.URLParam(r, "year"))
	if err != nil {
		writeInputError(w, err)
		return
	}

	today := calendar.DateOf(h.now())

	if r.URL.Query().Get("format") == "text" {
		h.writeCalendarText(w, r, year, 0, func(out io.Writer) error {
			return calendar.RenderYear(out, year, calendar.RenderOptions{Today: &today})
		})
		return
	}

	grids, err := calendar.BuildYear(year, &today)
	if err != nil {
		h.logger.Error("failed to build year", slog.Int("year", year), slog.Any("error", err))
		WriteInternalError(w, "Failed to build calendar")
		return
	}

	resp := YearResponse{
		Year:   year,
		Leap:   calendar.IsLeapYear(year),
		Months: make([]MonthResponse, 0, len(grids)),
	}
	for _, g := range grids {
		resp.Months = append(resp.Months, newMonthResponse(g))
	}

	h.record(r.Context(), year, 0)
	WriteSuccess(w, resp)
}

// GetMonth handles GET /api/v1/calendar/{year}/{month}
// The month may be a name ("march") or a number ("3").
func (h *Handlers) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, err := calendar.ParseYear(chi.URLParam(r, "year"))
	if err != nil {
		writeInputError(w, err)
		return
	}
	month, err := calendar.ParseMonthOrNumber(chi.URLParam(r, "month"))
	if err != nil {
		writeInputError(w, err)
		return
	}

	today := calendar.DateOf(h.now())

	if r.URL.Query().Get("format") == "text" {
		h.writeCalendarText(w, r, year, month, func(out io.Writer) error {
			return calendar.RenderMonth(out, year, month, calendar.RenderOptions{Today: &today})
		})
		return
	}

	grid, err := calendar.BuildGrid(year, month, &today)
	if err != nil {
		h.logger.Error("failed to build month",
			slog.Int("year", year),
			slog.Int("month", int(month)),
			slog.Any("error", err))
		WriteInternalError(w, "Failed to build calendar")
		return
	}

	h.record(r.Context(), year, month)
	WriteSuccess(w, newMonthResponse(grid))
}

// GetLookups handles GET /api/v1/lookups?limit=N
func (h *Handlers) GetLookups(w http.ResponseWriter, r *http.Request) {
	limit := defaultLookupLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLookupLimit {
			WriteBadRequest(w, fmt.Sprintf("limit must be between 1 and %d", maxLookupLimit))
			return
		}
		limit = n
	}

	lookups, err := h.db.RecentLookups(r.Context(), limit)
	if err != nil {
		logger.Error(r.Context(), "failed to list lookups", err, slog.Int("limit", limit))
		WriteInternalError(w, "Failed to retrieve lookups")
		return
	}

	WriteSuccess(w, lookups)
}

// GetLookup handles GET /api/v1/lookups/{id}
func (h *Handlers) GetLookup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		WriteBadRequest(w, "Lookup ID must be a positive integer")
		return
	}

	lookup, err := h.db.GetLookup(r.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Lookup %d not found", id))
			return
		}
		logger.Error(r.Context(), "failed to get lookup", err, slog.Int64("id", id))
		WriteInternalError(w, "Failed to retrieve lookup")
		return
	}

	WriteSuccess(w, lookup)
}

// GetLookupStats handles GET /api/v1/lookups/stats
func (h *Handlers) GetLookupStats(w http.ResponseWriter, r *http.Request) {
	top, err := h.db.TopYears(r.Context(), 10)
	if err != nil {
		logger.Error(r.Context(), "failed to compute lookup stats", err)
		WriteInternalError(w, "Failed to retrieve lookup stats")
		return
	}

	WriteSuccess(w, LookupStats{TopYears: top})
}

// writeCalendarText renders a calendar in full before responding, so a
// failed render becomes a 500 and is not recorded as a lookup.
func (h *Handlers) writeCalendarText(w http.ResponseWriter, r *http.Request, year int, month time.Month, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		logger.Error(r.Context(), "failed to render calendar text", err,
			slog.Int("year", year),
			slog.Int("month", int(month)))
		WriteInternalError(w, "Failed to render calendar")
		return
	}

	h.record(r.Context(), year, month)
	WriteText(w, buf.Bytes())
}

// record stores an API lookup. Failures are logged and never fail the
// request.
func (h *Handlers) record(ctx context.Context, year int, month time.Month) {
	if _, err := h.db.RecordLookup(ctx, year, int(month), database.SourceAPI); err != nil {
		logger.Warn(ctx, "failed to record lookup",
			slog.Int("year", year),
			slog.Int("month", int(month)),
			slog.Any("error", err))
	}
}

// writeInputError maps calendar input errors to 400 responses.
func writeInputError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrNotNumeric):
		WriteBadRequest(w, "Year must be numeric")
	case errors.Is(err, calendar.ErrYearTooEarly):
		WriteBadRequest(w, fmt.Sprintf("Year must be %d or later", calendar.MinYear))
	case errors.Is(err, calendar.ErrInvalidMonth), errors.Is(err, calendar.ErrMonthOutOfRange):
		WriteBadRequest(w, "Month must be a full month name or a number from 1 to 12")
	default:
		WriteBadRequest(w, err.Error())
	}
}
