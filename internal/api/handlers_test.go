package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/zapponejosh/textcal/internal/config"
	"github.com/zapponejosh/textcal/internal/database"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

// testEnv sets up a complete test environment with database, config, and router
type testEnv struct {
	db       *database.DB
	cfg      *config.Config
	handlers *Handlers
	router   http.Handler
}

// setupTest creates a fresh test environment. apiKey may be empty.
func setupTest(t *testing.T, apiKey string) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	db, err := database.Open(database.DefaultConfig(":memory:"), logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Port:      8080,
		Env:       config.EnvDevelopment,
		APIKey:    apiKey,
		LogLevel:  "error",
		LogFormat: "text",
		Color:     config.ColorNever,
	}

	handlers := NewHandlers(db, cfg, logger)
	handlers.now = func() time.Time {
		return time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	}

	return &testEnv{
		db:       db,
		cfg:      cfg,
		handlers: handlers,
		router:   SetupRoutes(handlers, cfg, logger),
	}
}

// do performs a request against the router
func (env *testEnv) do(t *testing.T, path, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// parseResponse parses the JSON envelope, decoding Data into data
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, data any) Response {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *ErrorInfo      `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return Response{Success: raw.Success, Error: raw.Error}
}

// =============================================================================
// CALENDAR TESTS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t, "")

	rr := env.do(t, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var data map[string]string
	resp := parseResponse(t, rr, &data)
	if !resp.Success || data["status"] != "healthy" {
		t.Errorf("response = %+v %v, want healthy", resp, data)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestHealthCheck_DatabaseClosed(t *testing.T) {
	env := setupTest(t, "")
	env.db.Close()

	rr := env.do(t, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestGetMonth(t *testing.T) {
	env := setupTest(t, "")

	for _, month := range []string{"january", "January", "1"} {
		rr := env.do(t, "/api/v1/calendar/2025/"+month, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200: %s", month, rr.Code, rr.Body.String())
		}

		var got MonthResponse
		parseResponse(t, rr, &got)
		if got.Year != 2025 || got.Month != 1 || got.Name != "January" {
			t.Errorf("%s: got %d-%d %s", month, got.Year, got.Month, got.Name)
		}
		if got.FirstWeekday != 3 {
			t.Errorf("FirstWeekday = %d, want 3", got.FirstWeekday)
		}
		if got.Days != 31 {
			t.Errorf("Days = %d, want 31", got.Days)
		}
		if len(got.Weeks) != 5 {
			t.Errorf("len(Weeks) = %d, want 5", len(got.Weeks))
		}
		// Jan 15 2025 is the Wednesday of week 3
		if cell := got.Weeks[2][3]; cell.Day != 15 || !cell.Today {
			t.Errorf("Weeks[2][3] = %+v, want today 15", cell)
		}
	}
}

func TestGetMonth_Text(t *testing.T) {
	env := setupTest(t, "")

	rr := env.do(t, "/api/v1/calendar/2025/january?format=text", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "    January 2025    ") {
		t.Errorf("missing header:\n%s", body)
	}
	if !strings.Contains(body, "12 13 14 [15]16 17 18 ") {
		t.Errorf("today not bracketed:\n%s", body)
	}
}

func TestGetMonth_TextRecordsOnce(t *testing.T) {
	env := setupTest(t, "")

	env.do(t, "/api/v1/calendar/2025/march?format=text", "")
	env.do(t, "/api/v1/calendar/1500?format=text", "")

	lookups, err := env.db.RecentLookups(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentLookups: %v", err)
	}
	if len(lookups) != 1 || lookups[0].Year != 2025 || *lookups[0].Month != 3 {
		t.Errorf("lookups = %+v, want one for March 2025", lookups)
	}
}

func TestWriteCalendarText_RenderFailure(t *testing.T) {
	env := setupTest(t, "")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/2025?format=text", nil)
	env.handlers.writeCalendarText(rr, req, 2025, 0, func(out io.Writer) error {
		io.WriteString(out, "partial")
		return errors.New("render failed")
	})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "partial") {
		t.Errorf("partial render leaked into the response: %s", rr.Body.String())
	}
	resp := parseResponse(t, rr, nil)
	if resp.Error == nil || resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("response = %+v, want INTERNAL_ERROR", resp)
	}

	lookups, err := env.db.RecentLookups(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentLookups: %v", err)
	}
	if len(lookups) != 0 {
		t.Errorf("failed render recorded %d lookups, want 0", len(lookups))
	}
}

func TestGetYear(t *testing.T) {
	env := setupTest(t, "")

	rr := env.do(t, "/api/v1/calendar/2024", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var got YearResponse
	parseResponse(t, rr, &got)
	if got.Year != 2024 || !got.Leap {
		t.Errorf("Year = %d, Leap = %v; want 2024 leap", got.Year, got.Leap)
	}
	if len(got.Months) != 12 {
		t.Fatalf("len(Months) = %d, want 12", len(got.Months))
	}
	for i, m := range got.Months {
		if m.Month != i+1 {
			t.Errorf("Months[%d].Month = %d", i, m.Month)
		}
	}
	if got.Months[1].Days != 29 {
		t.Errorf("February days = %d, want 29", got.Months[1].Days)
	}
}

func TestGetYear_Text(t *testing.T) {
	env := setupTest(t, "")

	rr := env.do(t, "/api/v1/calendar/2025?format=text", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if n := strings.Count(rr.Body.String(), "Su Mo Tu We Th Fr Sa"); n != 12 {
		t.Errorf("rendered %d months, want 12", n)
	}
}

func TestCalendar_BadInput(t *testing.T) {
	env := setupTest(t, "")

	tests := []struct {
		name string
		path string
	}{
		{"non-numeric year", "/api/v1/calendar/abc"},
		{"year before 1582", "/api/v1/calendar/1500"},
		{"misspelled month", "/api/v1/calendar/2025/jannuary"},
		{"month zero", "/api/v1/calendar/2025/0"},
		{"month thirteen", "/api/v1/calendar/2025/13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.path, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			resp := parseResponse(t, rr, nil)
			if resp.Success || resp.Error == nil || resp.Error.Code != "BAD_REQUEST" {
				t.Errorf("response = %+v, want BAD_REQUEST", resp)
			}
		})
	}

	lookups, err := env.db.RecentLookups(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentLookups: %v", err)
	}
	if len(lookups) != 0 {
		t.Errorf("bad requests recorded %d lookups, want 0", len(lookups))
	}
}

func TestNotFound(t *testing.T) {
	env := setupTest(t, "")

	rr := env.do(t, "/api/v1/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

// =============================================================================
// LOOKUP TESTS
// =============================================================================

func TestGetLookups_RecordsRequests(t *testing.T) {
	env := setupTest(t, "")

	env.do(t, "/api/v1/calendar/2025/march", "")
	env.do(t, "/api/v1/calendar/2024", "")

	rr := env.do(t, "/api/v1/lookups?limit=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var lookups []database.Lookup
	parseResponse(t, rr, &lookups)
	if len(lookups) != 2 {
		t.Fatalf("got %d lookups, want 2", len(lookups))
	}
	for _, l := range lookups {
		if l.Source != database.SourceAPI {
			t.Errorf("Source = %q, want api", l.Source)
		}
	}
}

func TestGetLookups_BadLimit(t *testing.T) {
	env := setupTest(t, "")

	for _, limit := range []string{"0", "101", "many"} {
		rr := env.do(t, "/api/v1/lookups?limit="+limit, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rr.Code)
		}
	}
}

func TestGetLookupStats(t *testing.T) {
	env := setupTest(t, "")

	env.do(t, "/api/v1/calendar/2025/march", "")
	env.do(t, "/api/v1/calendar/2025/april", "")
	env.do(t, "/api/v1/calendar/2030", "")

	rr := env.do(t, "/api/v1/lookups/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var stats LookupStats
	parseResponse(t, rr, &stats)
	if len(stats.TopYears) != 2 || stats.TopYears[0] != (database.YearCount{Year: 2025, Count: 2}) {
		t.Errorf("TopYears = %+v, want 2025 first with 2", stats.TopYears)
	}
}

func TestGetLookup(t *testing.T) {
	env := setupTest(t, "")

	saved, err := env.db.RecordLookup(context.Background(), 2031, 7, database.SourceAPI)
	if err != nil {
		t.Fatalf("RecordLookup: %v", err)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"existing", fmt.Sprintf("/api/v1/lookups/%d", saved.ID), http.StatusOK},
		{"missing", "/api/v1/lookups/999", http.StatusNotFound},
		{"not a number", "/api/v1/lookups/abc", http.StatusBadRequest},
		{"zero", "/api/v1/lookups/0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.path, "")
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.want, rr.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			var got database.Lookup
			parseResponse(t, rr, &got)
			if got.ID != saved.ID || got.Year != 2031 || got.Month == nil || *got.Month != 7 {
				t.Errorf("lookup = %+v", got)
			}
		})
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	const key = "lookup-key-123"
	env := setupTest(t, key)

	tests := []struct {
		name   string
		path   string
		apiKey string
		want   int
	}{
		{"missing key", "/api/v1/lookups", "", http.StatusUnauthorized},
		{"wrong key", "/api/v1/lookups", "nope", http.StatusUnauthorized},
		{"valid key", "/api/v1/lookups", key, http.StatusOK},
		{"stats need key", "/api/v1/lookups/stats", "", http.StatusUnauthorized},
		{"calendar is public", "/api/v1/calendar/2025", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.path, tt.apiKey)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_ProductionWithoutKey(t *testing.T) {
	env := setupTest(t, "")
	env.cfg.Env = config.EnvProduction

	if rr := env.do(t, "/api/v1/lookups", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if rr := env.do(t, "/api/v1/calendar/2025/may", ""); rr.Code != http.StatusOK {
		t.Errorf("calendar status = %d, want 200", rr.Code)
	}
}

func TestRoutes_PanicIsLoggedAs500(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := &config.Config{Env: config.EnvDevelopment, Color: config.ColorNever}

	// A nil store panics on the health check
	router := SetupRoutes(NewHandlers(nil, cfg, log), cfg, log)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	out := logs.String()
	if !strings.Contains(out, "panic recovered") {
		t.Errorf("panic not logged:\n%s", out)
	}
	if !strings.Contains(out, `msg="http request"`) || !strings.Contains(out, "status=500") {
		t.Errorf("request log line missing status 500:\n%s", out)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	resp := parseResponse(t, rr, nil)
	if resp.Error == nil || resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("response = %+v, want INTERNAL_ERROR", resp)
	}
}
