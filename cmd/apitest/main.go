// Command apitest smoke-tests a running calendar API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/zapponejosh/textcal/internal/api"
	"github.com/zapponejosh/textcal/internal/calendar"
)

// =============================================================================
// Response Types
// =============================================================================

// APIResponse mirrors api.Response with Data left raw for typed decoding.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *api.ErrorInfo  `json:"error,omitempty"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	out          io.Writer
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, out io.Writer, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		out:     out,
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Calendar API Test Suite")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "Base URL: %s\n", tr.baseURL)

	tr.testHealth()
	tr.testKnownMonths()
	tr.testYear()
	tr.testTextFormat()
	tr.testEdgeCases()
	tr.testLookups()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health map[string]string
	if err := tr.getData("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health["status"] == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health["status"]))
	}
}

func (tr *TestRunner) testKnownMonths() {
	tr.printSection("Known Months")

	testCases := []struct {
		path         string
		firstWeekday int
		days         int
		description  string
	}{
		{"/api/v1/calendar/2025/january", 3, 31, "January 2025 starts Wednesday"},
		{"/api/v1/calendar/2024/2", 4, 29, "February 2024 is a leap February"},
		{"/api/v1/calendar/2025/February", 6, 28, "February 2025 has 28 days"},
		{"/api/v1/calendar/2000/2", 2, 29, "2000 is a leap century"},
		{"/api/v1/calendar/1900/2", 4, 28, "1900 is not a leap year"},
		{"/api/v1/calendar/1582/october", 5, 31, "October 1582 (proleptic)"},
	}

	for _, tc := range testCases {
		var month api.MonthResponse
		if err := tr.getData(tc.path, &month); err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}

		if month.FirstWeekday != tc.firstWeekday || month.Days != tc.days {
			tr.recordError(tc.path, fmt.Sprintf("got first weekday %d, %d days; want %d, %d",
				month.FirstWeekday, month.Days, tc.firstWeekday, tc.days))
			continue
		}
		if err := checkCells(month); err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}
		tr.recordSuccess(tc.description)
	}
}

func (tr *TestRunner) testYear() {
	tr.printSection("Full Year")

	var year api.YearResponse
	if err := tr.getData("/api/v1/calendar/2025", &year); err != nil {
		tr.recordError("Year 2025", err.Error())
		return
	}

	if len(year.Months) != 12 {
		tr.recordError("Year 2025", fmt.Sprintf("Expected 12 months, got %d", len(year.Months)))
		return
	}
	for i, month := range year.Months {
		if month.Month != i+1 {
			tr.recordError("Year 2025", fmt.Sprintf("month %d out of order: %d", i+1, month.Month))
			return
		}
		if err := checkCells(month); err != nil {
			tr.recordError(fmt.Sprintf("Year 2025 %s", month.Name), err.Error())
			return
		}
		days, err := calendar.DaysInMonth(time.Month(month.Month), year.Year)
		if err != nil || days != month.Days {
			tr.recordError(fmt.Sprintf("Year 2025 %s", month.Name), fmt.Sprintf("%d days, want %d", month.Days, days))
			return
		}
	}
	tr.recordSuccess("Year 2025 returned 12 consistent months")
}

func (tr *TestRunner) testTextFormat() {
	tr.printSection("Text Format")

	resp, err := tr.getRaw("/api/v1/calendar/2025/january?format=text")
	if err != nil {
		tr.recordError("Text month", err.Error())
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	if resp.StatusCode == 200 && strings.Contains(text, "Su Mo Tu We Th Fr Sa") {
		tr.recordSuccess("Text rendering of January 2025")
	} else {
		tr.recordError("Text month", fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	if tr.verbose {
		fmt.Fprint(tr.out, text)
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	rejected := []struct {
		path        string
		description string
	}{
		{"/api/v1/calendar/abc", "Non-numeric year rejected"},
		{"/api/v1/calendar/1500", "Year before 1582 rejected"},
		{"/api/v1/calendar/2025/jannuary", "Misspelled month rejected"},
		{"/api/v1/calendar/2025/13", "Month 13 rejected"},
	}

	for _, tc := range rejected {
		resp, err := tr.getRaw(tc.path)
		if err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == 400 {
			tr.recordSuccess(tc.description)
		} else {
			tr.recordError(tc.path, fmt.Sprintf("Expected 400, got %d", resp.StatusCode))
		}
	}
}

func (tr *TestRunner) testLookups() {
	tr.printSection("Lookup History")

	var lookups []map[string]any
	if err := tr.getData("/api/v1/lookups?limit=5", &lookups); err != nil {
		tr.recordError("Lookups", err.Error())
		return
	}
	if len(lookups) == 0 {
		tr.recordError("Lookups", "Expected this run's requests to be recorded")
		return
	}
	tr.recordSuccess(fmt.Sprintf("Lookups returned %d recent entries", len(lookups)))
}

// checkCells verifies the day cells of one month: 1..Days, in order,
// starting at the first weekday.
func checkCells(month api.MonthResponse) error {
	next := 1
	for week, row := range month.Weeks {
		for slot, cell := range row {
			if cell.Day == 0 {
				continue
			}
			if cell.Day != next {
				return fmt.Errorf("week %d slot %d: day %d, want %d", week, slot, cell.Day, next)
			}
			if next == 1 && (week != 0 || slot != month.FirstWeekday) {
				return fmt.Errorf("day 1 at week %d slot %d, want slot %d", week, slot, month.FirstWeekday)
			}
			next++
		}
	}
	if next-1 != month.Days {
		return fmt.Errorf("%d day cells, want %d", next-1, month.Days)
	}
	if want := (month.FirstWeekday + month.Days + 6) / 7; len(month.Weeks) != want {
		return fmt.Errorf("%d weeks, want %d", len(month.Weeks), want)
	}
	return nil
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) getData(path string, target any) error {
	resp, err := tr.getRaw(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return fmt.Errorf("API error: %s", errMsg)
	}

	return json.Unmarshal(apiResp.Data, target)
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, tr.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}
	return tr.client.Do(req)
}

func (tr *TestRunner) printSection(name string) {
	fmt.Fprintln(tr.out)
	fmt.Fprintf(tr.out, "--- %s ---\n", name)
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Fprintf(tr.out, "  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Fprintf(tr.out, "  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Fprintln(tr.out)
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Summary")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "  Passed: %d\n", tr.successCount)
	fmt.Fprintf(tr.out, "  Failed: %d\n", tr.errorCount)
	fmt.Fprintln(tr.out)

	if tr.errorCount > 0 {
		fmt.Fprintln(tr.out, "Failures:")
		for _, err := range tr.errors {
			fmt.Fprintf(tr.out, "  • %s\n", err)
		}
		fmt.Fprintln(tr.out)
		fmt.Fprintf(tr.out, "Tests completed with %d failure(s)\n", tr.errorCount)
		return
	}

	fmt.Fprintln(tr.out, "All tests passed! ✓")
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := pflag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := pflag.String("api-key", os.Getenv("API_KEY"), "API key for the lookups endpoint")
	verbose := pflag.BoolP("verbose", "v", false, "Verbose output (print rendered calendars)")
	pflag.Parse()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, os.Stdout, *verbose)
	runner.Run()

	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
