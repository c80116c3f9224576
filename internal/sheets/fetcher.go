package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/site-vigilance/backend/internal/models"
)

// DefaultBaseURL is the public Google Sheets export endpoint.
const DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

// DefaultTimeout bounds the sheet fetch when the caller supplies none.
const DefaultTimeout = 30 * time.Second

// SourceUnavailableError indicates the sheet could not be fetched at all.
type SourceUnavailableError struct {
	URL string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("sheet source unavailable (%s): %v", e.URL, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// SchemaMismatchError indicates the response had no recognizable header.
type SchemaMismatchError struct {
	Headers []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("sheet header matches no known column: %v", e.Headers)
}

// Fetcher retrieves the published inspection sheet as CSV and parses it
// into typed records. Fetchers are stateless and safe for concurrent use.
type Fetcher struct {
	baseURL string
	client  *http.Client
	schema  *Schema
}

// NewFetcher creates a Fetcher with the given network timeout.
func NewFetcher(timeout time.Duration) (*Fetcher, error) {
	return NewFetcherWithBaseURL(DefaultBaseURL, timeout)
}

// NewFetcherWithBaseURL creates a Fetcher against a specific export endpoint.
// Tests point this at a local server.
func NewFetcherWithBaseURL(baseURL string, timeout time.Duration) (*Fetcher, error) {
	schema, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		schema:  schema,
	}, nil
}

// ExportURL constructs the CSV export URL for a sheet and tab.
func (f *Fetcher) ExportURL(sheetID, gid string) string {
	return fmt.Sprintf("%s/%s/export?format=csv&gid=%s",
		f.baseURL, url.PathEscape(sheetID), url.QueryEscape(gid))
}

// Fetch downloads and parses the sheet. Rows whose identifying fields cannot
// be parsed are skipped and reported as warnings; the fetch as a whole fails
// only when the source is unreachable or the header is unrecognizable.
// Single attempt, no retries.
func (f *Fetcher) Fetch(ctx context.Context, sheetID, gid string) ([]models.InspectionRecord, []models.RowWarning, error) {
	exportURL := f.ExportURL(sheetID, gid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, nil, &SourceUnavailableError{URL: exportURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, &SourceUnavailableError{URL: exportURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &SourceUnavailableError{
			URL: exportURL,
			Err: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return f.parse(resp.Body)
}

func (f *Fetcher) parse(r io.Reader) ([]models.InspectionRecord, []models.RowWarning, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // source rows can be ragged
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, &SchemaMismatchError{}
	}

	bindings := make([]binding, len(header))
	matched := 0
	for i, h := range header {
		if b, ok := f.schema.Bind(h); ok {
			bindings[i] = b
			matched++
		}
	}
	if matched == 0 {
		return nil, nil, &SchemaMismatchError{Headers: header}
	}

	records := make([]models.InspectionRecord, 0)
	warnings := make([]models.RowWarning, 0)
	line := 1

	for {
		line++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			warnings = append(warnings, models.RowWarning{Line: line, Reason: fmt.Sprintf("malformed row: %v", err)})
			continue
		}

		rec, why := buildRecord(bindings, row)
		if why != "" {
			warnings = append(warnings, models.RowWarning{Line: line, Reason: why})
			continue
		}
		records = append(records, rec)
	}

	return records, warnings, nil
}

// buildRecord maps one CSV row onto a record. A non-empty reason means the
// row must be skipped.
func buildRecord(bindings []binding, row []string) (models.InspectionRecord, string) {
	rec := models.InspectionRecord{
		DocChecks:  make(map[string]string),
		PerfChecks: make(map[string]string),
	}
	var rawDate string

	for i, cell := range row {
		if i >= len(bindings) {
			break
		}
		b := bindings[i]
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}

		switch b.group {
		case groupDoc:
			rec.DocChecks[b.key] = cell
			continue
		case groupPerf:
			rec.PerfChecks[b.key] = cell
			continue
		}

		switch b.field {
		case fieldTimestamp:
			rec.Timestamp = cell
		case fieldDate:
			rawDate = cell
		case fieldTime:
			rec.Time = cell
		case fieldSite:
			rec.SiteName = cell
		case fieldObservation:
			rec.Observation = cell
		case fieldInspector:
			rec.InspectedBy = cell
		case fieldImages:
			rec.ImageURLs = splitImageURLs(cell)
		case fieldEmail:
			rec.Email = cell
		case fieldShift:
			rec.Shift = cell
		case fieldIncident:
			rec.Incident = cell
		case fieldAction:
			rec.ActionTaken = cell
		}
	}

	if rawDate == "" {
		return rec, "missing date"
	}
	d, err := ParseDate(rawDate)
	if err != nil {
		return rec, fmt.Sprintf("unparseable date %q", rawDate)
	}
	rec.Date = d

	if rec.SiteName == "" {
		return rec, "missing site name"
	}

	return rec, ""
}

// splitImageURLs splits the Images cell on commas and trims each fragment.
func splitImageURLs(cell string) []string {
	parts := strings.Split(cell, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	if len(urls) == 0 {
		return nil
	}
	return urls
}

// dateFormats are the date layouts observed in the source sheet.
var dateFormats = []string{
	"2006-01-02",
	"1/2/2006",
	"2-Jan-2006",
	"January 2, 2006",
	"2006/01/02",
}

// ParseDate parses a sheet date cell into a calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return models.CalendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// UniqueSites returns the sorted, deduplicated site names in a dataset.
func UniqueSites(records []models.InspectionRecord) []string {
	return uniqueValues(records, func(r models.InspectionRecord) string { return r.SiteName })
}

// UniqueShifts returns the sorted, deduplicated shifts in a dataset.
func UniqueShifts(records []models.InspectionRecord) []string {
	return uniqueValues(records, func(r models.InspectionRecord) string { return r.Shift })
}

func uniqueValues(records []models.InspectionRecord, get func(models.InspectionRecord) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range records {
		v := get(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
