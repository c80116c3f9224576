package sheets

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/site-vigilance/backend/internal/models"
	"github.com/site-vigilance/backend/internal/testutil"
)

func newTestFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()
	f, err := NewFetcherWithBaseURL(baseURL, 5*time.Second)
	require.NoError(t, err)
	return f
}

func TestExportURL(t *testing.T) {
	f := newTestFetcher(t, DefaultBaseURL)
	got := f.ExportURL("1AbC_dEf", "123456")
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/1AbC_dEf/export?format=csv&gid=123456", got)
}

func TestFetchParsesRecords(t *testing.T) {
	ts := testutil.SheetServer(testutil.SampleCSV, 200)
	defer ts.Close()

	f := newTestFetcher(t, ts.URL)
	records, warnings, err := f.Fetch(context.Background(), "sheet", "0")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, testutil.Date(2024, 3, 1), first.Date)
	assert.Equal(t, "4-311-DLF Alpha", first.SiteName)
	assert.Equal(t, "Day", first.Shift)
	assert.Equal(t, "A. Sharma", first.InspectedBy)
	assert.Equal(t, "Guard post in order", first.Observation)
	assert.Equal(t, "Non-Compliant", first.DocChecks["Visitor Log Register"])
	assert.Equal(t, "Compliant", first.DocChecks["Attendance Register"])
	assert.Equal(t, "Average", first.PerfChecks["Alertness"])

	second := records[1]
	assert.Equal(t, "Night", second.Shift)
	assert.Equal(t, "Unlogged visitor at gate 2", second.Incident)
	assert.Equal(t, "Visitor details recorded retroactively", second.ActionTaken)
}

func TestFetchSplitsImageURLs(t *testing.T) {
	csv := "Date,Site Name,Images\n" +
		"2024-03-01,Alpha,\"https://drive.google.com/open?id=AAA, https://drive.google.com/open?id=BBB\"\n"
	ts := testutil.SheetServer(csv, 200)
	defer ts.Close()

	f := newTestFetcher(t, ts.URL)
	records, _, err := f.Fetch(context.Background(), "sheet", "0")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{
		"https://drive.google.com/open?id=AAA",
		"https://drive.google.com/open?id=BBB",
	}, records[0].ImageURLs)
}

func TestFetchSkipsBadRowsWithWarnings(t *testing.T) {
	csv := "Date,Site Name,Shift\n" +
		"2024-03-01,Alpha,Day\n" +
		",Beta,Day\n" +
		"not-a-date,Gamma,Night\n" +
		"2024-03-02,,Night\n" +
		"2024-03-03,Delta,Night\n"
	ts := testutil.SheetServer(csv, 200)
	defer ts.Close()

	f := newTestFetcher(t, ts.URL)
	records, warnings, err := f.Fetch(context.Background(), "sheet", "0")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	require.Len(t, warnings, 3)

	assert.Equal(t, 3, warnings[0].Line)
	assert.Equal(t, "missing date", warnings[0].Reason)
	assert.Equal(t, 4, warnings[1].Line)
	assert.Contains(t, warnings[1].Reason, "unparseable date")
	assert.Equal(t, 5, warnings[2].Line)
	assert.Equal(t, "missing site name", warnings[2].Reason)
}

func TestFetchUnknownHeadersIgnored(t *testing.T) {
	csv := "Date,Site Name,Mystery Column\n2024-03-01,Alpha,whatever\n"
	ts := testutil.SheetServer(csv, 200)
	defer ts.Close()

	f := newTestFetcher(t, ts.URL)
	records, warnings, err := f.Fetch(context.Background(), "sheet", "0")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, records, 1)
	assert.Equal(t, "Alpha", records[0].SiteName)
}

func TestFetchSchemaMismatch(t *testing.T) {
	csv := "Foo,Bar,Baz\n1,2,3\n"
	ts := testutil.SheetServer(csv, 200)
	defer ts.Close()

	f := newTestFetcher(t, ts.URL)
	_, _, err := f.Fetch(context.Background(), "sheet", "0")

	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"Foo", "Bar", "Baz"}, mismatch.Headers)
}

func TestFetchSourceUnavailable(t *testing.T) {
	ts := testutil.SheetServer("", 503)
	defer ts.Close()

	f := newTestFetcher(t, ts.URL)
	_, _, err := f.Fetch(context.Background(), "sheet", "0")

	var unavailable *SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Error(), "503")
}

func TestFetchConnectionRefused(t *testing.T) {
	ts := testutil.SheetServer("", 200)
	ts.Close() // port now refuses connections

	f := newTestFetcher(t, ts.URL)
	_, _, err := f.Fetch(context.Background(), "sheet", "0")

	var unavailable *SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestParseDate(t *testing.T) {
	want := testutil.Date(2024, 3, 1)

	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-03-01", false},
		{"3/1/2024", false},
		{"1-Mar-2024", false},
		{"March 1, 2024", false},
		{"2024/03/01", false},
		{"  2024-03-01  ", false},
		{"01.03.2024", true},
		{"yesterday", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestUniqueSitesAndShifts(t *testing.T) {
	records := []models.InspectionRecord{
		{SiteName: "Beta", Shift: "Night"},
		{SiteName: "Alpha", Shift: "Day"},
		{SiteName: "Beta", Shift: "Day"},
		{SiteName: "", Shift: ""},
	}

	assert.Equal(t, []string{"Alpha", "Beta"}, UniqueSites(records))
	assert.Equal(t, []string{"Day", "Night"}, UniqueShifts(records))
}

func TestParseToleratesRaggedRows(t *testing.T) {
	csv := "Date,Site Name,Shift,Observation\n" +
		"2024-03-01,Alpha\n" + // short row
		"2024-03-02,Beta,Night,ok,extra,cells\n" // long row
	ts := testutil.SheetServer(csv, 200)
	defer ts.Close()

	f := newTestFetcher(t, ts.URL)
	records, warnings, err := f.Fetch(context.Background(), "sheet", "0")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, records, 2)
	assert.Equal(t, "Alpha", records[0].SiteName)
	assert.Equal(t, "ok", strings.TrimSpace(records[1].Observation))
}
