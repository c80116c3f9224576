package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/site-vigilance/backend/internal/models"
	"github.com/site-vigilance/backend/internal/testutil"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	r.now = func() time.Time { return testutil.Date(2024, 4, 1) }
	return r
}

func enriched(rec models.InspectionRecord, imgs ...models.ResolvedImage) models.EnrichedRecord {
	return models.EnrichedRecord{Record: rec, Images: imgs}
}

func TestRenderZeroRecords(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.RecordCount)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF")), "output must be a PDF document")
	assert.Equal(t, testutil.Date(2024, 4, 1), out.GeneratedAt)
}

func TestRenderMultipleRecords(t *testing.T) {
	r := newTestRenderer(t)

	records := []models.EnrichedRecord{
		enriched(testutil.NewRecord(testutil.Date(2024, 3, 1), "4-311-DLF Alpha", "Day")),
		enriched(testutil.NewRecord(testutil.Date(2024, 3, 2), "5-220-Beta Tower", "Night")),
	}

	out, err := r.Render(records)
	require.NoError(t, err)
	assert.Equal(t, 2, out.RecordCount)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF")))
	assert.Greater(t, len(out.PDF), 1000)
}

func TestRenderWithImages(t *testing.T) {
	r := newTestRenderer(t)

	rec := testutil.NewRecord(testutil.Date(2024, 3, 1), "4-311-DLF Alpha", "Day")
	jpg := testutil.JPEGBytes(320, 240)

	out, err := r.Render([]models.EnrichedRecord{
		enriched(rec,
			models.ResolvedOK("https://example.com/a.jpg", jpg, "image/jpeg", 320, 240),
			models.ResolvedFailed("https://example.com/b.jpg", "download failed: status 404"),
		),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF")))
	// A failed image must not abort the render; the PDF with one real image
	// embedded is noticeably larger than the empty frame.
	assert.Greater(t, len(out.PDF), len(jpg))
}

func TestRenderUnknownCheckValues(t *testing.T) {
	r := newTestRenderer(t)

	rec := testutil.NewRecord(testutil.Date(2024, 3, 1), "Alpha", "Day")
	rec.DocChecks["Attendance Register"] = "Pending Review"
	rec.PerfChecks["Alertness"] = "Exceptional"

	out, err := r.Render([]models.EnrichedRecord{enriched(rec)})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF")))
}

func TestComplianceStyle(t *testing.T) {
	tests := []struct {
		value string
		want  cellStyle
	}{
		{"Compliant", stylePositive},
		{"compliant", stylePositive},
		{"Non-Compliant", styleNegative},
		{"NON-COMPLIANT", styleNegative},
		{"", styleNeutral},
		{"N/A", styleNeutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, complianceStyle(tt.value), "value %q", tt.value)
	}
}

func TestRatingStyle(t *testing.T) {
	tests := []struct {
		value string
		want  cellStyle
	}{
		{"Good", stylePositive},
		{"Average", styleWarning},
		{"average", styleWarning},
		{"Poor", styleNegative},
		{"", styleNeutral},
		{"Outstanding", styleNeutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ratingStyle(tt.value), "value %q", tt.value)
	}
}

func TestOrderedKeys(t *testing.T) {
	m := map[string]string{
		"Alertness": "Good",
		"Zeal":      "Good",
		"Bearing":   "Average",
	}
	got := orderedKeys(m, []string{"Grooming", "Alertness"})
	assert.Equal(t, []string{"Grooming", "Alertness", "Bearing", "Zeal"}, got)
}

func TestFilename(t *testing.T) {
	generated := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		criteria models.FilterCriteria
		want     string
	}{
		{
			name: "full range with shift",
			criteria: models.FilterCriteria{
				StartDate: testutil.DatePtr(2024, 3, 1),
				EndDate:   testutil.DatePtr(2024, 3, 31),
				Shift:     "Night",
			},
			want: "SGV_Vigilance_Report_20240301_to_20240331_Night_20240401_093000.pdf",
		},
		{
			name:     "no criteria",
			criteria: models.FilterCriteria{},
			want:     "SGV_Vigilance_Report_all_dates_20240401_093000.pdf",
		},
		{
			name:     "All shift is omitted",
			criteria: models.FilterCriteria{Shift: "All"},
			want:     "SGV_Vigilance_Report_all_dates_20240401_093000.pdf",
		},
		{
			name:     "shift with spaces is sanitized",
			criteria: models.FilterCriteria{Shift: "Night / Late"},
			want:     "SGV_Vigilance_Report_all_dates_Night__Late_20240401_093000.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.criteria, generated))
		})
	}
}
