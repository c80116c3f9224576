// fixtures.go - Shared fixtures for handler and pipeline tests
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/site-vigilance/backend/internal/models"
)

// SampleCSV is a sheet export covering the known schema, one row per site.
const SampleCSV = `Timestamp,Date,Time,Site Name,Documentation Check [Attendance Register],Documentation Check [Handling / Taking Over Register],Documentation Check [Visitor Log Register],Performance Check [Grooming],Performance Check [Alertness],Performance Check [Post Discipline],Performance Check [Overall Rating],Observation,Inspected By,Images,Email Address,Shift,Incident Report,Action Taken
2024-03-01 08:15:00,2024-03-01,08:15 AM,4-311-DLF Alpha,Compliant,Compliant,Non-Compliant,Good,Average,Good,Good,Guard post in order,A. Sharma,,a.sharma@example.com,Day,,
2024-03-01 21:40:00,2024-03-01,09:40 PM,4-311-DLF Alpha,Compliant,Non-Compliant,Compliant,Poor,Good,Average,Average,Handover register missing entries,R. Verma,,r.verma@example.com,Night,Unlogged visitor at gate 2,Visitor details recorded retroactively
2024-03-02 07:55:00,2024-03-02,07:55 AM,5-220-Beta Tower,Compliant,Compliant,Compliant,Good,Good,Good,Good,All checks clear,A. Sharma,,a.sharma@example.com,Day,,
`

// NewRecord builds an inspection record with sensible defaults for tests.
func NewRecord(date time.Time, site, shift string) models.InspectionRecord {
	return models.InspectionRecord{
		Timestamp:   date.Format("2006-01-02 15:04:05"),
		Date:        models.CalendarDate(date),
		Time:        "08:00 AM",
		SiteName:    site,
		DocChecks:   map[string]string{"Attendance Register": "Compliant"},
		PerfChecks:  map[string]string{"Alertness": "Good"},
		Observation: "routine patrol",
		InspectedBy: "Test Inspector",
		Shift:       shift,
	}
}

// Date is a shorthand for a UTC calendar date.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr returns a pointer to a UTC calendar date.
func DatePtr(y int, m time.Month, d int) *time.Time {
	t := Date(y, m, d)
	return &t
}

// JPEGBytes encodes a solid-color JPEG of the given size.
func JPEGBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 140, B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, nil)
	return buf.Bytes()
}

// SheetServer serves the given CSV body on every request, mimicking the
// published sheet export endpoint.
func SheetServer(csvBody string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "nope", status)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, csvBody)
	}))
}
