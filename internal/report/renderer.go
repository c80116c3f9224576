// Package report renders enriched inspection records into a paginated PDF.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/site-vigilance/backend/internal/models"
)

//go:embed assets
var assets embed.FS

// TemplateError indicates the report layout could not even be set up
// (missing or corrupt bundled assets). The report cannot start.
type TemplateError struct {
	Err error
}

func (e *TemplateError) Error() string { return fmt.Sprintf("report template: %v", e.Err) }
func (e *TemplateError) Unwrap() error { return e.Err }

// EncodingError indicates the assembled document could not be converted to
// PDF bytes. The report cannot complete.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("report encoding: %v", e.Err) }
func (e *EncodingError) Unwrap() error { return e.Err }

// Preferred row order for the check tables; sub-labels outside these lists
// render after them in sorted order.
var (
	docCheckOrder  = []string{"Attendance Register", "Handling / Taking Over Register", "Visitor Log Register"}
	perfCheckOrder = []string{"Grooming", "Alertness", "Post Discipline", "Overall Rating"}
)

// Cell styles for the color-coded tables.
type cellStyle struct {
	fill [3]int
	text [3]int
}

var (
	stylePositive = cellStyle{fill: [3]int{198, 239, 206}, text: [3]int{0, 97, 0}}
	styleNegative = cellStyle{fill: [3]int{255, 199, 206}, text: [3]int{156, 0, 6}}
	styleWarning  = cellStyle{fill: [3]int{255, 235, 156}, text: [3]int{156, 101, 0}}
	styleNeutral  = cellStyle{fill: [3]int{235, 235, 235}, text: [3]int{90, 90, 90}}

	headerNavy = [3]int{26, 58, 107}
)

// complianceStyle maps a raw documentation-check value to a cell style.
// Unrecognized values render neutral, never fail.
func complianceStyle(v string) cellStyle {
	switch {
	case strings.EqualFold(v, string(models.ComplianceCompliant)):
		return stylePositive
	case strings.EqualFold(v, string(models.ComplianceNonCompliant)):
		return styleNegative
	default:
		return styleNeutral
	}
}

// ratingStyle maps a raw performance-check value to a cell style.
func ratingStyle(v string) cellStyle {
	switch {
	case strings.EqualFold(v, string(models.RatingGood)):
		return stylePositive
	case strings.EqualFold(v, string(models.RatingAverage)):
		return styleWarning
	case strings.EqualFold(v, string(models.RatingPoor)):
		return styleNegative
	default:
		return styleNeutral
	}
}

// Renderer produces the final PDF document. A Renderer is stateless across
// Render calls and safe for concurrent use.
type Renderer struct {
	logo []byte
	now  func() time.Time
}

// NewRenderer loads the bundled layout assets.
func NewRenderer() (*Renderer, error) {
	logo, err := assets.ReadFile("assets/logo.png")
	if err != nil {
		return nil, &TemplateError{Err: fmt.Errorf("loading logo asset: %w", err)}
	}
	return &Renderer{logo: logo, now: time.Now}, nil
}

// Render binds the enriched records into one continuous paginated document.
// Zero records is a valid empty report, not a failure.
func (r *Renderer) Render(records []models.EnrichedRecord) (*models.RenderedReport, error) {
	generatedAt := r.now()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Site Vigilance Inspection Report", true)
	pdf.SetAuthor("Site Vigilance", true)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.coverHeader(pdf, len(records), generatedAt)

	if len(records) == 0 {
		pdf.Ln(12)
		pdf.SetFont("Helvetica", "I", 11)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 7, "No inspection records matched the selected criteria.", "", "C", false)
	}

	for i, rec := range records {
		if i > 0 {
			pdf.AddPage()
		} else {
			pdf.Ln(6)
		}
		r.renderRecord(pdf, i, rec)
	}

	if pdf.Err() {
		return nil, &EncodingError{Err: pdf.Error()}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &EncodingError{Err: err}
	}

	return &models.RenderedReport{
		PDF:         buf.Bytes(),
		RecordCount: len(records),
		GeneratedAt: generatedAt,
	}, nil
}

// coverHeader draws the report letterhead on the first page.
func (r *Renderer) coverHeader(pdf *fpdf.Fpdf, count int, generatedAt time.Time) {
	pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(r.logo))
	pdf.ImageOptions("logo", 10, 10, 40, 0, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetXY(55, 12)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(headerNavy[0], headerNavy[1], headerNavy[2])
	pdf.CellFormat(0, 9, "Site Vigilance Inspection Report", "", 2, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetX(55)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", generatedAt.Format("January 2, 2006 3:04 PM")), "", 2, "L", false, 0, "")
	pdf.SetX(55)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total inspections: %d", count), "", 2, "L", false, 0, "")

	pdf.SetY(34)
	pdf.SetDrawColor(headerNavy[0], headerNavy[1], headerNavy[2])
	pdf.SetLineWidth(0.6)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
}

// renderRecord draws one inspection section: header block, the two check
// tables, the narrative blocks and the image gallery.
func (r *Renderer) renderRecord(pdf *fpdf.Fpdf, idx int, rec models.EnrichedRecord) {
	ir := rec.Record
	site := models.SplitSiteName(ir.SiteName)

	// Section banner
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(headerNavy[0], headerNavy[1], headerNavy[2])
	pdf.SetTextColor(255, 255, 255)
	title := fmt.Sprintf("Inspection %d - %s", idx+1, site.Name)
	pdf.CellFormat(0, 9, "  "+title, "", 1, "L", true, 0, "")
	pdf.Ln(2)

	// Header block: site, date, time, shift, inspector
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	r.headerRow(pdf, "Site", ir.SiteName, "Date", ir.Date.Format("January 2, 2006"))
	zoneUnit := site.Zone
	if site.Unit != "" {
		zoneUnit = site.Zone + " / " + site.Unit
	}
	r.headerRow(pdf, "Zone / Unit", zoneUnit, "Time", ir.Time)
	r.headerRow(pdf, "Shift", ir.Shift, "Inspected By", ir.InspectedBy)
	if ir.Email != "" {
		r.headerRow(pdf, "Inspector Email", ir.Email, "", "")
	}
	pdf.Ln(3)

	r.checkTable(pdf, "Documentation Checks", ir.DocChecks, docCheckOrder, complianceStyle)
	r.checkTable(pdf, "Performance Checks", ir.PerfChecks, perfCheckOrder, ratingStyle)

	r.textBlock(pdf, "Observation", ir.Observation)
	r.textBlock(pdf, "Incident Report", ir.Incident)
	r.textBlock(pdf, "Action Taken", ir.ActionTaken)

	r.gallery(pdf, idx, rec.Images)
}

func (r *Renderer) headerRow(pdf *fpdf.Fpdf, k1, v1, k2, v2 string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(32, 6, k1, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(63, 6, v1, "", 0, "L", false, 0, "")
	if k2 != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(32, 6, k2, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, v2, "", 1, "L", false, 0, "")
	} else {
		pdf.Ln(6)
	}
}

// checkTable renders one color-coded label/value table. The table is kept
// on a single page when the remaining space cannot hold it.
func (r *Renderer) checkTable(pdf *fpdf.Fpdf, title string, checks map[string]string, preferred []string, style func(string) cellStyle) {
	keys := orderedKeys(checks, preferred)

	const rowH = 7.0
	needed := rowH*float64(len(keys)+1) + 10
	r.keepTogether(pdf, needed)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(headerNavy[0], headerNavy[1], headerNavy[2])
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.2)
	for _, k := range keys {
		v := checks[k] // empty for preferred keys missing from the row
		s := style(v)
		display := v
		if display == "" {
			display = "-"
		}

		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(95, rowH, " "+k, "1", 0, "L", true, 0, "")

		pdf.SetFillColor(s.fill[0], s.fill[1], s.fill[2])
		pdf.SetTextColor(s.text[0], s.text[1], s.text[2])
		pdf.CellFormat(0, rowH, display, "1", 1, "C", true, 0, "")
	}
	pdf.Ln(4)
}

// textBlock renders a titled narrative block; empty values are skipped.
func (r *Renderer) textBlock(pdf *fpdf.Fpdf, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	r.keepTogether(pdf, 20)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(headerNavy[0], headerNavy[1], headerNavy[2])
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 5.5, body, "", "L", false)
	pdf.Ln(3)
}

// gallery embeds the record's resolved images; failed images render as a
// bordered placeholder carrying the failure reason.
func (r *Renderer) gallery(pdf *fpdf.Fpdf, recIdx int, imgs []models.ResolvedImage) {
	if len(imgs) == 0 {
		return
	}

	r.keepTogether(pdf, 30)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(headerNavy[0], headerNavy[1], headerNavy[2])
	pdf.CellFormat(0, 7, fmt.Sprintf("Site Images (%d)", len(imgs)), "", 1, "L", false, 0, "")
	pdf.Ln(1)

	for i, img := range imgs {
		if img.Failed {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.SetTextColor(156, 0, 6)
			pdf.SetDrawColor(156, 0, 6)
			pdf.SetLineWidth(0.3)
			reason := fmt.Sprintf("Image unavailable: %s", img.FailReason)
			pdf.MultiCell(120, 6, reason, "1", "L", false)
			pdf.Ln(2)
			continue
		}

		name := fmt.Sprintf("rec%d-img%d", recIdx, i)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(img.Data))

		w := 120.0
		if img.Width > 0 && img.Height > 0 {
			h := w * float64(img.Height) / float64(img.Width)
			r.keepTogether(pdf, h+4)
		}
		pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), w, 0, true, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		pdf.Ln(3)
	}
}

// keepTogether starts a new page when the remaining space cannot hold a
// block of the given height.
func (r *Renderer) keepTogether(pdf *fpdf.Fpdf, height float64) {
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+height > pageH-bottom-14 {
		pdf.AddPage()
	}
}

// orderedKeys returns map keys with the preferred ones first (in their
// canonical order, present or not), then any extras sorted. Missing
// preferred keys stay so the table renders them as undetermined.
func orderedKeys(m map[string]string, preferred []string) []string {
	keys := make([]string, 0, len(m)+len(preferred))
	seen := make(map[string]struct{}, len(m))
	for _, k := range preferred {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	extras := make([]string, 0)
	for k := range m {
		if _, ok := seen[k]; !ok {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(keys, extras...)
}
