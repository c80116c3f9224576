package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/site-vigilance/backend/internal/models"
)

// Filename builds the report file name from the criteria it covers, e.g.
// "SGV_Vigilance_Report_20240301_to_20240331_Night_20240401_093000.pdf".
func Filename(criteria models.FilterCriteria, generatedAt time.Time) string {
	dateStr := "all_dates"
	if criteria.StartDate != nil && criteria.EndDate != nil {
		dateStr = fmt.Sprintf("%s_to_%s",
			criteria.StartDate.Format("20060102"),
			criteria.EndDate.Format("20060102"))
	}

	shiftStr := ""
	if criteria.Shift != "" && !strings.EqualFold(criteria.Shift, models.SelectorAll) {
		shiftStr = "_" + sanitize(criteria.Shift)
	}

	return fmt.Sprintf("SGV_Vigilance_Report_%s%s_%s.pdf",
		dateStr, shiftStr, generatedAt.Format("20060102_150405"))
}

// sanitize keeps filenames portable across filesystems.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, s)
}
