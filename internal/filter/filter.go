// Package filter applies report criteria over parsed inspection records.
package filter

import "github.com/site-vigilance/backend/internal/models"

// Apply returns the records matching the criteria, preserving input order.
// It is pure and stable: filtering an already-filtered result with the same
// criteria yields the same sequence, and empty matches are an empty slice,
// not an error.
func Apply(records []models.InspectionRecord, criteria models.FilterCriteria) []models.InspectionRecord {
	matched := make([]models.InspectionRecord, 0, len(records))
	for _, r := range records {
		if criteria.Matches(r) {
			matched = append(matched, r)
		}
	}
	return matched
}
