package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestFilterCriteria_Matches(t *testing.T) {
	rec := InspectionRecord{
		Date:     date(2024, 3, 1),
		SiteName: "Alpha",
		Shift:    "Night",
	}

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     bool
	}{
		{
			name:     "unbounded criteria match everything",
			criteria: FilterCriteria{},
			want:     true,
		},
		{
			name: "single-day range including the record",
			criteria: FilterCriteria{
				StartDate: datePtr(2024, 3, 1),
				EndDate:   datePtr(2024, 3, 1),
				Shift:     "Night",
				Site:      "all",
			},
			want: true,
		},
		{
			name: "same range but wrong shift",
			criteria: FilterCriteria{
				StartDate: datePtr(2024, 3, 1),
				EndDate:   datePtr(2024, 3, 1),
				Shift:     "Day",
				Site:      "all",
			},
			want: false,
		},
		{
			name:     "date before start",
			criteria: FilterCriteria{StartDate: datePtr(2024, 3, 2)},
			want:     false,
		},
		{
			name:     "date after end",
			criteria: FilterCriteria{EndDate: datePtr(2024, 2, 28)},
			want:     false,
		},
		{
			name:     "boundary equals start",
			criteria: FilterCriteria{StartDate: datePtr(2024, 3, 1)},
			want:     true,
		},
		{
			name:     "boundary equals end",
			criteria: FilterCriteria{EndDate: datePtr(2024, 3, 1)},
			want:     true,
		},
		{
			name:     "shift comparison is case-insensitive",
			criteria: FilterCriteria{Shift: "night"},
			want:     true,
		},
		{
			name:     "site comparison is case-insensitive",
			criteria: FilterCriteria{Site: "ALPHA"},
			want:     true,
		},
		{
			name:     "All selector matches any site",
			criteria: FilterCriteria{Site: "All"},
			want:     true,
		},
		{
			name:     "specific other site excluded",
			criteria: FilterCriteria{Site: "Beta"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(rec))
		})
	}
}

func TestFilterCriteria_MatchesIgnoresTimeOfDay(t *testing.T) {
	rec := InspectionRecord{
		Date:     time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC),
		SiteName: "Alpha",
		Shift:    "Night",
	}
	criteria := FilterCriteria{
		StartDate: datePtr(2024, 3, 1),
		EndDate:   datePtr(2024, 3, 1),
	}
	assert.True(t, criteria.Matches(rec))
}

func TestSplitSiteName(t *testing.T) {
	tests := []struct {
		in   string
		want SiteParts
	}{
		{"4-311-DLF SCO-84", SiteParts{Zone: "4", Unit: "311", Name: "DLF SCO-84"}},
		{"4-311", SiteParts{Zone: "4", Name: "311"}},
		{"Standalone Site", SiteParts{Name: "Standalone Site"}},
		{"", SiteParts{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSiteName(tt.in))
		})
	}
}
