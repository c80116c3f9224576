package models

import (
	"strings"
	"time"
)

// SelectorAll is the selector value that matches every shift or site.
const SelectorAll = "All"

// FilterCriteria narrows a dataset to the records a report should cover.
// A nil date bound means unbounded on that side; an empty or "All" selector
// matches every value.
type FilterCriteria struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Shift     string     `json:"shift,omitempty"`
	Site      string     `json:"site,omitempty"`
}

// Matches reports whether a record satisfies all criteria.
// Date comparison is by calendar date only.
func (c FilterCriteria) Matches(r InspectionRecord) bool {
	d := CalendarDate(r.Date)
	if c.StartDate != nil && d.Before(CalendarDate(*c.StartDate)) {
		return false
	}
	if c.EndDate != nil && d.After(CalendarDate(*c.EndDate)) {
		return false
	}
	if !selectorMatches(c.Shift, r.Shift) {
		return false
	}
	return selectorMatches(c.Site, r.SiteName)
}

func selectorMatches(selector, value string) bool {
	if selector == "" || strings.EqualFold(selector, SelectorAll) {
		return true
	}
	return strings.EqualFold(selector, value)
}

// CalendarDate truncates a timestamp to its calendar date in UTC.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
