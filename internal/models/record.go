// Package models contains domain types for the Site Vigilance Report Server.
package models

import (
	"strings"
	"time"
)

// Compliance represents the outcome of a documentation check.
type Compliance string

const (
	ComplianceCompliant    Compliance = "Compliant"
	ComplianceNonCompliant Compliance = "Non-Compliant"
)

// Rating represents the outcome of a performance check.
type Rating string

const (
	RatingGood    Rating = "Good"
	RatingAverage Rating = "Average"
	RatingPoor    Rating = "Poor"
)

// InspectionRecord is one row of source data from the inspection sheet.
// Records are constructed once during parsing and never mutated; enrichment
// with resolved images produces an EnrichedRecord instead.
type InspectionRecord struct {
	Timestamp    string            `json:"timestamp"`
	Date         time.Time         `json:"date"` // calendar date, time-of-day zeroed
	Time         string            `json:"time"`
	SiteName     string            `json:"siteName"`
	DocChecks    map[string]string `json:"docChecks"`  // register label -> raw compliance value
	PerfChecks   map[string]string `json:"perfChecks"` // check label -> raw rating value
	Observation  string            `json:"observation"`
	InspectedBy  string            `json:"inspectedBy"`
	ImageURLs    []string          `json:"imageUrls,omitempty"`
	Email        string            `json:"email,omitempty"`
	Shift        string            `json:"shift"`
	Incident     string            `json:"incident,omitempty"`
	ActionTaken  string            `json:"actionTaken,omitempty"`
}

// EnrichedRecord pairs a record with its resolved images for rendering.
type EnrichedRecord struct {
	Record InspectionRecord
	Images []ResolvedImage
}

// SiteParts is the "zone-unit-name" decomposition of a site name
// (e.g. "4-311-DLF SCO-84" -> zone 4, unit 311, name "DLF SCO-84").
type SiteParts struct {
	Zone string
	Unit string
	Name string
}

// SplitSiteName decomposes a site name into zone, unit code and display name.
// Site names without the zone/unit prefix come back with the whole value as Name.
func SplitSiteName(site string) SiteParts {
	parts := strings.SplitN(site, "-", 3)
	switch len(parts) {
	case 3:
		return SiteParts{
			Zone: strings.TrimSpace(parts[0]),
			Unit: strings.TrimSpace(parts[1]),
			Name: strings.TrimSpace(parts[2]),
		}
	case 2:
		return SiteParts{
			Zone: strings.TrimSpace(parts[0]),
			Name: strings.TrimSpace(parts[1]),
		}
	default:
		return SiteParts{Name: strings.TrimSpace(site)}
	}
}
