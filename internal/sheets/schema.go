// Package sheets retrieves and parses the published inspection sheet.
package sheets

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var schemaYAML []byte

// Field targets on an InspectionRecord.
const (
	fieldTimestamp   = "timestamp"
	fieldDate        = "date"
	fieldTime        = "time"
	fieldSite        = "site"
	fieldObservation = "observation"
	fieldInspector   = "inspector"
	fieldImages      = "images"
	fieldEmail       = "email"
	fieldShift       = "shift"
	fieldIncident    = "incident"
	fieldAction      = "action"
)

// Check group kinds.
const (
	groupDoc  = "doc"
	groupPerf = "perf"
)

// Schema maps recognized sheet headers to record fields. Bracketed headers
// ("Documentation Check [Attendance Register]") resolve through Groups.
type Schema struct {
	Columns map[string]string `yaml:"columns"`
	Groups  map[string]string `yaml:"groups"`
}

// LoadSchema parses the embedded schema table.
func LoadSchema() (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(schemaYAML, &s); err != nil {
		return nil, fmt.Errorf("parsing sheet schema: %w", err)
	}
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("sheet schema defines no columns")
	}
	return &s, nil
}

// binding describes where one CSV column lands.
type binding struct {
	field string // one of the field constants, empty for check groups
	group string // groupDoc or groupPerf
	key   string // sub-label for check groups
}

var bracketRe = regexp.MustCompile(`^(.*?)\s*\[(.+)\]\s*$`)

// Bind resolves a header cell to a binding. The second return is false for
// unrecognized headers, which are preserved in the source but not mapped.
func (s *Schema) Bind(header string) (binding, bool) {
	header = strings.TrimSpace(header)

	if m := bracketRe.FindStringSubmatch(header); m != nil {
		prefix, key := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		for name, group := range s.Groups {
			if strings.EqualFold(name, prefix) {
				return binding{group: group, key: key}, true
			}
		}
		return binding{}, false
	}

	for name, field := range s.Columns {
		if strings.EqualFold(name, header) {
			return binding{field: field}, true
		}
	}
	return binding{}, false
}
