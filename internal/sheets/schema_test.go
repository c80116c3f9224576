package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchema(t *testing.T) {
	s, err := LoadSchema()
	require.NoError(t, err)
	assert.NotEmpty(t, s.Columns)
	assert.NotEmpty(t, s.Groups)
}

func TestSchemaBind(t *testing.T) {
	s, err := LoadSchema()
	require.NoError(t, err)

	tests := []struct {
		header string
		want   binding
		ok     bool
	}{
		{"Date", binding{field: fieldDate}, true},
		{"date", binding{field: fieldDate}, true},
		{"  Site Name  ", binding{field: fieldSite}, true},
		{"Inspected By", binding{field: fieldInspector}, true},
		{"Documentation Check [Attendance Register]", binding{group: groupDoc, key: "Attendance Register"}, true},
		{"documentation check [Visitor Log Register]", binding{group: groupDoc, key: "Visitor Log Register"}, true},
		{"Performance Check [Overall Rating]", binding{group: groupPerf, key: "Overall Rating"}, true},
		{"Performance Check [ Alertness ]", binding{group: groupPerf, key: "Alertness"}, true},
		{"Random Column", binding{}, false},
		{"Unknown Group [Whatever]", binding{}, false},
		{"", binding{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := s.Bind(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
