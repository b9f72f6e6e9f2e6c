package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"berlin-airquality/internal/tabular"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Samplingpoint", "station", true},
		{"SAMPLINGPOINT_ID", "station", true},
		{"Pollutant", "pollutant", true},
		{"AirPollutantCode", "pollutant", true},
		{"Value", "value", true},
		{"value", "value", true},
		{"Start", "datetime_start", true},
		{"END", "datetime_end", true},
		{"Unit", "", false},
		{"ValueDate", "", false},
		{"StartTime", "", false},
	}
	for _, tt := range tests {
		got, ok := CanonicalName(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeColumns(t *testing.T) {
	f := tabular.New([]string{"Samplingpoint", "Pollutant", "Start", "End", "Value", "Unit", "Validity", "source_file"})

	renamed, conflicts := NormalizeColumns(f)

	assert.Equal(t, []string{"station", "pollutant", "datetime_start", "datetime_end", "value", "Unit", "Validity", "source_file"}, f.Columns)
	assert.Equal(t, map[string]string{
		"Samplingpoint": "station",
		"Pollutant":     "pollutant",
		"Start":         "datetime_start",
		"End":           "datetime_end",
		"Value":         "value",
	}, renamed)
	assert.Empty(t, conflicts)
}

func TestNormalizeColumns_conflicts(t *testing.T) {
	t.Run("first claimant wins", func(t *testing.T) {
		f := tabular.New([]string{"Pollutant", "AirPollutant", "Value"})
		_, conflicts := NormalizeColumns(f)
		assert.Equal(t, []string{"pollutant", "AirPollutant", "value"}, f.Columns)
		assert.Equal(t, []string{"AirPollutant"}, conflicts)
	})

	t.Run("column already canonical wins", func(t *testing.T) {
		f := tabular.New([]string{"Value", "value"})
		renamed, conflicts := NormalizeColumns(f)
		assert.Equal(t, []string{"Value", "value"}, f.Columns)
		assert.Empty(t, renamed)
		assert.Equal(t, []string{"Value"}, conflicts)
	})
}
