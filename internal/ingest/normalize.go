package ingest

import (
	"strings"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/tabular"
)

// Source interval columns after renaming.
const (
	ColStart = "datetime_start"
	ColEnd   = "datetime_end"
)

// RequiredSourceColumns must be present after NormalizeColumns.
var RequiredSourceColumns = []string{dataset.ColStation, dataset.ColPollutant, dataset.ColValue, ColStart}

// CanonicalName maps a source column name to its canonical name. Matching is
// case-insensitive; columns no rule applies to report false.
func CanonicalName(col string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(col))
	switch {
	case strings.HasPrefix(lower, "samplingpoint"):
		return dataset.ColStation, true
	case strings.Contains(lower, "pollutant"):
		return dataset.ColPollutant, true
	case lower == "value":
		return dataset.ColValue, true
	case lower == "start":
		return ColStart, true
	case lower == "end":
		return ColEnd, true
	}
	return "", false
}

// NormalizeColumns renames the frame's columns to their canonical names and
// returns the renames it applied. A column that already carries a canonical
// name keeps it; otherwise the first column claiming a name wins and later
// claimants keep their source name and are returned in conflicts.
func NormalizeColumns(f *tabular.Frame) (renamed map[string]string, conflicts []string) {
	taken := make(map[string]bool, len(f.Columns))
	for _, c := range f.Columns {
		if to, ok := CanonicalName(c); !ok || to == c {
			taken[c] = true
		}
	}

	renamed = make(map[string]string)
	for _, c := range f.Columns {
		to, ok := CanonicalName(c)
		if !ok || to == c {
			continue
		}
		if taken[to] {
			conflicts = append(conflicts, c)
			continue
		}
		taken[to] = true
		renamed[c] = to
	}
	f.Rename(renamed)
	return renamed, conflicts
}
