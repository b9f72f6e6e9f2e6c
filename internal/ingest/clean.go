package ingest

import (
	"slices"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/tabular"
)

// DropReason says why a row was removed during cleaning.
type DropReason string

const (
	DropMissingValue DropReason = "missing_value"
	DropBelowMin     DropReason = "below_min"
	DropAboveMax     DropReason = "above_max"
	DropMissingDate  DropReason = "missing_date"
)

// Cleaning summarizes BuildRecords.
type Cleaning struct {
	RowsIn    int
	RowsOut   int
	Dropped   map[DropReason]int
	Unmatched []string
}

// CoerceValue reads a concentration. Anything that is not a number is
// treated as missing.
func CoerceValue(v any) (float64, bool) {
	return tabular.AsFloat(v)
}

// BuildRecords turns a normalized frame into dataset records. Rows with a
// missing or implausible value, or without a start timestamp, are dropped.
// Values outside the bounds are discarded, never clamped.
func BuildRecords(f *tabular.Frame, c *dataset.Catalog) ([]dataset.Record, Cleaning, error) {
	res := Cleaning{RowsIn: f.Len(), Dropped: make(map[DropReason]int)}
	if err := dataset.CheckColumns(f.Columns, RequiredSourceColumns); err != nil {
		return nil, res, err
	}

	lo, hi := c.Bounds()
	unmatched := make(map[string]bool)
	out := make([]dataset.Record, 0, f.Len())
	for i := range f.Rows {
		v, ok := CoerceValue(f.Cell(i, dataset.ColValue))
		switch {
		case !ok:
			res.Dropped[DropMissingValue]++
			continue
		case v < lo:
			res.Dropped[DropBelowMin]++
			continue
		case v > hi:
			res.Dropped[DropAboveMax]++
			continue
		}

		start, ok := tabular.AsTime(f.Cell(i, ColStart))
		if !ok {
			res.Dropped[DropMissingDate]++
			continue
		}

		rec := dataset.Record{Value: v, Date: dataset.DateOf(start)}
		rec.Year = rec.Date.Year()
		rec.Month = int(rec.Date.Month())
		rec.Station, _ = tabular.AsString(f.Cell(i, dataset.ColStation))
		rec.Pollutant, _ = tabular.AsString(f.Cell(i, dataset.ColPollutant))
		rec.SourceFile, _ = tabular.AsString(f.Cell(i, dataset.ColSourceFile))
		dataset.Identify(&rec, c)
		if rec.StationID == "" {
			unmatched[rec.Station] = true
		}
		out = append(out, rec)
	}

	res.RowsOut = len(out)
	for code := range unmatched {
		res.Unmatched = append(res.Unmatched, code)
	}
	slices.Sort(res.Unmatched)
	return out, res, nil
}
