// Package dataset defines the combined air-quality dataset: its records,
// the station and pollutant catalog, station id extraction and the parquet
// and CSV encodings shared by ingestion and the dashboard.
package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Column names of the combined dataset, in output order.
const (
	ColStation     = "station"
	ColPollutant   = "pollutant"
	ColValue       = "value"
	ColDate        = "date"
	ColYear        = "year"
	ColMonth       = "month"
	ColStationID   = "station_id"
	ColStationName = "station_name"
	ColSourceFile  = "source_file"
)

var Columns = []string{
	ColStation, ColPollutant, ColValue, ColDate, ColYear, ColMonth,
	ColStationID, ColStationName, ColSourceFile,
}

// RequiredColumns must be present for a dataset file to be usable.
var RequiredColumns = []string{ColStation, ColPollutant, ColValue, ColDate}

var ErrMissingColumns = errors.New("dataset is missing required columns")

// MissingColumnsError lists the absent columns and matches ErrMissingColumns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// CheckColumns returns a *MissingColumnsError when any of required is absent from have.
func CheckColumns(have []string, required []string) error {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	var missing []string
	for _, r := range required {
		if !set[r] {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// Record is one (station, date, pollutant) observation. StationID and
// StationName are empty when the station code carries no recognizable id.
type Record struct {
	Station     string  `csv:"station" json:"station"`
	Pollutant   string  `csv:"pollutant" json:"pollutant"`
	Value       float64 `csv:"value" json:"value"`
	Date        Date    `csv:"date" json:"date"`
	Year        int     `csv:"year" json:"year"`
	Month       int     `csv:"month" json:"month"`
	StationID   string  `csv:"station_id" json:"stationId,omitempty"`
	StationName string  `csv:"station_name" json:"stationName,omitempty"`
	SourceFile  string  `csv:"source_file" json:"sourceFile,omitempty"`
}

// DateLayout is the text form of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day, held as midnight UTC.
type Date struct {
	time.Time
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(strings.Trim(s, `"`)))
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) After(o Date) bool { return d.Time.After(o.Time) }
