package types

import (
	"time"

	"berlin-airquality/internal/dataset"
)

// FilterQuery is a filter as requested. Zero fields mean "use the default".
type FilterQuery struct {
	Pollutant string
	Stations  []string
	// StationsSet distinguishes an explicitly empty station selection from
	// no selection at all.
	StationsSet bool
	From        dataset.Date
	To          dataset.Date
}

// Filter is a fully resolved selection. Date bounds are inclusive.
type Filter struct {
	Pollutant   string       `json:"pollutant"`
	Stations    []string     `json:"stations"`
	AllStations bool         `json:"allStations"`
	From        dataset.Date `json:"from"`
	To          dataset.Date `json:"to"`
}

// Selected reports whether the station name is part of the filter.
func (f Filter) Selected(station string) bool {
	if f.AllStations {
		return true
	}
	for _, s := range f.Stations {
		if s == station {
			return true
		}
	}
	return false
}

type PollutantOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Options are the selectable filter values of the loaded dataset.
type Options struct {
	Pollutants []PollutantOption `json:"pollutants"`
	Stations   []string          `json:"stations"`
	MinDate    dataset.Date      `json:"minDate"`
	MaxDate    dataset.Date      `json:"maxDate"`
}

// Summary holds descriptive statistics of the filtered values. Std is nil
// for fewer than two values.
type Summary struct {
	Count int      `json:"count"`
	Mean  float64  `json:"mean"`
	Std   *float64 `json:"std"`
	Min   float64  `json:"min"`
	P25   float64  `json:"p25"`
	P50   float64  `json:"p50"`
	P75   float64  `json:"p75"`
	Max   float64  `json:"max"`
}

type DailyMean struct {
	Date dataset.Date `json:"date"`
	Mean float64      `json:"mean"`
}

type StationMean struct {
	StationName string  `json:"stationName"`
	Mean        float64 `json:"mean"`
}

// StationDateMean is one cell of the station × date matrix.
type StationDateMean struct {
	StationName string
	Date        dataset.Date
	Mean        float64
}

// Heatmap is a station × date matrix; Values[i][j] is nil where station i
// has no data on date j.
type Heatmap struct {
	Stations []string       `json:"stations"`
	Dates    []dataset.Date `json:"dates"`
	Values   [][]*float64   `json:"values"`
	ZMin     float64        `json:"zmin"`
	ZMax     float64        `json:"zmax"`
}

// View is everything the dashboard shows for one filter.
type View struct {
	Filter         Filter        `json:"filter"`
	PollutantLabel string        `json:"pollutantLabel"`
	PollutantName  string        `json:"pollutantName"`
	Empty          bool          `json:"empty"`
	Message        string        `json:"message,omitempty"`
	Summary        *Summary      `json:"summary,omitempty"`
	Daily          []DailyMean   `json:"daily,omitempty"`
	Ranking        []StationMean `json:"ranking,omitempty"`
	Heatmap        *Heatmap      `json:"heatmap,omitempty"`
	HeatmapEmpty   bool          `json:"heatmapEmpty"`
	HeatmapMessage string        `json:"heatmapMessage,omitempty"`
}

// RecordsPage is one page of raw rows of the filtered subset.
type RecordsPage struct {
	Filter     Filter           `json:"filter"`
	Records    []dataset.Record `json:"records"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// Snapshot describes the dataset file the store currently mirrors.
type Snapshot struct {
	Path     string    `json:"path"`
	ModTime  time.Time `json:"modTime"`
	Size     int64     `json:"size"`
	Rows     int       `json:"rows"`
	Skipped  int       `json:"skipped"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Matches reports whether the snapshot was taken from a file with this path,
// modification time and size.
func (s *Snapshot) Matches(path string, modTime time.Time, size int64) bool {
	return s != nil && s.Path == path && s.ModTime.Equal(modTime) && s.Size == size
}
