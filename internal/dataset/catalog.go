package dataset

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultValueMin = 0
	DefaultValueMax = 500
)

var defaultStations = map[string]string{
	"DEBE010": "Amrumer Straße (Wedding, городской фон)",
	"DEBE034": "Nansenstraße (Neukölln, городской фон)",
	"DEBE051": "Buch / Hobrechtsfelder Chaussee (Pankow, пригородный фон)",
	"DEBE065": "Frankfurter Allee (Friedrichshain, транспортная станция)",
	"DEBE068": "Brückenstraße (Mitte, городской фон)",
}

var defaultStationNotes = map[string]string{
	"DEBE010": "Жилой район на севере города, типичный городской фон.",
	"DEBE034": "Плотная жилая застройка в районе Neukölln.",
	"DEBE051": "Пригородный район с более чистым воздухом.",
	"DEBE065": "Одна из загруженных магистралей, сильное влияние дорожного трафика.",
	"DEBE068": "Центральная часть города, городской фон в районе Mitte.",
}

var defaultPollutants = map[string]string{
	"6001": "PM2.5 (суточная концентрация)",
}

const unknownPollutant = "unknown pollutant"

// Catalog is the static station directory, pollutant directory and the
// plausibility bounds for concentration values. It is never mutated after
// construction.
type Catalog struct {
	stations   map[string]string
	notes      map[string]string
	pollutants map[string]string
	valueMin   float64
	valueMax   float64
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		stations:   maps.Clone(defaultStations),
		notes:      maps.Clone(defaultStationNotes),
		pollutants: maps.Clone(defaultPollutants),
		valueMin:   DefaultValueMin,
		valueMax:   DefaultValueMax,
	}
}

type catalogFile struct {
	Stations     map[string]string `yaml:"stations"`
	StationNotes map[string]string `yaml:"station_notes"`
	Pollutants   map[string]string `yaml:"pollutants"`
	ValueMin     *float64          `yaml:"value_min"`
	ValueMax     *float64          `yaml:"value_max"`
}

// LoadCatalog returns the default catalog overlaid with the YAML file at
// path. An empty path yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	maps.Copy(c.stations, cf.Stations)
	maps.Copy(c.notes, cf.StationNotes)
	maps.Copy(c.pollutants, cf.Pollutants)
	if cf.ValueMin != nil {
		c.valueMin = *cf.ValueMin
	}
	if cf.ValueMax != nil {
		c.valueMax = *cf.ValueMax
	}
	if c.valueMin > c.valueMax {
		return nil, fmt.Errorf("catalog %s: value_min %g > value_max %g", path, c.valueMin, c.valueMax)
	}
	return c, nil
}

// StationName resolves a short id; ids missing from the directory name themselves.
func (c *Catalog) StationName(id string) string {
	if name, ok := c.stations[id]; ok {
		return name
	}
	return id
}

func (c *Catalog) KnownStation(id string) bool {
	_, ok := c.stations[id]
	return ok
}

// StationEntry describes one directory station for the dashboard intro.
type StationEntry struct {
	Code string
	Name string
	Area string
	Note string
}

// Directory lists the known stations ordered by code.
func (c *Catalog) Directory() []StationEntry {
	codes := slices.Sorted(maps.Keys(c.stations))
	out := make([]StationEntry, 0, len(codes))
	for _, code := range codes {
		name := c.stations[code]
		out = append(out, StationEntry{
			Code: code,
			Name: name,
			Area: stationArea(name),
			Note: c.notes[code],
		})
	}
	return out
}

// stationArea extracts the area type from a display name: the last
// comma-separated part of its trailing parenthetical, as in
// "Nansenstraße (Neukölln, городской фон)".
func stationArea(name string) string {
	open := strings.LastIndex(name, "(")
	if open < 0 || !strings.HasSuffix(name, ")") {
		return ""
	}
	inner := name[open+1 : len(name)-1]
	if i := strings.LastIndex(inner, ","); i >= 0 {
		inner = inner[i+1:]
	}
	return strings.TrimSpace(inner)
}

func (c *Catalog) PollutantName(code string) (string, bool) {
	name, ok := c.pollutants[code]
	return name, ok
}

// PollutantLabel is the selector label "<code> – <name>".
func (c *Catalog) PollutantLabel(code string) string {
	name, ok := c.pollutants[code]
	if !ok {
		name = unknownPollutant
	}
	return code + " – " + name
}

// PollutantTitle is the pollutant's name, or its code when unknown.
func (c *Catalog) PollutantTitle(code string) string {
	if name, ok := c.pollutants[code]; ok {
		return name
	}
	return code
}

// Plausible reports whether v lies within the inclusive value bounds.
func (c *Catalog) Plausible(v float64) bool {
	return v >= c.valueMin && v <= c.valueMax
}

func (c *Catalog) Bounds() (min, max float64) {
	return c.valueMin, c.valueMax
}
