package dataset

import "regexp"

// A short station id is "DE", a two-letter region and three digits, set off
// from the rest of the sampling-point code by a separator or the string edge:
// "DE/SPO.DE_DEBE010_PM2_dataGroup2" and "SPO.DEBE010" both carry DEBE010.
var stationIDPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9])(DE[A-Z]{2}[0-9]{3})(?:[^A-Za-z0-9]|$)`)

// ExtractStationID returns the short station id embedded in a sampling-point
// code, exactly as it appears in the code.
func ExtractStationID(code string) (string, bool) {
	m := stationIDPattern.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Identify fills StationID and StationName from the raw station code when
// they are empty. Unknown ids keep the id as their name.
func Identify(r *Record, c *Catalog) {
	if r.StationID == "" {
		r.StationID, _ = ExtractStationID(r.Station)
	}
	if r.StationName == "" && r.StationID != "" {
		r.StationName = c.StationName(r.StationID)
	}
}
