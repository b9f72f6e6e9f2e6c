package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, "Brückenstraße (Mitte, городской фон)", c.StationName("DEBE068"))
	assert.Equal(t, "DEBE999", c.StationName("DEBE999"))
	assert.Equal(t, "", c.StationName(""))
	assert.True(t, c.KnownStation("DEBE051"))
	assert.False(t, c.KnownStation("DEBE999"))

	name, ok := c.PollutantName("6001")
	assert.True(t, ok)
	assert.Equal(t, "PM2.5 (суточная концентрация)", name)
	assert.Equal(t, "6001 – PM2.5 (суточная концентрация)", c.PollutantLabel("6001"))
	assert.Equal(t, "7 – unknown pollutant", c.PollutantLabel("7"))
	assert.Equal(t, "7", c.PollutantTitle("7"))

	lo, hi := c.Bounds()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 500.0, hi)
}

func TestCatalog_Directory(t *testing.T) {
	dir := DefaultCatalog().Directory()
	require.Len(t, dir, 5)
	assert.Equal(t, StationEntry{
		Code: "DEBE010",
		Name: "Amrumer Straße (Wedding, городской фон)",
		Area: "городской фон",
		Note: "Жилой район на севере города, типичный городской фон.",
	}, dir[0])
	assert.Equal(t, "пригородный фон", dir[2].Area)
	assert.Equal(t, "транспортная станция", dir[3].Area)

	path := writeCatalog(t, "stations:\n  DEBE999: Teststraße\n")
	c, err := LoadCatalog(path)
	require.NoError(t, err)
	dir = c.Directory()
	require.Len(t, dir, 6)
	assert.Equal(t, StationEntry{Code: "DEBE999", Name: "Teststraße"}, dir[5])
}

func TestCatalog_Plausible(t *testing.T) {
	c := DefaultCatalog()
	tests := []struct {
		v    float64
		want bool
	}{
		{-0.1, false},
		{0, true},
		{12.5, true},
		{500, true},
		{500.01, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Plausible(tt.v), "value %g", tt.v)
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		c, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Equal(t, DefaultCatalog(), c)
	})

	t.Run("file overlays defaults", func(t *testing.T) {
		path := writeCatalog(t, `
stations:
  DEBE999: Teststraße
pollutants:
  "5": PM10
value_max: 300
`)
		c, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.Equal(t, "Teststraße", c.StationName("DEBE999"))
		assert.Equal(t, "Amrumer Straße (Wedding, городской фон)", c.StationName("DEBE010"))
		assert.Equal(t, "5 – PM10", c.PollutantLabel("5"))
		assert.True(t, c.Plausible(300))
		assert.False(t, c.Plausible(301))
		assert.True(t, c.Plausible(0))
	})

	t.Run("defaults are not shared", func(t *testing.T) {
		path := writeCatalog(t, "stations:\n  DEBE010: renamed\n")
		_, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.Equal(t, "Amrumer Straße (Wedding, городской фон)", DefaultCatalog().StationName("DEBE010"))
	})

	t.Run("inverted bounds", func(t *testing.T) {
		path := writeCatalog(t, "value_min: 10\nvalue_max: 5\n")
		_, err := LoadCatalog(path)
		assert.ErrorContains(t, err, "value_min")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeCatalog(t, "stations: [unterminated\n")
		_, err := LoadCatalog(path)
		assert.ErrorContains(t, err, "parse catalog")
	})
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
