package service

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/migrate"
	"berlin-airquality/internal/modules/airquality/repository"

	_ "github.com/mattn/go-sqlite3"
)

const (
	wedding   = "Amrumer Straße (Wedding, городской фон)"
	neukoelln = "Nansenstraße (Neukölln, городской фон)"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRepo(t *testing.T) repository.AirQualityRepository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrate.Run(db, discardLogger()))
	return repository.NewRepository(db)
}

type row struct {
	station   string
	pollutant string
	date      string
	value     float64
}

// records builds dataset rows without station_id and station_name so that
// loading has to derive them.
func records(t *testing.T, rows ...row) []dataset.Record {
	t.Helper()
	out := make([]dataset.Record, 0, len(rows))
	for _, r := range rows {
		d, err := dataset.ParseDate(r.date)
		require.NoError(t, err)
		out = append(out, dataset.Record{
			Station:    r.station,
			Pollutant:  r.pollutant,
			Value:      r.value,
			Date:       d,
			Year:       d.Year(),
			Month:      int(d.Month()),
			SourceFile: "part.parquet",
		})
	}
	return out
}

func sampleRows() []row {
	return []row{
		{"DE/SPO.DE_DEBE010_PM2_dataGroup2", "6001", "2024-01-01", 10},
		{"DE/SPO.DE_DEBE010_PM2_dataGroup2", "6001", "2024-01-01", 20},
		{"DE/SPO.DE_DEBE010_PM2_dataGroup2", "6001", "2024-01-02", 30},
		{"DE/SPO.DE_DEBE034_PM2_dataGroup2", "6001", "2024-01-02", 50},
		{"DE/SPO.DE_DEBE034_PM2_dataGroup2", "6001", "2024-01-03", 70},
		{"DE/SPO.DE_DEBE010_PM2_dataGroup2", "6001", "2024-01-03", 600},
		{"DE/SPO.DE_DEBE034_NO2_dataGroup1", "7", "2024-01-01", 12},
	}
}

func writeDataset(t *testing.T, path string, rows ...row) {
	t.Helper()
	require.NoError(t, dataset.WriteParquet(path, records(t, rows...)))
}

type fixture struct {
	path    string
	repo    repository.AirQualityRepository
	loader  *Loader
	service *Service
	reads   int
}

func newFixture(t *testing.T, catalog *dataset.Catalog, rows ...row) *fixture {
	t.Helper()
	if catalog == nil {
		catalog = dataset.DefaultCatalog()
	}
	f := &fixture{path: filepath.Join(t.TempDir(), "data_combined.parquet"), repo: newRepo(t)}
	writeDataset(t, f.path, rows...)
	f.loader = NewLoader(f.path, f.repo, catalog, discardLogger())
	f.loader.read = func(p string) ([]dataset.Record, int, error) {
		f.reads++
		return dataset.ReadParquet(p)
	}
	f.service = NewService(f.loader, f.repo, catalog, discardLogger())
	return f
}
