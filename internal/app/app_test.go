package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"berlin-airquality/internal/config"
	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/db"
	"berlin-airquality/internal/httpapi"
	"berlin-airquality/internal/ingest"
	"berlin-airquality/internal/migrate"
	"berlin-airquality/internal/modules/airquality"
	"berlin-airquality/internal/modules/airquality/types"
)

const sample = "Samplingpoint,Pollutant,Start,End,Value,Unit\n" +
	"DE/SPO.DE_DEBE010_PM2_dataGroup2,6001,2024-01-01 00:00:00,2024-01-02 00:00:00,12,ug.m-3\n" +
	"DE/SPO.DE_DEBE010_PM2_dataGroup2,6001,2024-01-02 00:00:00,2024-01-03 00:00:00,18,ug.m-3\n" +
	"DE/SPO.DE_DEBE034_PM2_dataGroup2,6001,2024-01-01 00:00:00,2024-01-02 00:00:00,30,ug.m-3\n" +
	"DE/SPO.DE_DEBE034_PM2_dataGroup2,6001,2024-01-02 00:00:00,2024-01-03 00:00:00,999,ug.m-3\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	fh, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(fh)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, fh.Close())
}

func testConfig(dir string) config.Config {
	return config.Config{
		AppEnv:             "dev",
		ArchivePath:        filepath.Join(dir, "ParquetFiles.zip"),
		RawDir:             filepath.Join(dir, "data_raw"),
		OutputParquet:      filepath.Join(dir, "data_combined.parquet"),
		OutputCSV:          filepath.Join(dir, "data_combined.csv"),
		DatasetPath:        filepath.Join(dir, "data_combined.parquet"),
		SQLiteDriver:       "sqlite3",
		SQLitePath:         filepath.Join(dir, "dashboard.db"),
		SQLiteMaxOpenConns: 1,
		SQLiteMaxIdleConns: 1,
	}
}

func TestRunIngest_missingArchive(t *testing.T) {
	cfg := testConfig(t.TempDir())
	_, err := RunIngest(context.Background(), cfg, discardLogger())
	assert.True(t, errors.Is(err, ingest.ErrArchive), "err = %v", err)
}

func TestRunIngest_badCatalog(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := RunIngest(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

// The dashboard serves what ingestion wrote.
func TestIngestThenDashboard(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeArchive(t, cfg.ArchivePath, map[string]string{"E1a/berlin.csv": sample})

	rep, err := RunIngest(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.RowsAfter)

	conn, err := db.Open(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, migrate.Run(conn, discardLogger()))

	mux := httpapi.NewMux(conn)
	svc := airquality.RegisterFeature(mux, conn, nil, cfg.DatasetPath, dataset.DefaultCatalog(), discardLogger())
	httpapi.RegisterReadiness(mux, conn, svc)
	ts := httptest.NewServer(httpapi.NewServer(cfg, mux, nil).Handler)
	t.Cleanup(ts.Close)

	resp, err := ts.Client().Get(ts.URL + "/api/v1/view")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view types.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.NotNil(t, view.Summary)
	assert.Equal(t, 3, view.Summary.Count)
	assert.InDelta(t, 20, view.Summary.Mean, 1e-9)
	assert.Len(t, view.Ranking, 2)
	assert.Equal(t, "Nansenstraße (Neukölln, городской фон)", view.Ranking[0].StationName)

	empty, err := ts.Client().Get(ts.URL + "/api/v1/view?from=2030-01-01&to=2030-01-02")
	require.NoError(t, err)
	defer func() { _ = empty.Body.Close() }()
	var emptyView types.View
	require.NoError(t, json.NewDecoder(empty.Body).Decode(&emptyView))
	assert.True(t, emptyView.Empty)

	ready, err := ts.Client().Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer func() { _ = ready.Body.Close() }()
	assert.Equal(t, http.StatusOK, ready.StatusCode)
}

func TestDashboard_datasetMissing(t *testing.T) {
	cfg := testConfig(t.TempDir())
	conn, err := db.Open(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, migrate.Run(conn, discardLogger()))

	mux := httpapi.NewMux(conn)
	svc := airquality.RegisterFeature(mux, conn, nil, cfg.DatasetPath, dataset.DefaultCatalog(), discardLogger())
	httpapi.RegisterReadiness(mux, conn, svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/options", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
