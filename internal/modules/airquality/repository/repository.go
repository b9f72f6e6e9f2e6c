package repository

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/modules/airquality/types"
)

//go:embed sql/delete-measurements.sql
var deleteMeasurementsSQL string

//go:embed sql/insert-measurement.sql
var insertMeasurementSQL string

//go:embed sql/upsert-snapshot.sql
var upsertSnapshotSQL string

//go:embed sql/get-snapshot.sql
var getSnapshotSQL string

//go:embed sql/get-pollutants.sql
var getPollutantsSQL string

//go:embed sql/get-station-names.sql
var getStationNamesSQL string

//go:embed sql/get-date-bounds.sql
var getDateBoundsSQL string

//go:embed sql/get-filtered-values.sql
var getFilteredValuesSQL string

//go:embed sql/get-daily-means.sql
var getDailyMeansSQL string

//go:embed sql/get-station-means.sql
var getStationMeansSQL string

//go:embed sql/get-station-date-means.sql
var getStationDateMeansSQL string

//go:embed sql/get-records.sql
var getRecordsSQL string

//go:embed sql/get-records-count.sql
var getRecordsCountSQL string

// AirQualityRepository is the dashboard's query store. It mirrors one dataset
// file at a time; ReplaceDataset swaps the whole content atomically.
type AirQualityRepository interface {
	ReplaceDataset(records []dataset.Record, snap types.Snapshot) error
	GetSnapshot() (*types.Snapshot, error)
	GetPollutants() ([]string, error)
	GetStationNames() ([]string, error)
	GetDateBounds() (min dataset.Date, max dataset.Date, ok bool, err error)
	GetFilteredValues(f types.Filter) ([]float64, error)
	GetDailyMeans(f types.Filter) ([]types.DailyMean, error)
	GetStationMeans(f types.Filter) ([]types.StationMean, error)
	GetStationDateMeans(f types.Filter) ([]types.StationDateMean, error)
	GetRecords(f types.Filter, limit int, offset int) ([]dataset.Record, error)
	GetRecordsCount(f types.Filter) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) AirQualityRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ReplaceDataset(records []dataset.Record, snap types.Snapshot) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(deleteMeasurementsSQL); err != nil {
		return fmt.Errorf("clear measurements: %w", err)
	}

	stmt, err := tx.Prepare(insertMeasurementSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("close insert statement", "error", err)
		}
	}()

	for i, rec := range records {
		_, err := stmt.Exec(
			rec.Station, rec.Pollutant, rec.Value, rec.Date.String(), rec.Year, rec.Month,
			nullString(rec.StationID), nullString(rec.StationName), nullString(rec.SourceFile),
		)
		if err != nil {
			return fmt.Errorf("insert measurement %d: %w", i, err)
		}
	}

	_, err = tx.Exec(upsertSnapshotSQL,
		snap.Path,
		snap.ModTime.UTC().Format(time.RFC3339Nano),
		snap.Size,
		snap.Rows,
		snap.Skipped,
		snap.LoadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return tx.Commit()
}

// GetSnapshot returns nil, nil when no dataset has been loaded yet.
func (r *repositoryImpl) GetSnapshot() (*types.Snapshot, error) {
	var (
		s                 types.Snapshot
		modTime, loadedAt string
	)
	err := r.db.QueryRow(getSnapshotSQL).Scan(&s.Path, &modTime, &s.Size, &s.Rows, &s.Skipped, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.ModTime, err = time.Parse(time.RFC3339Nano, modTime); err != nil {
		return nil, fmt.Errorf("parse snapshot mod_time %q: %w", modTime, err)
	}
	if s.LoadedAt, err = time.Parse(time.RFC3339Nano, loadedAt); err != nil {
		return nil, fmt.Errorf("parse snapshot loaded_at %q: %w", loadedAt, err)
	}
	return &s, nil
}

func (r *repositoryImpl) GetPollutants() ([]string, error) {
	return r.queryStrings(getPollutantsSQL, "pollutants")
}

func (r *repositoryImpl) GetStationNames() ([]string, error) {
	return r.queryStrings(getStationNamesSQL, "station names")
}

func (r *repositoryImpl) queryStrings(query, what string) ([]string, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close "+what+" rows", "error", err)
		}
	}()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetDateBounds reports ok=false for an empty store.
func (r *repositoryImpl) GetDateBounds() (dataset.Date, dataset.Date, bool, error) {
	var lo, hi sql.NullString
	if err := r.db.QueryRow(getDateBoundsSQL).Scan(&lo, &hi); err != nil {
		return dataset.Date{}, dataset.Date{}, false, err
	}
	if !lo.Valid || !hi.Valid {
		return dataset.Date{}, dataset.Date{}, false, nil
	}
	min, err := dataset.ParseDate(lo.String)
	if err != nil {
		return dataset.Date{}, dataset.Date{}, false, err
	}
	max, err := dataset.ParseDate(hi.String)
	if err != nil {
		return dataset.Date{}, dataset.Date{}, false, err
	}
	return min, max, true, nil
}

func (r *repositoryImpl) GetFilteredValues(f types.Filter) ([]float64, error) {
	args, err := filterArgs(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(getFilteredValuesSQL, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close filtered values rows", "error", err)
		}
	}()
	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetDailyMeans(f types.Filter) ([]types.DailyMean, error) {
	args, err := filterArgs(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(getDailyMeansSQL, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close daily means rows", "error", err)
		}
	}()
	var out []types.DailyMean
	for rows.Next() {
		var (
			d    types.DailyMean
			date string
		)
		if err := rows.Scan(&date, &d.Mean); err != nil {
			return nil, err
		}
		if d.Date, err = dataset.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetStationMeans(f types.Filter) ([]types.StationMean, error) {
	args, err := filterArgs(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(getStationMeansSQL, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close station means rows", "error", err)
		}
	}()
	var out []types.StationMean
	for rows.Next() {
		var s types.StationMean
		if err := rows.Scan(&s.StationName, &s.Mean); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetStationDateMeans(f types.Filter) ([]types.StationDateMean, error) {
	args, err := filterArgs(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(getStationDateMeansSQL, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close station date means rows", "error", err)
		}
	}()
	var out []types.StationDateMean
	for rows.Next() {
		var (
			c    types.StationDateMean
			date string
		)
		if err := rows.Scan(&c.StationName, &date, &c.Mean); err != nil {
			return nil, err
		}
		if c.Date, err = dataset.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetRecords(f types.Filter, limit int, offset int) ([]dataset.Record, error) {
	args, err := filterArgs(f)
	if err != nil {
		return nil, err
	}
	args = append(args, sql.Named("limit", limit), sql.Named("offset", offset))
	rows, err := r.db.Query(getRecordsSQL, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close records rows", "error", err)
		}
	}()
	var out []dataset.Record
	for rows.Next() {
		var (
			rec                  dataset.Record
			date                 string
			id, name, sourceFile sql.NullString
		)
		err := rows.Scan(&rec.Station, &rec.Pollutant, &rec.Value, &date, &rec.Year, &rec.Month, &id, &name, &sourceFile)
		if err != nil {
			return nil, err
		}
		if rec.Date, err = dataset.ParseDate(date); err != nil {
			return nil, err
		}
		rec.StationID, rec.StationName, rec.SourceFile = id.String, name.String, sourceFile.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetRecordsCount(f types.Filter) (int, error) {
	args, err := filterArgs(f)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRow(getRecordsCountSQL, args...).Scan(&n)
	return n, err
}

// filterArgs binds a filter to the named parameters shared by the filtered
// queries. The station list travels as a JSON array for json_each.
func filterArgs(f types.Filter) ([]any, error) {
	stations := f.Stations
	if stations == nil {
		stations = []string{}
	}
	encoded, err := json.Marshal(stations)
	if err != nil {
		return nil, fmt.Errorf("encode stations: %w", err)
	}
	all := 0
	if f.AllStations {
		all = 1
	}
	return []any{
		sql.Named("pollutant", f.Pollutant),
		sql.Named("all_stations", all),
		sql.Named("stations", string(encoded)),
		sql.Named("from", f.From.String()),
		sql.Named("to", f.To.String()),
	}, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
