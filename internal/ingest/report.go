package ingest

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Report describes one ingestion run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	FilesFound  int
	FilesLoaded int
	FailedFiles []string

	ColumnsBefore []string
	ColumnsAfter  []string
	Renamed       map[string]string

	RowsBefore        int
	RowsAfter         int
	Dropped           map[DropReason]int
	UnmatchedStations []string

	ParquetPath string
	CSVPath     string
}

func newReport(now time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Dropped:   make(map[DropReason]int),
	}
}

// Log writes the run summary at info level.
func (r *Report) Log(logger *slog.Logger) {
	logger.Info("ingest files",
		"run_id", r.RunID,
		"found", r.FilesFound,
		"loaded", r.FilesLoaded,
		"failed", len(r.FailedFiles),
	)
	logger.Info("ingest columns",
		"run_id", r.RunID,
		"before", r.ColumnsBefore,
		"after", r.ColumnsAfter,
	)
	logger.Info("ingest rows",
		"run_id", r.RunID,
		"before", r.RowsBefore,
		"after", r.RowsAfter,
		"missing_value", r.Dropped[DropMissingValue],
		"below_min", r.Dropped[DropBelowMin],
		"above_max", r.Dropped[DropAboveMax],
		"missing_date", r.Dropped[DropMissingDate],
	)
	if len(r.UnmatchedStations) > 0 {
		logger.Warn("station codes without a short id",
			"run_id", r.RunID,
			"count", len(r.UnmatchedStations),
			"codes", r.UnmatchedStations,
		)
	}
	logger.Info("dataset written",
		"run_id", r.RunID,
		"parquet", r.ParquetPath,
		"csv", r.CSVPath,
		"rows", r.RowsAfter,
		"duration", r.FinishedAt.Sub(r.StartedAt),
	)
}
