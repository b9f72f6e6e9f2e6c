// Package ingest turns an archive of EEA measurement files into the combined
// dataset: extract, load, concatenate, normalize, clean, identify stations
// and write parquet and CSV.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"time"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/tabular"
)

type Options struct {
	ArchivePath string
	WorkDir     string
	ParquetPath string
	CSVPath     string
}

// Notifier announces a published dataset.
type Notifier interface {
	PublishNotice(ctx context.Context, notice dataset.Notice) error
}

type Pipeline struct {
	opts     Options
	catalog  *dataset.Catalog
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time
}

// NewPipeline builds a pipeline. notifier may be nil.
func NewPipeline(opts Options, catalog *dataset.Catalog, logger *slog.Logger, notifier Notifier) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:     opts,
		catalog:  catalog,
		logger:   logger,
		notifier: notifier,
		now:      time.Now,
	}
}

// Run executes one ingestion. Failing to read the archive, reading no file
// at all and missing required columns abort the run; a file that fails to
// load is skipped.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	rep := newReport(p.now())
	rep.ParquetPath = p.opts.ParquetPath
	rep.CSVPath = p.opts.CSVPath

	p.logger.Info("extracting archive", "run_id", rep.RunID, "archive", p.opts.ArchivePath, "dir", p.opts.WorkDir)
	if _, err := ExtractArchive(p.opts.ArchivePath, p.opts.WorkDir); err != nil {
		return rep, err
	}

	files, err := DiscoverTables(p.opts.WorkDir)
	if err != nil {
		return rep, err
	}
	rep.FilesFound = len(files)
	p.logger.Info("table files found", "run_id", rep.RunID, "count", len(files))

	frames := make([]*tabular.Frame, 0, len(files))
	seen := make(map[string]bool)
	rep.Renamed = make(map[string]string)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		f, err := tabular.Read(path)
		if err != nil {
			p.logger.Warn("failed to read table file", "run_id", rep.RunID, "path", path, "error", err)
			rep.FailedFiles = append(rep.FailedFiles, path)
			continue
		}
		f.SetColumn(dataset.ColSourceFile, filepath.Base(path))
		for _, c := range f.Columns {
			if !seen[c] {
				seen[c] = true
				rep.ColumnsBefore = append(rep.ColumnsBefore, c)
			}
		}

		renamed, conflicts := NormalizeColumns(f)
		maps.Copy(rep.Renamed, renamed)
		for _, c := range conflicts {
			p.logger.Warn("column not renamed, canonical name already taken", "run_id", rep.RunID, "path", path, "column", c)
		}
		frames = append(frames, f)
	}
	rep.FilesLoaded = len(frames)
	if len(frames) == 0 {
		return rep, fmt.Errorf("%w in %s (%d found)", ErrNoReadableFiles, p.opts.WorkDir, len(files))
	}

	data := tabular.Concat(frames...)
	rep.ColumnsAfter = append([]string(nil), data.Columns...)

	records, cleaning, err := BuildRecords(data, p.catalog)
	if err != nil {
		return rep, fmt.Errorf("combined table: %w", err)
	}
	rep.RowsBefore = cleaning.RowsIn
	rep.RowsAfter = cleaning.RowsOut
	rep.Dropped = cleaning.Dropped
	rep.UnmatchedStations = cleaning.Unmatched

	if err := dataset.WriteParquet(p.opts.ParquetPath, records); err != nil {
		return rep, err
	}
	if err := dataset.WriteCSV(p.opts.CSVPath, records); err != nil {
		return rep, err
	}
	rep.FinishedAt = p.now()
	rep.Log(p.logger)

	p.notify(ctx, rep)
	return rep, nil
}

func (p *Pipeline) notify(ctx context.Context, rep *Report) {
	if p.notifier == nil {
		return
	}
	notice := dataset.Notice{
		RunID:       rep.RunID,
		Path:        rep.ParquetPath,
		Rows:        rep.RowsAfter,
		Files:       rep.FilesLoaded,
		PublishedAt: rep.FinishedAt,
	}
	if err := p.notifier.PublishNotice(ctx, notice); err != nil {
		p.logger.Warn("failed to publish dataset notice", "run_id", rep.RunID, "error", err)
		return
	}
	p.logger.Debug("dataset notice published", "run_id", rep.RunID)
}
