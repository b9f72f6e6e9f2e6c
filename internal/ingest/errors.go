package ingest

import (
	"errors"

	"berlin-airquality/internal/dataset"
)

var (
	ErrArchive         = errors.New("cannot read archive")
	ErrUnsafeEntry     = errors.New("archive entry escapes target directory")
	ErrNoReadableFiles = errors.New("no table file could be read")
	ErrMissingColumns  = dataset.ErrMissingColumns
)
