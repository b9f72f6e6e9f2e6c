package service

import (
	"errors"

	"berlin-airquality/internal/dataset"
)

var (
	// ErrDatasetUnavailable means the dataset file is missing or unreadable.
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	// ErrMissingColumns means the dataset file lacks required columns.
	ErrMissingColumns = dataset.ErrMissingColumns
	ErrNoStations     = errors.New("no stations found in dataset")
	ErrInvalidFilter  = errors.New("invalid filter")
)
