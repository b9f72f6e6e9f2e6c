package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported table format")

var readers = map[string]func(string) (*Frame, error){
	".parquet": ReadParquet,
	".csv":     ReadCSV,
	".xlsx":    ReadXLSX,
}

// IsTableFile reports whether Read knows the file's extension.
func IsTableFile(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Read loads a table file, choosing the reader by extension.
func Read(path string) (*Frame, error) {
	ext := strings.ToLower(filepath.Ext(path))
	read, ok := readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return read(path)
}
