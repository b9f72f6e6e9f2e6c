package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jszwec/csvutil"
)

// WriteCSV replaces the file at path with records as comma separated text.
// The header is written even when records is empty.
func WriteCSV(path string, records []Record) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(Record{}); err != nil {
		return fmt.Errorf("encode csv header: %w", err)
	}
	if len(records) > 0 {
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// ReadCSV loads a dataset written by WriteCSV.
func ReadCSV(path string) ([]Record, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer func() { _ = fh.Close() }()

	dec, err := csvutil.NewDecoder(csv.NewReader(fh))
	if err != nil {
		return nil, fmt.Errorf("csv decoder %s: %w", path, err)
	}
	if err := CheckColumns(dec.Header(), RequiredColumns); err != nil {
		return nil, err
	}

	var out []Record
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode csv %s: %w", path, err)
	}
	return out, nil
}
