package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV loads a CSV file whose first record is the header. The delimiter
// is sniffed from the header line (comma, semicolon or tab). Empty cells
// become nil; everything else stays text.
func ReadCSV(path string) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer func() { _ = fh.Close() }()

	br := bufio.NewReader(fh)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	r := csv.NewReader(br)
	r.Comma = sniffDelimiter(string(head))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv %s: missing header", path)
		}
		return nil, fmt.Errorf("csv %s header: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	f := New(header)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv %s: %w", path, err)
		}
		row := make([]any, len(rec))
		for i, s := range rec {
			if s == "" {
				continue
			}
			row[i] = s
		}
		f.Append(row)
	}
	return f, nil
}

func sniffDelimiter(head string) rune {
	line, _, _ := strings.Cut(head, "\n")
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
