package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads the first sheet of a workbook; its first row is the header.
// Cells are read unformatted; numeric cells styled as dates become time.Time.
func ReadXLSX(path string) (*Frame, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s: no sheets", path)
	}
	sheet := sheets[0]
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx %s sheet %q: %w", path, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("xlsx %s: missing header", path)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	dates := newDateCells(wb, sheet)
	f := New(header)
	for r, rec := range rows[1:] {
		row := make([]any, len(header))
		empty := true
		for i := 0; i < len(rec) && i < len(header); i++ {
			if rec[i] == "" {
				continue
			}
			row[i] = dates.value(i+1, r+2, rec[i])
			empty = false
		}
		if empty {
			continue
		}
		f.Append(row)
	}
	return f, nil
}

// dateCells converts date-styled serials, caching the verdict per style ID.
type dateCells struct {
	wb       *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateCells(wb *excelize.File, sheet string) *dateCells {
	d := &dateCells{wb: wb, sheet: sheet, styles: map[int]bool{}}
	if props, err := wb.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateCells) value(col, row int, raw string) any {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	id, err := d.wb.GetCellStyle(d.sheet, axis)
	if err != nil || !d.isDate(id) {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return raw
	}
	return t
}

func (d *dateCells) isDate(id int) bool {
	if id == 0 {
		return false
	}
	if v, ok := d.styles[id]; ok {
		return v
	}
	style, err := d.wb.GetStyle(id)
	v := err == nil && isDateFormat(style)
	d.styles[id] = v
	return v
}

// isDateFormat reports whether a number format renders a date or time:
// the built-in date IDs, or a custom code with date tokens outside quotes
// and brackets.
func isDateFormat(s *excelize.Style) bool {
	switch n := s.NumFmt; {
	case n >= 14 && n <= 22, n >= 27 && n <= 36, n >= 45 && n <= 47, n >= 50 && n <= 58:
		return true
	}
	if s.CustomNumFmt == nil {
		return false
	}
	var quoted, bracket bool
	for _, c := range strings.ToLower(*s.CustomNumFmt) {
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			bracket = true
		case c == ']':
			bracket = false
		case bracket:
		case c == 'y', c == 'd', c == 'h', c == 's':
			return true
		}
	}
	return false
}
