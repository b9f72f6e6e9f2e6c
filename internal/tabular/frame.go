// Package tabular holds schema-less tables loaded from parquet, CSV and Excel
// files. Cells keep the type the source gave them (nil, string, float64,
// int64, bool or time.Time); conversion happens in the consumer.
package tabular

// Frame is a row-major table.
type Frame struct {
	Columns []string
	Rows    [][]any
}

func New(columns []string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Index returns the position of the named column, or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (f *Frame) Has(name string) bool {
	return f.Index(name) >= 0
}

// Cell returns the value at row/column name, nil when the column is absent.
func (f *Frame) Cell(row int, name string) any {
	i := f.Index(name)
	if i < 0 || i >= len(f.Rows[row]) {
		return nil
	}
	return f.Rows[row][i]
}

// Append adds a row, padding or truncating it to the column count.
func (f *Frame) Append(row []any) {
	out := make([]any, len(f.Columns))
	copy(out, row)
	f.Rows = append(f.Rows, out)
}

// SetColumn sets every row of the named column to v, adding the column when missing.
func (f *Frame) SetColumn(name string, v any) {
	i := f.Index(name)
	if i < 0 {
		f.Columns = append(f.Columns, name)
		i = len(f.Columns) - 1
	}
	for r := range f.Rows {
		for len(f.Rows[r]) <= i {
			f.Rows[r] = append(f.Rows[r], nil)
		}
		f.Rows[r][i] = v
	}
}

// Rename applies old→new column renames. Names missing from the frame are ignored.
func (f *Frame) Rename(mapping map[string]string) {
	for i, c := range f.Columns {
		if to, ok := mapping[c]; ok {
			f.Columns[i] = to
		}
	}
}

// Concat stacks frames vertically. The result holds the union of columns in
// first-seen order; cells a frame does not have are nil.
func Concat(frames ...*Frame) *Frame {
	out := &Frame{}
	pos := make(map[string]int)
	total := 0
	for _, f := range frames {
		if f == nil {
			continue
		}
		for _, c := range f.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
		total += len(f.Rows)
	}

	out.Rows = make([][]any, 0, total)
	for _, f := range frames {
		if f == nil {
			continue
		}
		for _, row := range f.Rows {
			dst := make([]any, len(out.Columns))
			for i, c := range f.Columns {
				if i < len(row) {
					dst[pos[c]] = row[i]
				}
			}
			out.Rows = append(out.Rows, dst)
		}
	}
	return out
}
