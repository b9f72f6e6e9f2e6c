package tabular

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ReadParquet loads a parquet file of any schema.
func ReadParquet(path string) (*Frame, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer func() { _ = rdr.Close() }()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("parquet reader %s: %w", path, err)
	}
	tbl, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	defer tbl.Release()

	return frameFromTable(tbl)
}

func frameFromTable(tbl arrow.Table) (*Frame, error) {
	nrows := int(tbl.NumRows())
	ncols := int(tbl.NumCols())

	f := &Frame{Columns: make([]string, ncols), Rows: make([][]any, nrows)}
	for r := range f.Rows {
		f.Rows[r] = make([]any, ncols)
	}

	for c := 0; c < ncols; c++ {
		col := tbl.Column(c)
		f.Columns[c] = col.Name()
		r := 0
		for _, chunk := range col.Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				if r >= nrows {
					return nil, fmt.Errorf("column %q has more values than the table has rows", col.Name())
				}
				f.Rows[r][c] = arrowValue(chunk, i)
				r++
			}
		}
	}
	return f, nil
}

func arrowValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Boolean:
		return a.Value(i)
	case *array.Timestamp:
		typ := a.DataType().(*arrow.TimestampType)
		ts := a.Value(i).ToTime(typ.Unit)
		if typ.TimeZone != "" {
			if loc, err := time.LoadLocation(typ.TimeZone); err == nil {
				ts = ts.In(loc)
			}
		}
		return ts
	case *array.Date32:
		return a.Value(i).ToTime()
	case *array.Date64:
		return a.Value(i).ToTime()
	case *array.Dictionary:
		return arrowValue(a.Dictionary(), a.GetValueIndex(i))
	default:
		return arr.ValueStr(i)
	}
}
