package dataset

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"berlin-airquality/internal/tabular"
)

var parquetSchema = arrow.NewSchema([]arrow.Field{
	{Name: ColStation, Type: arrow.BinaryTypes.String},
	{Name: ColPollutant, Type: arrow.BinaryTypes.String},
	{Name: ColValue, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColDate, Type: arrow.FixedWidthTypes.Date32},
	{Name: ColYear, Type: arrow.PrimitiveTypes.Int32},
	{Name: ColMonth, Type: arrow.PrimitiveTypes.Int32},
	{Name: ColStationID, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColStationName, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColSourceFile, Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// WriteParquet replaces the file at path with records encoded as snappy
// compressed parquet. Empty station ids, names and source files are written
// as nulls.
func WriteParquet(path string, records []Record) error {
	b := array.NewRecordBuilder(memory.NewGoAllocator(), parquetSchema)
	defer b.Release()

	station := b.Field(0).(*array.StringBuilder)
	pollutant := b.Field(1).(*array.StringBuilder)
	value := b.Field(2).(*array.Float64Builder)
	date := b.Field(3).(*array.Date32Builder)
	year := b.Field(4).(*array.Int32Builder)
	month := b.Field(5).(*array.Int32Builder)
	stationID := b.Field(6).(*array.StringBuilder)
	stationName := b.Field(7).(*array.StringBuilder)
	sourceFile := b.Field(8).(*array.StringBuilder)

	for _, r := range records {
		station.Append(r.Station)
		pollutant.Append(r.Pollutant)
		value.Append(r.Value)
		date.Append(arrow.Date32FromTime(r.Date.Time))
		year.Append(int32(r.Year))
		month.Append(int32(r.Month))
		appendNullable(stationID, r.StationID)
		appendNullable(stationName, r.StationName)
		appendNullable(sourceFile, r.SourceFile)
	}

	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(parquetSchema, &buf, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

func appendNullable(b *array.StringBuilder, s string) {
	if s == "" {
		b.AppendNull()
		return
	}
	b.Append(s)
}

// ReadParquet loads a dataset file. Rows without a usable value or date are
// skipped and counted in the second return value.
func ReadParquet(path string) ([]Record, int, error) {
	f, err := tabular.ReadParquet(path)
	if err != nil {
		return nil, 0, err
	}
	return FromFrame(f)
}

// FromFrame converts a loaded table with dataset columns into records.
func FromFrame(f *tabular.Frame) ([]Record, int, error) {
	if err := CheckColumns(f.Columns, RequiredColumns); err != nil {
		return nil, 0, err
	}

	out := make([]Record, 0, f.Len())
	skipped := 0
	for i := range f.Rows {
		v, ok := tabular.AsFloat(f.Cell(i, ColValue))
		if !ok {
			skipped++
			continue
		}
		ts, ok := tabular.AsTime(f.Cell(i, ColDate))
		if !ok {
			skipped++
			continue
		}
		rec := Record{Value: v, Date: DateOf(ts)}
		rec.Station, _ = tabular.AsString(f.Cell(i, ColStation))
		rec.Pollutant, _ = tabular.AsString(f.Cell(i, ColPollutant))
		rec.StationID, _ = tabular.AsString(f.Cell(i, ColStationID))
		rec.StationName, _ = tabular.AsString(f.Cell(i, ColStationName))
		rec.SourceFile, _ = tabular.AsString(f.Cell(i, ColSourceFile))

		if y, ok := tabular.AsInt(f.Cell(i, ColYear)); ok {
			rec.Year = int(y)
		} else {
			rec.Year = rec.Date.Year()
		}
		if m, ok := tabular.AsInt(f.Cell(i, ColMonth)); ok {
			rec.Month = int(m)
		} else {
			rec.Month = int(rec.Date.Month())
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}
