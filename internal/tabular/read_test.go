package tabular

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV_delimiters(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "comma", body: "Samplingpoint,Value,Start\nDE_DEBE010,12.5,2023-01-01\n"},
		{name: "semicolon", body: "Samplingpoint;Value;Start\nDE_DEBE010;12.5;2023-01-01\n"},
		{name: "tab", body: "Samplingpoint\tValue\tStart\nDE_DEBE010\t12.5\t2023-01-01\n"},
		{name: "bom", body: "\ufeffSamplingpoint,Value,Start\r\nDE_DEBE010,12.5,2023-01-01\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "t.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			f, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"Samplingpoint", "Value", "Start"}, f.Columns)
			require.Equal(t, 1, f.Len())
			assert.Equal(t, "DE_DEBE010", f.Cell(0, "Samplingpoint"))
			assert.Equal(t, "12.5", f.Cell(0, "Value"))
		})
	}
}

func TestReadCSV_emptyCellsAreNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n,x\ny\n"), 0o644))

	f, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{nil, "x"}, {"y", nil}}, f.Rows)
}

func TestReadCSV_noHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := ReadCSV(path)
	assert.ErrorContains(t, err, "missing header")
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.xlsx")
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"Samplingpoint", "Pollutant", "Value", "Start"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{"DE_DEBE010_PM2", 6001, 12.5, start}))
	require.NoError(t, wb.SetSheetRow(sheet, "A4", &[]any{"DE_DEBE034_PM2", 6001, nil, 44928.5}))
	custom := "dd.mm.yyyy hh:mm"
	style, err := wb.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	require.NoError(t, wb.SetCellStyle(sheet, "D4", "D4", style))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	f, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Samplingpoint", "Pollutant", "Value", "Start"}, f.Columns)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "6001", f.Cell(0, "Pollutant"))
	assert.Equal(t, "12.5", f.Cell(0, "Value"))
	assert.Equal(t, "DE_DEBE034_PM2", f.Cell(1, "Samplingpoint"))
	assert.Nil(t, f.Cell(1, "Value"))

	ts, ok := AsTime(f.Cell(0, "Start"))
	require.True(t, ok, "date cell read as %#v", f.Cell(0, "Start"))
	assert.WithinDuration(t, start, ts, time.Second)

	ts, ok = AsTime(f.Cell(1, "Start"))
	require.True(t, ok, "custom date cell read as %#v", f.Cell(1, "Start"))
	assert.WithinDuration(t, start.Add(12*time.Hour), ts, time.Second)
}

func TestIsDateFormat(t *testing.T) {
	code := func(s string) *string { return &s }
	tests := []struct {
		style excelize.Style
		want  bool
	}{
		{excelize.Style{NumFmt: 14}, true},
		{excelize.Style{NumFmt: 22}, true},
		{excelize.Style{NumFmt: 2}, false},
		{excelize.Style{CustomNumFmt: code("yyyy-mm-dd")}, true},
		{excelize.Style{CustomNumFmt: code("0.00")}, false},
		{excelize.Style{CustomNumFmt: code(`0.0 "days"`)}, false},
		{excelize.Style{CustomNumFmt: code("[Red]0.0")}, false},
	}
	for _, tt := range tests {
		if got := isDateFormat(&tt.style); got != tt.want {
			t.Errorf("isDateFormat(%d, %v) = %v; want %v", tt.style.NumFmt, tt.style.CustomNumFmt, got, tt.want)
		}
	}
}

func TestReadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.parquet")
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	writeTestParquet(t, path, start)

	f, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Samplingpoint", "Pollutant", "Value", "Start"}, f.Columns)
	require.Equal(t, 2, f.Len())

	assert.Equal(t, "DE/SPO.DE_DEBE010_PM2_dataGroup2", f.Cell(0, "Samplingpoint"))
	assert.Equal(t, int64(6001), f.Cell(0, "Pollutant"))
	assert.Equal(t, 12.5, f.Cell(0, "Value"))
	assert.Nil(t, f.Cell(1, "Value"))

	ts, ok := AsTime(f.Cell(1, "Start"))
	require.True(t, ok)
	assert.True(t, start.Add(24*time.Hour).Equal(ts))
}

func TestRead_unsupported(t *testing.T) {
	_, err := Read("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, IsTableFile("notes.txt"))
	assert.True(t, IsTableFile("a/B.PARQUET"))
	assert.True(t, IsTableFile("x.xlsx"))
}

func writeTestParquet(t *testing.T, path string, start time.Time) {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "Samplingpoint", Type: arrow.BinaryTypes.String},
		{Name: "Pollutant", Type: arrow.PrimitiveTypes.Int64},
		{Name: "Value", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "Start", Type: &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}},
	}, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{
		"DE/SPO.DE_DEBE010_PM2_dataGroup2",
		"DE/SPO.DE_DEBE034_PM2_dataGroup2",
	}, nil)
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{6001, 6001}, nil)
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{12.5, 0}, []bool{true, false})
	b.Field(3).(*array.TimestampBuilder).AppendValues([]arrow.Timestamp{
		arrow.Timestamp(start.UnixMilli()),
		arrow.Timestamp(start.Add(24 * time.Hour).UnixMilli()),
	}, nil)

	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	fh, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, pqarrow.WriteTable(tbl, fh, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()))
	_ = fh.Close()
}
