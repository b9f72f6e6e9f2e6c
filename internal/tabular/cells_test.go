package tabular

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{"6001", "6001", true},
		{6001.0, "6001", true},
		{12.5, "12.5", true},
		{int64(42), "42", true},
		{true, "true", true},
		{nil, "", false},
		{math.NaN(), "", false},
		{[]byte("x"), "", false},
	}
	for _, tt := range tests {
		got, ok := AsString(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{12.5, 12.5, true},
		{int64(3), 3, true},
		{" 7.25 ", 7.25, true},
		{"-1", -1, true},
		{"n/a", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{math.NaN(), 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := AsFloat(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}
}

func TestAsInt(t *testing.T) {
	v, ok := AsInt(int64(2023))
	assert.True(t, ok)
	assert.Equal(t, int64(2023), v)

	v, ok = AsInt("12")
	assert.True(t, ok)
	assert.Equal(t, int64(12), v)

	_, ok = AsInt(1.5)
	assert.False(t, ok)
}

func TestAsTime(t *testing.T) {
	want := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []any{
		"2023-01-02",
		"2023-01-02 00:00:00",
		"2023-01-02T00:00:00Z",
		"2023-01-02T01:00:00+01:00",
		"02.01.2023",
		want,
	} {
		got, ok := AsTime(in)
		if assert.True(t, ok, "%#v", in) {
			assert.True(t, want.Equal(got), "%#v parsed as %s", in, got)
		}
	}

	for _, in := range []any{"yesterday", "", nil, time.Time{}, 12.0} {
		_, ok := AsTime(in)
		assert.False(t, ok, "%#v", in)
	}
}
