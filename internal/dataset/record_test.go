package dataset

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_Text(t *testing.T) {
	d, err := ParseDate(" 2023-03-04 ")
	require.NoError(t, err)
	assert.Equal(t, "2023-03-04", d.String())

	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2023-03-04", string(b))

	var back Date
	require.NoError(t, back.UnmarshalText(b))
	assert.True(t, back.Equal(d.Time))

	require.NoError(t, back.UnmarshalText(nil))
	assert.True(t, back.IsZero())

	_, err = ParseDate("04.03.2023")
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")
}

func TestDate_JSON(t *testing.T) {
	type wrap struct {
		D Date `json:"d"`
	}
	b, err := json.Marshal(wrap{D: DateOf(time.Date(2023, 1, 2, 23, 30, 0, 0, time.UTC))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2023-01-02"}`, string(b))

	b, err = json.Marshal(wrap{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":null}`, string(b))

	var w wrap
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-02-29"}`), &w))
	assert.Equal(t, "2024-02-29", w.D.String())

	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &w))
	assert.True(t, w.D.IsZero())
}

func TestDateOf_keepsLocalCalendarDay(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	d := DateOf(time.Date(2023, 1, 2, 0, 30, 0, 0, berlin))
	assert.Equal(t, "2023-01-02", d.String())
	assert.Equal(t, time.UTC, d.Location())
}

func TestCheckColumns(t *testing.T) {
	assert.NoError(t, CheckColumns(Columns, RequiredColumns))

	err := CheckColumns([]string{"station", "value"}, RequiredColumns)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))

	var mce *MissingColumnsError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, []string{"pollutant", "date"}, mce.Columns)
	assert.Contains(t, err.Error(), "pollutant, date")
}
