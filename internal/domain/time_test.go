package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.February, 29), d)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []string{"", "2023-02-29", "29/02/2024", "2024-02-29T10:00:00Z"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		At Date `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2023-11-05"}`), &v))
	assert.Equal(t, NewDate(2023, time.November, 5), v.At)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2023-11-05"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"at":null}`), &v))
	assert.True(t, v.At.IsZero())

	out, err = json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"at":20231105}`), &v))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, time.May, 1, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2024, time.May, 1), d)

	require.NoError(t, d.Scan([]byte("2024-05-02T00:00:00Z")))
	assert.Equal(t, NewDate(2024, time.May, 2), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want TimeOfDay
	}{
		{in: "09:00", want: NewTimeOfDay(9, 0, 0)},
		{in: "18:30:15", want: NewTimeOfDay(18, 30, 15)},
		{in: "07:05:00.000000", want: NewTimeOfDay(7, 5, 0)},
		{in: "00:00", want: 0},
		{in: "23:59:59", want: NewTimeOfDay(23, 59, 59)},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "24:00", "9h", "12:60"} {
		_, err := ParseTimeOfDay(bad)
		assert.ErrorIs(t, err, ErrInvalidTimeOfDay, bad)
	}
}

// Formatting then parsing gives back the same time of day
func TestProperty_TimeOfDayRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("String and ParseTimeOfDay are inverse", prop.ForAll(
		func(seconds int) bool {
			tod := TimeOfDay(seconds)
			parsed, err := ParseTimeOfDay(tod.String())
			return err == nil && parsed == tod
		},
		gen.IntRange(0, 24*3600-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestWeekdayJSON(t *testing.T) {
	var slot OpeningHours
	require.NoError(t, json.Unmarshal([]byte(`{"day":"friday","openAt":"09:00","closeAt":"12:00"}`), &slot))
	assert.Equal(t, Friday, slot.Day)

	require.NoError(t, json.Unmarshal([]byte(`{"day":7,"openAt":"09:00","closeAt":"12:00"}`), &slot))
	assert.Equal(t, Sunday, slot.Day)

	out, err := json.Marshal(slot)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"SUNDAY","openAt":"09:00:00","closeAt":"12:00:00"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"day":"someday"}`), &slot))

	_, err = json.Marshal(Weekday(0))
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}

func TestWeekdayString(t *testing.T) {
	assert.Equal(t, "MONDAY", Monday.String())
	assert.Equal(t, "Weekday(9)", Weekday(9).String())
	assert.True(t, Sunday.Valid())
	assert.False(t, Weekday(0).Valid())
}
