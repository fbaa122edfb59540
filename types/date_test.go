package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Date
	}{
		{name: "iso day", input: "2024-01-05", want: DateOf(2024, time.January, 5)},
		{name: "rfc3339", input: "2024-01-05T23:30:00Z", want: DateOf(2024, time.January, 5)},
		{name: "rfc3339 with offset normalised to utc", input: "2024-01-05T23:30:00-05:00", want: DateOf(2024, time.January, 6)},
		{name: "rendered layout", input: "Fri Jan 05 2024", want: DateOf(2024, time.January, 5)},
		{name: "long month", input: "January 5, 2024", want: DateOf(2024, time.January, 5)},
		{name: "slashes", input: "2024/01/05", want: DateOf(2024, time.January, 5)},
		{name: "surrounding whitespace", input: "  2024-01-05 ", want: DateOf(2024, time.January, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "not-a-date", "2024-13-01", "2024-02-30"} {
		_, err := ParseDate(input)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", input)
	}
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "Fri Jan 05 2024", DateOf(2024, time.January, 5).String())
	assert.Equal(t, "Mon Jan 01 2024", DateOf(2024, time.January, 1).String())
	assert.Equal(t, "2024-01-05", DateOf(2024, time.January, 5).ISO())
}

func TestNewDateTruncatesToDay(t *testing.T) {
	instant := time.Date(2024, time.March, 9, 17, 45, 12, 99, time.UTC)
	assert.Equal(t, DateOf(2024, time.March, 9), NewDate(instant))
}

func TestDateJSON(t *testing.T) {
	data, err := json.Marshal(DateOf(2024, time.January, 10))
	require.NoError(t, err)
	assert.JSONEq(t, `"Wed Jan 10 2024"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, DateOf(2024, time.January, 10), decoded)
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, time.January, 5, 0, 0, 0, 0, time.FixedZone("", 0))))
	assert.Equal(t, DateOf(2024, time.January, 5), d)

	require.NoError(t, d.Scan([]byte("2024-02-01")))
	assert.Equal(t, DateOf(2024, time.February, 1), d)

	value, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", value)

	assert.Error(t, d.Scan(42))
}

func TestExerciseFilterMatches(t *testing.T) {
	from := DateOf(2024, time.January, 6)
	to := DateOf(2024, time.January, 10)
	entry := Exercise{UserID: "u1", Date: DateOf(2024, time.January, 6)}

	assert.True(t, ExerciseFilter{UserID: "u1"}.Matches(entry))
	assert.False(t, ExerciseFilter{UserID: "u2"}.Matches(entry))
	assert.True(t, ExerciseFilter{UserID: "u1", From: &from}.Matches(entry), "from bound is inclusive")
	assert.True(t, ExerciseFilter{UserID: "u1", To: &from}.Matches(entry), "to bound is inclusive")
	assert.False(t, ExerciseFilter{UserID: "u1", From: &to}.Matches(entry))
	assert.True(t, ExerciseFilter{UserID: "u1", From: &from, To: &to}.Matches(entry))
}
