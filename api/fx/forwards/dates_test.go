package forwards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-06-15", "2025-06-15"},
		{"2025/06/15", "2025-06-15"},
		{"15-06-2025", "2025-06-15"},
		{"15/06/2025", "2025-06-15"},
		{"15-Jun-2025", "2025-06-15"},
		{"Jun 15, 2025", "2025-06-15"},
		{"2025-06-15T10:30:00Z", "2025-06-15"},
		{"20250615", "2025-06-15"},
		{"  2025-06-15  ", "2025-06-15"},
	}
	for _, c := range cases {
		got, err := parseFlexibleDate(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got.Format("2006-01-02"), "input %q", c.in)
		assert.Equal(t, 0, got.Hour(), "input %q should truncate to midnight", c.in)
	}
}

func TestParseFlexibleDateEpochSeconds(t *testing.T) {
	got, err := parseFlexibleDate("1750000000") // 2025-06-15 UTC
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
}

func TestParseFlexibleDateExcelSerial(t *testing.T) {
	// Serial 45823 is 2025-06-15 against the 1899-12-30 base.
	got, err := parseFlexibleDate("45823")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParseFlexibleDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not-a-date", "99/99/9999"} {
		_, err := parseFlexibleDate(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestDaysToMaturityRoundsUp(t *testing.T) {
	assert.Equal(t, 30, daysToMaturity("2025-06-15", "2025-07-15", nil))
	assert.Equal(t, 1, daysToMaturity("2025-06-15", "2025-06-16", nil))
	assert.Equal(t, 0, daysToMaturity("2025-06-15", "2025-06-15", nil))
}

func TestDaysToMaturityFallback(t *testing.T) {
	assert.Equal(t, 45, daysToMaturity("bad", "2025-07-15", 45))
	assert.Equal(t, 45, daysToMaturity("2025-06-15", "bad", "45"))
	assert.Equal(t, 45, daysToMaturity("bad", "bad", 45.0))
	assert.Equal(t, 0, daysToMaturity("bad", "bad", nil))
}
