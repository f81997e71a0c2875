package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForMonth(t *testing.T) {
	p := ForMonth(2026, time.February)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, 28, p.Days())
	assert.True(t, p.IsFullMonth())
	assert.Equal(t, "2026-02", p.Label())
}

func TestCurrentMonth(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC)
	p := CurrentMonth(now)

	assert.True(t, p.Equal(ForMonth(2026, time.August)))
	assert.Equal(t, 31, p.Days())
}

func TestRange(t *testing.T) {
	start := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	p, err := Range(start, end)
	assert.NoError(t, err)
	assert.Equal(t, 16, p.Days())
	assert.False(t, p.IsFullMonth())
	assert.Equal(t, "2026-03-05..2026-03-20", p.Label())

	_, err = Range(end, start)
	assert.ErrorIs(t, err, ErrInvalidRange)

	// Single day is a valid range.
	single, err := Range(start, start)
	assert.NoError(t, err)
	assert.Equal(t, 1, single.Days())
}

func TestContainsAndOverlaps(t *testing.T) {
	march := ForMonth(2026, time.March)
	april := ForMonth(2026, time.April)

	assert.True(t, march.Contains(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, march.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

	assert.False(t, march.Overlaps(april))

	straddle, _ := Range(
		time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
	)
	assert.True(t, march.Overlaps(straddle))
	assert.True(t, april.Overlaps(straddle))
}

func TestDaysInStartMonth(t *testing.T) {
	p, _ := Range(
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, 28, p.DaysInStartMonth())
	assert.Equal(t, 11, p.Days())
}

func TestSeasons(t *testing.T) {
	table := DefaultSeasons()

	assert.Equal(t, SeasonWinter, table.SeasonOf(ForMonth(2026, time.January)))
	assert.Equal(t, SeasonWinter, table.SeasonOf(ForMonth(2026, time.December)))
	assert.Equal(t, SeasonSummer, table.SeasonOf(ForMonth(2026, time.July)))
	assert.Equal(t, SeasonShoulder, table.SeasonOf(ForMonth(2026, time.April)))
	assert.Equal(t, SeasonShoulder, table.SeasonOf(ForMonth(2026, time.October)))
}
