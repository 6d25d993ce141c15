package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeArgResolve(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2024, 6, 12, 14, 0, 0, 0, ny)

	got, err := DaysFromToday(-3).Resolve(now, ny)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-09", got.Format(time.DateOnly))

	got, err = ParseTimeArg("2024-03-01 10:30").Resolve(now, ny)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 10, 30, 0, 0, ny)))

	got, err = Text("2024-03-01T10:30:00Z").Resolve(now, ny)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, ny, got.Location())

	_, err = Text("yesterday-ish").Resolve(now, ny)
	assert.ErrorIs(t, err, ErrInvalidTime)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSortDedupeBetween(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	bars := SortDedupe([]Bar{
		{Time: day(3), Close: 3},
		{Time: day(1), Close: 1},
		{Time: day(3), Close: 33},
		{Time: day(2), Close: 2},
	})
	require.Len(t, bars, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{bars[0].Close, bars[1].Close, bars[2].Close})

	assert.Len(t, Between(bars, day(2), day(3)), 2)
	empty := Between(bars, day(5), day(6))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestParseSpanAndMarket(t *testing.T) {
	s, err := ParseSpan(" Hour ")
	require.NoError(t, err)
	assert.Equal(t, Hour, s)
	assert.True(t, s.Intraday())
	assert.False(t, Week.Intraday())

	_, err = ParseSpan("tick")
	assert.ErrorIs(t, err, ErrInvalidSpan)

	m, err := ParseMarket("ALL")
	require.NoError(t, err)
	assert.Equal(t, AllHours, m)
	_, err = ParseMarket("extended")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLocalize(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	instant := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	bars := []Bar{{Time: instant}}

	Localize(bars, Minute, tokyo)
	assert.True(t, bars[0].Time.Equal(instant))
	assert.Equal(t, tokyo, bars[0].Time.Location())

	daily := []Bar{{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}}
	Localize(daily, Day, tokyo)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, tokyo), daily[0].Time)
}
