package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polybars/internal/model"
	"polybars/internal/ohlcv"
)

func TestFetchFlagsQuery(t *testing.T) {
	f := &fetchFlags{start: "2024-01-02", end: "-1", span: "Minute", multiplier: "5", market: "all", noCache: true, tz: "Europe/London"}
	q, err := f.query(nil)
	require.NoError(t, err)
	assert.Equal(t, model.Minute, q.Span)
	assert.Equal(t, 5, q.Multiplier)
	assert.Equal(t, model.AllHours, q.Market)
	assert.Equal(t, ohlcv.CacheOff, q.Cache)
	assert.Equal(t, "Europe/London", q.Location.String())
	assert.Equal(t, model.Text("2024-01-02"), q.Start)
	assert.Equal(t, model.DaysFromToday(-1), q.End)
}

func TestFetchFlagsQueryCoercesMultiplier(t *testing.T) {
	f := &fetchFlags{span: "day", multiplier: "2.5", market: "regular"}
	q, err := f.query(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Multiplier)
	assert.Equal(t, ohlcv.CacheDefault, q.Cache)
	assert.Nil(t, q.Location)
}

func TestFetchFlagsQueryRejects(t *testing.T) {
	_, err := (&fetchFlags{span: "fortnight", multiplier: "1", market: "regular"}).query(nil)
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = (&fetchFlags{span: "day", multiplier: "1", market: "pre"}).query(nil)
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = (&fetchFlags{span: "day", multiplier: "1", market: "regular", tz: "Mars/Olympus"}).query(nil)
	assert.ErrorIs(t, err, model.ErrConfig)
}
