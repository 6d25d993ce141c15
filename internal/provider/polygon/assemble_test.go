package polygon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polybars/internal/model"
)

func TestAssemblerEmptyVersusNoData(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		name   string
		body   string
		noData bool
	}{
		{"ok without results", `{"ticker":"ZZZ","status":"OK","resultsCount":0}`, false},
		{"delayed without results", `{"ticker":"ZZZ","status":"DELAYED"}`, false},
		{"error text", `{"status":"ERROR","error":"Unknown API Key"}`, true},
		{"message text", `{"status":"NOT_AUTHORIZED","message":"You are not entitled to this data."}`, true},
		{"unexpected status", `{"status":"WHAT"}`, true},
		{"no status", `{}`, true},
		{"not json", `<html>bad gateway</html>`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAssembler(model.Day, loc, 0)
			_, err := a.Add([]byte(tc.body))
			if tc.noData {
				assert.ErrorIs(t, err, model.ErrNoData)
				return
			}
			require.NoError(t, err)
			bars := a.Bars()
			assert.NotNil(t, bars)
			assert.Empty(t, bars)
		})
	}
}

func TestAssemblerDailyCollapsesToUTCDate(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	a := NewAssembler(model.Day, ny, 0)
	// 2023-01-03 05:00Z and 2023-01-04 05:00Z, given out of order with a duplicate
	next, err := a.Add([]byte(`{"status":"OK","results":[
		{"t":1672808400000,"o":2,"h":2,"l":2,"c":2,"v":"2.5e3"},
		{"t":1672722000000,"o":1,"h":1,"l":1,"c":1,"v":100},
		{"t":1672808400000,"o":9,"h":9,"l":9,"c":9,"v":1}
	],"next_url":"https://x/next"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://x/next", next)

	bars := a.Bars()
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2023, 1, 3, 0, 0, 0, 0, ny), bars[0].Time)
	assert.Equal(t, time.Date(2023, 1, 4, 0, 0, 0, 0, ny), bars[1].Time)
	assert.Equal(t, 2500.0, bars[1].Volume)
}

func TestAssemblerIntradayUsesOutputLocation(t *testing.T) {
	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	a := NewAssembler(model.Minute, tokyo, 0)
	_, err := a.Add([]byte(`{"status":"OK","results":[{"t":1672756200000,"o":1,"h":1,"l":1,"c":1,"v":1}]}`))
	require.NoError(t, err)

	bars := a.Bars()
	require.Len(t, bars, 1)
	assert.Equal(t, tokyo, bars[0].Time.Location())
	assert.Equal(t, time.Date(2023, 1, 3, 23, 30, 0, 0, tokyo), bars[0].Time)
}
