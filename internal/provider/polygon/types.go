package polygon

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"polybars/internal/model"
)

// BarRaw is one row of the aggregates "results" array.
type BarRaw struct {
	Timestamp    int64           `json:"t"` // bar open, Unix ms UTC
	Open         float64         `json:"o"`
	High         float64         `json:"h"`
	Low          float64         `json:"l"`
	Close        float64         `json:"c"`
	Volume       FlexibleFloat64 `json:"v"`
	VWAP         float64         `json:"vw,omitempty"`
	Transactions FlexibleFloat64 `json:"n,omitempty"`
}

// ToBar converts BarRaw to model.Bar stamped in UTC.
func (br BarRaw) ToBar() model.Bar {
	return model.Bar{
		Time:   time.UnixMilli(br.Timestamp).UTC(),
		Open:   br.Open,
		High:   br.High,
		Low:    br.Low,
		Close:  br.Close,
		Volume: br.Volume.Float64(),
	}
}

// AggregatesResponse is one page of the v2 aggregates endpoint.
// Error pages carry Error or Message instead of Results.
type AggregatesResponse struct {
	Ticker       string   `json:"ticker"`
	QueryCount   int      `json:"queryCount"`
	ResultsCount int      `json:"resultsCount"`
	Adjusted     bool     `json:"adjusted"`
	Results      []BarRaw `json:"results"`
	Status       string   `json:"status"`
	RequestID    string   `json:"request_id"`
	Count        int      `json:"count"`
	NextURL      string   `json:"next_url,omitempty"`
	Error        string   `json:"error,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// FlexibleFloat64 accepts a JSON number or a numeric string.
// Volumes arrive as integers, floats or scientific notation depending on the asset class.
type FlexibleFloat64 float64

// UnmarshalJSON parses number or quoted number
func (f *FlexibleFloat64) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexibleFloat64(val)
		return nil
	}

	var floatVal float64
	if err := json.Unmarshal(data, &floatVal); err == nil {
		*f = FlexibleFloat64(floatVal)
		return nil
	}

	return fmt.Errorf("cannot parse as float64: %s", string(data))
}

// Float64 returns float64 value
func (f FlexibleFloat64) Float64() float64 {
	return float64(f)
}
