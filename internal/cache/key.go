// Package cache keeps year-partitioned bar segments on disk and serves merged
// windows from them, safely shared by many processes.
package cache

import (
	"fmt"
	"strings"

	"polybars/internal/model"
)

// SeriesKey identifies one logical series independent of date range.
type SeriesKey struct {
	Ticker     string
	Span       model.Span
	Multiplier int
}

// Prefix is the file-name prefix shared by every segment of the ticker.
func Prefix(ticker string) string {
	return sanitizeTicker(ticker) + "."
}

// segmentName is <TICKER>.<span>.<mult>.<year>.<ext>.
func (k SeriesKey) segmentName(year int, ext string) string {
	return fmt.Sprintf("%s%s.%d.%d.%s", Prefix(k.Ticker), k.Span, k.Multiplier, year, ext)
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%d%s", k.Ticker, k.Multiplier, k.Span)
}

func sanitizeTicker(ticker string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(strings.ToUpper(strings.TrimSpace(ticker)))
}
