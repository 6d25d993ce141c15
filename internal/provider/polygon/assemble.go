package polygon

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"polybars/internal/model"
)

// Assembler folds aggregates pages into one series.
type Assembler struct {
	span model.Span
	loc  *time.Location
	bars []model.Bar
}

// NewAssembler prepares an assembler; capacity is a pre-alloc hint.
func NewAssembler(span model.Span, loc *time.Location, capacity int) *Assembler {
	return &Assembler{span: span, loc: loc, bars: make([]model.Bar, 0, capacity)}
}

// Add decodes one page and returns its next_url cursor ("" when done).
// A page without results is either an empty answer (status OK or DELAYED)
// or a provider error, reported as model.ErrNoData.
func (a *Assembler) Add(body []byte) (string, error) {
	var page AggregatesResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return "", fmt.Errorf("%w: parse JSON: %v", model.ErrNoData, err)
	}
	if !gjson.GetBytes(body, "results").Exists() {
		switch {
		case page.Message != "":
			return "", fmt.Errorf("%w: %s", model.ErrNoData, page.Message)
		case page.Error != "":
			return "", fmt.Errorf("%w: %s", model.ErrNoData, page.Error)
		case page.Status != "OK" && page.Status != "DELAYED":
			return "", fmt.Errorf("%w: status %q", model.ErrNoData, page.Status)
		}
		return page.NextURL, nil
	}
	for _, raw := range page.Results {
		a.bars = append(a.bars, raw.ToBar())
	}
	return page.NextURL, nil
}

// Bars returns the assembled series: localized, ascending, unique times.
// Never nil, so an empty answer stays distinguishable from "no data".
func (a *Assembler) Bars() []model.Bar {
	model.Localize(a.bars, a.span, a.loc)
	return model.SortDedupe(a.bars)
}
