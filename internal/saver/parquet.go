package saver

import (
	"time"

	"github.com/parquet-go/parquet-go"

	"polybars/internal/model"
)

// parquetBar is the on-disk row: instant in ms plus the writer's UTC offset,
// so a reload yields the same wall clock the table was saved with.
type parquetBar struct {
	T      int64   `parquet:"t"`
	Offset int32   `parquet:"tz_offset"`
	Open   float64 `parquet:"o"`
	High   float64 `parquet:"h"`
	Low    float64 `parquet:"l"`
	Close  float64 `parquet:"c"`
	Volume float64 `parquet:"v"`
}

// ParquetSaver stores bars as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(bars []model.Bar, path string) error {
	rows := make([]parquetBar, len(bars))
	for i, b := range bars {
		_, off := b.Time.Zone()
		rows[i] = parquetBar{
			T:      b.Time.UnixMilli(),
			Offset: int32(off),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return parquet.WriteFile(path, rows)
}

func (ParquetSaver) Load(path string) ([]model.Bar, error) {
	rows, err := parquet.ReadFile[parquetBar](path)
	if err != nil {
		return nil, err
	}
	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		bars[i] = model.Bar{
			Time:   time.UnixMilli(r.T).In(time.FixedZone("", int(r.Offset))),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return bars, nil
}
