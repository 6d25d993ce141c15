package saver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"

	"polybars/internal/model"
)

var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

// CSVSaver stores bars as CSV (header: time,open,high,low,close,volume), gzip-compressed when Compress is set.
// The time column is RFC 3339 with the writer's UTC offset.
type CSVSaver struct {
	Compress bool
}

func (s CSVSaver) Extension() string {
	if s.Compress {
		return "csv.gz"
	}
	return "csv"
}

func (s CSVSaver) Save(bars []model.Bar, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	var out io.Writer = f
	if s.Compress {
		zw := gzip.NewWriter(f)
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		out = zw
	}
	return WriteCSV(out, bars)
}

// WriteCSV encodes bars to w, header first.
func WriteCSV(w io.Writer, bars []model.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bars {
		if err := cw.Write([]string{
			b.Time.Format(time.RFC3339Nano),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s CSVSaver) Load(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var in io.Reader = f
	if s.Compress {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		in = zr
	}
	return ReadCSV(in)
}

// ReadCSV decodes what WriteCSV produced.
func ReadCSV(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header")
		}
		return nil, err
	}
	bars := make([]model.Bar, 0, 256)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		b, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", len(bars)+2, err)
		}
		bars = append(bars, b)
	}
}

func parseRecord(rec []string) (model.Bar, error) {
	t, err := time.Parse(time.RFC3339Nano, rec[0])
	if err != nil {
		return model.Bar{}, err
	}
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return model.Bar{}, fmt.Errorf("column %s: %w", csvHeader[i+1], err)
		}
		vals[i] = v
	}
	return model.Bar{Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}, nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
