package saver

import (
	"strings"

	"polybars/internal/model"
)

// Codec persists and reloads a bar table. Implementations write exactly the
// path they are given; callers own naming and atomic replacement.
type Codec interface {
	Save(bars []model.Bar, path string) error
	Load(path string) ([]model.Bar, error)
	Extension() string
}

// New creates a codec by format (csv.gz, csv, parquet, json).
// Returns nil if format not supported.
func New(format string) Codec {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv.gz", "gz":
		return CSVSaver{Compress: true}
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// ForPath picks a codec from a file name's extension, defaulting to plain CSV.
func ForPath(path string) Codec {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".csv.gz"):
		return CSVSaver{Compress: true}
	case strings.HasSuffix(p, ".parquet"):
		return ParquetSaver{}
	case strings.HasSuffix(p, ".json"):
		return JSONSaver{}
	default:
		return CSVSaver{}
	}
}
