package saver

import (
	"strings"

	"github.com/davidsauntson/spidr/internal/model"
)

// PageSaver persists one batch of crawl records. The agent depends only
// on this interface; main injects the implementation.
type PageSaver interface {
	Save(records []model.PageRecord, path string) error
	Extension() string
}

// NewPageSaver creates an implementation by format (csv, parquet, json).
// Returns nil if the format is not supported.
func NewPageSaver(format string) PageSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
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
