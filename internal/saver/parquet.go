package saver

import (
	"github.com/parquet-go/parquet-go"

	"github.com/davidsauntson/spidr/internal/model"
)

// ParquetSaver writes records as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(records []model.PageRecord, path string) error {
	return parquet.WriteFile(path, records)
}
