package saver

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/davidsauntson/spidr/internal/model"
)

// CSVSaver writes records as CSV (header: url,status,content_type,size,depth,links,fetched_at).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(records []model.PageRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"url", "status", "content_type", "size", "depth", "links", "fetched_at"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write([]string{
			r.URL,
			strconv.Itoa(r.Status),
			r.ContentType,
			strconv.FormatInt(r.Size, 10),
			strconv.Itoa(r.Depth),
			strconv.Itoa(r.Links),
			strconv.FormatInt(r.FetchedAt, 10),
		}); err != nil {
			return err
		}
	}
	return nil
}
