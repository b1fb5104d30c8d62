package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davidsauntson/spidr/internal/model"
)

type failedEntry struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// saveRecords persists the crawl output as pages_<timestamp>.<ext>
// under OutDir.
func (a *Agent) saveRecords(records []model.PageRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(a.OutDir, 0755); err != nil {
		return err
	}
	name := fmt.Sprintf("pages_%s.%s", time.Now().UTC().Format("20060102_150405"), a.Saver.Extension())
	path := filepath.Join(a.OutDir, name)
	if err := a.Saver.Save(records, path); err != nil {
		return err
	}
	a.logger().Info("saved records", "path", path, "pages", len(records))
	return nil
}

// writeRunReport drops .lastrun.success.json / .lastrun.failed.json
// into dir so a follow-up run can see what the previous one did.
func writeRunReport(dir string, records []model.PageRecord, failed []failedEntry) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if len(records) > 0 {
		urls := make([]string, len(records))
		for i, r := range records {
			urls[i] = r.URL
		}
		data, err := json.MarshalIndent(urls, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, ".lastrun.success.json"), data, 0644); err != nil {
			return err
		}
	}
	if len(failed) > 0 {
		data, err := json.MarshalIndent(failed, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, ".lastrun.failed.json"), data, 0644); err != nil {
			return err
		}
	}
	return nil
}
