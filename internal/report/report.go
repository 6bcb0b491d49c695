// Package report numbers collector entries and renders them as HTML, JSON,
// CSV or Markdown.
package report

import (
	"github.com/atinyakov/go-unveil/internal/collector"
)

// Headings are the column titles shared by every format.
var Headings = []string{"ID", "Model Name", "URL Type", "URL"}

// Row is one numbered report line.
type Row struct {
	ID        int    `json:"id"`
	ModelName string `json:"model_name"`
	URLType   string `json:"url_type"`
	URL       string `json:"url"`
}

// Build numbers entries from 1 in the order given. Entries without a URL
// are dropped.
func Build(entries []collector.Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		rows = append(rows, Row{
			ID:        len(rows) + 1,
			ModelName: e.ModelName,
			URLType:   e.URLType,
			URL:       e.URL,
		})
	}
	return rows
}

func (r Row) cells() []string {
	return []string{itoa(r.ID), r.ModelName, r.URLType, r.URL}
}
