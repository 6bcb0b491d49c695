package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// Format is an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json"
	}
}

// Extension returns the file extension of f, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ParseFormat returns the export format named s.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(s); f {
	case FormatJSON, FormatCSV, FormatMarkdown:
		return f, true
	case "md":
		return FormatMarkdown, true
	}
	return "", false
}

// Results is the body of the JSON endpoint.
type Results struct {
	Results []Row `json:"results"`
}

// Export writes rows to w in format f. title is used by Markdown only.
func Export(w io.Writer, f Format, title string, rows []Row) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatMarkdown:
		return WriteMarkdown(w, title, rows)
	default:
		return WriteJSON(w, rows)
	}
}

// WriteJSON writes {"results": [...]}. An empty report is an empty list.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Results{Results: rows})
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headings); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMarkdown writes a heading followed by a table of rows.
func WriteMarkdown(w io.Writer, title string, rows []Row) error {
	md := markdown.NewMarkdown(w)
	md.H1(title)
	md.PlainText("")

	if len(rows) == 0 {
		md.PlainText("No URLs found.")
		return md.Build()
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.cells())
	}
	md.Table(markdown.TableSet{Header: Headings, Rows: cells})
	return md.Build()
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
