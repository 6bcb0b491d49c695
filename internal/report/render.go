package report

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

var (
	reportTmpl  = template.Must(template.ParseFS(templatesFS, "templates/base.html", "templates/report.html", "templates/results.html"))
	resultsTmpl = template.Must(template.ParseFS(templatesFS, "templates/results.html"))
	menuTmpl    = template.Must(template.ParseFS(templatesFS, "templates/base.html", "templates/menu.html"))
)

// Page is the data of a full report page.
type Page struct {
	Title      string
	Icon       string
	ResultsURL string
	Rows       []Row
}

// MenuItem links to one report.
type MenuItem struct {
	Label string
	Icon  string
	URL   string
	Order int
}

// Menu is the data of the report index page.
type Menu struct {
	Title string
	Items []MenuItem
}

// RenderPage writes a full HTML report page.
func RenderPage(w io.Writer, p Page) error {
	return reportTmpl.ExecuteTemplate(w, "base", p)
}

// RenderResults writes only the results table.
func RenderResults(w io.Writer, rows []Row) error {
	return resultsTmpl.ExecuteTemplate(w, "results", rows)
}

// RenderMenu writes the report index page.
func RenderMenu(w io.Writer, m Menu) error {
	return menuTmpl.ExecuteTemplate(w, "base", m)
}
