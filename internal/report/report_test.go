package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/go-unveil/internal/collector"
)

var entries = []collector.Entry{
	{ModelName: "wagtail.Redirect", URLType: "index", URL: "http://localhost:8000/admin/redirects/"},
	{ModelName: "wagtail.Redirect", URLType: "add", URL: ""},
	{ModelName: "wagtail.Redirect_1_/a/", URLType: "edit", URL: "http://localhost:8000/admin/redirects/1/"},
}

func TestBuild(t *testing.T) {
	rows := Build(entries)

	require.Len(t, rows, 2)
	assert.Equal(t, Row{ID: 1, ModelName: "wagtail.Redirect", URLType: "index", URL: "http://localhost:8000/admin/redirects/"}, rows[0])
	assert.Equal(t, 2, rows[1].ID)
	assert.Equal(t, "edit", rows[1].URLType)

	assert.Empty(t, Build(nil))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Build(entries)))

	var got struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Results, 2)
	for _, r := range got.Results {
		for _, key := range []string{"id", "model_name", "url_type", "url"} {
			assert.NotNil(t, r[key], key)
		}
	}

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.JSONEq(t, `{"results": []}`, buf.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Build(entries)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Model Name,URL Type,URL", lines[0])
	assert.Equal(t, "2,wagtail.Redirect_1_/a/,edit,http://localhost:8000/admin/redirects/1/", lines[2])
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, "Unveil Redirect", Build(entries)))

	out := buf.String()
	assert.Contains(t, out, "# Unveil Redirect")
	assert.Contains(t, out, "Model Name")
	assert.Contains(t, out, "http://localhost:8000/admin/redirects/1/")

	buf.Reset()
	require.NoError(t, WriteMarkdown(&buf, "Empty", nil))
	assert.Contains(t, buf.String(), "No URLs found.")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"csv", FormatCSV, true},
		{"json", FormatJSON, true},
		{"markdown", FormatMarkdown, true},
		{"md", FormatMarkdown, true},
		{"xlsx", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFormat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	assert.Equal(t, "md", FormatMarkdown.Extension())
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
}

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPage(&buf, Page{
		Title:      "Unveil Redirect",
		Icon:       "redirect",
		ResultsURL: "/admin/unveil/redirect-report/results/",
		Rows:       Build(entries),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>Unveil Redirect</title>")
	assert.Contains(t, out, `data-action="check-urls"`)
	assert.Contains(t, out, "Run Checks")
	assert.Contains(t, out, `href="http://localhost:8000/admin/redirects/1/"`)
	assert.Equal(t, 2, strings.Count(out, "data-url-id="))
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderResults(&buf, []Row{{ID: 1, ModelName: "<b>", URLType: "edit", URL: "http://x/"}}))

	out := buf.String()
	assert.NotContains(t, out, "<html")
	assert.Contains(t, out, "&lt;b&gt;")

	buf.Reset()
	require.NoError(t, RenderResults(&buf, nil))
	assert.Contains(t, buf.String(), "No URLs found.")
}

func TestRenderMenu(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMenu(&buf, Menu{
		Title: "Unveil",
		Items: []MenuItem{{Label: "Unveil Page URL's", URL: "/admin/unveil/page-report/", Order: 10000}},
	}))
	assert.Contains(t, buf.String(), `href="/admin/unveil/page-report/"`)
	assert.Contains(t, buf.String(), "Unveil Page URL&#39;s")
}
