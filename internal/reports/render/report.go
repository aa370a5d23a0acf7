package render

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	FormatText = "txt"
	FormatHTML = "html"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// Report is a titled table with free-form summary lines underneath.
type Report struct {
	Title       string
	Columns     []string
	Rows        [][]string
	Summary     []string
	GeneratedAt time.Time
}

type Renderer func(w io.Writer, report *Report) error

var renderers = map[string]Renderer{
	FormatText: Text,
	FormatHTML: HTML,
	FormatCSV:  CSV,
	FormatPDF:  PDF,
}

var contentTypes = map[string]string{
	FormatText: "text/plain; charset=utf-8",
	FormatHTML: "text/html; charset=utf-8",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatPDF:  "application/pdf",
}

// Render writes report to w in the given format.
func Render(w io.Writer, report *Report, format string) error {
	renderer, ok := renderers[format]
	if !ok {
		return fmt.Errorf("unsupported report format %q", format)
	}
	return renderer(w, report)
}

func Supported(format string) bool {
	_, ok := renderers[format]
	return ok
}

func ContentType(format string) string {
	return contentTypes[format]
}

// Filename derives a download name like "bookings-20260317.csv".
func Filename(report *Report, format string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(report.Title), "-"))
	return fmt.Sprintf("%s-%s.%s", slug, report.GeneratedAt.UTC().Format("20060102"), format)
}

func generatedLine(report *Report) string {
	return "Generated " + report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")
}

// cell returns row[i], or "" for short rows.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
