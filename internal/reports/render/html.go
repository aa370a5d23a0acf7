package render

import (
	"html/template"
	"io"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"cell": cell,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 6px 8px; text-align: left; }
th { background: #f5f5f5; }
.generated { color: #777; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="generated">{{.Generated}}</p>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- $cols := .Columns}}
{{- range .Rows}}
<tr>{{$row := .}}{{range $i, $col := $cols}}<td>{{cell $row $i}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- if .Summary}}
<ul class="summary">
{{- range .Summary}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
</body>
</html>
`))

// HTML renders a standalone page. Every value is escaped by html/template.
func HTML(w io.Writer, report *Report) error {
	return htmlTemplate.Execute(w, struct {
		*Report
		Generated string
	}{report, generatedLine(report)})
}
