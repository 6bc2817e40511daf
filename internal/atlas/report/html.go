package report

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"score": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"upper": strings.ToUpper,
	"rfc3339": func(t time.Time) string {
		return t.Format(time.RFC3339)
	},
}).ParseFS(templateFS, "templates/report.html"))

type htmlEdge struct {
	Source string
	Kind   string
	Target string
}

type htmlData struct {
	*Data
	Edges []htmlEdge
}

// renderHTML renders the report as a standalone HTML page.
func renderHTML(d *Data) (string, error) {
	hd := htmlData{Data: d}
	for _, e := range d.Graph.Edges() {
		hd.Edges = append(hd.Edges, htmlEdge{
			Source: nodeName(d.Graph, e.SourceID),
			Kind:   string(e.Kind),
			Target: nodeName(d.Graph, e.TargetID),
		})
	}

	var b strings.Builder
	if err := reportTmpl.ExecuteTemplate(&b, "report", hd); err != nil {
		return "", fmt.Errorf("rendering HTML report: %w", err)
	}
	return b.String(), nil
}
