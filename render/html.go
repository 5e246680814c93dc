package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"slices"

	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/report"
)

// ============================================================================
// HTML — Self-contained dashboard page drawn with Plotly.js
// ============================================================================

// PlotlyCDN is the Plotly.js bundle the page loads.
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// PageOptions controls the interactive parts of the page.
type PageOptions struct {
	// Available lists every neighborhood offered in the selector. The
	// selector is omitted when empty.
	Available []string
	// ImageLinks adds PNG/SVG download links under each chart. Only useful
	// when the page is served next to the image endpoints.
	ImageLinks bool
}

type page struct {
	Title       string
	RunID       string
	GeneratedAt string
	PlotlyCDN   string
	Available   []string
	Selected    []string
	ImageLinks  bool
	Panels      []panel
}

type panel struct {
	ID      string
	Title   string
	Caption string
	Empty   bool
	Figure  template.JS
	Table   *engine.TableData
}

// WritePage renders d as a single HTML page.
func WritePage(w io.Writer, d *report.Dashboard, opts PageOptions) error {
	p := page{
		Title:       d.Title,
		RunID:       d.RunID,
		GeneratedAt: d.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		PlotlyCDN:   PlotlyCDN,
		Available:   opts.Available,
		Selected:    d.Neighborhoods,
		ImageLinks:  opts.ImageLinks,
		Panels:      make([]panel, 0, len(d.Charts)),
	}
	for _, c := range d.Charts {
		fig, err := json.Marshal(NewFigure(c.Config))
		if err != nil {
			return fmt.Errorf("marshal figure %s: %w", c.ID, err)
		}
		p.Panels = append(p.Panels, panel{
			ID:      c.ID,
			Title:   c.Title,
			Caption: c.Caption,
			Empty:   c.Empty(),
			Figure:  template.JS(fig),
			Table:   c.Table,
		})
	}
	return pageTemplate.Execute(w, p)
}

var pageTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"selected": func(all []string, name string) bool { return slices.Contains(all, name) },
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <script src="{{.PlotlyCDN}}"></script>
  <style>
    body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 1200px; padding: 1rem; color: #1f2937; }
    header { display: flex; justify-content: space-between; align-items: baseline; flex-wrap: wrap; }
    .meta { color: #6b7280; font-size: .85rem; }
    section { border-top: 1px solid #e5e7eb; padding: 1rem 0; }
    .caption { color: #374151; font-style: italic; }
    .empty { color: #9ca3af; padding: 2rem; text-align: center; }
    table { border-collapse: collapse; font-size: .85rem; }
    th, td { padding: .2rem .6rem; border-bottom: 1px solid #f3f4f6; }
    td.number { text-align: right; font-variant-numeric: tabular-nums; }
    select[multiple] { min-width: 16rem; min-height: 8rem; }
  </style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <span class="meta">run {{.RunID}} · {{.GeneratedAt}}</span>
</header>
{{- if .Available}}
<form method="get" action="/">
  <label for="neighborhood">Neighborhoods</label>
  <select id="neighborhood" name="neighborhood" multiple>
  {{- $sel := .Selected}}
  {{- range .Available}}
    <option value="{{.}}"{{if selected $sel .}} selected{{end}}>{{.}}</option>
  {{- end}}
  </select>
  <button type="submit">Update</button>
</form>
{{- end}}
{{- range .Panels}}
<section id="{{.ID}}">
  <h2>{{.Title}}</h2>
  {{- if .Empty}}
  <div class="empty">No data for this selection.</div>
  {{- else}}
  <div id="plot-{{.ID}}"></div>
  <script>(function () { var f = {{.Figure}}; Plotly.newPlot("plot-{{.ID}}", f.data, f.layout, {responsive: true}); })();</script>
  {{- end}}
  {{- if .Caption}}
  <p class="caption">{{.Caption}}</p>
  {{- end}}
  {{- if and $.ImageLinks (not .Empty)}}
  <p class="meta"><a href="/charts/{{.ID}}.png">PNG</a> · <a href="/charts/{{.ID}}.svg">SVG</a> · <a href="/api/charts/{{.ID}}">JSON</a></p>
  {{- end}}
  {{- with .Table}}{{if .Rows}}
  <details>
    <summary>Data</summary>
    <table>
      <thead><tr>{{range .Columns}}<th>{{.Label}}</th>{{end}}</tr></thead>
      <tbody>
      {{- $cols := .Columns}}
      {{- range .Rows}}
        <tr>{{range $i, $cell := .}}<td{{with index $cols $i}}{{if eq .Type "number"}} class="number"{{end}}{{end}}>{{$cell}}</td>{{end}}</tr>
      {{- end}}
      </tbody>
    </table>
  </details>
  {{- end}}{{end}}
</section>
{{- end}}
</body>
</html>
`
