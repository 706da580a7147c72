package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { margin: 0; padding: 16px; font-family: system-ui, sans-serif; }
  .dashboard-div { box-sizing: border-box; border: 1px solid #d0d7de; border-radius: 6px; padding: 8px; overflow: hidden; }
  .dashboard-div > .label { font-size: 12px; color: #57606a; }
  .basic { gap: 8px; }
  .dark { gap: 8px; background: #0d1117; }
  .dark .dashboard-div { border-color: #30363d; background: #161b22; }
  .dark .dashboard-div > .label { color: #8b949e; }
</style>
</head>
<body>
<div class="{{.Style}}" style="{{.GridStyle}}">
{{- range .Areas}}
  <div id="{{.Token}}" class="dashboard-div" style="grid-area: {{.Token}};"><span class="label">{{.Caption}}</span></div>
{{- end}}
</div>
</body>
</html>
`))

type htmlArea struct {
	Token   string
	Caption string
}

type htmlPage struct {
	Title     string
	Style     string
	GridStyle template.CSS
	Areas     []htmlArea
}

// RenderHTML returns a standalone page laying out the scene as a CSS grid.
func RenderHTML(s *Scene) ([]byte, error) {
	page := htmlPage{
		Title:     fmt.Sprintf("vizgrid %d×%d", s.Rows(), s.Cols()),
		Style:     s.Style,
		GridStyle: template.CSS(GridCSS(s)),
	}
	for _, a := range s.Areas {
		caption := fmt.Sprintf("region %d", a.Region)
		if a.Label != "" {
			caption += " · " + a.Label
		}
		page.Areas = append(page.Areas, htmlArea{Token: a.Token, Caption: caption})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// GridCSS returns the inline style of the grid container.
func GridCSS(s *Scene) string {
	return fmt.Sprintf(
		"display: grid; width: 100%%; grid-template-areas: %s; grid-template-rows: repeat(%d, %dpx); grid-template-columns: repeat(%d, 1fr);",
		strings.ReplaceAll(s.Template, "\n", " "), s.Rows(), s.RowHeight, s.Cols(),
	)
}
