package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// GroupColors are the region fill colors, cycled by region id.
var GroupColors = []string{
	"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00",
	"#ffff33", "#a65628", "#f781bf", "#999999",
}

// ColorOf returns the fill color of region id.
func ColorOf(id int) string {
	if id <= 0 {
		return "#ffffff"
	}
	return GroupColors[(id-1)%len(GroupColors)]
}

const svgGap = 4.0

// RenderSVG draws the scene to scale: one rounded rectangle per region,
// labeled with its id and, when set, its label.
func RenderSVG(s *Scene) []byte {
	cw, rh := float64(s.ColumnWidth), float64(s.RowHeight)
	width, height := cw*float64(s.Cols()), rh*float64(s.Rows())

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <rect class="background" x="0" y="0" width="%.1f" height="%.1f" fill="white"/>`+"\n", width, height)

	for _, a := range s.Areas {
		x := float64(a.Col)*cw + svgGap/2
		y := float64(a.Row)*rh + svgGap/2
		w := float64(a.Cols)*cw - svgGap
		h := float64(a.Rows)*rh - svgGap
		fmt.Fprintf(&buf, `  <g id="%s">`+"\n", escape(a.Token))
		fmt.Fprintf(&buf, `    <rect class="region" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="%s" fill-opacity="0.35" stroke="%s" stroke-width="2"/>`+"\n",
			x, y, w, h, ColorOf(int(a.Region)), ColorOf(int(a.Region)))
		fmt.Fprintf(&buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="20">%d</text>`+"\n",
			x+w/2, y+h/2, a.Region)
		if a.Label != "" {
			fmt.Fprintf(&buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="12" fill="#333">%s</text>`+"\n",
				x+w/2, y+h/2+22, escape(a.Label))
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
