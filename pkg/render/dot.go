package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/vizgrid/pkg/grid"
)

// ToDOT describes the scene's region adjacency as an undirected Graphviz
// graph: one node per region, one edge per pair of regions sharing a border.
func ToDOT(s *Scene) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, a := range s.Areas {
		label := strconv.Itoa(int(a.Region))
		if a.Label != "" {
			label += "\n" + a.Label
		}
		// Seed positions from the grid so the drawing resembles the layout.
		x := float64(a.Col) + float64(a.Cols)/2
		y := float64(s.Rows()) - (float64(a.Row) + float64(a.Rows)/2)
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q, pos=\"%.2f,%.2f\"];\n",
			a.Token, label, ColorOf(int(a.Region)), x*1.5, y*1.5)
	}

	buf.WriteString("\n")
	names := make(map[grid.RegionID]string, len(s.Areas))
	for _, a := range s.Areas {
		names[a.Region] = a.Token
	}
	for _, e := range grid.Adjacency(s.Matrix) {
		fmt.Fprintf(&buf, "  %q -- %q;\n", names[e.A], names[e.B])
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// pixel-sized one so the drawing scales like the other outputs.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
