package grid

import (
	"cmp"
	"slices"
	"strings"
)

// Rect is the cell rectangle a region covers: its top-left cell and extent.
type Rect struct {
	Row  int `json:"row" bson:"row"`
	Col  int `json:"col" bson:"col"`
	Rows int `json:"rows" bson:"rows"`
	Cols int `json:"cols" bson:"cols"`
}

// Area returns the number of cells in r.
func (r Rect) Area() int { return r.Rows * r.Cols }

// extend grows r to include cell (i, j).
func (r Rect) extend(i, j int) Rect {
	top, left := min(r.Row, i), min(r.Col, j)
	bottom, right := max(r.Row+r.Rows-1, i), max(r.Col+r.Cols-1, j)
	return Rect{Row: top, Col: left, Rows: bottom - top + 1, Cols: right - left + 1}
}

// Regions returns the bounding rectangle of every region in m. For a matrix
// accepted by [Validate] the rectangles tile the grid exactly.
func Regions(m Matrix) map[RegionID]Rect {
	out := make(map[RegionID]Rect)
	for i, row := range m {
		for j, v := range row {
			if r, ok := out[v]; ok {
				out[v] = r.extend(i, j)
			} else {
				out[v] = Rect{Row: i, Col: j, Rows: 1, Cols: 1}
			}
		}
	}
	return out
}

// Edge is an unordered pair of regions sharing at least one cell border,
// stored with A < B.
type Edge struct {
	A, B RegionID
}

// Adjacency lists every pair of distinct regions that touch horizontally or
// vertically, sorted by (A, B).
func Adjacency(m Matrix) []Edge {
	seen := make(map[Edge]bool)
	add := func(a, b RegionID) {
		if a == b {
			return
		}
		e := Edge{A: min(a, b), B: max(a, b)}
		seen[e] = true
	}
	for i, row := range m {
		for j, v := range row {
			if j+1 < len(row) {
				add(v, row[j+1])
			}
			if i+1 < len(m) && j < len(m[i+1]) {
				add(v, m[i+1][j])
			}
		}
	}

	out := make([]Edge, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	slices.SortFunc(out, func(x, y Edge) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return out
}

// TemplateAreas builds a CSS grid-template-areas value for m: one quoted
// line per row listing name(id) once per cell, so a region spanning several
// columns repeats its name across them. Lines are joined with newlines.
//
//	"a a b"
//	"c c b"
func TemplateAreas(m Matrix, name func(RegionID) string) string {
	lines := make([]string, len(m))
	for i, row := range m {
		names := make([]string, len(row))
		for j, v := range row {
			names[j] = name(v)
		}
		lines[i] = `"` + strings.Join(names, " ") + `"`
	}
	return strings.Join(lines, "\n")
}

// TemplateRows splits a value produced by [TemplateAreas] back into its rows
// of names.
func TemplateRows(template string) [][]string {
	var out [][]string
	for _, line := range strings.Split(template, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"`)
		if line == "" {
			continue
		}
		out = append(out, strings.Fields(line))
	}
	return out
}
