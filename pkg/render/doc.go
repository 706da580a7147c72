// Package render turns a layout matrix into viewable artifacts.
//
// # Overview
//
// A [Scene] is the renderer-neutral description of a layout: the matrix,
// one [Area] per region with its placement token and bounding rectangle,
// and the CSS grid template. Build one with [NewScene] from a bare matrix
// or with [FromLayout] from a live layout engine, so that the artifact
// uses the same tokens the rendering surface sees.
//
// # Formats
//
//   - HTML: a standalone page with the CSS grid the frontend builds
//     (rows of 180px, equal fractional columns, one div per area)
//   - SVG: a proportional preview, one colored rectangle per region
//   - JSON: the scene itself
//   - DOT: the region adjacency graph, rendered to SVG with Graphviz
//   - PDF and PNG: converted from the SVG preview
//
// [Render] dispatches on a [Format]:
//
//	scene, err := render.NewScene(m, render.WithStyle("dark"))
//	html, err := render.Render(ctx, scene, render.FormatHTML)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg).
package render
