package render

import (
	"context"
	"slices"

	"github.com/matzehuels/vizgrid/pkg/errors"
)

// Format is an output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
	FormatGV   Format = "gv.svg"
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatHTML, FormatSVG, FormatJSON, FormatDOT, FormatGV, FormatPDF, FormatPNG}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool { return slices.Contains(Formats, f) }

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatSVG, FormatGV:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatPDF:
		return "application/pdf"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// Ext returns the file extension of f, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Render produces s in format f.
func Render(ctx context.Context, s *Scene, f Format) ([]byte, error) {
	switch f {
	case FormatHTML:
		return RenderHTML(s)
	case FormatSVG:
		return RenderSVG(s), nil
	case FormatJSON:
		return RenderJSON(s)
	case FormatDOT:
		return []byte(ToDOT(s)), nil
	case FormatGV:
		return RenderDOTSVG(ctx, ToDOT(s))
	case FormatPDF:
		return ToPDF(ctx, RenderSVG(s))
	case FormatPNG:
		return ToPNG(ctx, RenderSVG(s), 2.0)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", f)
}
