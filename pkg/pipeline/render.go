package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/layout"
	"github.com/matzehuels/vizgrid/pkg/render"
)

// BuildScene builds the render scene of m for opts.
func BuildScene(m grid.Matrix, opts Options) (*render.Scene, error) {
	names := render.AreaName
	if opts.Tokens == "uuid" {
		src := layout.UUIDTokens()
		tokens := make(map[grid.RegionID]string)
		names = func(id grid.RegionID) string {
			if tok, ok := tokens[id]; ok {
				return tok
			}
			tok := src.Token(id)
			tokens[id] = tok
			return tok
		}
	}
	return render.NewScene(m,
		render.WithNames(names),
		render.WithStyle(opts.Style),
		render.WithRowHeight(opts.RowHeight),
		render.WithColumnWidth(opts.ColumnWidth),
		render.WithLabels(opts.Labels),
	)
}

// Render generates artifacts for every requested format.
func Render(ctx context.Context, s *render.Scene, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	for _, f := range formats {
		data, err := render.Render(ctx, s, render.Format(f))
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		artifacts[f] = data
	}
	return artifacts, nil
}
