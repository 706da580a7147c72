package render

import (
	"fmt"

	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/layout"
)

// Defaults mirroring the frontend grid view.
const (
	DefaultRowHeight   = 180
	DefaultColumnWidth = 240
)

// Area is one region of a scene.
type Area struct {
	Region grid.RegionID `json:"region"`
	Token  string        `json:"token"`
	Label  string        `json:"label,omitempty"`
	grid.Rect
}

// Scene is a validated matrix with everything a renderer needs.
type Scene struct {
	Matrix      grid.Matrix `json:"matrix"`
	Areas       []Area      `json:"areas"`
	Template    string      `json:"grid_template_areas"`
	Style       string      `json:"style"`
	RowHeight   int         `json:"row_height"`
	ColumnWidth int         `json:"column_width"`
}

// Rows is the number of grid rows.
func (s *Scene) Rows() int { return s.Matrix.Rows() }

// Cols is the number of grid columns.
func (s *Scene) Cols() int { return s.Matrix.Cols() }

// Option configures a scene.
type Option func(*sceneConfig)

type sceneConfig struct {
	names       func(grid.RegionID) string
	labels      map[grid.RegionID]string
	style       string
	rowHeight   int
	columnWidth int
}

// WithNames sets the token of each region. The default is "area<id>".
func WithNames(fn func(grid.RegionID) string) Option {
	return func(c *sceneConfig) { c.names = fn }
}

// WithLabels sets display labels, e.g. the kind of the placed component.
func WithLabels(labels map[grid.RegionID]string) Option {
	return func(c *sceneConfig) { c.labels = labels }
}

// WithStyle sets the CSS class of the grid container.
func WithStyle(style string) Option {
	return func(c *sceneConfig) { c.style = style }
}

// WithRowHeight sets the pixel height of one grid row.
func WithRowHeight(px int) Option {
	return func(c *sceneConfig) { c.rowHeight = px }
}

// WithColumnWidth sets the pixel width of one column in fixed-size
// outputs (SVG, PDF, PNG). HTML columns always share the width equally.
func WithColumnWidth(px int) Option {
	return func(c *sceneConfig) { c.columnWidth = px }
}

// AreaName is the default token for a region.
func AreaName(id grid.RegionID) string { return fmt.Sprintf("area%d", id) }

// NewScene validates m and builds its scene.
func NewScene(m grid.Matrix, opts ...Option) (*Scene, error) {
	cfg := sceneConfig{
		names:       AreaName,
		style:       layout.DefaultStyle,
		rowHeight:   DefaultRowHeight,
		columnWidth: DefaultColumnWidth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rowHeight <= 0 {
		cfg.rowHeight = DefaultRowHeight
	}
	if cfg.columnWidth <= 0 {
		cfg.columnWidth = DefaultColumnWidth
	}
	if cfg.style == "" {
		cfg.style = layout.DefaultStyle
	}

	ids, err := grid.Validate(m)
	if err != nil {
		return nil, err
	}

	rects := grid.Regions(m)
	areas := make([]Area, len(ids))
	for i, id := range ids {
		areas[i] = Area{Region: id, Token: cfg.names(id), Label: cfg.labels[id], Rect: rects[id]}
	}

	return &Scene{
		Matrix:      m.Clone(),
		Areas:       areas,
		Template:    grid.TemplateAreas(m, cfg.names),
		Style:       cfg.style,
		RowHeight:   cfg.rowHeight,
		ColumnWidth: cfg.columnWidth,
	}, nil
}

// FromLayout builds the scene of a layout engine, using its tokens and
// style. Extra options are applied after those.
func FromLayout(l *layout.Layout, opts ...Option) (*Scene, error) {
	names := func(id grid.RegionID) string {
		tok, _ := l.Token(id)
		return tok
	}
	base := []Option{WithNames(names), WithStyle(l.Style())}
	return NewScene(l.Matrix(), append(base, opts...)...)
}
