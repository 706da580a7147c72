// Package creator implements the matrix builder companion widget.
//
// A [Creator] tells the rendering surface how large a grid to offer (rows and
// columns, synchronized as strings) and receives the matrix the user drew
// there through the matrix_generated event. [Generate] produces the default
// matrix in which every cell is its own region.
package creator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/widget"
)

// Kind is the widget kind of a creator model.
const Kind = "matrix_creator"

// Defaults for a new creator.
const (
	DefaultRows    = 3
	DefaultColumns = 3
)

// MaxDimension bounds the rows and columns a creator accepts.
const MaxDimension = 64

// Attribute names synchronized to the rendering surface.
const (
	AttrRows              = "rows"
	AttrColumns           = "columns"
	AttrMatrix            = "matrix"
	AttrGridAreas         = "grid_areas"
	AttrGridTemplateAreas = "grid_template_areas"
)

// Generate returns a rows×columns matrix numbered 1..rows*columns left to
// right, top to bottom. Non-positive sizes give an empty matrix.
func Generate(rows, columns int) grid.Matrix {
	if rows <= 0 || columns <= 0 {
		return grid.Matrix{}
	}
	m := make(grid.Matrix, rows)
	next := grid.BaseRegion
	for i := range m {
		m[i] = make([]grid.RegionID, columns)
		for j := range m[i] {
			m[i][j] = next
			next++
		}
	}
	return m
}

// Creator is the matrix builder widget.
type Creator struct {
	model       *widget.Model
	rows        int
	columns     int
	matrix      grid.Matrix
	onGenerated func(grid.Matrix)
	logger      *log.Logger
}

// Option configures a Creator.
type Option func(*Creator)

// WithSize sets the initial grid size offered to the user.
func WithSize(rows, columns int) Option {
	return func(c *Creator) {
		c.rows, c.columns = rows, columns
	}
}

// WithMatrix sets the initial matrix.
func WithMatrix(m grid.Matrix) Option {
	return func(c *Creator) { c.matrix = m.Clone() }
}

// OnMatrixGenerated registers fn to run after the rendering surface sends a
// matrix.
func OnMatrixGenerated(fn func(grid.Matrix)) Option {
	return func(c *Creator) { c.onGenerated = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Creator) { c.logger = l }
}

// WithModel replaces the widget model, e.g. to bind it to a session sink.
func WithModel(m *widget.Model) Option {
	return func(c *Creator) { c.model = m }
}

// New creates a creator. The default size is 3×3 and the matrix starts
// empty until one is generated or received.
func New(opts ...Option) (*Creator, error) {
	c := &Creator{
		rows:    DefaultRows,
		columns: DefaultColumns,
		matrix:  grid.Matrix{},
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := checkSize(c.rows, c.columns); err != nil {
		return nil, err
	}
	if c.model == nil {
		c.model = widget.NewModel(Kind, widget.WithLogger(c.logger))
	}

	c.syncSize()
	c.syncMatrix()
	c.model.OnMessage(c.handleMessage)
	return c, nil
}

// Model returns the creator's widget model.
func (c *Creator) Model() *widget.Model { return c.model }

// Rows returns the row count offered to the user.
func (c *Creator) Rows() int { return c.rows }

// Columns returns the column count offered to the user.
func (c *Creator) Columns() int { return c.columns }

// Data returns a copy of the current matrix.
func (c *Creator) Data() grid.Matrix { return c.matrix.Clone() }

// GenerateNewMatrix replaces the current matrix with [Generate](rows,
// columns) and returns it. A nil rows defaults to the current matrix's row
// count; a nil columns to its first row's length, or [DefaultColumns] when
// the matrix is empty. An empty current matrix with nil rows therefore
// yields an empty matrix. Explicit sizes must be in 1..[MaxDimension].
func (c *Creator) GenerateNewMatrix(rows, columns *int) (grid.Matrix, error) {
	r, cols := c.matrix.Rows(), DefaultColumns
	if r > 0 {
		cols = c.matrix.Cols()
	}
	if rows != nil {
		if err := checkSize(*rows, 1); err != nil {
			return nil, err
		}
		r = *rows
	}
	if columns != nil {
		if err := checkSize(1, *columns); err != nil {
			return nil, err
		}
		cols = *columns
	}

	c.matrix = Generate(r, cols)
	if len(c.matrix) > 0 {
		c.rows, c.columns = r, cols
		c.syncSize()
	}
	c.syncMatrix()
	c.logger.Debug("matrix generated", "widget", c.model.ID(), "rows", r, "columns", cols)
	return c.matrix.Clone(), nil
}

// Receive stores a matrix drawn on the rendering surface and runs the
// callback. The matrix must be well formed; its regions are not checked, as
// the user may still be editing it.
func (c *Creator) Receive(m grid.Matrix) error {
	parsed, err := grid.Parse(m)
	if err != nil {
		return err
	}
	c.matrix = parsed
	c.syncMatrix()
	c.logger.Debug("matrix received", "widget", c.model.ID(), "rows", parsed.Rows())
	if c.onGenerated != nil {
		c.onGenerated(parsed.Clone())
	}
	return nil
}

func (c *Creator) handleMessage(msg widget.Message) error {
	if msg.Event != widget.EventMatrixGenerated {
		return nil
	}
	var raw any
	if len(msg.Matrix) > 0 {
		dec := json.NewDecoder(bytes.NewReader(msg.Matrix))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode matrix")
		}
	} else {
		raw = []any{}
	}
	m, err := grid.Parse(raw)
	if err != nil {
		return err
	}
	return c.Receive(m)
}

func (c *Creator) syncSize() {
	c.model.Set(AttrRows, strconv.Itoa(c.rows))
	c.model.Set(AttrColumns, strconv.Itoa(c.columns))
}

// syncMatrix publishes the matrix and, when it tiles cleanly, the areas a
// layout would use for it.
func (c *Creator) syncMatrix() {
	c.model.Set(AttrMatrix, c.matrix.Ints())

	areas, template := []string{}, ""
	if ids, err := grid.Validate(c.matrix); err == nil {
		name := func(id grid.RegionID) string { return fmt.Sprintf("area%d", id) }
		for _, id := range ids {
			areas = append(areas, name(id))
		}
		template = grid.TemplateAreas(c.matrix, name)
	}
	c.model.Set(AttrGridAreas, areas)
	c.model.Set(AttrGridTemplateAreas, template)
}

func checkSize(rows, columns int) error {
	if rows < 1 || columns < 1 || rows > MaxDimension || columns > MaxDimension {
		return errors.New(errors.ErrCodeInvalidInput, "grid size %dx%d out of range 1..%d", rows, columns, MaxDimension)
	}
	return nil
}
