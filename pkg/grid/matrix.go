package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/vizgrid/pkg/errors"
)

// BaseRegion is the lowest region id a valid matrix may contain.
const BaseRegion RegionID = 1

// RegionID identifies one rectangular region of a layout matrix.
type RegionID int

// Matrix is a row-major grid of region ids.
type Matrix [][]RegionID

// Rows returns the number of rows.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the number of columns of the first row, or 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]RegionID(nil), row...)
	}
	return out
}

// Equal reports whether m and o have the same shape and contents.
func (m Matrix) Equal(o Matrix) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if len(m[i]) != len(o[i]) {
			return false
		}
		for j := range m[i] {
			if m[i][j] != o[i][j] {
				return false
			}
		}
	}
	return true
}

// Ints converts m to plain integers, the shape synchronized to the frontend.
func (m Matrix) Ints() [][]int {
	out := make([][]int, len(m))
	for i, row := range m {
		out[i] = make([]int, len(row))
		for j, v := range row {
			out[i][j] = int(v)
		}
	}
	return out
}

// FromInts converts plain integers to a Matrix without validating it.
func FromInts(rows [][]int) Matrix {
	out := make(Matrix, len(rows))
	for i, row := range rows {
		out[i] = make([]RegionID, len(row))
		for j, v := range row {
			out[i][j] = RegionID(v)
		}
	}
	return out
}

// String formats m one row per line with right-aligned cells.
func (m Matrix) String() string {
	width := 1
	for _, row := range m {
		for _, v := range row {
			width = max(width, len(fmt.Sprint(int(v))))
		}
	}
	var b strings.Builder
	for i, row := range m {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, v := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%*d", width, int(v))
		}
	}
	return b.String()
}

// Parse converts loosely typed input into a Matrix.
//
// It accepts the shapes produced by decoding JSON, YAML or TOML into an
// interface value, as well as [][]int and Matrix. Every row must be a list
// and every cell a non-negative integer; otherwise Parse fails with
// errors.ErrCodeMalformedMatrix. Parse does not check row lengths, id
// sequence or rectangles; use [Validate] for that.
func Parse(v any) (Matrix, error) {
	switch m := v.(type) {
	case Matrix:
		return m.Clone(), checkCells(m)
	case [][]RegionID:
		return Matrix(m).Clone(), checkCells(m)
	case [][]int:
		out := FromInts(m)
		return out, checkCells(out)
	case []any:
		return parseRows(m)
	case nil:
		return nil, errors.MalformedMatrix("matrix is null")
	default:
		return nil, errors.MalformedMatrix("got %T", v)
	}
}

func parseRows(raw []any) (Matrix, error) {
	rows := make([][]any, len(raw))
	for i, r := range raw {
		row, ok := asList(r)
		if !ok {
			return nil, errors.MalformedMatrix("row %d is not a list", i)
		}
		rows[i] = row
	}

	out := make(Matrix, len(rows))
	for i, row := range rows {
		out[i] = make([]RegionID, len(row))
		for j, cell := range row {
			n, ok := asInt(cell)
			if !ok {
				return nil, errors.MalformedMatrix("cell (%d, %d) is not an integer", i, j)
			}
			if n < 0 {
				return nil, errors.MalformedMatrix("cell (%d, %d) is negative", i, j)
			}
			out[i][j] = RegionID(n)
		}
	}
	return out, nil
}

func checkCells(m Matrix) error {
	for i, row := range m {
		for j, v := range row {
			if v < 0 {
				return errors.MalformedMatrix("cell (%d, %d) is negative", i, j)
			}
		}
	}
	return nil
}

func asList(v any) ([]any, bool) {
	switch r := v.(type) {
	case []any:
		return r, true
	case []int:
		out := make([]any, len(r))
		for i, x := range r {
			out[i] = x
		}
		return out, true
	case []int64:
		out := make([]any, len(r))
		for i, x := range r {
			out[i] = x
		}
		return out, true
	case []float64:
		out := make([]any, len(r))
		for i, x := range r {
			out[i] = x
		}
		return out, true
	}
	return nil, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
