package grid

import (
	"slices"

	"github.com/matzehuels/vizgrid/pkg/errors"
)

// span is the run of columns a region occupies in one row.
type span struct {
	row  int
	cols []int
}

// Validate checks that m tiles a full grid with disjoint rectangles whose ids
// form the run BaseRegion..K, and returns the ids in ascending order.
//
// Checks run in a fixed order so that a matrix with several defects always
// reports the same one: negative cells, row lengths, id sequence, then
// rectangles in order of first appearance.
func Validate(m Matrix) ([]RegionID, error) {
	if len(m) == 0 {
		return nil, errors.MalformedMatrix("matrix has no rows")
	}
	if err := checkCells(m); err != nil {
		return nil, err
	}

	seen := make(map[RegionID]bool)
	var order []RegionID
	for _, row := range m {
		for _, v := range row {
			if !seen[v] {
				seen[v] = true
				order = append(order, v)
			}
		}
	}

	width := len(m[0])
	for i, row := range m {
		if len(row) != width {
			return nil, errors.MalformedMatrix("row %d has %d cells, row 0 has %d", i, len(row), width)
		}
	}
	if width == 0 {
		return nil, errors.MalformedMatrix("rows are empty")
	}

	ids := slices.Clone(order)
	slices.Sort(ids)
	if ids[0] != BaseRegion {
		return nil, errors.New(errors.ErrCodeNonSequentialIDs, "%s (lowest region is %d)", errors.MsgNonSequentialIDs, ids[0])
	}
	for k := 1; k < len(ids); k++ {
		if ids[k]-ids[k-1] != 1 {
			return nil, errors.New(errors.ErrCodeNonSequentialIDs, "%s (gap between %d and %d)", errors.MsgNonSequentialIDs, ids[k-1], ids[k])
		}
	}

	spans := collectSpans(m)
	for _, id := range order {
		if !isRectangle(spans[id]) {
			return nil, errors.NonRectangularRegion(int(id))
		}
	}
	return ids, nil
}

// collectSpans groups the coordinates of every id by row. Rows and columns
// come out sorted because the matrix is walked in row-major order.
func collectSpans(m Matrix) map[RegionID][]span {
	out := make(map[RegionID][]span)
	for i, row := range m {
		for j, v := range row {
			s := out[v]
			if len(s) == 0 || s[len(s)-1].row != i {
				s = append(s, span{row: i})
			}
			s[len(s)-1].cols = append(s[len(s)-1].cols, j)
			out[v] = s
		}
	}
	return out
}

func isRectangle(spans []span) bool {
	first := spans[0]
	for k := 1; k < len(first.cols); k++ {
		if first.cols[k]-first.cols[k-1] != 1 {
			return false
		}
	}

	lo, hi := first.cols[0], first.cols[len(first.cols)-1]
	for k := 1; k < len(spans); k++ {
		s := spans[k]
		if s.row-spans[k-1].row != 1 {
			return false
		}
		if len(s.cols) != len(first.cols) {
			return false
		}
		if s.cols[0] != lo || s.cols[len(s.cols)-1] != hi {
			return false
		}
	}
	return true
}

// CheckSelection validates a partially assigned matrix produced by the
// matrix builder. Cells holding 0 are unassigned and ignored; every other
// group must fill its bounding box exactly.
func CheckSelection(m Matrix) error {
	if err := checkCells(m); err != nil {
		return err
	}
	boxes := make(map[RegionID]Rect)
	counts := make(map[RegionID]int)
	var order []RegionID
	for i, row := range m {
		for j, v := range row {
			if v == 0 {
				continue
			}
			counts[v]++
			r, ok := boxes[v]
			if !ok {
				order = append(order, v)
				boxes[v] = Rect{Row: i, Col: j, Rows: 1, Cols: 1}
				continue
			}
			boxes[v] = r.extend(i, j)
		}
	}

	for _, id := range order {
		r := boxes[id]
		if r.Area() != counts[id] {
			return errors.NonRectangularRegion(int(id))
		}
		for i := r.Row; i < r.Row+r.Rows; i++ {
			for j := r.Col; j < r.Col+r.Cols; j++ {
				if j >= len(m[i]) || m[i][j] != id {
					return errors.NonRectangularRegion(int(id))
				}
			}
		}
	}
	return nil
}
