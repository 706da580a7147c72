package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
)

// maxGroup is the last group the editor cycles through before wrapping.
const maxGroup = 9

// Editor styles
var (
	editorCursorStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	editorMarkStyle   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	editorEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
	editorHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// MatrixEditorModel - Interactive matrix builder
// =============================================================================

// MatrixEditorModel is the bubbletea model for drawing a layout matrix.
//
// Cells start unassigned (0). The user paints rectangles of the current
// group, moves on to the next group once the current one has cells and
// confirms with enter. Confirmation succeeds only when every group is a
// rectangle and the groups form a valid layout.
type MatrixEditorModel struct {
	Matrix grid.Matrix
	Row    int
	Col    int
	Group  grid.RegionID

	// Anchor is the opposite corner of the selection while marking.
	Anchor *[2]int

	// Result is set when the user confirms a valid matrix.
	Result grid.Matrix

	// Message is the last confirmation or error shown under the grid.
	Message string
	IsError bool
}

// NewMatrixEditorModel creates an editor over start. A nil start gives an
// empty rows×columns grid.
func NewMatrixEditorModel(start grid.Matrix, rows, columns int) MatrixEditorModel {
	m := start.Clone()
	if len(m) == 0 {
		m = make(grid.Matrix, rows)
		for i := range m {
			m[i] = make([]grid.RegionID, columns)
		}
	}
	return MatrixEditorModel{Matrix: m, Group: grid.BaseRegion}
}

func (m MatrixEditorModel) Init() tea.Cmd {
	return nil
}

func (m MatrixEditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.move(-1, 0)
	case "down", "j":
		m.move(1, 0)
	case "left", "h":
		m.move(0, -1)
	case "right", "l":
		m.move(0, 1)
	case "v":
		if m.Anchor == nil {
			m.Anchor = &[2]int{m.Row, m.Col}
		} else {
			m.Anchor = nil
		}
	case " ", "space":
		m.paint()
	case "x", "backspace", "delete":
		m.clear()
	case "n", "tab":
		m.nextGroup()
	case "r":
		m.reset()
	case "enter":
		if m.confirm() {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *MatrixEditorModel) move(dr, dc int) {
	m.Row = min(max(m.Row+dr, 0), m.Matrix.Rows()-1)
	m.Col = min(max(m.Col+dc, 0), m.Matrix.Cols()-1)
}

// selection returns the rectangle between the anchor and the cursor, or the
// cursor cell alone.
func (m MatrixEditorModel) selection() (r0, c0, r1, c1 int) {
	r0, c0, r1, c1 = m.Row, m.Col, m.Row, m.Col
	if m.Anchor != nil {
		r0, r1 = min(m.Anchor[0], m.Row), max(m.Anchor[0], m.Row)
		c0, c1 = min(m.Anchor[1], m.Col), max(m.Anchor[1], m.Col)
	}
	return r0, c0, r1, c1
}

func (m *MatrixEditorModel) fill(v grid.RegionID) {
	r0, c0, r1, c1 := m.selection()
	for i := r0; i <= r1; i++ {
		for j := c0; j <= c1; j++ {
			m.Matrix[i][j] = v
		}
	}
	m.Anchor = nil
	m.Message = ""
}

// paint assigns the current group to the selection.
func (m *MatrixEditorModel) paint() { m.fill(m.Group) }

// clear unassigns the selection.
func (m *MatrixEditorModel) clear() { m.fill(0) }

// nextGroup advances to the next group, wrapping after 9. It does nothing
// while the current group is empty so no group is skipped.
func (m *MatrixEditorModel) nextGroup() {
	if !m.hasCells(m.Group) {
		m.Message = fmt.Sprintf("Group %d has no cells yet", m.Group)
		m.IsError = true
		return
	}
	m.Group++
	if m.Group > maxGroup {
		m.Group = grid.BaseRegion
	}
	m.Message = ""
}

func (m MatrixEditorModel) hasCells(g grid.RegionID) bool {
	for _, row := range m.Matrix {
		for _, v := range row {
			if v == g {
				return true
			}
		}
	}
	return false
}

// reset unassigns every cell and returns to group 1.
func (m *MatrixEditorModel) reset() {
	for _, row := range m.Matrix {
		for j := range row {
			row[j] = 0
		}
	}
	m.Group = grid.BaseRegion
	m.Anchor = nil
	m.Message = ""
}

// confirm checks the drawing and records the result.
func (m *MatrixEditorModel) confirm() bool {
	if err := grid.CheckSelection(m.Matrix); err != nil {
		m.Message = "Groups must be squares or rectangles: " + errors.UserMessage(err)
		m.IsError = true
		return false
	}
	if n := m.unassigned(); n > 0 {
		m.Message = fmt.Sprintf("%d cell(s) are not assigned to a group", n)
		m.IsError = true
		return false
	}
	if _, err := grid.Validate(m.Matrix); err != nil {
		m.Message = errors.UserMessage(err)
		m.IsError = true
		return false
	}
	m.Result = m.Matrix.Clone()
	m.Message = "Matrix confirmed"
	m.IsError = false
	return true
}

func (m MatrixEditorModel) unassigned() int {
	n := 0
	for _, row := range m.Matrix {
		for _, v := range row {
			if v == 0 {
				n++
			}
		}
	}
	return n
}

func (m MatrixEditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Matrix Editor"))
	b.WriteString("  ")
	b.WriteString(regionStyle(m.Group).Render(fmt.Sprintf(" group %d ", m.Group)))
	b.WriteString("\n")
	b.WriteString(editorHelpStyle.Render("arrows/hjkl move  v mark  space paint  x clear  n next group  r reset  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	r0, c0, r1, c1 := m.selection()
	for i, row := range m.Matrix {
		b.WriteString("  ")
		for j, v := range row {
			cell := fmt.Sprintf(" %d ", v)
			style := regionStyle(v)
			if v == 0 {
				cell = " · "
				style = editorEmptyStyle
			}
			if m.Anchor != nil && i >= r0 && i <= r1 && j >= c0 && j <= c1 {
				style = editorMarkStyle
			}
			if i == m.Row && j == m.Col {
				style = style.Inherit(editorCursorStyle)
				cell = "[" + strings.TrimSpace(cell) + "]"
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}

	if m.Message != "" {
		b.WriteString("\n")
		if m.IsError {
			b.WriteString(StyleError.Render(m.Message))
		} else {
			b.WriteString(StyleSuccess.Render(m.Message))
		}
		b.WriteString("\n")
	}
	return b.String()
}

