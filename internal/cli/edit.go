package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/grid"
)

// editFlags holds flags for the edit command.
type editFlags struct {
	rows    int
	columns int
	output  string
}

// editCommand creates the edit command, an interactive matrix builder.
func (c *CLI) editCommand() *cobra.Command {
	var flags editFlags

	cmd := &cobra.Command{
		Use:   "edit [FILE]",
		Short: "Draw a layout matrix in the terminal",
		Long: `Edit opens an interactive grid. Paint rectangles of the current group,
move on with "n" and confirm with enter. The matrix is saved only when every
group is a rectangle and every cell belongs to a group.

With FILE, an existing matrix is loaded and saved back to FILE unless -o is
given. Without FILE the grid starts empty and the result goes to -o or stdout.`,
		Example: `  vizgrid edit --rows 3 --columns 4 -o layout.json
  vizgrid edit layout.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return c.runEdit(cmd, path, flags)
		},
	}

	cmd.Flags().IntVar(&flags.rows, "rows", 0, "rows of a new grid (default from config)")
	cmd.Flags().IntVar(&flags.columns, "columns", 0, "columns of a new grid (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default FILE, or stdout)")

	return cmd
}

func (c *CLI) runEdit(cmd *cobra.Command, path string, flags editFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	rows, columns := flags.rows, flags.columns
	if rows == 0 {
		rows = cfg.Layout.Rows
	}
	if columns == 0 {
		columns = cfg.Layout.Columns
	}

	var start grid.Matrix
	if path != "" {
		m, err := grid.ReadMatrixFile(path)
		switch {
		case err == nil:
			start = m
		case os.IsNotExist(err):
			// New file: start empty and save there.
		default:
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	model := NewMatrixEditorModel(start, rows, columns)
	p := tea.NewProgram(model,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.ErrOrStderr()),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}

	result := final.(MatrixEditorModel).Result
	if result == nil {
		printInfo("Editor closed without saving")
		return nil
	}
	return c.saveEdited(result, path, flags.output)
}

// saveEdited writes an edited matrix to output, falling back to the edited
// file and then to stdout.
func (c *CLI) saveEdited(m grid.Matrix, path, output string) error {
	if output == "" {
		output = path
	}
	format := grid.FormatJSON
	if output != "" && output != "-" {
		format = grid.FormatFromPath(output)
	}

	w, err := c.openOutput(output)
	if err != nil {
		return err
	}
	if err := grid.EncodeMatrix(w, m, format); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if output != "" && output != "-" {
		ids, _ := grid.Validate(m)
		printSuccess("Saved layout")
		printStats(m, len(ids), false)
		printFile(output)
		printNextStep("Render it", "vizgrid render "+output)
	}
	return nil
}
