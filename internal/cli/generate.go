package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/creator"
	"github.com/matzehuels/vizgrid/pkg/grid"
)

// generateFlags holds flags for the generate command.
type generateFlags struct {
	rows    int
	columns int
	output  string
	format  string
}

// generateCommand creates the generate command, which writes a starting
// matrix with one region per cell.
func (c *CLI) generateCommand() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a matrix with one region per cell",
		Long: `Generate writes a rows×columns matrix numbered 1..rows*columns left to
right, top to bottom. Edit it by hand or with "vizgrid edit" to merge cells
into larger regions.`,
		Example: `  vizgrid generate
  vizgrid generate --rows 2 --columns 4 -o layout.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.rows, "rows", 0, "number of rows (default from config)")
	cmd.Flags().IntVar(&flags.columns, "columns", 0, "number of columns (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: json, yaml, toml (default from -o extension)")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, flags generateFlags) error {
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

	cr, err := creator.New(creator.WithSize(rows, columns), creator.WithLogger(loggerFromContext(cmd.Context())))
	if err != nil {
		return err
	}
	m, err := cr.GenerateNewMatrix(&rows, &columns)
	if err != nil {
		return err
	}

	format := grid.Format(flags.format)
	if format == "" {
		format = grid.FormatJSON
		if flags.output != "" && flags.output != "-" {
			format = grid.FormatFromPath(flags.output)
		}
	}

	w, err := c.openOutput(flags.output)
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

	if flags.output != "" && flags.output != "-" {
		printSuccess("Generated %d×%d matrix", rows, columns)
		printFile(flags.output)
		printNextStep("Edit it", "vizgrid edit "+flags.output)
	}
	return nil
}
