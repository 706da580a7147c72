package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/pipeline"
	"github.com/matzehuels/vizgrid/pkg/render"
)

// validateFlags holds flags for the validate command.
type validateFlags struct {
	inputFormat string
	json        bool
}

// validateReport is the --json output of validate.
type validateReport struct {
	Source   string  `json:"source"`
	Rows     int     `json:"rows"`
	Columns  int     `json:"columns"`
	Regions  []int   `json:"regions"`
	Template string  `json:"template"`
	Matrix   [][]int `json:"matrix"`
}

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var flags validateFlags

	cmd := &cobra.Command{
		Use:   "validate FILE|URL|-",
		Short: "Check that a layout matrix is well formed",
		Long: `Validate reads a layout matrix and checks that its region ids run
1..K with no gaps and that every region is one solid rectangle.

Inputs may be JSON, YAML or TOML files, http(s) URLs or "-" for stdin.`,
		Example: `  vizgrid validate layout.json
  echo '[[1,1],[2,3]]' | vizgrid validate -
  vizgrid validate layout.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.inputFormat, "input-format", "json", "format of stdin input: json, yaml, toml")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print a JSON report instead of a table")

	return cmd
}

func (c *CLI) runValidate(cmd *cobra.Command, source string, flags validateFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	start := time.Now()
	m, ids, _, _, err := runner.LoadWithCacheInfo(ctx, pipeline.Options{
		Source:      source,
		InputFormat: grid.Format(flags.inputFormat),
		Stdin:       cmd.InOrStdin(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	logger.Debug("matrix validated", "source", source, "regions", len(ids), "duration", time.Since(start))

	template := grid.TemplateAreas(m, render.AreaName)

	if flags.json {
		report := validateReport{
			Source:   source,
			Rows:     m.Rows(),
			Columns:  m.Cols(),
			Regions:  make([]int, len(ids)),
			Template: template,
			Matrix:   m.Ints(),
		}
		for i, id := range ids {
			report.Regions[i] = int(id)
		}
		enc := json.NewEncoder(c.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printSuccess("Valid layout: %s", source)
	printStats(m, len(ids), false)
	printNewline()
	fmt.Fprintln(c.Out, formatMatrix(m))
	printNewline()
	fmt.Fprintln(c.Out, regionTable(m, render.AreaName))
	return nil
}
