package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/pipeline"
	"github.com/matzehuels/vizgrid/pkg/store"
)

// layoutsCommand creates the layouts command for managing named layouts.
func (c *CLI) layoutsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "layouts",
		Aliases: []string{"layout"},
		Short:   "Save, list, show and delete named layouts",
	}

	cmd.AddCommand(c.layoutsSaveCommand())
	cmd.AddCommand(c.layoutsListCommand())
	cmd.AddCommand(c.layoutsShowCommand())
	cmd.AddCommand(c.layoutsDeleteCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) layoutsSaveCommand() *cobra.Command {
	var (
		style       string
		description string
		inputFormat string
	)

	cmd := &cobra.Command{
		Use:   "save NAME FILE|URL|-",
		Short: "Validate a matrix and save it under NAME",
		Example: `  vizgrid layouts save overview layout.json --description "Main dashboard"
  vizgrid layouts save wide layout.yaml --style dark`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, source := args[0], args[1]

			if style != "" {
				if err := pipeline.ValidateStyle(style); err != nil {
					return err
				}
			}

			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			m, err := runner.Load(ctx, pipeline.Options{
				Source:      source,
				InputFormat: grid.Format(inputFormat),
				Stdin:       cmd.InOrStdin(),
				Logger:      c.Logger,
			})
			if err != nil {
				return err
			}

			rec, err := store.NewRecord(name, m)
			if err != nil {
				return err
			}
			rec.Style = style
			rec.Description = description

			return c.withStore(ctx, func(st store.Store) error {
				if err := st.Save(ctx, rec); err != nil {
					return err
				}
				printSuccess("Saved layout %s", StyleHighlight.Render(name))
				printStats(m, rec.Regions, false)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&style, "style", "", "style to render the layout with")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	cmd.Flags().StringVar(&inputFormat, "input-format", "json", "format of stdin input: json, yaml, toml")
	_ = cmd.RegisterFlagCompletionFunc("style", completeStyles)

	return cmd
}

func (c *CLI) layoutsListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved layouts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				recs, err := st.List(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(c.Out)
					enc.SetIndent("", "  ")
					return enc.Encode(recs)
				}
				if len(recs) == 0 {
					printInfo("No saved layouts")
					printNextStep("Save one", "vizgrid layouts save NAME layout.json")
					return nil
				}
				fmt.Fprintln(c.Out, layoutTable(recs))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

// layoutTable renders saved layouts one per row.
func layoutTable(recs []store.Record) string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		m := r.Grid()
		style := r.Style
		if style == "" {
			style = "—"
		}
		rows[i] = []string{
			r.Name,
			fmt.Sprintf("%d×%d", m.Rows(), m.Cols()),
			strconv.Itoa(r.Regions),
			style,
			r.UpdatedAt.Format("2006-01-02 15:04"),
			r.Description,
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Size", "Regions", "Style", "Updated", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 0:
				return StyleHighlight.Padding(0, 1)
			case col == 4 || col == 5:
				return StyleDim.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

func (c *CLI) layoutsShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a saved layout",
		Long: `Show prints a saved layout's details and a colored preview. With
--format the bare matrix document is printed instead, ready to be piped into
other commands.`,
		Example: `  vizgrid layouts show overview
  vizgrid layouts show overview --format yaml > overview.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				rec, err := st.Load(ctx, args[0])
				if err != nil {
					return err
				}
				m := rec.Grid()
				if format != "" {
					return grid.EncodeMatrix(c.Out, m, grid.Format(format))
				}

				printKeyValue("Name", rec.Name)
				if rec.Description != "" {
					printKeyValue("Description", rec.Description)
				}
				if rec.Style != "" {
					printKeyValue("Style", rec.Style)
				}
				printKeyValue("Updated", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
				printStats(m, rec.Regions, false)
				printNewline()
				fmt.Fprintln(c.Out, formatMatrix(m))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "print the matrix as json, yaml or toml")
	cmd.ValidArgsFunction = c.completeLayoutNames
	return cmd
}

func (c *CLI) layoutsDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a saved layout",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(st store.Store) error {
				if err := st.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted layout %s", args[0])
				return nil
			})
		},
	}
	cmd.ValidArgsFunction = c.completeLayoutNames
	return cmd
}
