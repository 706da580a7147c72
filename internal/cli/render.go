package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/pipeline"
)

// renderFlags holds flags for the render command.
type renderFlags struct {
	formats     string
	output      string
	inputFormat string
	noCache     bool
	refresh     bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags renderFlags
		opts  pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render FILE|URL|-",
		Short: "Render a layout matrix to HTML, SVG and other formats",
		Long: `Render validates a layout matrix and writes one artifact per format.

Formats: html, svg, json, dot, gv.svg (Graphviz region adjacency),
pdf and png (both need rsvg-convert on PATH).

Sequential area names are reproducible, so their artifacts are cached.
Artifacts with uuid tokens are always rendered fresh.`,
		Example: `  vizgrid render layout.json
  vizgrid render layout.yaml -f html,svg -o out/dashboard
  vizgrid render https://example.com/layout.json --style dark -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			opts.InputFormat = grid.Format(flags.inputFormat)
			opts.Formats = parseFormats(flags.formats)
			opts.Refresh = flags.refresh
			return c.runRender(cmd.Context(), cmd, opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output formats, comma separated (default html)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", `output path or base path; "-" writes a single format to stdout`)
	cmd.Flags().StringVar(&flags.inputFormat, "input-format", "json", "format of stdin input: json, yaml, toml")
	cmd.Flags().StringVar(&opts.Style, "style", "", "grid style: basic, dark (default from config)")
	cmd.Flags().StringVar(&opts.Tokens, "tokens", "", "area names: sequential, uuid (default sequential)")
	cmd.Flags().IntVar(&opts.RowHeight, "row-height", 0, "row height in pixels (default from config)")
	cmd.Flags().IntVar(&opts.ColumnWidth, "column-width", 0, "column width in pixels for svg and png")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached entries and re-render")

	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("style", completeStyles)
	_ = cmd.RegisterFlagCompletionFunc("tokens", completeTokens)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cmd *cobra.Command, opts pipeline.Options, flags renderFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	setCLIDefaults(&opts, cfg)
	if err := opts.ValidateForRender(); err != nil {
		return err
	}
	toStdout := flags.output == "-"
	if toStdout && len(opts.Formats) > 1 {
		return fmt.Errorf("cannot write %d formats to stdout; pick one with -f", len(opts.Formats))
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.Stdin = cmd.InOrStdin()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Loading %s...", opts.Source))
	spinner.Start()

	m, ids, _, _, err := runner.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Invalid layout")
		return err
	}
	spinner.Update(fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))

	_, artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, m, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths, err := c.writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     opts.Source,
		output:    flags.output,
	})
	if err != nil {
		return err
	}
	if toStdout {
		return nil
	}

	prog.done(fmt.Sprintf("Rendered %d format(s)", len(paths)))
	printSuccess("Rendered %s", opts.Source)
	printStats(m, len(ids), cacheHit)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
