package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/layout"
	"github.com/matzehuels/vizgrid/pkg/pipeline"
)

// prefixRegex matches prefixes that yield valid CSS grid-area names.
var prefixRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// templateFlags holds flags for the template command.
type templateFlags struct {
	inputFormat string
	tokens      string
	prefix      string
	css         bool
}

// templateCommand creates the template command, which prints the CSS
// grid-template-areas value for a matrix.
func (c *CLI) templateCommand() *cobra.Command {
	var flags templateFlags

	cmd := &cobra.Command{
		Use:   "template FILE|URL|-",
		Short: "Print the CSS grid-template-areas for a matrix",
		Example: `  vizgrid template layout.json
  vizgrid template layout.json --tokens uuid
  vizgrid template layout.json --prefix cell --css`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTemplate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.inputFormat, "input-format", "json", "format of stdin input: json, yaml, toml")
	cmd.Flags().StringVar(&flags.tokens, "tokens", "sequential", "area name strategy: sequential, uuid")
	cmd.Flags().StringVar(&flags.prefix, "prefix", "area", "name prefix for sequential tokens")
	cmd.Flags().BoolVar(&flags.css, "css", false, "wrap the value in a grid-template-areas declaration")
	_ = cmd.RegisterFlagCompletionFunc("tokens", completeTokens)

	return cmd
}

func (c *CLI) runTemplate(cmd *cobra.Command, source string, flags templateFlags) error {
	ctx := cmd.Context()

	if err := pipeline.ValidateTokens(flags.tokens); err != nil {
		return err
	}
	if !prefixRegex.MatchString(flags.prefix) {
		return errors.New(errors.ErrCodeInvalidInput, "token prefix %q must start with a letter and contain only letters, digits, '-' and '_'", flags.prefix)
	}

	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	m, err := runner.Load(ctx, pipeline.Options{
		Source:      source,
		InputFormat: grid.Format(flags.inputFormat),
		Stdin:       cmd.InOrStdin(),
		Logger:      loggerFromContext(ctx),
	})
	if err != nil {
		return err
	}

	tokens := layout.SequentialTokens(flags.prefix)
	if flags.tokens == "uuid" {
		tokens = layout.UUIDTokens()
	}
	l, err := layout.New(m, layout.WithTokens(tokens))
	if err != nil {
		return err
	}

	if flags.css {
		fmt.Fprintf(c.Out, "grid-template-areas:\n%s;\n", indent(l.TemplateAreas(), "  "))
		return nil
	}
	fmt.Fprintln(c.Out, l.TemplateAreas())
	return nil
}

// indent prefixes every line of s with pad.
func indent(s, pad string) string {
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}
