package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/pipeline"
	"github.com/matzehuels/vizgrid/pkg/render"
	"github.com/matzehuels/vizgrid/pkg/store"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for vizgrid.

Completions cover commands and flags, saved layout names for
"layouts show" and "layouts delete", and the values of --format, --style
and --tokens.

  $ source <(vizgrid completion bash)
  $ vizgrid completion zsh > "${fpath[1]}/_vizgrid"
  $ vizgrid completion fish | source
  PS> vizgrid completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(c.Out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Out)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Out)
			}
			return nil
		},
	}

	return cmd
}

// completeLayoutNames completes the first argument with saved layout names.
func (c *CLI) completeLayoutNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	err := c.withStore(cmd.Context(), func(st store.Store) error {
		recs, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range recs {
			if strings.HasPrefix(r.Name, toComplete) {
				names = append(names, r.Name+"\t"+r.Description)
			}
		}
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes a comma-separated --format list.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	done, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		done, last = toComplete[:i+1], toComplete[i+1:]
	}
	var out []string
	for _, f := range render.Formats {
		name := string(f)
		if strings.HasPrefix(name, last) && !strings.Contains(","+done, ","+name+",") {
			out = append(out, done+name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeChoices returns a completion func over a fixed list.
func completeChoices(choices []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return choices, cobra.ShellCompDirectiveNoFileComp
	}
}

var (
	completeStyles = completeChoices(pipeline.ValidStyles)
	completeTokens = completeChoices(pipeline.ValidTokens)
)
