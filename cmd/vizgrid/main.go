package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/internal/cli"
	vgerrors "github.com/matzehuels/vizgrid/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		report(err)
		os.Exit(1)
	}
}

// report prints err for a terminal user. Coded errors print their user
// message followed by the code.
func report(err error) {
	code := vgerrors.GetCode(err)
	if code == "" {
		fmt.Fprintln(os.Stderr, cli.StyleError.Render("error:"), err)
		return
	}
	fmt.Fprintln(os.Stderr, cli.StyleError.Render("error:"), vgerrors.UserMessage(err), cli.StyleDim.Render("("+string(code)+")"))
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
