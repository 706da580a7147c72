package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/config"
	"github.com/matzehuels/vizgrid/pkg/layout"
	"github.com/matzehuels/vizgrid/pkg/server"
	"github.com/matzehuels/vizgrid/pkg/session"
)

// serveFlags holds flags for the serve command.
type serveFlags struct {
	addr    string
	noStore bool
	noCache bool
}

// serveCommand creates the serve command, which runs the HTTP bridge.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve hosting sessions to a rendering surface over HTTP",
		Long: `Serve runs the HTTP bridge. A browser frontend creates sessions, builds
layouts and creators in them, places widgets and reads back the outbound
event log. Idle sessions expire after server.session_ttl.

With bus.backend = "redis", outbound events are also published on Redis and
inbound messages may arrive there.`,
		Example: `  vizgrid serve
  vizgrid serve --addr 127.0.0.1:9000
  VIZGRID_REDIS_ADDR=redis:6379 vizgrid serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default from config, env "+config.EnvAddr+")")
	cmd.Flags().BoolVar(&flags.noStore, "no-store", false, "disable the named layout routes")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the artifact cache for /api/render")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if flags.addr != "" {
		addr = flags.addr
	}

	bus, err := c.newBus(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s bus: %w", cfg.Bus.Backend, err)
	}
	defer bus.Close()

	reg := session.NewRegistry(bus, c.Logger,
		session.WithTTL(cfg.Server.SessionTTL),
		session.WithTokens(layout.TokenSourceByName(cfg.Layout.Tokens)),
		session.WithStyle(cfg.Layout.Style),
	)
	defer reg.Close()

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := []server.Option{server.WithRunner(runner), server.WithLogger(c.Logger)}
	if !flags.noStore {
		st, err := c.newStore(ctx)
		if err != nil {
			return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
		}
		defer st.Close()
		opts = append(opts, server.WithStore(st))
	}

	go reg.Run(ctx, cfg.Server.CleanupInterval)

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	printDetail("bus %s · cache %s · store %s", cfg.Bus.Backend, cfg.Cache.Backend, storeLabel(cfg, flags.noStore))

	return server.New(reg, opts...).ListenAndServe(ctx, addr)
}

func storeLabel(cfg *config.Config, disabled bool) string {
	if disabled {
		return "off"
	}
	return cfg.Store.Backend
}
