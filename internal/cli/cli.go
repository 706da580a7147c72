package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/buildinfo"
	"github.com/matzehuels/vizgrid/pkg/cache"
	"github.com/matzehuels/vizgrid/pkg/comm"
	"github.com/matzehuels/vizgrid/pkg/config"
	"github.com/matzehuels/vizgrid/pkg/pipeline"
	"github.com/matzehuels/vizgrid/pkg/render"
	"github.com/matzehuels/vizgrid/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "vizgrid"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output; status lines and logs go to the logger.
	Out io.Writer

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "vizgrid hosts matrix-layout dashboards",
		Long: `vizgrid validates dashboard layout matrices, turns them into CSS grid
templates and hosts live layouts for a browser rendering surface.

A layout matrix is a grid of region ids such as

  [[1, 1, 2],
   [3, 3, 2]]

where every id forms one solid rectangle and the ids run 1..K.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/vizgrid/config.toml)")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.templateCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.layoutsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	root.SuggestionsMinimumDistance = 2
	return root
}

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend, "store", cfg.Store.Backend, "bus", cfg.Bus.Backend)
	return cfg, nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ca, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ca, nil, c.Logger)
	if dir, err := cacheDir(); err == nil {
		if hc, err := newHTTPCache(dir); err == nil {
			r.Fetcher.Cache = hc
		}
	}
	return r, nil
}

// newCache opens the configured artifact cache. An unreachable Redis falls
// back to the null cache with a warning.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, redisOptions(cfg))
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", cfg.Redis.Addr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = filepath.Join(d, "artifacts")
	}
	return cache.NewFileCache(dir)
}

// newStore opens the configured layout store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.Backend == config.BackendMongo {
		return store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database, cfg.Store.Collection)
	}
	dir := cfg.Store.Dir
	if dir == "" {
		d, err := dataDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(d, "layouts")
	}
	return store.NewFileStore(dir)
}

// newBus opens the configured message bus.
func (c *CLI) newBus(ctx context.Context, cfg *config.Config) (comm.Bus, error) {
	if cfg.Bus.Backend == config.BackendRedis {
		return comm.NewRedisBus(ctx, redisOptions(cfg))
	}
	return comm.NewMemoryBus(), nil
}

func redisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/vizgrid/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory using XDG standard (~/.local/share/vizgrid/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// setCLIDefaults applies configured defaults on top of pipeline defaults.
// Flags the user set keep their values.
func setCLIDefaults(opts *pipeline.Options, cfg *config.Config) {
	if opts.Style == "" {
		opts.Style = cfg.Layout.Style
	}
	if opts.RowHeight == 0 {
		opts.RowHeight = cfg.Layout.RowHeight
	}
	opts.SetRenderDefaults()
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// basePath derives the base output path from the output and input paths.
// A known format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == "-" {
			return "layout"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	longest := ""
	for _, f := range render.Formats {
		if ext := f.Ext(); strings.HasSuffix(output, ext) && len(ext) > len(longest) {
			longest = ext
		}
	}
	return strings.TrimSuffix(output, longest)
}

// nopCloser wraps a writer that must not be closed, such as stdout.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing; an empty path or "-" is stdout.
func (c *CLI) openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{c.Out}, nil
	}
	return os.Create(path)
}

// artifactWriteParams describes rendered artifacts to write to disk.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes one file per format and returns the paths written.
// A single format with output "-" goes to stdout.
func (c *CLI) writeArtifacts(p artifactWriteParams) ([]string, error) {
	if len(p.formats) == 1 && p.output == "-" {
		_, err := c.Out.Write(p.artifacts[p.formats[0]])
		return nil, err
	}

	base := basePath(p.output, p.input)
	var paths []string
	for _, f := range p.formats {
		path := base + render.Format(f).Ext()
		if len(p.formats) == 1 && p.output != "" && filepath.Ext(p.output) != "" && base == p.output {
			path = p.output
		}
		if err := os.WriteFile(path, p.artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
