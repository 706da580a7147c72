package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vizgrid/pkg/cache"
	"github.com/matzehuels/vizgrid/pkg/config"
	"github.com/matzehuels/vizgrid/pkg/httputil"
)

// httpCacheTTL is how long fetched matrix documents stay fresh.
const httpCacheTTL = time.Hour

// newHTTPCache opens the response cache for remote matrix sources under dir.
func newHTTPCache(dir string) (*httputil.Cache, error) {
	return httputil.NewCache(filepath.Join(dir, "http"), httpCacheTTL)
}

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render and HTTP caches",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear cached artifacts and HTTP responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			ca, err := c.newCache(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			count := 0
			switch ca := ca.(type) {
			case *cache.FileCache:
				n, err := ca.Clear()
				if err != nil {
					return fmt.Errorf("clear %s: %w", ca.Dir(), err)
				}
				count += n
				printDetail("Artifacts: %s", ca.Dir())
			case *cache.RedisCache:
				n, err := ca.Clear(ctx)
				if err != nil {
					return fmt.Errorf("clear redis cache: %w", err)
				}
				count += n
				printDetail("Artifacts: redis %s", cfg.Redis.Addr)
			}

			if dir, err := cacheDir(); err == nil {
				n, err := clearDir(filepath.Join(dir, "http"))
				if err != nil {
					return err
				}
				count += n
			}

			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			return nil
		},
	}
}

// clearDir removes every regular file below dir and the emptied
// subdirectories. A missing dir counts as empty.
func clearDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir {
			return nil
		}
		if !info.IsDir() {
			if err := os.Remove(path); err == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir {
			return nil
		}
		if info.IsDir() {
			os.Remove(path)
		}
		return nil
	})
	return count, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.BackendFile && cfg.Cache.Dir != "" {
				fmt.Fprintln(c.Out, cfg.Cache.Dir)
				return nil
			}
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}
