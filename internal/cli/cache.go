package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shed/pkg/cache"
	"github.com/matzehuels/shed/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the license cache",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file selecting the cache backend")

	cmd.AddCommand(c.cacheClearCommand(&configPath))
	cmd.AddCommand(c.cachePathCommand(&configPath))

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached license results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := (&runFlags{configPath: *configPath}).loadConfig("")
			if err != nil {
				return err
			}
			backend, err := newCache(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer backend.Close()

			if err := clearCache(ctx, backend); err != nil {
				return err
			}
			printSuccess("Cleared the %s license cache", cfg.Cache.Backend)
			if loc, err := cacheLocation(cfg); err == nil && loc != "" {
				printDetail("Location: %s", loc)
			}
			return nil
		},
	}
}

// clearCache empties backends that support it. Redis entries are shared
// between machines and are left to expire.
func clearCache(ctx context.Context, backend cache.Cache) error {
	switch b := backend.(type) {
	case *cache.FileCache:
		return b.Clear()
	case *cache.SQLiteCache:
		return b.Clear(ctx)
	case *cache.RedisCache:
		return fmt.Errorf("the redis cache is shared; entries expire after cache.ttl")
	default:
		return nil
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the license cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := (&runFlags{configPath: *configPath}).loadConfig("")
			if err != nil {
				return err
			}
			loc, err := cacheLocation(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		},
	}
}

// cacheLocation returns where the configured backend keeps its entries.
func cacheLocation(cfg *config.Config) (string, error) {
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return "", err
		}
	}
	switch cfg.Cache.Backend {
	case config.CacheFile:
		return cache.FilePath(dir), nil
	case config.CacheSQLite:
		return cache.SQLitePath(dir), nil
	case config.CacheRedis:
		return "redis://" + cfg.Cache.RedisAddr, nil
	default:
		return "", nil
	}
}
