package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depwrangler/internal/server"
	"github.com/matzehuels/depwrangler/pkg/cache"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	addr := defaultAddr
	var redisCfg cache.RedisConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			artifacts := cache.NewNullCache()
			if redisCfg.Addr != "" {
				rc, err := cache.NewRedisCache(cmd.Context(), redisCfg)
				if err != nil {
					return fmt.Errorf("connect redis %s: %w", redisCfg.Addr, err)
				}
				artifacts = rc
				c.Logger.Info("caching artifacts in redis", "addr", redisCfg.Addr)
			}
			defer artifacts.Close()

			err := server.New(artifacts, c.Logger).ListenAndServe(cmd.Context(), addr)
			if errors.Is(err, context.Canceled) {
				c.Logger.Info("server stopped")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", addr, "listen address")
	cmd.Flags().StringVar(&redisCfg.Addr, "redis-addr", "", "cache rendered artifacts in the Redis server at this address")
	cmd.Flags().IntVar(&redisCfg.DB, "redis-db", 0, "Redis database number")
	cmd.Flags().StringVar(&redisCfg.Prefix, "redis-prefix", "", "key prefix for cached artifacts (default \"depwrangler:\")")
	return cmd
}
