package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/internal/server"
	"github.com/matzehuels/dialoguegraph/pkg/assets"
	"github.com/matzehuels/dialoguegraph/pkg/config"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve graphs and playback sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx := cmd.Context()
			return c.withRepo(ctx, func(repo assets.Repository) error {
				srv := server.New(repo, loggerFromContext(ctx), server.WithSessionTTL(ttl))
				printInfo("Serving dialogue graphs")
				printKeyValue("Address", addr)
				printKeyValue("Storage", cfg.Storage.Backend)
				printKeyValue("Session TTL", ttl.String())
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else "+config.DefaultServerAddr+")")
	cmd.Flags().DurationVar(&ttl, "session-ttl", server.DefaultSessionTTL, "idle timeout for playback sessions")
	return cmd
}
