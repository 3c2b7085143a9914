package cli

import (
	"github.com/spf13/cobra"

	"devbridge/internal/config"
	"devbridge/internal/server"
	"devbridge/internal/system"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "address to bind (host:port, default from config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the device bridge over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		// Handle Ctrl+C
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		srv := server.New(cfg,
			server.WithConfigPath(path),
			server.WithLogger(system.Logger),
			server.WithConfigOverlay(func(c *config.Config) {
				applyFlags(c)
				if err := system.SetLevel(c.Log.Level); err != nil {
					system.Logger.Warn("ignoring log level from config", "err", err)
				}
			}),
		)
		system.Logger.Info("starting server", "url", "http://"+addr+"/api/health")
		return srv.Start(ctx, addr)
	},
}
