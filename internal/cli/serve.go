package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/booker/internal/config"
	"github.com/sakif/booker/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var overrides []func(*config.Config)
			if cmd.Flags().Changed("port") {
				overrides = append(overrides, func(c *config.Config) { c.Port = port })
			}
			cfg, err := config.Load(rootOpts.ConfigPath, overrides...)
			if err != nil {
				return err
			}

			logger := cfg.NewLogger(cmd.ErrOrStderr())
			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides PORT)")
	return cmd
}
