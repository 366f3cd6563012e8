package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/partprice/internal/bootstrap"
)

func newServeCommand() *cobra.Command {
	var autostart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if cmd.Flags().Changed("autostart") {
					app.Config.Scraper.AutoStart = autostart
				}
				return app.Serve(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&autostart, "autostart", false, "start the scraper with the server")
	return cmd
}
