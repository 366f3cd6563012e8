package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/partprice/internal/bootstrap"
	"github.com/jonesrussell/partprice/internal/database"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [BRAND...]",
		Short: "Insert sample brands, skipping existing names",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				added, err := app.Brands.Seed(ctx, args)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d brands\n", added)
				return nil
			})
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, app *bootstrap.App) error {
				if err := database.Migrate(app.DB, app.Log); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}
