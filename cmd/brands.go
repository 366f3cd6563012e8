package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/partprice/internal/bootstrap"
)

func newBrandsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brands",
		Short: "Manage tracked car brands",
	}
	cmd.AddCommand(newBrandsListCommand(), newBrandsAddCommand(), newBrandsDeleteCommand())
	return cmd
}

func newBrandsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List brands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				brands, err := app.Brands.List(ctx)
				if err != nil {
					return err
				}
				renderBrands(cmd.OutOrStdout(), brands)
				return nil
			})
		},
	}
}

func newBrandsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Add a brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				brand, err := app.Brands.Create(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Brand %s added with id %d\n", brand.Name, brand.ID)
				return nil
			})
		},
	}
}

func newBrandsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME|ID",
		Short: "Delete a brand and its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				var (
					name string
					err  error
				)
				if id, convErr := strconv.ParseInt(args[0], 10, 64); convErr == nil {
					name, err = app.Brands.Delete(ctx, id)
				} else {
					name, err = app.Brands.DeleteByName(ctx, args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Brand %s deleted successfully\n", name)
				return nil
			})
		},
	}
}
