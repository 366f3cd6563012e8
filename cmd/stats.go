package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/partprice/internal/bootstrap"
)

func newStatsCommand() *cobra.Command {
	var (
		category string
		byBrand  bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show price statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if byBrand {
					stats, err := app.Stats.BrandStats(ctx)
					if err != nil {
						return err
					}
					renderBrandStats(cmd.OutOrStdout(), stats)
					return nil
				}

				stats, err := app.Stats.PriceStats(ctx, category)
				if err != nil {
					return err
				}
				renderPriceStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only show this part category")
	cmd.Flags().BoolVar(&byBrand, "by-brand", false, "show per-brand averages instead")
	return cmd
}
