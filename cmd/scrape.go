package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/partprice/internal/bootstrap"
	"github.com/jonesrussell/partprice/internal/ingest"
)

func newScrapeCommand() *cobra.Command {
	var (
		brand string
		parts []string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one ingestion pass in the foreground",
		Long: `Run one ingestion pass in the foreground and print the reconciled counts.
Use --brand and --part to limit the pass to specific combinations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				var opts []ingest.PassOption
				if brand != "" {
					opts = append(opts, ingest.OnlyBrand(brand))
				}
				if len(parts) > 0 {
					opts = append(opts, ingest.OnlyParts(parts...))
				}

				summary, err := app.Scheduler.RunPass(ctx, opts...)
				if err != nil {
					return err
				}
				if brand != "" && summary.Brands == 0 {
					return fmt.Errorf("brand %q not found", brand)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "brands=%d combinations=%d listings=%d created=%d updated=%d failures=%d completed=%t\n",
					summary.Brands, summary.Combinations, summary.Listings,
					summary.Created, summary.Updated, summary.Failures, summary.Completed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&brand, "brand", "", "only scrape this brand")
	cmd.Flags().StringSliceVar(&parts, "part", nil, "only scrape these part names (repeatable)")
	return cmd
}
