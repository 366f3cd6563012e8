// Package cmd implements the partprice command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/partprice/internal/bootstrap"
)

var (
	// cfgFile overrides CONFIG_PATH.
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:           "partprice",
		Short:         "Car part price tracker",
		Long:          `Scrapes car part listings from online retailers and keeps the latest price per part.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newServeCommand(),
		newScrapeCommand(),
		newBrandsCommand(),
		newRetailersCommand(),
		newStatsCommand(),
		newSeedCommand(),
		newMigrateCommand(),
	)
}

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// withApp builds the application for one command and always closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, bootstrap.Options{ConfigPath: cfgFile, Debug: debug})
	if err != nil {
		return err
	}

	runErr := fn(ctx, app)
	//nolint:contextcheck // ctx may already be cancelled by a signal
	if closeErr := app.Close(context.Background()); closeErr != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown: %w", closeErr)
	}
	return runErr
}
