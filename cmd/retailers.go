package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/partprice/internal/bootstrap"
	"github.com/jonesrussell/partprice/internal/retailer"
)

const defaultRetailersFile = "retailers.yml"

func newRetailersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retailers",
		Short: "Inspect and edit the retailer catalog",
	}
	cmd.AddCommand(newRetailersListCommand(), newRetailersTemplateCommand(), newRetailersImportCommand())
	return cmd
}

func newRetailersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the retailers visited by each pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			catalog, err := retailer.LoadCatalog(cfg.Scraper.RetailersFile)
			if err != nil {
				return err
			}
			renderRetailers(cmd.OutOrStdout(), catalog.Retailers())
			return nil
		},
	}
}

func newRetailersTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "template FILE.xlsx",
		Short: "Write a spreadsheet template pre-filled with the built-in retailers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create %s: %w", args[0], err)
			}
			if err = retailer.WriteSheet(f, retailer.DefaultCatalog().Retailers()); err != nil {
				_ = f.Close()
				return err
			}
			if err = f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", args[0])
			return nil
		},
	}
}

func newRetailersImportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "import FILE.xlsx",
		Short: "Convert a retailer spreadsheet into a retailers file",
		Long: `Validate the rows of a retailer spreadsheet against the built-in catalog and
write them as the YAML retailers file loaded by scraper.retailers_file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := retailer.ReadSheetFile(args[0])
			if err != nil {
				return err
			}
			merged, err := retailer.DefaultCatalog().Merge(extra)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err = retailer.WriteYAML(f, extra); err != nil {
				_ = f.Close()
				return err
			}
			if err = f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d retailers into %s\n", len(extra), out)
			renderRetailers(cmd.OutOrStdout(), merged.Retailers())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", defaultRetailersFile, "retailers file to write")
	return cmd
}
