package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/ride-height-service/internal/catalog"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the attraction catalog",
	}
	cmd.AddCommand(newCatalogValidateCommand())
	return cmd
}

func newCatalogValidateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a catalog file (default: the embedded catalog)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			colorize := shouldColorize(cmd.OutOrStdout())
			cat, err := catalog.Load(file)
			if err != nil {
				printLines(cmd, []string{renderStatusLine("Catalog", statusError, "invalid", colorize)})
				return err
			}
			source := file
			if source == "" {
				source = "embedded"
			}
			printLines(cmd, []string{
				renderStatusLine("Catalog", statusOK, source, colorize),
				renderStatusLine("Attractions", statusInfo, fmt.Sprint(len(cat.Attractions)), colorize),
				renderStatusLine("Shows", statusInfo, fmt.Sprint(len(cat.Shows)), colorize),
				renderStatusLine("Aliases", statusInfo, fmt.Sprint(len(cat.Aliases)), colorize),
				renderStatusLine("Fallbacks", statusInfo, fmt.Sprint(len(cat.FallbackTable())), colorize),
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Catalog TOML file")
	return cmd
}
