package main

import (
	"authviz/internal/geo"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newGeoDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geodb",
		Short: "Manage the sqlite geolocation database",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError{cmd.CommandPath(), fmt.Errorf("unknown command %q", args[0])}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newGeoDBImportCmd(a))
	return cmd
}

func newGeoDBImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "import <csv> <sqlite-path>",
		Short:   "Build the sqlite database from a start,end,country CSV",
		Example: "  authviz geodb import dbip-country-lite.csv /var/lib/authviz/geo.db",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError{cmd.CommandPath(), fmt.Errorf("expected <csv> and <sqlite-path>, got %d arguments", len(args))}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open CSV: %w", err)
			}
			defer f.Close()

			n, err := geo.Import(f, args[1])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			fmt.Fprintf(a.stdout, "Imported %d ranges into %s\n", n, args[1])
			return nil
		},
	}
}
