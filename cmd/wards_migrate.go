package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var wardsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Add the geocoding columns and index to the ward table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openWardStore(ctx)
		if err != nil {
			return eris.Wrap(err, "wards migrate: open store")
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "wards migrate")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied successfully.")
		return nil
	},
}

func init() {
	wardsCmd.AddCommand(wardsMigrateCmd)
}
