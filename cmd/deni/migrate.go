package main

import (
	"fmt"

	"github.com/nimasrn/denitracker/internal/config"
	"github.com/nimasrn/denitracker/pkg/localdb"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the on-device database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		db, err := localdb.Open(localdb.Config{Path: cfg.LocalDBPath, Debug: cfg.LocalDBDebug})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := localdb.Migrate(db); err != nil {
			return err
		}
		v, err := localdb.Version(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d\n", cfg.LocalDBPath, v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
