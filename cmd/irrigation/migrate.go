package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			db, err := store.Open(cmd.Context(), cfg.DBPath, cfg.StoreTimeout, logger)
			if err != nil {
				logger.Error("migrate failed", "error", err)
				return err
			}
			return db.Close()
		},
	}
}
