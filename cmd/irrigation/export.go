package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/store"
	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/xlsx"
)

const dayLayout = "2006-01-02"

func newExportCmd() *cobra.Command {
	var from, to, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write schedule entries to an .xlsx spreadsheet",
		Long: "Write schedule entries starting in [from, to) to an .xlsx spreadsheet.\n" +
			"Dates are YYYY-MM-DD in the configured TIMEZONE; an empty bound is open.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			start, err := parseDay(from, cfg.Timezone)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := parseDay(to, cfg.Timezone)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			db, err := store.Open(cmd.Context(), cfg.DBPath, cfg.StoreTimeout, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			records, err := db.ListSchedules(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := xlsx.Export(f, records, cfg.Timezone); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("schedule exported", "path", output, "entries", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "first day to exclude (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&output, "output", "o", "schedules.xlsx", "spreadsheet path")
	return cmd
}

// parseDay returns local midnight of a YYYY-MM-DD date, or the zero time for
// an empty string.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dayLayout, s, loc)
}
