package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discgeo/discgeo/internal/store"
)

var migrateSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	Long:  "Creates the geography, relationship, course, state-code, and ingest-run tables if they do not exist.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}
		if migrateSeed {
			if err := s.SeedStateCodes(ctx, store.StateRefs); err != nil {
				return eris.Wrap(err, "seed state codes")
			}
			zap.L().Info("state reference table seeded", zap.Int("states", len(store.StateRefs)))
		}

		zap.L().Info("all migrations applied successfully")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "seed the state code reference table")
	rootCmd.AddCommand(migrateCmd)
}
