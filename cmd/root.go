package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discgeo/discgeo/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "discgeo",
	Short: "Geography ingestion and containment queries",
	Long:  "Ingests administrative-boundary polygons (states, counties, zipcodes), builds the county-to-state hierarchy, and answers point-in-polygon course queries.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
