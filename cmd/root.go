package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "smartgarden",
	Short: "Smart garden data maintenance tools",
	Long:  "Maintenance commands for the smart garden database: geocoding Vietnamese wards, reporting geocoding progress and exporting ward locations.",
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
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
