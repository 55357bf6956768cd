package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "healthverify",
	Short: "Healthcare provider trust validation",
	Long:  "Validates provider directory records against the NPI registry, geocoding, phone lookup, and web presence, fusing the results into a confidence score with review flags.",
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
