package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import <roster-file>",
	Short: "Import a provider roster (CSV or XLSX) into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		parsed, err := ingest.File(args[0])
		if err != nil {
			return err
		}

		for _, p := range parsed.Providers {
			if err := env.store.PutProvider(ctx, p); err != nil {
				return err
			}
		}

		for _, skip := range parsed.Skipped {
			zap.L().Warn("skipped roster row",
				zap.Int("row", skip.Row),
				zap.String("reason", skip.Reason),
			)
		}

		zap.L().Info("roster imported",
			zap.String("file", args[0]),
			zap.Int("providers", len(parsed.Providers)),
			zap.Int("skipped", len(parsed.Skipped)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
