package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/report"
	"github.com/Anya2605/HealthVerify-AI/internal/store"
)

var (
	exportOutput string
	exportStatus string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export validation results as an XLSX report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "export")
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.store.ListResults(ctx, store.ResultFilter{
			Status: statusFilter(exportStatus),
			Limit:  100000,
		})
		if err != nil {
			return err
		}

		if err := report.WriteExcel(exportOutput, results); err != nil {
			return err
		}

		summary := report.Summarize(results)
		zap.L().Info("report exported",
			zap.String("file", exportOutput),
			zap.Int("results", summary.TotalProviders),
			zap.Float64("average_confidence", summary.AvgConfidence),
			zap.Int("flags", summary.TotalFlags),
		)
		return printJSON(summary)
	},
}

func statusFilter(s string) model.Status {
	return model.Status(strings.ToUpper(strings.TrimSpace(s)))
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "validation_report.xlsx", "output XLSX path")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only include results with this status")
	rootCmd.AddCommand(exportCmd)
}
