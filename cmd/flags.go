package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/store"
)

var (
	flagsProviderID string
	flagsType       string
	flagsUnresolved bool
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Inspect and resolve validation flags",
}

var flagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List validation flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "validate")
		if err != nil {
			return err
		}
		defer env.Close()

		flags, err := env.store.ListFlags(ctx, store.FlagFilter{
			ProviderID: flagsProviderID,
			Type:       model.FlagType(strings.ToUpper(flagsType)),
			Unresolved: flagsUnresolved,
			Limit:      1000,
		})
		if err != nil {
			return err
		}

		return printJSON(flags)
	},
}

var flagsResolveCmd = &cobra.Command{
	Use:   "resolve <flag-id>",
	Short: "Mark a flag as resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "validate")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.store.ResolveFlag(ctx, args[0]); err != nil {
			return err
		}

		zap.L().Info("flag resolved", zap.String("flag_id", args[0]))
		return nil
	},
}

func init() {
	flagsListCmd.Flags().StringVar(&flagsProviderID, "provider", "", "filter by provider id")
	flagsListCmd.Flags().StringVar(&flagsType, "type", "", "filter by flag type (CRITICAL, WARNING, INFO)")
	flagsListCmd.Flags().BoolVar(&flagsUnresolved, "unresolved", false, "only show unresolved flags")

	flagsCmd.AddCommand(flagsListCmd)
	flagsCmd.AddCommand(flagsResolveCmd)
	rootCmd.AddCommand(flagsCmd)
}
