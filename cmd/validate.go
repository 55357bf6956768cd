package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <provider-id>",
	Short: "Validate a single stored provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "validate")
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.store.GetProvider(ctx, args[0])
		if err != nil {
			return err
		}
		if p == nil {
			return eris.Errorf("provider not found: %s", args[0])
		}

		result := env.orch.Validate(ctx, *p)

		if err := env.store.PutResult(ctx, result); err != nil {
			return err
		}
		if len(result.Flags) > 0 {
			if err := env.store.PutFlags(ctx, result.Flags); err != nil {
				return err
			}
		}

		return printJSON(result)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
