package main

import (
	"os/signal"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/ingest"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/store"
)

var batchState string

var batchCmd = &cobra.Command{
	Use:   "batch [roster-file]",
	Short: "Validate providers in bulk",
	Long:  "Validates a roster file, or every stored provider when no file is given. Progress is tracked in a processing job that survives interruption.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		var providers []model.Provider
		filename := "stored-providers"

		if len(args) == 1 {
			filename = args[0]
			parsed, err := ingest.File(args[0])
			if err != nil {
				return err
			}
			for _, p := range parsed.Providers {
				if err := env.store.PutProvider(ctx, p); err != nil {
					return err
				}
			}
			providers = parsed.Providers
		} else {
			providers, err = env.store.ListProviders(ctx, listFilter())
			if err != nil {
				return err
			}
		}

		if len(providers) == 0 {
			return eris.New("no providers to validate")
		}

		job, err := env.store.CreateJob(ctx, filename, len(providers))
		if err != nil {
			return err
		}
		if err := env.store.StartJob(ctx, job.ID); err != nil {
			return err
		}

		zap.L().Info("batch started",
			zap.String("job_id", job.ID),
			zap.Int("providers", len(providers)),
		)

		var mu sync.Mutex
		processed, succeeded, errored := 0, 0, 0

		results := env.orch.ValidateBatch(ctx, providers, func(res model.ValidationResult) {
			if err := env.store.PutResult(ctx, res); err != nil {
				zap.L().Error("store result failed", zap.String("provider_id", res.ProviderID), zap.Error(err))
			}
			if len(res.Flags) > 0 {
				if err := env.store.PutFlags(ctx, res.Flags); err != nil {
					zap.L().Error("store flags failed", zap.String("provider_id", res.ProviderID), zap.Error(err))
				}
			}

			mu.Lock()
			processed++
			if res.Status == model.StatusError {
				errored++
			} else {
				succeeded++
			}
			p, s, e := processed, succeeded, errored
			mu.Unlock()

			if err := env.store.UpdateJobProgress(ctx, job.ID, p, s, e); err != nil {
				zap.L().Error("update job progress failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		})

		status := model.JobCompleted
		if ctx.Err() != nil {
			status = model.JobFailed
		}
		if err := env.store.CompleteJob(ctx, job.ID, status, ""); err != nil {
			zap.L().Error("complete job failed", zap.String("job_id", job.ID), zap.Error(err))
		}

		byStatus := map[model.Status]int{}
		for _, r := range results {
			byStatus[r.Status]++
		}
		zap.L().Info("batch finished",
			zap.String("job_id", job.ID),
			zap.String("job_status", string(status)),
			zap.Int("validated", byStatus[model.StatusValidated]),
			zap.Int("partial", byStatus[model.StatusPartial]),
			zap.Int("flagged", byStatus[model.StatusFlagged]),
			zap.Int("errored", byStatus[model.StatusError]),
		)

		return eris.Wrap(ctx.Err(), "batch interrupted")
	},
}

func listFilter() store.ProviderFilter {
	return store.ProviderFilter{State: batchState, Limit: 100000}
}

func init() {
	batchCmd.Flags().StringVar(&batchState, "state", "", "only validate stored providers in this state")
	rootCmd.AddCommand(batchCmd)
}
