package api

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/store"
	"github.com/Anya2605/HealthVerify-AI/internal/validator"
)

// JobRunner processes batch validation jobs in the background and keeps the
// job row's progress counters current.
type JobRunner struct {
	store store.Store
	orch  *validator.Orchestrator
	wg    sync.WaitGroup
}

func NewJobRunner(st store.Store, orch *validator.Orchestrator) *JobRunner {
	return &JobRunner{store: st, orch: orch}
}

// Start launches background processing for a created job. It returns
// immediately; progress is observable through the job row.
func (r *JobRunner) Start(jobID string, providers []model.Provider) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(context.Background(), jobID, providers)
	}()
}

// Wait blocks until all in-flight jobs finish. Used on shutdown.
func (r *JobRunner) Wait() {
	r.wg.Wait()
}

func (r *JobRunner) run(ctx context.Context, jobID string, providers []model.Provider) {
	if err := r.store.StartJob(ctx, jobID); err != nil {
		zap.L().Error("start job failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	var mu sync.Mutex
	processed, succeeded, errored := 0, 0, 0

	r.orch.ValidateBatch(ctx, providers, func(res model.ValidationResult) {
		if err := r.store.PutResult(ctx, res); err != nil {
			zap.L().Error("store result failed", zap.String("provider_id", res.ProviderID), zap.Error(err))
		}
		if len(res.Flags) > 0 {
			if err := r.store.PutFlags(ctx, res.Flags); err != nil {
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

		if err := r.store.UpdateJobProgress(ctx, jobID, p, s, e); err != nil {
			zap.L().Error("update job progress failed", zap.String("job_id", jobID), zap.Error(err))
		}
	})

	status := model.JobCompleted
	if ctx.Err() != nil {
		status = model.JobFailed
	}
	if err := r.store.CompleteJob(ctx, jobID, status, ""); err != nil {
		zap.L().Error("complete job failed", zap.String("job_id", jobID), zap.Error(err))
	}

	zap.L().Info("batch job finished",
		zap.String("job_id", jobID),
		zap.Int("processed", processed),
		zap.Int("succeeded", succeeded),
		zap.Int("errored", errored),
	)
}
