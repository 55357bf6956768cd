// Package validator orchestrates the per-provider validation pipeline:
// four independent source checks, confidence fusion, anomaly detection,
// flag generation, and status derivation.
package validator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Anya2605/HealthVerify-AI/internal/flagger"
	"github.com/Anya2605/HealthVerify-AI/internal/fusion"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/source"
)

// Orchestrator runs the full validation pipeline for one provider at a
// time. Source clients never fail past their boundary; any fault that still
// escapes is caught here and becomes an ERROR-status result.
type Orchestrator struct {
	clients []source.Client
	scorer  *fusion.Scorer

	// maxConcurrent bounds batch-level parallelism.
	maxConcurrent int
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithMaxConcurrent bounds how many providers a batch validates in
// parallel.
func WithMaxConcurrent(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// New builds an Orchestrator over the given source clients. Clients are
// consulted in the order given; their Name() keys the validations map.
func New(scorer *fusion.Scorer, clients []source.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		clients:       clients,
		scorer:        scorer,
		maxConcurrent: 10,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate runs every source check for one provider and assembles the
// final result. The four checks run concurrently; fusion, anomaly
// detection, and flag generation run strictly after all of them finish.
// Validate never returns an error: orchestration faults produce an
// ERROR-status result.
func (o *Orchestrator) Validate(ctx context.Context, p model.Provider) (result model.ValidationResult) {
	start := time.Now()

	result = model.ValidationResult{
		ProviderID:  p.ProviderID,
		NPI:         p.NPI,
		Name:        p.FullName,
		Timestamp:   start.UTC(),
		Status:      model.StatusPending,
		Validations: make(map[string]model.SourceResult, len(o.clients)),
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("validation pipeline fault",
				zap.String("provider_id", p.ProviderID),
				zap.Any("fault", r),
			)
			result.Status = model.StatusError
			result.Error = fmt.Sprintf("validation fault: %v", r)
			result.Duration = time.Since(start)
		}
	}()

	results := make([]model.SourceResult, len(o.clients))
	eg, checkCtx := errgroup.WithContext(ctx)
	for i, client := range o.clients {
		eg.Go(func() error {
			results[i] = client.Check(checkCtx, p)
			return nil
		})
	}
	// Source clients encode failure in their results, never in an error.
	_ = eg.Wait()

	for i, client := range o.clients {
		result.Validations[client.Name()] = results[i]
		result.SourcesUsed = append(result.SourcesUsed, client.Name())
	}

	result.OverallConfidence = o.scorer.Fuse(result.Validations)
	result.Anomalies = fusion.DetectAnomalies(&result)
	result.Flags = flagger.Generate(&result, p)
	result.Recommendations = fusion.GenerateRecommendations(&result)
	result.Status = fusion.DeriveStatus(result.OverallConfidence, result.Flags)
	result.Duration = time.Since(start)

	zap.L().Info("provider validated",
		zap.String("provider_id", p.ProviderID),
		zap.Float64("overall_confidence", result.OverallConfidence),
		zap.String("status", string(result.Status)),
		zap.Int("flags", len(result.Flags)),
		zap.Duration("duration", result.Duration),
	)
	return result
}

// ValidateBatch validates providers with bounded parallelism. Individual
// failures never abort the batch; results come back in input order. The
// optional onResult callback fires once per completed provider, from the
// worker goroutine that produced it.
func (o *Orchestrator) ValidateBatch(ctx context.Context, providers []model.Provider, onResult func(model.ValidationResult)) []model.ValidationResult {
	results := make([]model.ValidationResult, len(providers))

	eg, batchCtx := errgroup.WithContext(ctx)
	eg.SetLimit(o.maxConcurrent)

	for i, p := range providers {
		eg.Go(func() error {
			if err := batchCtx.Err(); err != nil {
				results[i] = canceledResult(p, err)
			} else {
				results[i] = o.Validate(batchCtx, p)
			}
			if onResult != nil {
				onResult(results[i])
			}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func canceledResult(p model.Provider, err error) model.ValidationResult {
	return model.ValidationResult{
		ProviderID:  p.ProviderID,
		NPI:         p.NPI,
		Name:        p.FullName,
		Timestamp:   time.Now().UTC(),
		Status:      model.StatusError,
		Error:       "validation canceled: " + err.Error(),
		Validations: map[string]model.SourceResult{},
	}
}
