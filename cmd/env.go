package main

import (
	"context"
	"time"

	"github.com/Anya2605/HealthVerify-AI/internal/fusion"
	"github.com/Anya2605/HealthVerify-AI/internal/resilience"
	"github.com/Anya2605/HealthVerify-AI/internal/source"
	"github.com/Anya2605/HealthVerify-AI/internal/store"
	"github.com/Anya2605/HealthVerify-AI/internal/validator"
)

// env bundles the store and orchestrator a command needs.
type env struct {
	store store.Store
	orch  *validator.Orchestrator
}

// initEnv validates config for the given mode and wires the store, source
// clients, and orchestrator.
func initEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	weights, err := fusion.LoadWeights(cfg.Fusion.WeightsFile)
	if err != nil {
		st.Close()
		return nil, err
	}

	retry := resilience.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelaySecs) * time.Second,
	}

	clients := []source.Client{
		source.NewRegistryClient(cfg.Registry, retry),
		source.NewGeocodeClient(cfg.Geocode, retry),
		source.NewPhoneClient(cfg.Phone, retry),
		source.NewWebClient(cfg.Web),
	}

	orch := validator.New(fusion.NewScorer(weights), clients,
		validator.WithMaxConcurrent(cfg.Batch.MaxConcurrentProviders))

	return &env{store: st, orch: orch}, nil
}

func (e *env) Close() {
	_ = e.store.Close()
}
