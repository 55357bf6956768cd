// Package store persists providers, validation results, flags, and batch
// jobs behind a driver-agnostic interface.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// ProviderFilter specifies criteria for listing providers.
type ProviderFilter struct {
	State  string `json:"state,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ResultFilter specifies criteria for listing validation results.
type ResultFilter struct {
	ProviderID string       `json:"provider_id,omitempty"`
	Status     model.Status `json:"status,omitempty"`
	Limit      int          `json:"limit,omitempty"`
	Offset     int          `json:"offset,omitempty"`
}

// FlagFilter specifies criteria for listing flags.
type FlagFilter struct {
	ProviderID string         `json:"provider_id,omitempty"`
	Type       model.FlagType `json:"flag_type,omitempty"`
	Unresolved bool           `json:"unresolved,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Offset     int            `json:"offset,omitempty"`
}

// Store defines the persistence interface for the validation pipeline.
// Validation results are append-only; a new run inserts a new record.
type Store interface {
	// Providers
	PutProvider(ctx context.Context, p model.Provider) error
	GetProvider(ctx context.Context, providerID string) (*model.Provider, error)
	ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error)

	// Validation results
	PutResult(ctx context.Context, res model.ValidationResult) error
	LatestResult(ctx context.Context, providerID string) (*model.ValidationResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]model.ValidationResult, error)

	// Flags
	PutFlags(ctx context.Context, flags []model.Flag) error
	ListFlags(ctx context.Context, filter FlagFilter) ([]model.Flag, error)
	ResolveFlag(ctx context.Context, flagID string) error

	// Batch jobs
	CreateJob(ctx context.Context, filename string, totalProviders int) (*model.Job, error)
	StartJob(ctx context.Context, jobID string) error
	UpdateJobProgress(ctx context.Context, jobID string, processed, succeeded, errored int) error
	CompleteJob(ctx context.Context, jobID string, status model.JobStatus, errorMessage string) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func newJob(filename string, totalProviders int) *model.Job {
	return &model.Job{
		ID:             uuid.New().String(),
		Filename:       filename,
		TotalProviders: totalProviders,
		Status:         model.JobPending,
		CreatedAt:      time.Now().UTC(),
	}
}
