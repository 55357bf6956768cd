package model

import "time"

// JobStatus tracks a batch validation job's lifecycle.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// Job is a batch validation run over an ingested roster. Counters are
// updated as each provider completes so pollers can show progress.
type Job struct {
	ID             string     `json:"job_id"`
	Filename       string     `json:"filename"`
	TotalProviders int        `json:"total_providers"`
	Processed      int        `json:"processed_count"`
	Succeeded      int        `json:"success_count"`
	Errored        int        `json:"error_count"`
	Status         JobStatus  `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}
