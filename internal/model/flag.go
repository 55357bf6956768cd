package model

import "time"

// FlagType is the reviewer-facing category of a flag.
type FlagType string

const (
	FlagCritical FlagType = "CRITICAL"
	FlagWarning  FlagType = "WARNING"
	FlagInfo     FlagType = "INFO"
)

// Severity orders flags for triage.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Flag is an actionable issue raised against one provider field. Details
// carries the evidence (error text, input values, confidence numbers) an
// operator needs to act without re-running validation. Resolution is an
// external mutation applied through the store, never by the pipeline.
type Flag struct {
	ID         string         `json:"id,omitempty"`
	ProviderID string         `json:"provider_id"`
	Type       FlagType       `json:"flag_type"`
	Severity   Severity       `json:"severity"`
	Field      string         `json:"field"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
	Resolved   bool           `json:"resolved"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
}
