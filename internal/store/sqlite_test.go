package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProvider(id string) model.Provider {
	return model.Provider{
		ProviderID:      id,
		NPI:             "1234567890",
		FirstName:       "Jane",
		LastName:        "Doe",
		FullName:        "Dr. Jane Doe",
		Specialty:       "Internal Medicine",
		PracticeAddress: "123 Main St",
		City:            "Boston",
		State:           "MA",
		ZipCode:         "02101",
		Phone:           "555-123-4567",
		Email:           "jane@example.com",
	}
}

func sampleResult(providerID string, confidence float64, status model.Status) model.ValidationResult {
	return model.ValidationResult{
		ProviderID:        providerID,
		NPI:               "1234567890",
		Name:              "Dr. Jane Doe",
		Timestamp:         time.Now().UTC(),
		OverallConfidence: confidence,
		Status:            status,
		Validations: map[string]model.SourceResult{
			model.SourceRegistry: {Valid: true, Confidence: 100, Source: model.SourceRegistry},
		},
		SourcesUsed: []string{model.SourceRegistry},
	}
}

func sampleFlag(providerID string) model.Flag {
	return model.Flag{
		ID:         uuid.New().String(),
		ProviderID: providerID,
		Type:       model.FlagCritical,
		Severity:   model.SeverityHigh,
		Field:      model.SourceRegistry,
		Message:    "NPI not found in registry or invalid",
		Details:    map[string]any{"npi": "1234567890"},
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSQLiteProviderRoundtrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.PutProvider(ctx, sampleProvider("PRV-1")))

	got, err := s.GetProvider(ctx, "PRV-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dr. Jane Doe", got.FullName)
	assert.Equal(t, "Boston", got.City)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteProviderUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	p := sampleProvider("PRV-1")
	require.NoError(t, s.PutProvider(ctx, p))

	p.Phone = "555-999-0000"
	require.NoError(t, s.PutProvider(ctx, p))

	got, err := s.GetProvider(ctx, "PRV-1")
	require.NoError(t, err)
	assert.Equal(t, "555-999-0000", got.Phone)

	all, err := s.ListProviders(ctx, ProviderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteGetProviderMissing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetProvider(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteListProvidersByState(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	pMA := sampleProvider("PRV-1")
	pNY := sampleProvider("PRV-2")
	pNY.State = "NY"
	require.NoError(t, s.PutProvider(ctx, pMA))
	require.NoError(t, s.PutProvider(ctx, pNY))

	got, err := s.ListProviders(ctx, ProviderFilter{State: "NY"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PRV-2", got[0].ProviderID)
}

func TestSQLiteResultsAppendOnly(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.PutProvider(ctx, sampleProvider("PRV-1")))

	first := sampleResult("PRV-1", 93, model.StatusValidated)
	first.Timestamp = time.Now().UTC().Add(-time.Hour)
	second := sampleResult("PRV-1", 60.5, model.StatusPartial)

	require.NoError(t, s.PutResult(ctx, first))
	require.NoError(t, s.PutResult(ctx, second))

	latest, err := s.LatestResult(ctx, "PRV-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 60.5, latest.OverallConfidence)
	assert.Equal(t, model.StatusPartial, latest.Status)

	all, err := s.ListResults(ctx, ResultFilter{ProviderID: "PRV-1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteLatestResultMissing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.LatestResult(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteListResultsByStatus(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.PutProvider(ctx, sampleProvider("PRV-1")))
	require.NoError(t, s.PutResult(ctx, sampleResult("PRV-1", 93, model.StatusValidated)))
	require.NoError(t, s.PutResult(ctx, sampleResult("PRV-1", 45, model.StatusFlagged)))

	flagged, err := s.ListResults(ctx, ResultFilter{Status: model.StatusFlagged})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, 45.0, flagged[0].OverallConfidence)
}

func TestSQLiteResultPreservesValidations(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	res := sampleResult("PRV-1", 93, model.StatusValidated)
	res.Validations[model.SourcePhone] = model.SourceResult{
		Valid: true, Confidence: 85, Source: model.SourcePhone,
		Phone: &model.PhoneData{Number: "5551234567", LineType: "mobile", Carrier: "Verizon", ValidFormat: true},
	}
	require.NoError(t, s.PutResult(ctx, res))

	latest, err := s.LatestResult(ctx, "PRV-1")
	require.NoError(t, err)
	require.NotNil(t, latest.Validations[model.SourcePhone].Phone)
	assert.Equal(t, "Verizon", latest.Validations[model.SourcePhone].Phone.Carrier)
}

func TestSQLiteFlagLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	f := sampleFlag("PRV-1")
	require.NoError(t, s.PutFlags(ctx, []model.Flag{f}))

	unresolved, err := s.ListFlags(ctx, FlagFilter{Unresolved: true})
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, f.Message, unresolved[0].Message)
	assert.Equal(t, "1234567890", unresolved[0].Details["npi"])
	assert.False(t, unresolved[0].Resolved)

	require.NoError(t, s.ResolveFlag(ctx, f.ID))

	unresolved, err = s.ListFlags(ctx, FlagFilter{Unresolved: true})
	require.NoError(t, err)
	assert.Empty(t, unresolved)

	all, err := s.ListFlags(ctx, FlagFilter{ProviderID: "PRV-1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Resolved)
	assert.NotNil(t, all[0].ResolvedAt)
}

func TestSQLiteResolveFlagTwice(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	f := sampleFlag("PRV-1")
	require.NoError(t, s.PutFlags(ctx, []model.Flag{f}))
	require.NoError(t, s.ResolveFlag(ctx, f.ID))

	err := s.ResolveFlag(ctx, f.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "flag not found")
}

func TestSQLiteListFlagsByType(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	critical := sampleFlag("PRV-1")
	warning := sampleFlag("PRV-1")
	warning.ID = uuid.New().String()
	warning.Type = model.FlagWarning
	warning.Severity = model.SeverityMedium
	require.NoError(t, s.PutFlags(ctx, []model.Flag{critical, warning}))

	got, err := s.ListFlags(ctx, FlagFilter{Type: model.FlagWarning})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.FlagWarning, got[0].Type)
}

func TestSQLiteJobLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	job, err := s.CreateJob(ctx, "roster.xlsx", 50)
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, job.Status)
	assert.Equal(t, 50, job.TotalProviders)

	require.NoError(t, s.StartJob(ctx, job.ID))
	require.NoError(t, s.UpdateJobProgress(ctx, job.ID, 25, 20, 5))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobProcessing, got.Status)
	assert.Equal(t, 25, got.Processed)
	assert.Equal(t, 20, got.Succeeded)
	assert.Equal(t, 5, got.Errored)
	assert.NotNil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, s.CompleteJob(ctx, job.ID, model.JobCompleted, ""))

	got, err = s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestSQLiteGetJobMissing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetJob(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteUpdateMissingJob(t *testing.T) {
	s := newTestSQLite(t)

	err := s.UpdateJobProgress(context.Background(), "nope", 1, 1, 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "job not found")
}
