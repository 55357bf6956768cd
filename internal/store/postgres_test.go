package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresPutProvider(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO providers`).
		WithArgs("PRV-1", "1234567890", "Jane", "Doe", "Dr. Jane Doe", "Internal Medicine",
			"123 Main St", "Boston", "MA", "02101", "555-123-4567", "jane@example.com", "",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutProvider(context.Background(), sampleProvider("PRV-1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetProviderNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT provider_id, npi, .+ FROM providers WHERE provider_id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetProvider(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPutResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO validation_results`).
		WithArgs("PRV-1", pgxmock.AnyArg(), 93.0, "VALIDATED", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutResult(context.Background(), sampleResult("PRV-1", 93, model.StatusValidated))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestResultNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT result FROM validation_results WHERE provider_id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.LatestResult(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResolveFlag(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE flags SET resolved = TRUE`).
		WithArgs(pgxmock.AnyArg(), "flag-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.ResolveFlag(context.Background(), "flag-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResolveFlagNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE flags SET resolved = TRUE`).
		WithArgs(pgxmock.AnyArg(), "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.ResolveFlag(context.Background(), "nope")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "flag not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJobLifecycle(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO processing_jobs`).
		WithArgs(pgxmock.AnyArg(), "roster.xlsx", 10, "PENDING", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	job, err := s.CreateJob(context.Background(), "roster.xlsx", 10)
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, job.Status)

	mock.ExpectExec(`UPDATE processing_jobs SET processed = \$1`).
		WithArgs(5, 4, 1, job.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateJobProgress(context.Background(), job.ID, 5, 4, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "filename", "total_providers", "processed", "succeeded", "errored",
		"status", "created_at", "started_at", "completed_at", "error_message",
	}).AddRow("job-1", "roster.xlsx", 10, 10, 9, 1, model.JobStatus("COMPLETED"), now, &now, &now, (*string)(nil))

	mock.ExpectQuery(`SELECT id, filename, .+ FROM processing_jobs WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(rows)

	got, err := s.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.Equal(t, 9, got.Succeeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
