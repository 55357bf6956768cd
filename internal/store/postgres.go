package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS providers (
	provider_id      TEXT PRIMARY KEY,
	npi              TEXT NOT NULL,
	first_name       TEXT,
	last_name        TEXT,
	full_name        TEXT NOT NULL,
	specialty        TEXT,
	practice_address TEXT,
	city             TEXT,
	state            TEXT,
	zip_code         TEXT,
	phone            TEXT,
	email            TEXT,
	website          TEXT,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS validation_results (
	id                 BIGSERIAL PRIMARY KEY,
	provider_id        TEXT NOT NULL REFERENCES providers(provider_id),
	result             JSONB NOT NULL,
	overall_confidence DOUBLE PRECISION NOT NULL,
	status             TEXT NOT NULL,
	validated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS flags (
	id          TEXT PRIMARY KEY,
	provider_id TEXT NOT NULL,
	flag_type   TEXT NOT NULL,
	severity    TEXT NOT NULL,
	field       TEXT NOT NULL,
	message     TEXT NOT NULL,
	details     JSONB,
	created_at  TIMESTAMPTZ NOT NULL,
	resolved    BOOLEAN NOT NULL DEFAULT FALSE,
	resolved_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS processing_jobs (
	id              TEXT PRIMARY KEY,
	filename        TEXT NOT NULL,
	total_providers INTEGER NOT NULL,
	processed       INTEGER NOT NULL DEFAULT 0,
	succeeded       INTEGER NOT NULL DEFAULT 0,
	errored         INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	started_at      TIMESTAMPTZ,
	completed_at    TIMESTAMPTZ,
	error_message   TEXT
);

CREATE INDEX IF NOT EXISTS idx_providers_state ON providers(state);
CREATE INDEX IF NOT EXISTS idx_providers_npi ON providers(npi);
CREATE INDEX IF NOT EXISTS idx_results_provider ON validation_results(provider_id, validated_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_status ON validation_results(status);
CREATE INDEX IF NOT EXISTS idx_flags_provider ON flags(provider_id);
CREATE INDEX IF NOT EXISTS idx_flags_resolved ON flags(resolved);
`

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, mainly for tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) PutProvider(ctx context.Context, p model.Provider) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO providers (provider_id, npi, first_name, last_name, full_name, specialty,
			practice_address, city, state, zip_code, phone, email, website, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (provider_id) DO UPDATE SET
			npi = EXCLUDED.npi, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			full_name = EXCLUDED.full_name, specialty = EXCLUDED.specialty,
			practice_address = EXCLUDED.practice_address, city = EXCLUDED.city,
			state = EXCLUDED.state, zip_code = EXCLUDED.zip_code, phone = EXCLUDED.phone,
			email = EXCLUDED.email, website = EXCLUDED.website, updated_at = EXCLUDED.updated_at`,
		p.ProviderID, p.NPI, p.FirstName, p.LastName, p.FullName, p.Specialty,
		p.PracticeAddress, p.City, p.State, p.ZipCode, p.Phone, p.Email, p.Website,
		p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: put provider %s", p.ProviderID)
}

func (s *PostgresStore) GetProvider(ctx context.Context, providerID string) (*model.Provider, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT provider_id, npi, first_name, last_name, full_name, specialty,
			practice_address, city, state, zip_code, phone, email, website, created_at, updated_at
		 FROM providers WHERE provider_id = $1`,
		providerID,
	)

	var p model.Provider
	err := row.Scan(&p.ProviderID, &p.NPI, &p.FirstName, &p.LastName, &p.FullName, &p.Specialty,
		&p.PracticeAddress, &p.City, &p.State, &p.ZipCode, &p.Phone, &p.Email, &p.Website,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get provider %s", providerID)
	}
	return &p, nil
}

func (s *PostgresStore) ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error) {
	query := `SELECT provider_id, npi, first_name, last_name, full_name, specialty,
		practice_address, city, state, zip_code, phone, email, website, created_at, updated_at
		FROM providers WHERE ($1 = '' OR state = $1)
		ORDER BY provider_id LIMIT $2 OFFSET $3`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, query, filter.State, limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list providers")
	}
	defer rows.Close()

	var providers []model.Provider
	for rows.Next() {
		var p model.Provider
		if err := rows.Scan(&p.ProviderID, &p.NPI, &p.FirstName, &p.LastName, &p.FullName, &p.Specialty,
			&p.PracticeAddress, &p.City, &p.State, &p.ZipCode, &p.Phone, &p.Email, &p.Website,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan provider")
		}
		providers = append(providers, p)
	}
	return providers, eris.Wrap(rows.Err(), "postgres: list providers iterate")
}

func (s *PostgresStore) PutResult(ctx context.Context, res model.ValidationResult) error {
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO validation_results (provider_id, result, overall_confidence, status, validated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		res.ProviderID, resultJSON, res.OverallConfidence, string(res.Status), res.Timestamp,
	)
	return eris.Wrapf(err, "postgres: insert result for %s", res.ProviderID)
}

func (s *PostgresStore) LatestResult(ctx context.Context, providerID string) (*model.ValidationResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT result FROM validation_results WHERE provider_id = $1
		 ORDER BY validated_at DESC, id DESC LIMIT 1`,
		providerID,
	)

	var resultJSON []byte
	err := row.Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest result for %s", providerID)
	}

	var res model.ValidationResult
	if err := json.Unmarshal(resultJSON, &res); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &res, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.ValidationResult, error) {
	query := `SELECT result FROM validation_results
		WHERE ($1 = '' OR provider_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY validated_at DESC, id DESC LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, query, filter.ProviderID, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.ValidationResult
	for rows.Next() {
		var resultJSON []byte
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		var res model.ValidationResult
		if err := json.Unmarshal(resultJSON, &res); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func (s *PostgresStore) PutFlags(ctx context.Context, flags []model.Flag) error {
	for _, f := range flags {
		detailsJSON, err := json.Marshal(f.Details)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal flag details")
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO flags (id, provider_id, flag_type, severity, field, message, details, created_at, resolved)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)`,
			f.ID, f.ProviderID, string(f.Type), string(f.Severity), f.Field, f.Message,
			detailsJSON, f.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert flag %s", f.ID)
		}
	}
	return nil
}

func (s *PostgresStore) ListFlags(ctx context.Context, filter FlagFilter) ([]model.Flag, error) {
	query := `SELECT id, provider_id, flag_type, severity, field, message, details, created_at, resolved, resolved_at
		FROM flags
		WHERE ($1 = '' OR provider_id = $1) AND ($2 = '' OR flag_type = $2) AND ($3 = FALSE OR resolved = FALSE)
		ORDER BY created_at DESC, id LIMIT $4 OFFSET $5`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, query,
		filter.ProviderID, string(filter.Type), filter.Unresolved, limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list flags")
	}
	defer rows.Close()

	var flags []model.Flag
	for rows.Next() {
		var f model.Flag
		var flagType, severity string
		var detailsJSON []byte

		if err := rows.Scan(&f.ID, &f.ProviderID, &flagType, &severity, &f.Field, &f.Message,
			&detailsJSON, &f.CreatedAt, &f.Resolved, &f.ResolvedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan flag")
		}
		f.Type = model.FlagType(flagType)
		f.Severity = model.Severity(severity)
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &f.Details); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal flag details")
			}
		}
		flags = append(flags, f)
	}
	return flags, eris.Wrap(rows.Err(), "postgres: list flags iterate")
}

func (s *PostgresStore) ResolveFlag(ctx context.Context, flagID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE flags SET resolved = TRUE, resolved_at = $1 WHERE id = $2 AND resolved = FALSE`,
		time.Now().UTC(), flagID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: resolve flag %s", flagID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("flag not found: %s", flagID)
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, filename string, totalProviders int) (*model.Job, error) {
	job := newJob(filename, totalProviders)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO processing_jobs (id, filename, total_providers, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.Filename, job.TotalProviders, string(job.Status), job.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
	}
	return job, nil
}

func (s *PostgresStore) StartJob(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs SET status = $1, started_at = $2 WHERE id = $3`,
		string(model.JobProcessing), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: start job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) UpdateJobProgress(ctx context.Context, jobID string, processed, succeeded, errored int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs SET processed = $1, succeeded = $2, errored = $3 WHERE id = $4`,
		processed, succeeded, errored, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job progress %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, jobID string, status model.JobStatus, errorMessage string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs SET status = $1, completed_at = $2, error_message = $3 WHERE id = $4`,
		string(status), time.Now().UTC(), errorMessage, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, filename, total_providers, processed, succeeded, errored, status,
			created_at, started_at, completed_at, error_message
		 FROM processing_jobs WHERE id = $1`,
		jobID,
	)

	var j model.Job
	var errMsg *string
	err := row.Scan(&j.ID, &j.Filename, &j.TotalProviders, &j.Processed, &j.Succeeded, &j.Errored,
		&j.Status, &j.CreatedAt, &j.StartedAt, &j.CompletedAt, &errMsg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	return &j, nil
}
