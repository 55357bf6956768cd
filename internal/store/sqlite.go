package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS validation_results (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_id        TEXT NOT NULL REFERENCES providers(provider_id),
	result             TEXT NOT NULL,
	overall_confidence REAL NOT NULL,
	status             TEXT NOT NULL,
	validated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS flags (
	id          TEXT PRIMARY KEY,
	provider_id TEXT NOT NULL,
	flag_type   TEXT NOT NULL,
	severity    TEXT NOT NULL,
	field       TEXT NOT NULL,
	message     TEXT NOT NULL,
	details     TEXT,
	created_at  DATETIME NOT NULL,
	resolved    INTEGER NOT NULL DEFAULT 0,
	resolved_at DATETIME
);

CREATE TABLE IF NOT EXISTS processing_jobs (
	id              TEXT PRIMARY KEY,
	filename        TEXT NOT NULL,
	total_providers INTEGER NOT NULL,
	processed       INTEGER NOT NULL DEFAULT 0,
	succeeded       INTEGER NOT NULL DEFAULT 0,
	errored         INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL,
	created_at      DATETIME NOT NULL,
	started_at      DATETIME,
	completed_at    DATETIME,
	error_message   TEXT
);

CREATE INDEX IF NOT EXISTS idx_providers_state ON providers(state);
CREATE INDEX IF NOT EXISTS idx_providers_npi ON providers(npi);
CREATE INDEX IF NOT EXISTS idx_results_provider ON validation_results(provider_id, validated_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_status ON validation_results(status);
CREATE INDEX IF NOT EXISTS idx_flags_provider ON flags(provider_id);
CREATE INDEX IF NOT EXISTS idx_flags_resolved ON flags(resolved);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutProvider(ctx context.Context, p model.Provider) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO providers (provider_id, npi, first_name, last_name, full_name, specialty,
			practice_address, city, state, zip_code, phone, email, website, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(provider_id) DO UPDATE SET
			npi = excluded.npi, first_name = excluded.first_name, last_name = excluded.last_name,
			full_name = excluded.full_name, specialty = excluded.specialty,
			practice_address = excluded.practice_address, city = excluded.city,
			state = excluded.state, zip_code = excluded.zip_code, phone = excluded.phone,
			email = excluded.email, website = excluded.website, updated_at = excluded.updated_at`,
		p.ProviderID, p.NPI, p.FirstName, p.LastName, p.FullName, p.Specialty,
		p.PracticeAddress, p.City, p.State, p.ZipCode, p.Phone, p.Email, p.Website,
		p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: put provider %s", p.ProviderID)
}

func (s *SQLiteStore) GetProvider(ctx context.Context, providerID string) (*model.Provider, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT provider_id, npi, first_name, last_name, full_name, specialty,
			practice_address, city, state, zip_code, phone, email, website, created_at, updated_at
		 FROM providers WHERE provider_id = ?`,
		providerID,
	)

	var p model.Provider
	err := row.Scan(&p.ProviderID, &p.NPI, &p.FirstName, &p.LastName, &p.FullName, &p.Specialty,
		&p.PracticeAddress, &p.City, &p.State, &p.ZipCode, &p.Phone, &p.Email, &p.Website,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get provider %s", providerID)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error) {
	query := `SELECT provider_id, npi, first_name, last_name, full_name, specialty,
		practice_address, city, state, zip_code, phone, email, website, created_at, updated_at
		FROM providers WHERE 1=1`
	var args []any

	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, filter.State)
	}
	query += ` ORDER BY provider_id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list providers")
	}
	defer rows.Close()

	var providers []model.Provider
	for rows.Next() {
		var p model.Provider
		if err := rows.Scan(&p.ProviderID, &p.NPI, &p.FirstName, &p.LastName, &p.FullName, &p.Specialty,
			&p.PracticeAddress, &p.City, &p.State, &p.ZipCode, &p.Phone, &p.Email, &p.Website,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provider")
		}
		providers = append(providers, p)
	}
	return providers, eris.Wrap(rows.Err(), "sqlite: list providers iterate")
}

func (s *SQLiteStore) PutResult(ctx context.Context, res model.ValidationResult) error {
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO validation_results (provider_id, result, overall_confidence, status, validated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		res.ProviderID, string(resultJSON), res.OverallConfidence, string(res.Status), res.Timestamp,
	)
	return eris.Wrapf(err, "sqlite: insert result for %s", res.ProviderID)
}

func (s *SQLiteStore) LatestResult(ctx context.Context, providerID string) (*model.ValidationResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result FROM validation_results WHERE provider_id = ?
		 ORDER BY validated_at DESC, id DESC LIMIT 1`,
		providerID,
	)

	var resultJSON string
	err := row.Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest result for %s", providerID)
	}

	var res model.ValidationResult
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &res, nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.ValidationResult, error) {
	query := `SELECT result FROM validation_results WHERE 1=1`
	var args []any

	if filter.ProviderID != "" {
		query += ` AND provider_id = ?`
		args = append(args, filter.ProviderID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY validated_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var results []model.ValidationResult
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		var res model.ValidationResult
		if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

func (s *SQLiteStore) PutFlags(ctx context.Context, flags []model.Flag) error {
	if len(flags) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin put flags")
	}
	defer tx.Rollback()

	for _, f := range flags {
		detailsJSON, err := json.Marshal(f.Details)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal flag details")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flags (id, provider_id, flag_type, severity, field, message, details, created_at, resolved)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
			f.ID, f.ProviderID, string(f.Type), string(f.Severity), f.Field, f.Message,
			string(detailsJSON), f.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert flag %s", f.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit put flags")
}

func (s *SQLiteStore) ListFlags(ctx context.Context, filter FlagFilter) ([]model.Flag, error) {
	query := `SELECT id, provider_id, flag_type, severity, field, message, details, created_at, resolved, resolved_at
		FROM flags WHERE 1=1`
	var args []any

	if filter.ProviderID != "" {
		query += ` AND provider_id = ?`
		args = append(args, filter.ProviderID)
	}
	if filter.Type != "" {
		query += ` AND flag_type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Unresolved {
		query += ` AND resolved = 0`
	}
	query += ` ORDER BY created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list flags")
	}
	defer rows.Close()

	var flags []model.Flag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, *f)
	}
	return flags, eris.Wrap(rows.Err(), "sqlite: list flags iterate")
}

func (s *SQLiteStore) ResolveFlag(ctx context.Context, flagID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE flags SET resolved = 1, resolved_at = ? WHERE id = ? AND resolved = 0`,
		time.Now().UTC(), flagID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: resolve flag %s", flagID)
	}
	return checkRowsAffected(res, "flag", flagID)
}

func (s *SQLiteStore) CreateJob(ctx context.Context, filename string, totalProviders int) (*model.Job, error) {
	job := newJob(filename, totalProviders)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_jobs (id, filename, total_providers, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.Filename, job.TotalProviders, string(job.Status), job.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
	}
	return job, nil
}

func (s *SQLiteStore) StartJob(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processing_jobs SET status = ?, started_at = ? WHERE id = ?`,
		string(model.JobProcessing), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: start job %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) UpdateJobProgress(ctx context.Context, jobID string, processed, succeeded, errored int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processing_jobs SET processed = ?, succeeded = ?, errored = ? WHERE id = ?`,
		processed, succeeded, errored, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job progress %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, jobID string, status model.JobStatus, errorMessage string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE processing_jobs SET status = ?, completed_at = ?, error_message = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errorMessage, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete job %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, total_providers, processed, succeeded, errored, status,
			created_at, started_at, completed_at, error_message
		 FROM processing_jobs WHERE id = ?`,
		jobID,
	)

	var j model.Job
	var errMsg sql.NullString
	err := row.Scan(&j.ID, &j.Filename, &j.TotalProviders, &j.Processed, &j.Succeeded, &j.Errored,
		&j.Status, &j.CreatedAt, &j.StartedAt, &j.CompletedAt, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}
	j.ErrorMessage = errMsg.String
	return &j, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFlag(row scannable) (*model.Flag, error) {
	var f model.Flag
	var flagType, severity string
	var detailsJSON sql.NullString
	var resolved int

	err := row.Scan(&f.ID, &f.ProviderID, &flagType, &severity, &f.Field, &f.Message,
		&detailsJSON, &f.CreatedAt, &resolved, &f.ResolvedAt)
	if err != nil {
		return nil, eris.Wrap(err, "scan flag")
	}

	f.Type = model.FlagType(flagType)
	f.Severity = model.Severity(severity)
	f.Resolved = resolved != 0
	if detailsJSON.Valid && detailsJSON.String != "" {
		if err := json.Unmarshal([]byte(detailsJSON.String), &f.Details); err != nil {
			return nil, eris.Wrap(err, "unmarshal flag details")
		}
	}
	return &f, nil
}
