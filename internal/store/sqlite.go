package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/jobpilot/jobpilot/pkg/models"
)

const defaultProfileID = "default"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS applied_jobs (
	id             TEXT PRIMARY KEY,
	company_name   TEXT NOT NULL,
	job_title      TEXT NOT NULL,
	job_url        TEXT NOT NULL,
	status         TEXT NOT NULL,
	applied_at     TEXT,
	failure_reason TEXT,
	debug_run_id   TEXT
);

CREATE TABLE IF NOT EXISTS credentials (
	id         TEXT PRIMARY KEY,
	portal     TEXT NOT NULL,
	tenant     TEXT NOT NULL,
	email      TEXT NOT NULL,
	secret     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (portal, tenant, email)
);

CREATE TABLE IF NOT EXISTS config (
	profile_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	PRIMARY KEY (profile_id, key)
);
`

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db        *sql.DB
	profileID string
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies the schema. WAL mode keeps the bot responsive while an
// application run is writing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLiteStore{db: db, profileID: defaultProfileID}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// -- applications -----------------------------------------------------

func (s *SQLiteStore) AddApplication(ctx context.Context, rec models.ApplicationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applied_jobs
		 (id, company_name, job_title, job_url, status, applied_at, failure_reason, debug_run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CompanyName, rec.JobTitle, rec.JobURL, string(rec.Status),
		nullTime(rec.AppliedAt), nullableString(rec.FailureReason), nullableString(rec.DebugRunID),
	)
	if isConstraintErr(err) {
		return fmt.Errorf("%w: application %s", ErrDuplicateRecord, rec.ID)
	}
	if err != nil {
		return fmt.Errorf("store: add application: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateApplication(ctx context.Context, rec models.ApplicationRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE applied_jobs SET
		 company_name=?, job_title=?, job_url=?, status=?, applied_at=?, failure_reason=?, debug_run_id=?
		 WHERE id=?`,
		rec.CompanyName, rec.JobTitle, rec.JobURL, string(rec.Status),
		nullTime(rec.AppliedAt), nullableString(rec.FailureReason), nullableString(rec.DebugRunID),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update application: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: application %s", ErrNotFound, rec.ID)
	}
	return nil
}

func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (models.ApplicationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, job_title, job_url, status, applied_at, failure_reason, debug_run_id
		 FROM applied_jobs WHERE id = ?`, id)
	rec, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ApplicationRecord{}, fmt.Errorf("%w: application %s", ErrNotFound, id)
	}
	if err != nil {
		return models.ApplicationRecord{}, fmt.Errorf("store: get application: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListApplications(ctx context.Context) ([]models.ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_name, job_title, job_url, status, applied_at, failure_reason, debug_run_id
		 FROM applied_jobs ORDER BY applied_at DESC NULLS LAST, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list applications: %w", err)
	}
	defer rows.Close()

	var out []models.ApplicationRecord
	for rows.Next() {
		rec, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan application: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (models.ApplicationRecord, error) {
	var (
		rec       models.ApplicationRecord
		status    string
		appliedAt sql.NullString
		reason    sql.NullString
		runID     sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.CompanyName, &rec.JobTitle, &rec.JobURL,
		&status, &appliedAt, &reason, &runID)
	if err != nil {
		return models.ApplicationRecord{}, err
	}
	rec.Status = models.ApplicationStatus(status)
	if appliedAt.Valid {
		t, err := parseTime(appliedAt.String)
		if err != nil {
			return models.ApplicationRecord{}, err
		}
		rec.AppliedAt = t
	}
	rec.FailureReason = reason.String
	rec.DebugRunID = runID.String
	return rec, nil
}

// -- credentials ------------------------------------------------------

func (s *SQLiteStore) UpsertCredential(ctx context.Context, cred models.AccountCredential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, portal, tenant, email, secret, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(portal, tenant, email) DO UPDATE SET
		 id=excluded.id, secret=excluded.secret, updated_at=excluded.updated_at`,
		cred.ID, cred.Portal, cred.Tenant, cred.Email, cred.Password,
		formatTime(cred.CreatedAt), formatTime(cred.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("store: upsert credential: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCredential(ctx context.Context, portal, tenant, email string) (models.AccountCredential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, portal, tenant, email, secret, created_at, updated_at
		 FROM credentials WHERE portal = ? AND tenant = ? AND email = ?`,
		portal, tenant, email)
	cred, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AccountCredential{}, fmt.Errorf("%w: credential %s/%s/%s", ErrNotFound, portal, tenant, email)
	}
	if err != nil {
		return models.AccountCredential{}, fmt.Errorf("store: get credential: %w", err)
	}
	return cred, nil
}

func (s *SQLiteStore) ListCredentials(ctx context.Context) ([]models.AccountCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, portal, tenant, email, secret, created_at, updated_at
		 FROM credentials ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list credentials: %w", err)
	}
	defer rows.Close()

	var out []models.AccountCredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan credential: %w", err)
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

func scanCredential(row rowScanner) (models.AccountCredential, error) {
	var (
		cred      models.AccountCredential
		createdAt string
		updatedAt string
	)
	err := row.Scan(&cred.ID, &cred.Portal, &cred.Tenant, &cred.Email,
		&cred.Password, &createdAt, &updatedAt)
	if err != nil {
		return models.AccountCredential{}, err
	}
	if cred.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.AccountCredential{}, err
	}
	if cred.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.AccountCredential{}, err
	}
	return cred, nil
}

// -- key-value --------------------------------------------------------

func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE profile_id = ? AND key = ?`,
		s.profileID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: config key %q", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("store: get value: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO config (profile_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(profile_id, key) DO UPDATE SET value=excluded.value`,
		s.profileID, key, value)
	if err != nil {
		return fmt.Errorf("store: set value: %w", err)
	}
	return nil
}

// -- helpers ----------------------------------------------------------

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullTime(value time.Time) sql.NullString {
	if value.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(value), Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t.UTC(), nil
	}
	// Rows written by earlier tooling carry offset-less timestamps;
	// those are read as UTC.
	if t, naiveErr := time.Parse("2006-01-02T15:04:05.999999999", s); naiveErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("store: parse time %q: %w", s, err)
}
