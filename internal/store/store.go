// Package store persists application records, portal credentials and
// key-value settings. The canonical implementation is SQLite; a memory
// implementation backs tests and ephemeral runs.
package store

import (
	"context"
	"errors"

	"github.com/jobpilot/jobpilot/pkg/models"
)

var (
	// ErrDuplicateRecord is returned when adding a record whose id
	// already exists.
	ErrDuplicateRecord = errors.New("store: duplicate record")

	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("store: not found")
)

// Applications tracks job application attempts.
type Applications interface {
	// AddApplication inserts a new record. Returns ErrDuplicateRecord
	// if the id is already present.
	AddApplication(ctx context.Context, rec models.ApplicationRecord) error

	// UpdateApplication rewrites an existing record by id. Returns
	// ErrNotFound when the id is unknown.
	UpdateApplication(ctx context.Context, rec models.ApplicationRecord) error

	// GetApplication fetches one record by id.
	GetApplication(ctx context.Context, id string) (models.ApplicationRecord, error)

	// ListApplications returns all records, most recently applied
	// first; records never applied sort last.
	ListApplications(ctx context.Context) ([]models.ApplicationRecord, error)
}

// Credentials tracks job board accounts created by the agent.
type Credentials interface {
	// UpsertCredential inserts or, on a (portal, tenant, email)
	// conflict, replaces the secret and updated_at while preserving
	// the original created_at.
	UpsertCredential(ctx context.Context, cred models.AccountCredential) error

	// GetCredential fetches by the (portal, tenant, email) key.
	GetCredential(ctx context.Context, portal, tenant, email string) (models.AccountCredential, error)

	// ListCredentials returns all credentials, most recently updated
	// first.
	ListCredentials(ctx context.Context) ([]models.AccountCredential, error)
}

// KV is a string key-value table for runtime-adjustable settings.
type KV interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
}

// Store is the full persistence surface.
type Store interface {
	Applications
	Credentials
	KV

	Close() error
}
