package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jobpilot/jobpilot/pkg/models"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs.
// Reads return copies so callers cannot mutate stored state.
type MemoryStore struct {
	mu           sync.RWMutex
	applications map[string]models.ApplicationRecord
	credentials  map[string]models.AccountCredential
	kv           map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		applications: make(map[string]models.ApplicationRecord),
		credentials:  make(map[string]models.AccountCredential),
		kv:           make(map[string]string),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) AddApplication(ctx context.Context, rec models.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[rec.ID]; ok {
		return fmt.Errorf("%w: application %s", ErrDuplicateRecord, rec.ID)
	}
	s.applications[rec.ID] = rec
	return nil
}

func (s *MemoryStore) UpdateApplication(ctx context.Context, rec models.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[rec.ID]; !ok {
		return fmt.Errorf("%w: application %s", ErrNotFound, rec.ID)
	}
	s.applications[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetApplication(ctx context.Context, id string) (models.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.applications[id]
	if !ok {
		return models.ApplicationRecord{}, fmt.Errorf("%w: application %s", ErrNotFound, id)
	}
	return rec, nil
}

func (s *MemoryStore) ListApplications(ctx context.Context) ([]models.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ApplicationRecord, 0, len(s.applications))
	for _, rec := range s.applications {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.AppliedAt.IsZero() && b.AppliedAt.IsZero():
			return a.ID < b.ID
		case a.AppliedAt.IsZero():
			return false
		case b.AppliedAt.IsZero():
			return true
		case !a.AppliedAt.Equal(b.AppliedAt):
			return a.AppliedAt.After(b.AppliedAt)
		default:
			return a.ID < b.ID
		}
	})
	return out, nil
}

func credentialKey(portal, tenant, email string) string {
	return portal + "\x00" + tenant + "\x00" + email
}

func (s *MemoryStore) UpsertCredential(ctx context.Context, cred models.AccountCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := credentialKey(cred.Portal, cred.Tenant, cred.Email)
	if existing, ok := s.credentials[key]; ok {
		cred.CreatedAt = existing.CreatedAt
	}
	s.credentials[key] = cred
	return nil
}

func (s *MemoryStore) GetCredential(ctx context.Context, portal, tenant, email string) (models.AccountCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[credentialKey(portal, tenant, email)]
	if !ok {
		return models.AccountCredential{}, fmt.Errorf("%w: credential %s/%s/%s", ErrNotFound, portal, tenant, email)
	}
	return cred, nil
}

func (s *MemoryStore) ListCredentials(ctx context.Context) ([]models.AccountCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AccountCredential, 0, len(s.credentials))
	for _, cred := range s.credentials {
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetValue(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.kv[key]
	if !ok {
		return "", fmt.Errorf("%w: config key %q", ErrNotFound, key)
	}
	return value, nil
}

func (s *MemoryStore) SetValue(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}
