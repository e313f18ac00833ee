package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jobpilot/jobpilot/pkg/models"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "jobpilot.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func record(id string, status models.ApplicationStatus, appliedAt time.Time) models.ApplicationRecord {
	return models.ApplicationRecord{
		ID:          id,
		CompanyName: "Acme",
		JobTitle:    "Platform Engineer",
		JobURL:      "https://jobs.example.com/" + id,
		Status:      status,
		AppliedAt:   appliedAt,
	}
}

func TestApplicationLifecycle(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			rec := record("a1", models.StatusPending, time.Time{})
			if err := s.AddApplication(ctx, rec); err != nil {
				t.Fatalf("add: %v", err)
			}
			if err := s.AddApplication(ctx, rec); !errors.Is(err, ErrDuplicateRecord) {
				t.Fatalf("duplicate add err = %v", err)
			}

			got, err := s.GetApplication(ctx, "a1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Status != models.StatusPending || !got.AppliedAt.IsZero() {
				t.Fatalf("got = %+v", got)
			}

			now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
			rec.Status = models.StatusApplied
			rec.AppliedAt = now
			if err := s.UpdateApplication(ctx, rec); err != nil {
				t.Fatalf("update: %v", err)
			}
			got, err = s.GetApplication(ctx, "a1")
			if err != nil {
				t.Fatalf("get after update: %v", err)
			}
			if got.Status != models.StatusApplied || !got.AppliedAt.Equal(now) {
				t.Fatalf("after update = %+v", got)
			}

			if err := s.UpdateApplication(ctx, record("ghost", models.StatusFailed, time.Time{})); !errors.Is(err, ErrNotFound) {
				t.Fatalf("update missing err = %v", err)
			}
			if _, err := s.GetApplication(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("get missing err = %v", err)
			}
		})
	}
}

func TestListApplicationsOrdering(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

			older := record("older", models.StatusApplied, base)
			newer := record("newer", models.StatusApplied, base.Add(24*time.Hour))
			pending := record("pending", models.StatusPending, time.Time{})
			for _, rec := range []models.ApplicationRecord{pending, older, newer} {
				if err := s.AddApplication(ctx, rec); err != nil {
					t.Fatalf("add %s: %v", rec.ID, err)
				}
			}

			list, err := s.ListApplications(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("len = %d", len(list))
			}
			gotOrder := []string{list[0].ID, list[1].ID, list[2].ID}
			wantOrder := []string{"newer", "older", "pending"}
			for i := range wantOrder {
				if gotOrder[i] != wantOrder[i] {
					t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
				}
			}
		})
	}
}

func TestFailureFieldsRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := record("f1", models.StatusFailed, time.Time{})
			rec.FailureReason = "Agent reported failure"
			rec.DebugRunID = "run-9"
			if err := s.AddApplication(ctx, rec); err != nil {
				t.Fatalf("add: %v", err)
			}
			got, err := s.GetApplication(ctx, "f1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.FailureReason != "Agent reported failure" || got.DebugRunID != "run-9" {
				t.Fatalf("got = %+v", got)
			}
		})
	}
}

func TestCredentialUpsertPreservesCreatedAt(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

			first := models.AccountCredential{
				ID: "c1", Portal: "greenhouse", Tenant: "acme", Email: "ada@example.com",
				Password: "old-secret", CreatedAt: created, UpdatedAt: created,
			}
			if err := s.UpsertCredential(ctx, first); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			updated := first
			updated.ID = "c2"
			updated.Password = "new-secret"
			updated.CreatedAt = created.Add(48 * time.Hour)
			updated.UpdatedAt = created.Add(48 * time.Hour)
			if err := s.UpsertCredential(ctx, updated); err != nil {
				t.Fatalf("second upsert: %v", err)
			}

			got, err := s.GetCredential(ctx, "greenhouse", "acme", "ada@example.com")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Password != "new-secret" {
				t.Fatalf("password = %q", got.Password)
			}
			if !got.CreatedAt.Equal(created) {
				t.Fatalf("created_at = %v, want original %v", got.CreatedAt, created)
			}
			if !got.UpdatedAt.Equal(updated.UpdatedAt) {
				t.Fatalf("updated_at = %v", got.UpdatedAt)
			}
		})
	}
}

func TestCredentialListOrdering(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

			stale := models.AccountCredential{
				ID: "c1", Portal: "lever", Tenant: "acme", Email: "a@example.com",
				Password: "x", CreatedAt: base, UpdatedAt: base,
			}
			fresh := models.AccountCredential{
				ID: "c2", Portal: "greenhouse", Tenant: "globex", Email: "b@example.com",
				Password: "y", CreatedAt: base, UpdatedAt: base.Add(time.Hour),
			}
			for _, c := range []models.AccountCredential{stale, fresh} {
				if err := s.UpsertCredential(ctx, c); err != nil {
					t.Fatalf("upsert: %v", err)
				}
			}

			list, err := s.ListCredentials(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 2 || list[0].ID != "c2" || list[1].ID != "c1" {
				t.Fatalf("list = %+v", list)
			}

			if _, err := s.GetCredential(ctx, "lever", "acme", "nobody@example.com"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("get missing err = %v", err)
			}
		})
	}
}

func TestParseTimeAcceptsNaiveTimestamps(t *testing.T) {
	cases := map[string]time.Time{
		"2026-08-24T12:00:00Z":      time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		"2026-08-24T14:00:00+02:00": time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		"2026-08-24T12:00:00":       time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		"2026-08-24T12:00:00.25":    time.Date(2026, 8, 24, 12, 0, 0, 250_000_000, time.UTC),
	}
	for in, want := range cases {
		got, err := parseTime(in)
		if err != nil {
			t.Fatalf("parseTime(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parseTime(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseTime("yesterday"); err == nil {
		t.Fatalf("expected error for unparseable input")
	}
}

func TestGetApplicationReadsNaiveTimestampAsUTC(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "jobpilot.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applied_jobs (id, company_name, job_title, job_url, status, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"n1", "Acme", "SWE", "https://jobs.example.com/n1", "applied", "2026-08-24T12:00:00")
	if err != nil {
		t.Fatalf("insert raw row: %v", err)
	}

	got, err := s.GetApplication(ctx, "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	if !got.AppliedAt.Equal(want) {
		t.Fatalf("applied_at = %v, want %v", got.AppliedAt, want)
	}

	list, err := s.ListApplications(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].AppliedAt.Equal(want) {
		t.Fatalf("list = %+v", list)
	}
}

func TestKVRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := s.GetValue(ctx, "debug_mode"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("missing key err = %v", err)
			}
			if err := s.SetValue(ctx, "debug_mode", "true"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := s.SetValue(ctx, "debug_mode", "false"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := s.GetValue(ctx, "debug_mode")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != "false" {
				t.Fatalf("value = %q", got)
			}
		})
	}
}
