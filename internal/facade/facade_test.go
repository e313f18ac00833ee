package facade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobpilot/jobpilot/internal/store"
	"github.com/jobpilot/jobpilot/pkg/models"
)

func TestAppliedJobsPassthrough(t *testing.T) {
	st := store.NewMemoryStore()
	rec := models.ApplicationRecord{
		ID: "a1", CompanyName: "Acme", JobTitle: "SWE",
		JobURL: "https://jobs.example.com/1", Status: models.StatusApplied,
		AppliedAt: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
	if err := st.AddApplication(context.Background(), rec); err != nil {
		t.Fatalf("add: %v", err)
	}

	f := New(st)
	jobs, err := f.AppliedJobs(context.Background())
	if err != nil {
		t.Fatalf("AppliedJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "a1" {
		t.Fatalf("jobs = %+v", jobs)
	}
}

func TestCredentialsAreMasked(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Now().UTC()
	for _, cred := range []models.AccountCredential{
		{ID: "c1", Portal: "greenhouse", Tenant: "acme", Email: "ada@example.com", Password: "s3cretpw", CreatedAt: now, UpdatedAt: now},
		{ID: "c2", Portal: "lever", Tenant: "globex", Email: "bob@example.com", Password: "abc", CreatedAt: now, UpdatedAt: now.Add(time.Hour)},
	} {
		if err := st.UpsertCredential(context.Background(), cred); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	f := New(st)
	views, err := f.Credentials(context.Background())
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %+v", views)
	}
	// Most recently updated first; short secrets fully masked.
	if views[0].PasswordMasked != "***" {
		t.Fatalf("short mask = %q", views[0].PasswordMasked)
	}
	if views[1].PasswordMasked != "s******w" {
		t.Fatalf("long mask = %q", views[1].PasswordMasked)
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":         "",
		"ab":       "**",
		"abc":      "***",
		"abcd":     "a**d",
		"s3cretpw": "s******w",
	}
	for in, want := range cases {
		if got := maskSecret(in); got != want {
			t.Fatalf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfigRoundTrip(t *testing.T) {
	st := store.NewMemoryStore()
	f := New(st)
	ctx := context.Background()

	if _, err := f.ConfigValue(ctx, "debug_mode"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing key err = %v", err)
	}
	if err := f.UpdateConfig(ctx, "debug_mode", "true"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := f.ConfigValue(ctx, "debug_mode")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "true" {
		t.Fatalf("value = %q", got)
	}
}
