// Package facade is the read-mostly surface behind the CLI views:
// applied jobs, stored credentials (with masked secrets), and
// runtime-adjustable config values.
package facade

import (
	"context"
	"strings"

	"github.com/jobpilot/jobpilot/internal/store"
	"github.com/jobpilot/jobpilot/pkg/models"
)

// CredentialView is a credential with its secret masked for display.
type CredentialView struct {
	Portal         string `json:"portal"`
	Tenant         string `json:"tenant"`
	Email          string `json:"email"`
	PasswordMasked string `json:"password_masked"`
}

// Facade exposes stored state to the CLI and any future UI.
type Facade struct {
	store store.Store
}

// New wraps the store.
func New(st store.Store) *Facade {
	return &Facade{store: st}
}

// AppliedJobs returns every application record, most recent first.
func (f *Facade) AppliedJobs(ctx context.Context) ([]models.ApplicationRecord, error) {
	return f.store.ListApplications(ctx)
}

// Credentials returns every stored credential with the secret masked.
func (f *Facade) Credentials(ctx context.Context) ([]CredentialView, error) {
	creds, err := f.store.ListCredentials(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CredentialView, 0, len(creds))
	for _, cred := range creds {
		out = append(out, CredentialView{
			Portal:         cred.Portal,
			Tenant:         cred.Tenant,
			Email:          cred.Email,
			PasswordMasked: maskSecret(cred.Password),
		})
	}
	return out, nil
}

// ConfigValue reads one runtime config value.
func (f *Facade) ConfigValue(ctx context.Context, key string) (string, error) {
	return f.store.GetValue(ctx, key)
}

// UpdateConfig writes one runtime config value.
func (f *Facade) UpdateConfig(ctx context.Context, key, value string) error {
	return f.store.SetValue(ctx, key, value)
}

// maskSecret keeps the first and last character of longer secrets;
// anything of three characters or fewer is fully masked.
func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 3 {
		return strings.Repeat("*", len(value))
	}
	return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
}
