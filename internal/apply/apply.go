// Package apply orchestrates one complete job application attempt. The
// LLM agent makes every browser decision; this package does the
// bookkeeping around it: the application record lifecycle, captured
// credentials, user notifications and debug run metadata.
package apply

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jobpilot/jobpilot/internal/agent"
	"github.com/jobpilot/jobpilot/internal/artifacts"
	"github.com/jobpilot/jobpilot/internal/interaction"
	"github.com/jobpilot/jobpilot/internal/runtime"
	"github.com/jobpilot/jobpilot/internal/store"
	"github.com/jobpilot/jobpilot/pkg/models"
)

// AgentRunner executes one agent task. Satisfied by *agent.Agent.
type AgentRunner interface {
	ExecuteTask(ctx context.Context, task agent.Task) (agent.Result, error)
}

// Service runs application attempts and records their outcomes.
type Service struct {
	store     store.Store
	artifacts artifacts.Store
	clock     runtime.Clock
	ids       runtime.IDGenerator
	logger    *slog.Logger
}

// NewService wires the orchestrator. artifactStore may be nil when
// debug capture is not configured.
func NewService(st store.Store, artifactStore artifacts.Store, clock runtime.Clock, ids runtime.IDGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		artifacts: artifactStore,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}
}

// ApplyToJob drives one attempt end to end: it creates the pending
// record, hands control to the agent, then settles the record into
// exactly one terminal state and tells the user what happened. The
// returned record is the terminal record; an error is returned only
// when bookkeeping itself fails.
func (s *Service) ApplyToJob(
	ctx context.Context,
	runner AgentRunner,
	ui interaction.UserInteraction,
	job models.JobPostingRef,
	profile models.UserProfile,
	resume models.ResumeData,
	run models.RunContext,
) (models.ApplicationRecord, error) {
	startedAt := s.clock.Now()

	rec := models.ApplicationRecord{
		ID:          s.ids.NewRecordID(),
		CompanyName: job.CompanyName,
		JobTitle:    job.JobTitle,
		JobURL:      job.JobURL,
		Status:      models.StatusPending,
	}
	if run.IsDebug {
		rec.DebugRunID = run.RunID
	}
	if err := s.store.AddApplication(ctx, rec); err != nil {
		return models.ApplicationRecord{}, err
	}

	if s.artifacts != nil && run.IsDebug {
		if _, err := s.artifacts.EnsureRunDirectory(run); err != nil {
			s.logger.Warn("debug run directory unavailable", "run_id", run.RunID, "error", err)
		}
	}

	task := agent.Task{
		Objective: "Apply to " + job.CompanyName + " - " + job.JobTitle + " at " + job.JobURL,
		Context: map[string]any{
			"profile": map[string]any{
				"full_name": profile.FullName,
				"email":     profile.Email,
				"phone":     profile.Phone,
				"address":   profile.Address,
			},
			"job_url":                job.JobURL,
			"company":                job.CompanyName,
			"job_title":              job.JobTitle,
			"resume_available":       resume.PrimaryResumePath != "",
			"cover_letter_available": len(resume.CoverLetterPaths) > 0,
		},
		MaxSteps: agent.DefaultMaxSteps,
		Debug:    run.IsDebug,
	}

	result, runErr := runner.ExecuteTask(ctx, task)
	if runErr != nil {
		s.logger.Error("agent execution failed", "job_url", job.JobURL, "error", runErr)
		rec.Status = models.StatusFailed
		rec.FailureReason = runErr.Error()
		return s.settle(ctx, ui, job, run, startedAt, rec,
			"Failed to apply for "+job.CompanyName+". Reason: "+runErr.Error())
	}

	s.saveCredentials(ctx, job, result)

	switch result.Status {
	case agent.ResultSuccess:
		rec.Status = models.StatusApplied
		rec.AppliedAt = s.clock.Now()
		return s.settle(ctx, ui, job, run, startedAt, rec,
			"Application submitted for "+job.CompanyName+" - "+job.JobTitle+".")
	case agent.ResultSkipped:
		rec.Status = models.StatusSkipped
		rec.FailureReason = result.Reason
		if rec.FailureReason == "" {
			rec.FailureReason = "Debug mode: final submit skipped"
		}
		return s.settle(ctx, ui, job, run, startedAt, rec,
			"[DEBUG] Prepared application for "+job.CompanyName+" but skipped final submit.")
	default:
		rec.Status = models.StatusFailed
		rec.FailureReason = result.Reason
		if rec.FailureReason == "" {
			rec.FailureReason = "Agent reported failure"
		}
		return s.settle(ctx, ui, job, run, startedAt, rec,
			"Failed to apply for "+job.CompanyName+". Reason: "+result.Reason)
	}
}

// settle writes the terminal record, notifies the user, persists run
// metadata and emits the terminal log line.
func (s *Service) settle(
	ctx context.Context,
	ui interaction.UserInteraction,
	job models.JobPostingRef,
	run models.RunContext,
	startedAt time.Time,
	rec models.ApplicationRecord,
	message string,
) (models.ApplicationRecord, error) {
	if err := s.store.UpdateApplication(ctx, rec); err != nil {
		return models.ApplicationRecord{}, err
	}
	if err := ui.SendInfo(ctx, message); err != nil {
		s.logger.Warn("user notification failed", "run_id", run.RunID, "error", err)
	}
	s.writeRunMetadata(job, run, startedAt.Format(time.RFC3339), rec)
	s.logger.Info("application run finished",
		"run_id", run.RunID,
		"job_url", rec.JobURL,
		"status", string(rec.Status),
		"reason", rec.FailureReason,
	)
	return rec, nil
}

// saveCredentials upserts any account the agent reports having created,
// keyed by (portal, tenant, email). The portal falls back to "unknown"
// and the tenant is the lowercased company name.
func (s *Service) saveCredentials(ctx context.Context, job models.JobPostingRef, result agent.Result) {
	email, _ := result.Data["account_email"].(string)
	password, _ := result.Data["account_password"].(string)
	if email == "" || password == "" {
		return
	}
	portal, _ := result.Data["portal"].(string)
	if portal == "" {
		portal = "unknown"
	}
	now := s.clock.Now()
	cred := models.AccountCredential{
		ID:        s.ids.NewRecordID(),
		Portal:    portal,
		Tenant:    strings.ToLower(job.CompanyName),
		Email:     email,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.UpsertCredential(ctx, cred); err != nil {
		s.logger.Error("credential save failed", "portal", portal, "email", email, "error", err)
		return
	}
	s.logger.Info("credential saved", "portal", portal, "tenant", cred.Tenant, "email", email)
}

func (s *Service) writeRunMetadata(job models.JobPostingRef, run models.RunContext, startedAt string, rec models.ApplicationRecord) {
	if s.artifacts == nil || !run.IsDebug {
		return
	}
	mode := "normal"
	if run.IsDebug {
		mode = "debug"
	}
	meta := map[string]any{
		"run_id":         run.RunID,
		"company":        job.CompanyName,
		"job_url":        job.JobURL,
		"mode":           mode,
		"started_at":     startedAt,
		"ended_at":       s.clock.Now().Format(time.RFC3339),
		"outcome":        string(rec.Status),
		"failure_reason": rec.FailureReason,
	}
	if _, err := s.artifacts.SaveRunMetadata(run, meta); err != nil {
		s.logger.Warn("run metadata write failed", "run_id", run.RunID, "error", err)
	}
}
