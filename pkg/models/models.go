// Package models contains the shared domain types for jobpilot: the user
// profile and documents, job posting references, application records,
// stored portal credentials, and the tool-call values exchanged between
// the LLM client and the tool executor.
package models

import "time"

// ApplicationStatus is the lifecycle state of a job application attempt.
type ApplicationStatus string

const (
	StatusPending ApplicationStatus = "pending"
	StatusApplied ApplicationStatus = "applied"
	StatusFailed  ApplicationStatus = "failed"
	StatusSkipped ApplicationStatus = "skipped"
)

// Terminal reports whether the status is an end state.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusApplied || s == StatusFailed || s == StatusSkipped
}

// UserProfile holds the static identity fields the agent may fill into
// forms directly, without asking the user. Time- and country-sensitive
// data (work authorization, salary, notice period) is intentionally
// absent; the agent must ask for it at application time.
type UserProfile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// ResumeData references the documents available for upload.
// Paths are opaque here; the browser executor resolves them.
type ResumeData struct {
	PrimaryResumePath     string   `json:"primary_resume_path"`
	AdditionalResumePaths []string `json:"additional_resume_paths,omitempty"`
	CoverLetterPaths      []string `json:"cover_letter_paths,omitempty"`
	Skills                []string `json:"skills,omitempty"`
}

// JobPostingRef identifies one job posting on a job board.
type JobPostingRef struct {
	CompanyName string `json:"company_name"`
	JobTitle    string `json:"job_title"`
	JobURL      string `json:"job_url"`
	BoardType   string `json:"board_type,omitempty"`
}

// ApplicationRecord is the persistent record of a single application
// attempt. It is created as pending and mutated exactly once to a
// terminal status. A zero AppliedAt means "not applied"; repositories
// persist it as NULL.
type ApplicationRecord struct {
	ID            string            `json:"id"`
	CompanyName   string            `json:"company_name"`
	JobTitle      string            `json:"job_title"`
	JobURL        string            `json:"job_url"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"applied_at,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	DebugRunID    string            `json:"debug_run_id,omitempty"`
}

// AccountCredential stores login credentials the agent created on a job
// board. (portal, tenant, email) is the upsert key. Passwords are stored
// in plain text; encrypting at the repository boundary is a known
// follow-up before any shared deployment.
type AccountCredential struct {
	ID        string    `json:"id"`
	Portal    string    `json:"portal"`
	Tenant    string    `json:"tenant"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunContext identifies one orchestrator invocation.
type RunContext struct {
	RunID        string `json:"run_id"`
	IsDebug      bool   `json:"is_debug"`
	LogDirectory string `json:"log_directory,omitempty"`
}

// AppConfig is the application-level configuration from config.json.
type AppConfig struct {
	BotToken   string `json:"bot_token"`
	ChatID     int64  `json:"chat_id"`
	LLMKey     string `json:"llm_key"`
	LLMBaseURL string `json:"llm_base_url"`
	DebugMode  bool   `json:"debug_mode"`
}

// ToolCall is a single tool invocation decided by the LLM, with its
// arguments already decoded from the wire format.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// StringArg returns the named argument as a string, or def when absent
// or not a string.
func (c ToolCall) StringArg(key, def string) string {
	if v, ok := c.Arguments[key].(string); ok {
		return v
	}
	return def
}
