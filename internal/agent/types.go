// Package agent implements the tool-calling loop that drives a browser
// through a job application: the model observes page snapshots, picks
// one of the declared tools, and the loop executes it and feeds the
// result back until the model reports completion or the step budget
// runs out.
package agent

import (
	"context"

	"github.com/jobpilot/jobpilot/internal/llm"
	"github.com/jobpilot/jobpilot/internal/tools"
)

// DefaultMaxSteps is the per-task step budget when none is set.
const DefaultMaxSteps = 50

// Task is one unit of work handed to the agent.
type Task struct {
	// Objective is a free-form description; used as the initial user
	// message when Context carries no profile.
	Objective string

	// Context carries structured task inputs: job_url, company,
	// job_title, profile, resume_available, cover_letter_available.
	Context map[string]any

	// MaxSteps caps loop iterations. Zero means DefaultMaxSteps.
	MaxSteps int

	// Debug tells the model to stop short of the final submit.
	Debug bool
}

// ResultStatus is the outcome the model reported via the done tool.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultFailed  ResultStatus = "failed"
	ResultSkipped ResultStatus = "skipped"
)

// Step records one executed tool call.
type Step struct {
	StepNumber int            `json:"step_number"`
	ToolName   string         `json:"tool_name"`
	Args       map[string]any `json:"args,omitempty"`
	Result     string         `json:"result,omitempty"`
}

// Result is the final outcome of a task.
type Result struct {
	Status     ResultStatus   `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	StepsTaken []Step         `json:"steps_taken,omitempty"`
}

// LLMClient decides the next action given the conversation so far and
// the declared tool set.
type LLMClient interface {
	CompleteWithTools(ctx context.Context, messages []llm.Message, defs []tools.Definition) (llm.ToolResponse, error)
}

// StepRecorder observes each executed step, e.g. to capture a debug
// screenshot after every browser action. Recorder failures are logged
// and never interrupt the task.
type StepRecorder interface {
	RecordStep(ctx context.Context, step Step) error
}
