// Package tools declares the fixed vocabulary of browser, user-interaction
// and completion tools the agent can call, and the executor contract that
// runs them.
//
// The set is compile-time fixed: the LLM can only act through these
// thirteen tools. Match failures (element not found, unknown tool) are
// reported as benign result strings so the model can observe and retry;
// only infrastructure failures surface as errors.
package tools

import (
	"context"

	"github.com/jobpilot/jobpilot/pkg/models"
)

// Tool names.
const (
	PageSnapshot  = "page_snapshot"
	Screenshot    = "screenshot"
	Goto          = "goto"
	Click         = "click"
	Fill          = "fill"
	SelectOption  = "select_option"
	UploadFile    = "upload_file"
	Scroll        = "scroll"
	GetCurrentURL = "get_current_url"
	Wait          = "wait"
	AskUser       = "ask_user"
	ReportStatus  = "report_status"
	Done          = "done"
)

// ParamSpec describes one tool parameter. A parameter with a non-nil
// Default is optional; everything else is required when the definitions
// are translated to the LLM's schema format.
type ParamSpec struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// Definition is the declared schema for one tool.
type Definition struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]ParamSpec `json:"parameters"`
}

// Executor runs tool calls against a live browser page and human channel.
type Executor interface {
	// AvailableTools returns the declared tool set.
	AvailableTools() []Definition

	// Execute runs one tool call and returns the result string that is
	// fed back to the model verbatim.
	Execute(ctx context.Context, call models.ToolCall) (string, error)
}

// Definitions returns the full declared tool set, in a stable order.
func Definitions() []Definition {
	return []Definition{
		{
			Name:        PageSnapshot,
			Description: "Return the accessibility tree of the current page as structured text.",
			Parameters:  map[string]ParamSpec{},
		},
		{
			Name:        Screenshot,
			Description: "Take a full-page screenshot and return the raw PNG bytes (base64 in messages).",
			Parameters:  map[string]ParamSpec{},
		},
		{
			Name:        Goto,
			Description: "Navigate the browser to the given URL.",
			Parameters: map[string]ParamSpec{
				"url": {Type: "string", Description: "The URL to navigate to."},
			},
		},
		{
			Name:        Click,
			Description: "Click an element identified by visible text, ARIA role label, or CSS selector.",
			Parameters: map[string]ParamSpec{
				"target": {Type: "string", Description: "Button text, link text, or CSS selector."},
			},
		},
		{
			Name:        Fill,
			Description: "Fill a form field with the given value. Identifies the field by label, placeholder, name attribute, or CSS selector.",
			Parameters: map[string]ParamSpec{
				"field": {Type: "string", Description: "Field label, placeholder, name, or CSS selector."},
				"value": {Type: "string", Description: "The value to type into the field."},
			},
		},
		{
			Name:        SelectOption,
			Description: "Select a dropdown option by its visible text or value.",
			Parameters: map[string]ParamSpec{
				"field": {Type: "string", Description: "Dropdown label or selector."},
				"value": {Type: "string", Description: "Option text or value to select."},
			},
		},
		{
			Name:        UploadFile,
			Description: "Upload a document to a file input field.",
			Parameters: map[string]ParamSpec{
				"field":     {Type: "string", Description: "File input label or selector."},
				"file_type": {Type: "string", Description: "Which document to upload.", Enum: []string{"resume", "cover_letter"}},
			},
		},
		{
			Name:        Scroll,
			Description: "Scroll the page up or down.",
			Parameters: map[string]ParamSpec{
				"direction": {Type: "string", Description: "Scroll direction.", Enum: []string{"up", "down"}},
			},
		},
		{
			Name:        GetCurrentURL,
			Description: "Return the current page URL.",
			Parameters:  map[string]ParamSpec{},
		},
		{
			Name:        Wait,
			Description: "Wait for the page to finish loading or for a specified number of seconds.",
			Parameters: map[string]ParamSpec{
				"seconds": {Type: "integer", Description: "Seconds to wait (default 2).", Default: 2},
			},
		},
		{
			Name:        AskUser,
			Description: "Ask the human user a question via the chat channel and wait for their text reply.",
			Parameters: map[string]ParamSpec{
				"question": {Type: "string", Description: "The question to ask the user."},
			},
		},
		{
			Name:        ReportStatus,
			Description: "Send an informational status message to the user (no reply expected).",
			Parameters: map[string]ParamSpec{
				"message": {Type: "string", Description: "The status message."},
			},
		},
		{
			Name:        Done,
			Description: "Signal that the current task is complete.",
			Parameters: map[string]ParamSpec{
				"status": {Type: "string", Description: "Outcome.", Enum: []string{"success", "failed", "skipped"}},
				"reason": {Type: "string", Description: "Short explanation of the outcome."},
			},
		},
	}
}
