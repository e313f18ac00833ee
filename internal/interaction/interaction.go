// Package interaction defines the human-channel capability used by the
// agent for mid-flow questions, plus a console implementation for
// terminal-driven runs.
package interaction

import "context"

// FreeTextResponse is the user's answer to a free-text question.
type FreeTextResponse struct {
	QuestionID string
	Text       string
}

// ChoiceResponse is the user's answer to a multiple-choice question.
type ChoiceResponse struct {
	QuestionID      string
	SelectedOptions []string
}

// UserInteraction is the channel back to the human. Ask* methods block
// until the user replies; SendInfo is one-way.
type UserInteraction interface {
	SendInfo(ctx context.Context, message string) error

	AskFreeText(ctx context.Context, questionID, prompt string) (FreeTextResponse, error)

	// AskChoice presents options. A reply matching an option literal
	// selects it; with allowMultiple, the reply is comma-split and
	// intersected with the options; anything else selects option 0.
	AskChoice(ctx context.Context, questionID, prompt string, options []string, allowMultiple bool) (ChoiceResponse, error)

	// SendImageAndAskText shows an image (e.g. a captcha screenshot)
	// and waits for a text reply.
	SendImageAndAskText(ctx context.Context, questionID string, image []byte, prompt string) (FreeTextResponse, error)
}
