// Package llm provides the chat-completion client the agent uses to pick
// its next tool call, plus the wire-neutral message types exchanged with it.
package llm

import "github.com/jobpilot/jobpilot/pkg/models"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// MessageToolCall is a tool invocation embedded in an assistant message,
// with arguments still in their JSON wire encoding.
type MessageToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of the conversation history sent to the model.
type Message struct {
	Role       string            `json:"role"`
	Content    string            `json:"content,omitempty"`
	ToolCalls  []MessageToolCall `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolResponse is the model's decision for one turn: either plain text,
// or one or more tool calls with decoded arguments.
type ToolResponse struct {
	Text         string
	ToolCalls    []models.ToolCall
	FinishReason string
}
