package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jobpilot/jobpilot/internal/tools"
	"github.com/jobpilot/jobpilot/pkg/models"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-4o"

	defaultTimeout = 120 * time.Second
	maxRetries     = 3
	retryDelay     = time.Second
)

// OpenAIClient is a non-streaming tool-calling client for any
// OpenAI-compatible chat/completions endpoint. Tool arguments returned
// by the model are decoded and validated against the declared tool
// schemas before they reach the executor.
type OpenAIClient struct {
	client *openai.Client
	model  string

	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

// NewOpenAIClient builds a client for the given API key. baseURL and
// model are optional; empty values select the OpenAI default endpoint
// and DefaultModel.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// CompleteWithTools sends the conversation and tool definitions and
// returns the model's next turn. Transient failures (rate limits,
// server errors, timeouts) are retried with linear backoff.
func (c *OpenAIClient) CompleteWithTools(ctx context.Context, messages []Message, defs []tools.Definition) (ToolResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: convertMessages(messages),
	}
	if len(defs) > 0 {
		req.Tools = convertTools(defs)
		req.ToolChoice = "auto"
	}

	var resp openai.ChatCompletionResponse
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ToolResponse{}, ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}
		resp, lastErr = c.client.CreateChatCompletion(ctx, req)
		if lastErr == nil {
			break
		}
		if !isRetryable(lastErr) {
			return ToolResponse{}, fmt.Errorf("llm: chat completion: %w", lastErr)
		}
	}
	if lastErr != nil {
		return ToolResponse{}, fmt.Errorf("llm: chat completion after %d attempts: %w", maxRetries, lastErr)
	}

	if len(resp.Choices) == 0 {
		return ToolResponse{}, errors.New("llm: response contained no choices")
	}
	return c.parseChoice(resp.Choices[0], defs)
}

// Complete sends a single prompt with no tool surface and returns the
// model's text reply. The apply path never uses this; it exists for
// plain one-off completions.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.CompleteWithTools(ctx, []Message{UserMessage(prompt)}, nil)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *OpenAIClient) parseChoice(choice openai.ChatCompletionChoice, defs []tools.Definition) (ToolResponse, error) {
	msg := choice.Message
	reason := string(choice.FinishReason)
	if len(msg.ToolCalls) == 0 {
		return ToolResponse{Text: msg.Content, FinishReason: reason}, nil
	}

	out := ToolResponse{Text: msg.Content, FinishReason: reason}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return ToolResponse{}, fmt.Errorf("llm: tool %s: malformed arguments: %w", tc.Function.Name, err)
			}
		}
		if err := c.validateArgs(tc.Function.Name, args, defs); err != nil {
			return ToolResponse{}, err
		}
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out, nil
}

// validateArgs checks decoded arguments against the declared parameter
// schema. Unknown tool names are rejected here rather than at execution.
func (c *OpenAIClient) validateArgs(name string, args map[string]any, defs []tools.Definition) error {
	var def *tools.Definition
	for i := range defs {
		if defs[i].Name == name {
			def = &defs[i]
			break
		}
	}
	if def == nil {
		return fmt.Errorf("llm: model called undeclared tool %q", name)
	}

	schema, err := c.schemaFor(def)
	if err != nil {
		return err
	}
	if err := schema.Validate(args); err != nil {
		return fmt.Errorf("llm: tool %s: arguments failed validation: %w", name, err)
	}
	return nil
}

func (c *OpenAIClient) schemaFor(def *tools.Definition) (*jsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.schemas[def.Name]; ok {
		return s, nil
	}
	raw, err := json.Marshal(parameterSchema(*def))
	if err != nil {
		return nil, fmt.Errorf("llm: tool %s: encode schema: %w", def.Name, err)
	}
	s, err := jsonschema.CompileString(def.Name+".json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("llm: tool %s: compile schema: %w", def.Name, err)
	}
	c.schemas[def.Name] = s
	return s, nil
}

// parameterSchema renders a tool definition as a JSON Schema object.
// Parameters with a declared default are optional; all others are
// required.
func parameterSchema(def tools.Definition) map[string]any {
	properties := map[string]any{}
	required := []string{}
	for name, spec := range def.Parameters {
		prop := map[string]any{"type": spec.Type}
		if spec.Description != "" {
			prop["description"] = spec.Description
		}
		if len(spec.Enum) > 0 {
			prop["enum"] = spec.Enum
		}
		properties[name] = prop
		if spec.Default == nil {
			required = append(required, name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func convertTools(defs []tools.Definition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  parameterSchema(def),
			},
		})
	}
	return out
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		cm := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

// isRetryable classifies transient failures: rate limits, 5xx server
// errors, and timeouts.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	msg := err.Error()
	for _, marker := range []string{"rate limit", "429", "500", "502", "503", "504", "timeout", "deadline exceeded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
