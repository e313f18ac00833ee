package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jobpilot/jobpilot/internal/llm"
	"github.com/jobpilot/jobpilot/internal/tools"
	"github.com/jobpilot/jobpilot/pkg/models"
)

// Agent runs tasks by alternating model turns and tool executions.
type Agent struct {
	llm      LLMClient
	tools    tools.Executor
	recorder StepRecorder
	logger   *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithStepRecorder attaches a per-step observer, typically the debug
// artifact capturer.
func WithStepRecorder(r StepRecorder) Option {
	return func(a *Agent) { a.recorder = r }
}

// New builds an Agent over the given model client and tool executor.
func New(client LLMClient, executor tools.Executor, logger *slog.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{llm: client, tools: executor, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ExecuteTask runs the loop until the model calls done or the step
// budget is exhausted. Model and tool infrastructure failures return an
// error; everything the model can observe and recover from is fed back
// as a tool result instead.
func (a *Agent) ExecuteTask(ctx context.Context, task Task) (Result, error) {
	maxSteps := task.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	messages := []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(initialMessage(task)),
	}
	defs := a.tools.AvailableTools()
	var steps []Step

	for stepNum := 0; stepNum < maxSteps; stepNum++ {
		resp, err := a.llm.CompleteWithTools(ctx, messages, defs)
		if err != nil {
			return Result{}, fmt.Errorf("agent: model turn %d: %w", stepNum, err)
		}

		if len(resp.ToolCalls) == 0 {
			// A text-only turn carries no action; keep it in the
			// history and ask again.
			if resp.Text != "" {
				messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Text})
			}
			continue
		}

		for _, tc := range resp.ToolCalls {
			if tc.Name == tools.Done {
				status := ResultStatus(tc.StringArg("status", string(ResultSuccess)))
				return Result{
					Status:     status,
					Reason:     tc.StringArg("reason", ""),
					Data:       tc.Arguments,
					StepsTaken: steps,
				}, nil
			}

			resultText, err := a.tools.Execute(ctx, tc)
			if err != nil {
				return Result{}, fmt.Errorf("agent: tool %s at step %d: %w", tc.Name, stepNum, err)
			}

			step := Step{
				StepNumber: stepNum,
				ToolName:   tc.Name,
				Args:       tc.Arguments,
				Result:     resultText,
			}
			steps = append(steps, step)

			a.logger.Info("agent step",
				"step", stepNum,
				"tool", tc.Name,
				"result_preview", preview(resultText, 120),
			)

			if a.recorder != nil {
				if err := a.recorder.RecordStep(ctx, step); err != nil {
					a.logger.Warn("step recorder failed", "step", stepNum, "error", err)
				}
			}

			callID := fmt.Sprintf("call_%d_%s", stepNum, tc.Name)
			messages = append(messages,
				assistantToolCallMessage(callID, tc),
				llm.Message{Role: llm.RoleTool, ToolCallID: callID, Content: resultText},
			)
		}
	}

	a.logger.Warn("agent exceeded step budget", "max_steps", maxSteps)
	return Result{
		Status:     ResultFailed,
		Reason:     fmt.Sprintf("Agent exceeded maximum steps (%d)", maxSteps),
		StepsTaken: steps,
	}, nil
}

func assistantToolCallMessage(callID string, tc models.ToolCall) llm.Message {
	args, err := json.Marshal(tc.Arguments)
	if err != nil {
		args = []byte("{}")
	}
	return llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.MessageToolCall{{
			ID:        callID,
			Name:      tc.Name,
			Arguments: string(args),
		}},
	}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
