package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jobpilot/jobpilot/internal/llm"
	"github.com/jobpilot/jobpilot/internal/tools"
	"github.com/jobpilot/jobpilot/pkg/models"
)

// scriptedClient replays a fixed sequence of model turns.
type scriptedClient struct {
	turns    []llm.ToolResponse
	err      error
	seen     [][]llm.Message
	turnIdx  int
	lastDefs []tools.Definition
}

func (c *scriptedClient) CompleteWithTools(ctx context.Context, messages []llm.Message, defs []tools.Definition) (llm.ToolResponse, error) {
	if c.err != nil {
		return llm.ToolResponse{}, c.err
	}
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	c.seen = append(c.seen, snapshot)
	c.lastDefs = defs
	if c.turnIdx >= len(c.turns) {
		return llm.ToolResponse{Text: "thinking"}, nil
	}
	turn := c.turns[c.turnIdx]
	c.turnIdx++
	return turn, nil
}

// fakeExecutor records executed calls and returns canned results.
type fakeExecutor struct {
	results  map[string]string
	err      error
	executed []models.ToolCall
}

func (e *fakeExecutor) AvailableTools() []tools.Definition { return tools.Definitions() }

func (e *fakeExecutor) Execute(ctx context.Context, call models.ToolCall) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.executed = append(e.executed, call)
	if r, ok := e.results[call.Name]; ok {
		return r, nil
	}
	return "ok", nil
}

func call(name string, args map[string]any) models.ToolCall {
	return models.ToolCall{Name: name, Arguments: args}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExecuteTaskDoneEndsLoop(t *testing.T) {
	client := &scriptedClient{turns: []llm.ToolResponse{
		{ToolCalls: []models.ToolCall{call(tools.Goto, map[string]any{"url": "https://jobs.example.com/1"})}},
		{ToolCalls: []models.ToolCall{call(tools.PageSnapshot, nil)}},
		{ToolCalls: []models.ToolCall{call(tools.Done, map[string]any{"status": "success", "reason": "submitted"})}},
	}}
	exec := &fakeExecutor{results: map[string]string{tools.PageSnapshot: "form: Apply"}}
	a := New(client, exec, testLogger())

	res, err := a.ExecuteTask(context.Background(), Task{Objective: "apply"})
	if err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if res.Status != ResultSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
	if res.Reason != "submitted" {
		t.Fatalf("reason = %q", res.Reason)
	}
	if len(res.StepsTaken) != 2 {
		t.Fatalf("steps = %d, want 2", len(res.StepsTaken))
	}
	if len(exec.executed) != 2 {
		t.Fatalf("executed %d tools, want 2 (done must not execute)", len(exec.executed))
	}
}

func TestExecuteTaskDoneDefaultsToSuccess(t *testing.T) {
	client := &scriptedClient{turns: []llm.ToolResponse{
		{ToolCalls: []models.ToolCall{call(tools.Done, map[string]any{})}},
	}}
	a := New(client, &fakeExecutor{}, testLogger())

	res, err := a.ExecuteTask(context.Background(), Task{Objective: "apply"})
	if err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if res.Status != ResultSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
}

func TestExecuteTaskMaxStepsFails(t *testing.T) {
	// The model never calls done.
	client := &scriptedClient{turns: []llm.ToolResponse{
		{ToolCalls: []models.ToolCall{call(tools.PageSnapshot, nil)}},
		{ToolCalls: []models.ToolCall{call(tools.PageSnapshot, nil)}},
		{ToolCalls: []models.ToolCall{call(tools.PageSnapshot, nil)}},
	}}
	a := New(client, &fakeExecutor{}, testLogger())

	res, err := a.ExecuteTask(context.Background(), Task{Objective: "apply", MaxSteps: 3})
	if err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if res.Status != ResultFailed {
		t.Fatalf("status = %q, want failed", res.Status)
	}
	if res.Reason != "Agent exceeded maximum steps (3)" {
		t.Fatalf("reason = %q", res.Reason)
	}
	if len(res.StepsTaken) != 3 {
		t.Fatalf("steps = %d, want 3", len(res.StepsTaken))
	}
}

func TestExecuteTaskHistoryCarriesToolResults(t *testing.T) {
	client := &scriptedClient{turns: []llm.ToolResponse{
		{ToolCalls: []models.ToolCall{call(tools.Goto, map[string]any{"url": "https://jobs.example.com/1"})}},
		{ToolCalls: []models.ToolCall{call(tools.Done, map[string]any{"status": "success"})}},
	}}
	exec := &fakeExecutor{results: map[string]string{tools.Goto: "navigated"}}
	a := New(client, exec, testLogger())

	if _, err := a.ExecuteTask(context.Background(), Task{Objective: "apply"}); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if len(client.seen) != 2 {
		t.Fatalf("model turns = %d, want 2", len(client.seen))
	}

	// Second turn must see system, user, assistant tool-call, tool result.
	last := client.seen[1]
	if len(last) != 4 {
		t.Fatalf("history length = %d, want 4", len(last))
	}
	asst := last[2]
	if asst.Role != llm.RoleAssistant || len(asst.ToolCalls) != 1 {
		t.Fatalf("history[2] = %+v, want assistant tool call", asst)
	}
	if asst.ToolCalls[0].ID != "call_0_goto" {
		t.Fatalf("tool call id = %q", asst.ToolCalls[0].ID)
	}
	toolMsg := last[3]
	if toolMsg.Role != llm.RoleTool || toolMsg.ToolCallID != "call_0_goto" || toolMsg.Content != "navigated" {
		t.Fatalf("history[3] = %+v", toolMsg)
	}
}

func TestExecuteTaskTextOnlyTurnConsumesStep(t *testing.T) {
	client := &scriptedClient{turns: []llm.ToolResponse{
		{Text: "let me think"},
		{ToolCalls: []models.ToolCall{call(tools.Done, map[string]any{"status": "skipped", "reason": "Debug mode: final submit skipped"})}},
	}}
	a := New(client, &fakeExecutor{}, testLogger())

	res, err := a.ExecuteTask(context.Background(), Task{Objective: "apply", MaxSteps: 5})
	if err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if res.Status != ResultSkipped {
		t.Fatalf("status = %q, want skipped", res.Status)
	}
	// The text turn must have been appended to the history.
	second := client.seen[1]
	if second[len(second)-1].Content != "let me think" {
		t.Fatalf("assistant text not carried: %+v", second[len(second)-1])
	}
}

func TestExecuteTaskModelErrorPropagates(t *testing.T) {
	wantErr := errors.New("rate limited")
	client := &scriptedClient{err: wantErr}
	a := New(client, &fakeExecutor{}, testLogger())

	_, err := a.ExecuteTask(context.Background(), Task{Objective: "apply"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestExecuteTaskToolErrorPropagates(t *testing.T) {
	wantErr := errors.New("browser crashed")
	client := &scriptedClient{turns: []llm.ToolResponse{
		{ToolCalls: []models.ToolCall{call(tools.Click, map[string]any{"target": "Apply"})}},
	}}
	a := New(client, &fakeExecutor{err: wantErr}, testLogger())

	_, err := a.ExecuteTask(context.Background(), Task{Objective: "apply"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
}

type recordingStepRecorder struct {
	steps []Step
	err   error
}

func (r *recordingStepRecorder) RecordStep(ctx context.Context, step Step) error {
	r.steps = append(r.steps, step)
	return r.err
}

func TestExecuteTaskInvokesStepRecorder(t *testing.T) {
	client := &scriptedClient{turns: []llm.ToolResponse{
		{ToolCalls: []models.ToolCall{call(tools.Goto, map[string]any{"url": "https://jobs.example.com/1"})}},
		{ToolCalls: []models.ToolCall{call(tools.Done, map[string]any{"status": "success"})}},
	}}
	rec := &recordingStepRecorder{}
	a := New(client, &fakeExecutor{}, testLogger(), WithStepRecorder(rec))

	if _, err := a.ExecuteTask(context.Background(), Task{Objective: "apply"}); err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if len(rec.steps) != 1 {
		t.Fatalf("recorded %d steps, want 1", len(rec.steps))
	}
	if rec.steps[0].ToolName != tools.Goto {
		t.Fatalf("recorded tool = %q", rec.steps[0].ToolName)
	}
}

func TestExecuteTaskRecorderFailureDoesNotAbort(t *testing.T) {
	client := &scriptedClient{turns: []llm.ToolResponse{
		{ToolCalls: []models.ToolCall{call(tools.Goto, map[string]any{"url": "https://jobs.example.com/1"})}},
		{ToolCalls: []models.ToolCall{call(tools.Done, map[string]any{"status": "success"})}},
	}}
	rec := &recordingStepRecorder{err: errors.New("disk full")}
	a := New(client, &fakeExecutor{}, testLogger(), WithStepRecorder(rec))

	res, err := a.ExecuteTask(context.Background(), Task{Objective: "apply"})
	if err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if res.Status != ResultSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
}

func TestExecuteTaskDonePayloadExposed(t *testing.T) {
	client := &scriptedClient{turns: []llm.ToolResponse{
		{ToolCalls: []models.ToolCall{call(tools.Done, map[string]any{
			"status":           "success",
			"account_email":    "ada@example.com",
			"account_password": "s3cret",
			"portal":           "greenhouse",
		})}},
	}}
	a := New(client, &fakeExecutor{}, testLogger())

	res, err := a.ExecuteTask(context.Background(), Task{Objective: "apply"})
	if err != nil {
		t.Fatalf("ExecuteTask: %v", err)
	}
	if res.Data["account_email"] != "ada@example.com" {
		t.Fatalf("data = %v", res.Data)
	}
}

func TestInitialMessageUsesObjectiveWithoutProfile(t *testing.T) {
	msg := initialMessage(Task{Objective: "check the dashboard"})
	if msg != "check the dashboard" {
		t.Fatalf("initial message = %q", msg)
	}
}

func TestInitialMessageBuildsApplyPrompt(t *testing.T) {
	task := Task{
		Objective: "apply",
		Debug:     true,
		Context: map[string]any{
			"job_url":   "https://jobs.example.com/42",
			"company":   "Acme",
			"job_title": "Platform Engineer",
			"profile": map[string]any{
				"full_name": "Ada Lovelace",
				"email":     "ada@example.com",
			},
			"resume_available": true,
		},
	}
	msg := initialMessage(task)
	for _, want := range []string{
		"https://jobs.example.com/42",
		"Acme",
		"Platform Engineer",
		"Ada Lovelace",
		"resume:       yes",
		"cover_letter: no",
		"debug: true",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("prompt missing %q:\n%s", want, msg)
		}
	}
}
