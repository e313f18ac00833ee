package browser

import (
	"strings"
	"testing"

	"github.com/jobpilot/jobpilot/internal/tools"
	"github.com/jobpilot/jobpilot/pkg/models"
)

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 9000)
	if got := truncate(long, snapshotLimit); len(got) != snapshotLimit {
		t.Fatalf("len = %d, want %d", len(got), snapshotLimit)
	}
	if got := truncate("short", snapshotLimit); got != "short" {
		t.Fatalf("got %q", got)
	}
}

func TestIntArg(t *testing.T) {
	// JSON numbers decode as float64.
	call := models.ToolCall{Arguments: map[string]any{"seconds": float64(5)}}
	if got := intArg(call, "seconds", 2); got != 5 {
		t.Fatalf("got %d", got)
	}
	if got := intArg(models.ToolCall{}, "seconds", 2); got != 2 {
		t.Fatalf("default = %d", got)
	}
	call = models.ToolCall{Arguments: map[string]any{"seconds": "soon"}}
	if got := intArg(call, "seconds", 2); got != 2 {
		t.Fatalf("non-numeric = %d", got)
	}
}

func TestExecutorDeclaresFullToolSet(t *testing.T) {
	e := NewExecutor(nil, nil, "", "")
	defs := e.AvailableTools()
	if len(defs) != len(tools.Definitions()) {
		t.Fatalf("declared %d tools, want %d", len(defs), len(tools.Definitions()))
	}
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
	}
	for _, want := range []string{tools.PageSnapshot, tools.AskUser, tools.Done, tools.UploadFile} {
		if !names[want] {
			t.Fatalf("missing tool %q", want)
		}
	}
}
