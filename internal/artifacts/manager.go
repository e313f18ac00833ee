package artifacts

import (
	"context"
	"fmt"

	"github.com/jobpilot/jobpilot/internal/agent"
	"github.com/jobpilot/jobpilot/pkg/models"
)

// Store persists debug artifacts for a run.
type Store interface {
	EnsureRunDirectory(run models.RunContext) (string, error)
	SaveScreenshot(run models.RunContext, stepName string, image []byte) (string, error)
	SaveRunMetadata(run models.RunContext, metadata map[string]any) (string, error)
}

// Screenshotter captures the current page as a PNG.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// RunManager captures a screenshot after every agent step of a debug
// run. It satisfies the agent's step recorder contract; non-debug runs
// record nothing.
type RunManager struct {
	store   Store
	shooter Screenshotter
	run     models.RunContext
}

// NewRunManager binds a store and a screenshot source to one run.
func NewRunManager(store Store, shooter Screenshotter, run models.RunContext) *RunManager {
	return &RunManager{store: store, shooter: shooter, run: run}
}

// Start ensures the run directory exists and returns its path.
func (m *RunManager) Start() (string, error) {
	return m.store.EnsureRunDirectory(m.run)
}

// SaveMetadata writes run_meta.json for the run.
func (m *RunManager) SaveMetadata(metadata map[string]any) error {
	_, err := m.store.SaveRunMetadata(m.run, metadata)
	return err
}

// RecordStep captures and saves a screenshot named after the executed
// tool. No-op unless the run is a debug run.
func (m *RunManager) RecordStep(ctx context.Context, step agent.Step) error {
	if !m.run.IsDebug {
		return nil
	}
	image, err := m.shooter.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("artifacts: capture step %d: %w", step.StepNumber, err)
	}
	if _, err := m.store.SaveScreenshot(m.run, step.ToolName, image); err != nil {
		return err
	}
	return nil
}
