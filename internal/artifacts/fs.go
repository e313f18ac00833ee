// Package artifacts stores per-run debug output: numbered step
// screenshots and a run metadata file under logs/run_<id>/.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/jobpilot/jobpilot/pkg/models"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileStore writes artifacts to the local filesystem. Screenshot
// numbering is per run id and survives across calls for the lifetime of
// the store.
type FileStore struct {
	baseDir string

	mu       sync.Mutex
	counters map[string]int
}

// NewFileStore returns a store rooted at baseDir ("logs" when empty).
func NewFileStore(baseDir string) *FileStore {
	if baseDir == "" {
		baseDir = "logs"
	}
	return &FileStore{baseDir: baseDir, counters: make(map[string]int)}
}

// EnsureRunDirectory creates (if needed) and returns the run's
// directory.
func (s *FileStore) EnsureRunDirectory(run models.RunContext) (string, error) {
	dir := s.runDir(run)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("artifacts: create run dir: %w", err)
	}
	return dir, nil
}

// SaveScreenshot writes one step screenshot as
// Screenshot_NNN_<step>.png, numbering from 001 per run.
func (s *FileStore) SaveScreenshot(run models.RunContext, stepName string, image []byte) (string, error) {
	dir, err := s.EnsureRunDirectory(run)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.counters[run.RunID]++
	count := s.counters[run.RunID]
	s.mu.Unlock()

	name := fmt.Sprintf("Screenshot_%03d_%s.png", count, safeName(stepName))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("artifacts: write screenshot: %w", err)
	}
	return path, nil
}

// SaveRunMetadata writes (or rewrites) run_meta.json in the run's
// directory.
func (s *FileStore) SaveRunMetadata(run models.RunContext, metadata map[string]any) (string, error) {
	dir, err := s.EnsureRunDirectory(run)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("artifacts: encode metadata: %w", err)
	}
	path := filepath.Join(dir, "run_meta.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("artifacts: write metadata: %w", err)
	}
	return path, nil
}

func (s *FileStore) runDir(run models.RunContext) string {
	if run.LogDirectory != "" {
		return run.LogDirectory
	}
	return filepath.Join(s.baseDir, "run_"+run.RunID)
}

func safeName(stepName string) string {
	cleaned := strings.Trim(unsafeChars.ReplaceAllString(stepName, "_"), "_")
	if cleaned == "" {
		return "step"
	}
	return cleaned
}
