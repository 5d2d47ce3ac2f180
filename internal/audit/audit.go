package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run is one line of the run history
type Run struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	LogFile  string    `json:"log_file"`
	Mode     string    `json:"mode"`
	Records  int       `json:"records"`
	Skipped  int       `json:"skipped"`
	Output   string    `json:"output"`
	Error    string    `json:"error,omitempty"`
	Duration float64   `json:"duration_seconds"`
}

// Logger appends runs to a JSON-lines history file
type Logger struct {
	mu       sync.Mutex
	filePath string
	now      func() time.Time
}

// NewLogger creates a new audit logger
func NewLogger(filePath string) *Logger {
	return &Logger{
		filePath: filePath,
		now:      time.Now,
	}
}

// LogRun stamps the run with an ID and time when missing and appends it.
// The stamped run is returned.
func (l *Logger) LogRun(run Run) (Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Time.IsZero() {
		run.Time = l.now().UTC()
	}

	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return run, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(run); err != nil {
		return run, fmt.Errorf("failed to encode run: %w", err)
	}

	return run, nil
}
