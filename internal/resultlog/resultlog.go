// Package resultlog appends one JSON record per drafted question to an
// audit log, one object per line. Records are never rewritten.
package resultlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const fileName = "draft_log.jsonl"

// Record is the audit entry for one processed question. Timestamp is
// assigned at write time, not by the caller.
type Record struct {
	RunID       string   `json:"run_id,omitempty"`
	Question    string   `json:"question"`
	TopScore    float64  `json:"top_score"`
	NeedsReview bool     `json:"needs_review"`
	TopAnswers  []string `json:"top_answers"`
	Draft       string   `json:"draft"`
	Error       string   `json:"error,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

type Logger struct {
	path string
}

func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &Logger{path: filepath.Join(dir, fileName)}, nil
}

// Path returns the log file location.
func (l *Logger) Path() string {
	return l.path
}

// Append writes one record as a single JSON line. The file is opened,
// appended and closed per call; concurrent runs interleave at line
// granularity, which is safe for line-oriented JSON. A write failure is
// returned to the caller and must abort the run: partial output without an
// audit trail is worse than no output.
func (l *Logger) Append(rec Record) error {
	rec.Timestamp = time.Now().Format(time.RFC3339)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal draft record: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open draft log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append draft record: %w", err)
	}

	return nil
}
