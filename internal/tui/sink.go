package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/DukeRupert/greenmarine/internal/domain"
)

// FileSink appends submitted leads to a file as JSON lines. It stands in
// for the lead service when the wizard runs without a database.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink returns a sink writing to path. The file is created on the
// first submission.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the destination file.
func (s *FileSink) Path() string {
	return s.path
}

// Submit writes payload as one line.
func (s *FileSink) Submit(ctx context.Context, payload domain.LeadPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return f.Close()
}
