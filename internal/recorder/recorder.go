// Package recorder keeps a rotating JSONL trace of tool invocations for
// post-hoc debugging of client sessions.
package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const MaxRotatedFiles = 3

// ToolCall is a single record in the trace.
type ToolCall struct {
	Timestamp  time.Time `json:"ts"`
	Tool       string    `json:"tool"`
	ClientID   string    `json:"client_id,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Recorder manages rotating trace files. A nil *Recorder is a no-op sink.
type Recorder struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	basePath string
}

// NewRecorder creates a recorder rooted at basePath, ensuring the directory
// exists.
func NewRecorder(basePath string) (*Recorder, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &Recorder{basePath: basePath}, nil
}

// Start opens a fresh trace file named after the server instance, rotating
// old files so only the newest few remain.
func (r *Recorder) Start(instanceID string) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}

	if err := r.rotate(); err != nil {
		return fmt.Errorf("rotate traces: %w", err)
	}

	filename := fmt.Sprintf("trace_%s_%d.jsonl", instanceID, time.Now().UnixMilli())
	f, err := os.Create(filepath.Join(r.basePath, filename))
	if err != nil {
		return err
	}

	r.file = f
	r.encoder = json.NewEncoder(f)
	return nil
}

// Record appends one tool invocation to the current trace file.
func (r *Recorder) Record(tool, clientID string, duration time.Duration, callErr error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return
	}

	call := ToolCall{
		Timestamp:  time.Now(),
		Tool:       tool,
		ClientID:   clientID,
		DurationMS: duration.Milliseconds(),
	}
	if callErr != nil {
		call.Error = callErr.Error()
	}

	_ = r.encoder.Encode(call)
}

// rotate keeps only the newest MaxRotatedFiles-1 traces to make room for the
// next one.
func (r *Recorder) rotate() error {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return err
	}

	var traces []struct {
		Name string
		Time time.Time
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		traces = append(traces, struct {
			Name string
			Time time.Time
		}{e.Name(), info.ModTime()})
	}

	sort.Slice(traces, func(i, j int) bool {
		return traces[i].Time.After(traces[j].Time)
	})

	if len(traces) >= MaxRotatedFiles {
		for i := MaxRotatedFiles - 1; i < len(traces); i++ {
			_ = os.Remove(filepath.Join(r.basePath, traces[i].Name))
		}
	}
	return nil
}

// Close finishes the current trace.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		r.encoder = nil
		return err
	}
	return nil
}
