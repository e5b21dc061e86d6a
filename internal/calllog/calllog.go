// Package calllog records classifier API calls for traceability. Every call
// is appended as one JSON line with its purpose, model, latency, and token
// usage, so degraded runs can be audited after the fact.
package calllog

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Call is one recorded classifier API call.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Purpose is what the call was for: "intro_classification",
	// "toc_matching", or "section_typing".
	Purpose string `json:"purpose"`

	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`

	// Error is set when the call exhausted its retries and the caller
	// degraded. Empty on success.
	Error string `json:"error,omitempty"`
}

// Recorder appends calls to a writer as JSON lines. Safe for concurrent use.
// Recording never fails the call being recorded: write errors are logged and
// dropped.
type Recorder struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w io.Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{w: w, logger: logger.With("component", "calllog")}
}

// Open creates a recorder appending to the file at path, creating it if
// needed. Close flushes and closes the file.
func Open(path string, logger *slog.Logger) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	r := NewRecorder(f, logger)
	r.closer = f
	return r, nil
}

// Record appends one call. A zero ID or timestamp is filled in.
func (r *Recorder) Record(call Call) {
	if r == nil {
		return
	}
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now()
	}

	line, err := json.Marshal(call)
	if err != nil {
		r.logger.Warn("dropping unrecordable call", "purpose", call.Purpose, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		r.logger.Warn("call log write failed", "error", err)
	}
}

// Close closes the underlying file when the recorder owns one.
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Read loads all recorded calls from path. Malformed lines are skipped.
func Read(path string) ([]Call, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var calls []Call
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var c Call
		if err := dec.Decode(&c); err != nil {
			break
		}
		calls = append(calls, c)
	}
	return calls, nil
}
