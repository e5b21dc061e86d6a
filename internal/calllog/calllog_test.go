package calllog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRecorder_Record(t *testing.T) {
	t.Run("fills in id and timestamp", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRecorder(&buf, nil)

		r.Record(Call{Purpose: "intro_classification", Model: "gpt-4o-mini", LatencyMs: 120})

		calls := decodeAll(t, buf.Bytes())
		if len(calls) != 1 {
			t.Fatalf("calls = %d, want 1", len(calls))
		}
		if calls[0].ID == "" {
			t.Error("ID should be assigned")
		}
		if calls[0].Timestamp.IsZero() {
			t.Error("timestamp should be assigned")
		}
		if calls[0].Purpose != "intro_classification" || calls[0].LatencyMs != 120 {
			t.Errorf("call = %+v", calls[0])
		}
	})

	t.Run("preserves explicit fields", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRecorder(&buf, nil)
		ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		r.Record(Call{ID: "fixed", Timestamp: ts, Purpose: "toc_matching", Error: "rate limited"})

		calls := decodeAll(t, buf.Bytes())
		if calls[0].ID != "fixed" || !calls[0].Timestamp.Equal(ts) || calls[0].Error != "rate limited" {
			t.Errorf("call = %+v", calls[0])
		}
	})

	t.Run("one line per call", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRecorder(&buf, nil)
		for i := 0; i < 3; i++ {
			r.Record(Call{Purpose: "section_typing"})
		}
		lines := strings.Count(buf.String(), "\n")
		if lines != 3 {
			t.Errorf("lines = %d, want 3", lines)
		}
	})

	t.Run("nil recorder is a no-op", func(t *testing.T) {
		var r *Recorder
		r.Record(Call{Purpose: "intro_classification"})
	})

	t.Run("concurrent records stay line-atomic", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRecorder(&buf, nil)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Record(Call{Purpose: "toc_matching", Model: "gpt-4o-mini"})
			}()
		}
		wg.Wait()

		calls := decodeAll(t, buf.Bytes())
		if len(calls) != 16 {
			t.Errorf("calls = %d, want 16", len(calls))
		}
	})
}

func TestOpenAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.jsonl")

	r, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Record(Call{Purpose: "intro_classification", Model: "gpt-4o-mini", InputTokens: 200, OutputTokens: 40})
	r.Record(Call{Purpose: "toc_matching", Error: "empty completion response"})
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen appends rather than truncating.
	r2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	r2.Record(Call{Purpose: "section_typing"})
	r2.Close()

	calls, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	if calls[0].InputTokens != 200 || calls[0].OutputTokens != 40 {
		t.Errorf("first = %+v", calls[0])
	}
	if calls[1].Error == "" {
		t.Error("degraded call should carry its error")
	}
	if calls[2].Purpose != "section_typing" {
		t.Errorf("appended call = %+v", calls[2])
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.jsonl")); !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func decodeAll(t *testing.T, data []byte) []Call {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calls.jsonl")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	calls, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return calls
}
