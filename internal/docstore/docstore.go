// Package docstore persists documents and batch checkpoints. All writes
// are atomic: content goes to a temp file in the target directory and is
// renamed into place, so a crash mid-write never corrupts a previously
// good file.
package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/inkstone/zhanghui/internal/book"
)

// WriteDocument writes a document as UTF-8 JSON with 2-space indentation.
// HTML escaping is off so CJK text and punctuation persist literally.
func WriteDocument(path string, doc *book.Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

// ReadDocument loads a previously written document.
func ReadDocument(path string) (*book.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	doc := &book.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", path, err)
	}
	return doc, nil
}

// ReadRaw loads and decodes a raw input book.
func ReadRaw(path string) (*book.RawBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	raw, err := book.DecodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// Checkpoint records completed units for one (work, volume) pair so a
// restarted batch can skip them.
type Checkpoint struct {
	CompletedChapters []string  `json:"completed_chapters"`
	Timestamp         time.Time `json:"timestamp"`
}

// Done reports whether a unit is already recorded.
func (c *Checkpoint) Done(id string) bool {
	if c == nil {
		return false
	}
	for _, done := range c.CompletedChapters {
		if done == id {
			return true
		}
	}
	return false
}

// Mark records a completed unit, once.
func (c *Checkpoint) Mark(id string) {
	if c.Done(id) {
		return
	}
	c.CompletedChapters = append(c.CompletedChapters, id)
	c.Timestamp = time.Now().UTC()
}

// LoadCheckpoint reads a checkpoint file. A missing file is an empty
// checkpoint, not an error.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Checkpoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	cp := &Checkpoint{}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", path, err)
	}
	return cp, nil
}

// SaveCheckpoint writes a checkpoint atomically.
func SaveCheckpoint(path string, cp *Checkpoint) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cp); err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}
