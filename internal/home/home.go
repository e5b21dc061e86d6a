// Package home manages the ~/.zhanghui directory layout: config file,
// processed output, and batch checkpoints.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the home directory.
	DefaultDirName = ".zhanghui"

	// OutputDirName is the subdirectory for processed documents.
	OutputDirName = "output"

	// CheckpointDirName is the subdirectory for batch checkpoints.
	CheckpointDirName = "checkpoints"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// CallLogFileName records classifier API calls, one JSON object per line.
	CallLogFileName = "calls.jsonl"
)

// Dir represents the home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.zhanghui).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// OutputPath returns the path to the processed-output directory.
func (d *Dir) OutputPath() string {
	return filepath.Join(d.path, OutputDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// CallLogPath returns the path to the classifier call log.
func (d *Dir) CallLogPath() string {
	return filepath.Join(d.path, CallLogFileName)
}

// CheckpointDir returns the checkpoint directory.
func (d *Dir) CheckpointDir() string {
	return filepath.Join(d.path, CheckpointDirName)
}

// CheckpointPath returns the checkpoint file for one (work, volume) pair.
// Volume 0 means the work is not divided into volumes.
func (d *Dir) CheckpointPath(work, volume int) string {
	return filepath.Join(d.CheckpointDir(), fmt.Sprintf("work_%04d_vol_%02d.json", work, volume))
}

// RunCheckpointPath returns the checkpoint file for a named batch run.
func (d *Dir) RunCheckpointPath(name string) string {
	return filepath.Join(d.CheckpointDir(), name+".json")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.OutputPath(), d.CheckpointDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
