// Package batch processes a directory of independent book files with a
// bounded worker pool. Every worker owns its own pipeline; one malformed
// or failing book never aborts the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/inkstone/zhanghui/internal/analyzer"
	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/docstore"
	"github.com/inkstone/zhanghui/internal/home"
)

// DefaultWorkers bounds the pool when no worker count is configured.
const DefaultWorkers = 4

// Runner fans book files out to workers. NewAnalyzer builds one pipeline
// per worker so no pipeline state is shared.
type Runner struct {
	InputDir       string
	OutputDir      string
	Workers        int
	CheckpointPath string // optional; enables resume
	Logger         *slog.Logger
	NewAnalyzer    func() *analyzer.Analyzer

	// WorkCheckpoints, when set, additionally records completed chapters
	// per (work, volume) for documents whose metadata carries a work
	// number, keyed by the home directory's checkpoint layout.
	WorkCheckpoints *home.Dir
}

// FileResult is one file's outcome.
type FileResult struct {
	Input      string `json:"input"`
	Output     string `json:"output,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
	Passed     bool   `json:"passed"`
	Score      int    `json:"score"`
	Err        error  `json:"-"`
}

// Summary aggregates a run.
type Summary struct {
	RunID     string       `json:"run_id"`
	Processed int          `json:"processed"`
	Passed    int          `json:"passed"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Errored   int          `json:"errored"`
	Results   []FileResult `json:"results"`
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return DefaultWorkers
}

func (r *Runner) newAnalyzer() *analyzer.Analyzer {
	if r.NewAnalyzer != nil {
		return r.NewAnalyzer()
	}
	return analyzer.New()
}

// Run processes every .json file in the input directory. Cancellation is
// cooperative: in-flight files finish and are persisted, queued files are
// abandoned. The returned summary covers whatever actually ran.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	files, err := r.listInputs()
	if err != nil {
		return nil, err
	}

	summary := &Summary{RunID: uuid.NewString()}
	log := r.logger().With("run_id", summary.RunID)
	log.Info("batch started", "files", len(files), "workers", r.workers())

	var cp *docstore.Checkpoint
	if r.CheckpointPath != "" {
		if cp, err = docstore.LoadCheckpoint(r.CheckpointPath); err != nil {
			return nil, err
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())

	for _, file := range files {
		file := file
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil // abandoned before start; in-flight work is never cut
			}
			res := r.processFile(gctx, file, cp, &mu)

			mu.Lock()
			summary.Results = append(summary.Results, res)
			switch {
			case res.Skipped:
				summary.Skipped++
			case res.Err != nil:
				summary.Errored++
			case res.Passed:
				summary.Processed++
				summary.Passed++
			default:
				summary.Processed++
				summary.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	g.Wait()

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Input < summary.Results[j].Input
	})
	log.Info("batch finished",
		"processed", summary.Processed,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"errored", summary.Errored)
	return summary, ctx.Err()
}

func (r *Runner) processFile(ctx context.Context, file string, cp *docstore.Checkpoint, mu *sync.Mutex) FileResult {
	res := FileResult{Input: file}
	unit := strings.TrimSuffix(filepath.Base(file), ".json")
	log := r.logger().With("file", filepath.Base(file))

	if cp != nil {
		mu.Lock()
		done := cp.Done(unit)
		mu.Unlock()
		if done {
			res.Skipped = true
			res.SkipReason = "already completed"
			log.Info("skipped", "reason", res.SkipReason)
			return res
		}
	}

	raw, err := docstore.ReadRaw(file)
	if errors.Is(err, book.ErrNotABook) {
		// Distinct from a structural failure: the file is simply not a
		// book and carries no score.
		res.Skipped = true
		res.SkipReason = err.Error()
		log.Warn("skipped", "reason", res.SkipReason)
		return res
	}
	if err != nil {
		res.Err = err
		log.Error("read failed", "error", err)
		return res
	}

	result := r.newAnalyzer().Analyze(ctx, raw)
	res.Passed = result.Passed
	res.Score = result.BestScore

	res.Output = filepath.Join(r.OutputDir, filepath.Base(file))
	if err := docstore.WriteDocument(res.Output, result.Document); err != nil {
		res.Err = err
		log.Error("write failed", "error", err)
		return res
	}

	if cp != nil {
		mu.Lock()
		cp.Mark(unit)
		err := docstore.SaveCheckpoint(r.CheckpointPath, cp)
		mu.Unlock()
		if err != nil {
			log.Warn("checkpoint write failed", "error", err)
		}
	}

	if r.WorkCheckpoints != nil && result.Document.Meta.WorkNumber > 0 {
		mu.Lock()
		err := r.saveWorkCheckpoint(result.Document)
		mu.Unlock()
		if err != nil {
			log.Warn("work checkpoint write failed", "error", err)
		}
	}

	log.Info("book processed",
		"format", result.Format,
		"score", res.Score,
		"passed", res.Passed,
		"iterations", result.Iterations)
	return res
}

// saveWorkCheckpoint marks every chapter of a completed document in its
// (work, volume) checkpoint, accumulating across runs.
func (r *Runner) saveWorkCheckpoint(doc *book.Document) error {
	path := r.WorkCheckpoints.CheckpointPath(doc.Meta.WorkNumber, doc.Meta.Volume)
	cp, err := docstore.LoadCheckpoint(path)
	if err != nil {
		return err
	}
	for _, ch := range doc.Structure.Body.Chapters {
		cp.Mark(ch.ID)
	}
	return docstore.SaveCheckpoint(path, cp)
}

func (r *Runner) listInputs() ([]string, error) {
	entries, err := os.ReadDir(r.InputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(r.InputDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
