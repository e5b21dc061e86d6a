// Package analyzer orchestrates the per-book pipeline: handler selection,
// Pass-1 discovery, alignment into a document, and the validation retry
// loop with best-candidate tracking.
package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/classifier"
	"github.com/inkstone/zhanghui/internal/handlers"
	"github.com/inkstone/zhanghui/internal/intro"
	"github.com/inkstone/zhanghui/internal/tocmap"
	"github.com/inkstone/zhanghui/internal/validate"
)

// DefaultMaxIterations bounds the validation retry loop.
const DefaultMaxIterations = 3

// FixApplier attempts to repair a candidate document that failed
// validation, returning true if it changed anything. The orchestrator
// short-circuits remaining iterations when a fix reports no change, since
// the pipeline is deterministic and would only reproduce the same result.
type FixApplier func(doc *book.Document, result *validate.Result) bool

// NoopFix never changes the document. With it configured, extra iterations
// have no effect on outcome.
func NoopFix(*book.Document, *validate.Result) bool { return false }

// Result is the terminal pipeline state: the best candidate seen across
// all iterations, whether or not it ever passed.
type Result struct {
	Document   *book.Document   `json:"-"`
	Validation *validate.Result `json:"validation"`
	Format     book.Format      `json:"detected_format"`
	Handler    string           `json:"handler"`
	Confidence float64          `json:"handler_confidence"`
	Iterations int              `json:"iterations"`
	BestScore  int              `json:"best_score"`
	Passed     bool             `json:"passed"`
	Issues     []string         `json:"issues,omitempty"`
}

// Analyzer runs the SELECT_HANDLER/DISCOVER/ALIGN/VALIDATE state machine.
// The classifier is optional; every semantic consumer degrades without it.
type Analyzer struct {
	Classifier    classifier.Classifier // optional
	Logger        *slog.Logger
	MaxIterations int
	PassingScore  int
	Fix           FixApplier
}

// New creates an analyzer with defaults and no classifier.
func New() *Analyzer {
	return &Analyzer{
		MaxIterations: DefaultMaxIterations,
		PassingScore:  validate.PassingScore,
	}
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *Analyzer) maxIterations() int {
	if a.MaxIterations > 0 {
		return a.MaxIterations
	}
	return DefaultMaxIterations
}

func (a *Analyzer) passingScore() int {
	if a.PassingScore > 0 {
		return a.PassingScore
	}
	return validate.PassingScore
}

func (a *Analyzer) fix() FixApplier {
	if a.Fix != nil {
		return a.Fix
	}
	return RegenerateTOCFix
}

// SelectHandler scores every handler against the raw book and returns the
// highest-confidence one. Ties resolve to the earlier handler in the fixed
// list; the modern-novel fallback sits last so it never beats a more
// specific handler on equal confidence.
func SelectHandler(raw *book.RawBook) (handlers.Handler, float64) {
	var chosen handlers.Handler
	best := -1.0
	for _, h := range handlers.All() {
		if c := h.CanHandle(raw); c > best {
			chosen = h
			best = c
		}
	}
	return chosen, best
}

// Analyze runs the full pipeline on one decoded raw book. It never fails:
// structural ambiguity flows into the validation result, and the worst
// case is a low-scoring best-effort document.
func (a *Analyzer) Analyze(ctx context.Context, raw *book.RawBook) *Result {
	handler, confidence := SelectHandler(raw)
	log := a.logger().With("handler", handler.Name(), "confidence", confidence)
	log.Info("handler selected")

	result := &Result{
		Format:     handler.Format(),
		Handler:    handler.Name(),
		Confidence: confidence,
	}

	var doc *book.Document
	for result.Iterations < a.maxIterations() {
		result.Iterations++

		if doc == nil {
			discovery := handler.DiscoverStructure(raw)
			doc = a.align(ctx, raw, discovery)
		}

		validation := validate.Validate(doc)
		log.Info("candidate validated",
			"iteration", result.Iterations,
			"score", validation.Score,
			"passed", validation.Passed)

		if validation.Score > result.BestScore || result.Document == nil {
			result.Document = doc
			result.Validation = validation
			result.BestScore = validation.Score
		}

		if validation.Passed && validation.Score >= a.passingScore() {
			result.Passed = true
			break
		}
		if result.Iterations >= a.maxIterations() {
			break
		}
		// Fixes apply to a copy so the recorded best candidate is never
		// mutated by a later, possibly worse, iteration.
		next := cloneDocument(doc)
		if !a.fix()(next, validation) {
			log.Info("no applicable fix, stopping early", "iteration", result.Iterations)
			break
		}
		doc = next
	}

	result.Issues = append(result.Issues, result.Validation.CriticalIssues...)
	result.Issues = append(result.Issues, result.Validation.Warnings...)
	return result
}

// align assembles the candidate document from a discovery result: chapters
// from boundaries, leading unclaimed blocks into a front-matter section,
// intro separation, embedded-chapter splitting, then TOC mapping or
// generation.
func (a *Analyzer) align(ctx context.Context, raw *book.RawBook, discovery *book.DiscoveryResult) *book.Document {
	chapters := chaptersFromBoundaries(discovery)

	fm := book.FrontMatter{
		TOC:   discovery.TOCEntries,
		Intro: discovery.IntroBlocks,
	}
	if leading := leadingBlocks(discovery); len(leading) > 0 {
		fm.Sections = append(fm.Sections, book.Section{ContentBlocks: leading})
	}

	sep := &intro.Separator{Classifier: a.Classifier, Logger: a.Logger}
	fm, chapters = sep.SeparateIntro(ctx, fm, chapters)

	// Intro material sometimes runs straight into chapter prose with no
	// item boundary. The chapter run moves to a front-matter section,
	// where the recovery pass can find and promote it.
	if introOnly, rest := intro.DetectEmbeddedIntro(fm.Intro); len(introOnly) > 0 {
		fm.Intro = introOnly
		fm.Sections = append(fm.Sections, book.Section{ContentBlocks: rest})
	}

	if len(fm.TOC) > 0 {
		m := &tocmap.Mapper{Classifier: a.Classifier, Logger: a.Logger}
		fm.TOC = m.MapTOCToChapters(ctx, fm.TOC, chapters)
	} else {
		fm.TOC = tocmap.GenerateTOCFromChapters(chapters)
	}

	doc := &book.Document{
		Meta: book.Meta{
			Language:      "zh",
			SchemaVersion: book.SchemaVersion,
		},
		Structure: book.Structure{
			FrontMatter: fm,
			Body:        book.Body{Chapters: chapters},
		},
	}
	if raw.Meta != nil {
		doc.Meta.Title = raw.Meta.Title
		doc.Meta.Author = raw.Meta.Author
		doc.Meta.WorkNumber = raw.Meta.WorkNumber
		doc.Meta.Volume = raw.Meta.Volume
	}
	return doc
}

// chaptersFromBoundaries slices the flat block sequence by boundary. Block
// IDs are contiguous but do not start at zero when front matter consumed
// earlier IDs, so ranges are resolved relative to the first block's ID.
func chaptersFromBoundaries(discovery *book.DiscoveryResult) []book.Chapter {
	if len(discovery.Blocks) == 0 || len(discovery.Boundaries) == 0 {
		return nil
	}
	base := discovery.Blocks[0].ID

	chapters := make([]book.Chapter, 0, len(discovery.Boundaries))
	for i, b := range discovery.Boundaries {
		start := b.BlockStart - base
		end := start + b.BlockCount
		if start < 0 || end > len(discovery.Blocks) {
			continue
		}
		ch := book.Chapter{
			ID:            book.ChapterID(i + 1),
			Title:         b.FullTitle,
			ContentBlocks: discovery.Blocks[start:end],
		}
		if b.ChapterNumber != nil {
			n := *b.ChapterNumber
			ch.Ordinal = &n
		}
		chapters = append(chapters, ch)
	}
	return chapters
}

// leadingBlocks returns blocks preceding the first boundary: title-page or
// other front material that no chapter claimed. Recovery searches these.
func leadingBlocks(discovery *book.DiscoveryResult) []book.ContentBlock {
	if len(discovery.Blocks) == 0 {
		return nil
	}
	if len(discovery.Boundaries) == 0 {
		return discovery.Blocks
	}
	base := discovery.Blocks[0].ID
	n := discovery.Boundaries[0].BlockStart - base
	if n <= 0 || n > len(discovery.Blocks) {
		return nil
	}
	return discovery.Blocks[:n]
}

func cloneDocument(doc *book.Document) *book.Document {
	data, err := json.Marshal(doc)
	if err != nil {
		return doc
	}
	out := &book.Document{}
	if err := json.Unmarshal(data, out); err != nil {
		return doc
	}
	return out
}

// RegenerateTOCFix is the default fix: when more than half the TOC failed
// to map, the TOC itself is judged unreliable and is regenerated from the
// chapters, which always yields fully mapped entries.
func RegenerateTOCFix(doc *book.Document, _ *validate.Result) bool {
	toc := doc.Structure.FrontMatter.TOC
	if len(toc) == 0 {
		return false
	}
	unmapped := 0
	for _, entry := range toc {
		if entry.ChapterID == "" {
			unmapped++
		}
	}
	if unmapped*2 <= len(toc) {
		return false
	}
	doc.Structure.FrontMatter.TOC = tocmap.GenerateTOCFromChapters(doc.Structure.Body.Chapters)
	return true
}
