// Package tocmap implements Pass-2 TOC reconciliation: mapping discovered
// TOC entries onto discovered chapters by ordinal, exact title, fuzzy
// title, or a delegated semantic matcher.
package tocmap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/classifier"
	"github.com/inkstone/zhanghui/internal/textmatch"
)

// DefaultFuzzyThreshold is the minimum similarity for a fuzzy title match.
const DefaultFuzzyThreshold = 0.8

// Mapper maps TOC entries to chapters. When a semantic matcher is
// configured it takes over entirely; otherwise the heuristic strategies
// run in order.
type Mapper struct {
	Classifier     classifier.Classifier // optional
	Logger         *slog.Logger
	FuzzyThreshold float64
}

// New creates a heuristic-only mapper with defaults.
func New() *Mapper {
	return &Mapper{FuzzyThreshold: DefaultFuzzyThreshold}
}

func (m *Mapper) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m *Mapper) threshold() float64 {
	if m.FuzzyThreshold > 0 {
		return m.FuzzyThreshold
	}
	return DefaultFuzzyThreshold
}

// MapTOCToChapters returns a copy of entries with chapter IDs populated
// where a match was found. Entries that match no strategy keep an empty
// chapter ID; the validator consumes that signal. This never fails: a
// failing semantic delegate degrades to the positional fallback inside the
// classifier contract.
func (m *Mapper) MapTOCToChapters(ctx context.Context, entries []book.TOCEntry, chapters []book.Chapter) []book.TOCEntry {
	out := make([]book.TOCEntry, len(entries))
	copy(out, entries)

	if len(out) == 0 || len(chapters) == 0 {
		return out
	}

	if m.Classifier != nil {
		m.mapSemantic(ctx, out, chapters)
		return out
	}

	for i := range out {
		// Already-mapped entries (e.g. a generated TOC) keep their mapping
		// and confidence.
		if out[i].ChapterID != "" {
			continue
		}
		m.mapHeuristic(&out[i], chapters)
	}
	return out
}

// mapSemantic delegates to the semantic matcher in batches.
func (m *Mapper) mapSemantic(ctx context.Context, entries []book.TOCEntry, chapters []book.Chapter) {
	candidates := make([]classifier.ChapterCandidate, len(chapters))
	for i, ch := range chapters {
		candidates[i] = classifier.ChapterCandidate{
			ID:      ch.ID,
			Title:   ch.Title,
			Ordinal: ch.Ordinal,
		}
	}

	for start := 0; start < len(entries); start += classifier.MaxTOCBatch {
		end := start + classifier.MaxTOCBatch
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		matches := m.Classifier.MatchTOCToChapters(ctx, batch, candidates)
		for _, match := range matches {
			if match.TOCIndex < 0 || match.TOCIndex >= len(batch) {
				continue
			}
			entry := &batch[match.TOCIndex]
			entry.ChapterID = match.ChapterID
			entry.MatchConfidence = match.Confidence
			entry.MatchNotes = match.Notes
		}
	}
}

// mapHeuristic tries the matching strategies in order, stopping at the
// first success.
func (m *Mapper) mapHeuristic(entry *book.TOCEntry, chapters []book.Chapter) {
	// 1. Ordinal match.
	if entry.ChapterNumber != nil {
		for _, ch := range chapters {
			if ch.Ordinal != nil && *ch.Ordinal == *entry.ChapterNumber {
				entry.ChapterID = ch.ID
				entry.MatchConfidence = 0.95
				entry.MatchNotes = "ordinal match"
				return
			}
		}
	}

	// 2. Exact title match.
	for _, ch := range chapters {
		if entry.FullTitle == ch.Title {
			entry.ChapterID = ch.ID
			entry.MatchConfidence = 1.0
			entry.MatchNotes = "exact title match"
			return
		}
	}

	// 3. Fuzzy title match: best similarity above the threshold wins.
	bestScore := 0.0
	bestID := ""
	for _, ch := range chapters {
		if score := textmatch.Similarity(entry.ChapterTitle, ch.Title); score > bestScore {
			bestScore = score
			bestID = ch.ID
		}
	}
	if bestScore > m.threshold() {
		entry.ChapterID = bestID
		entry.MatchConfidence = bestScore
		entry.MatchNotes = fmt.Sprintf("fuzzy title match (%.2f)", bestScore)
		return
	}

	// Unmapped: left for the validator.
	m.logger().Debug("TOC entry unmapped", "entry", entry.FullTitle, "best_score", bestScore)
}

// GenerateTOCFromChapters produces one synthetic, fully mapped TOC entry
// per chapter. A source book with no TOC at all is valid; this path keeps
// TOC absence from forcing a validation failure.
func GenerateTOCFromChapters(chapters []book.Chapter) []book.TOCEntry {
	entries := make([]book.TOCEntry, len(chapters))
	for i, ch := range chapters {
		entries[i] = book.TOCEntry{
			FullTitle:       ch.Title,
			ChapterTitle:    ch.Title,
			ChapterNumber:   ch.Ordinal,
			ChapterID:       ch.ID,
			MatchConfidence: 1.0,
			MatchNotes:      "Generated from chapters.",
		}
	}
	return entries
}
