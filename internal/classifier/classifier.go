// Package classifier defines the semantic classification collaborator: an
// LLM-backed service used for intro-vs-chapter decisions, TOC-to-chapter
// matching, and section typing. The pipeline's correctness never depends on
// the collaborator's internals, only on this contract: every operation
// degrades to a documented heuristic fallback and never returns an error to
// the caller.
package classifier

import (
	"context"
	"fmt"

	"github.com/inkstone/zhanghui/internal/book"
)

// MaxTOCBatch is the maximum number of TOC entries submitted per
// matching call.
const MaxTOCBatch = 20

// SectionType classifies a book section by role.
type SectionType string

const (
	SectionFrontMatter SectionType = "front_matter"
	SectionBody        SectionType = "body"
	SectionBackMatter  SectionType = "back_matter"
)

// IntroResult is the intro-vs-chapter classification outcome.
type IntroResult struct {
	Classification string  `json:"classification"` // "intro", "chapter", "unknown"
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// ChapterCandidate is a chapter offered to the TOC matcher.
type ChapterCandidate struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Ordinal *int   `json:"ordinal,omitempty"`
}

// TOCMatch links one submitted TOC entry (by index in the submitted batch)
// to a chapter candidate.
type TOCMatch struct {
	TOCIndex   int     `json:"toc_index"`
	ChapterID  string  `json:"chapter_id"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
}

// Classifier is the collaborator contract. Implementations catch their own
// failures and return the degrade-path result instead of raising; the
// failure reason is preserved in the Reasoning/Notes fields.
type Classifier interface {
	// ClassifyIntroVsChapter decides whether a chapter-1 candidate is
	// actually front matter. Degrades to {"unknown", 0.0, <error>}.
	ClassifyIntroVsChapter(ctx context.Context, title, contentSample string) IntroResult

	// MatchTOCToChapters maps a batch (len <= MaxTOCBatch) of TOC entries
	// to chapter candidates. Degrades to the positional fallback.
	MatchTOCToChapters(ctx context.Context, entries []book.TOCEntry, candidates []ChapterCandidate) []TOCMatch

	// ClassifySectionType types a section by title and position. Degrades
	// to the position heuristic.
	ClassifySectionType(ctx context.Context, title string, position, total int) SectionType
}

// UnknownIntro is the intro classification degrade path.
func UnknownIntro(err error) IntroResult {
	return IntroResult{
		Classification: "unknown",
		Confidence:     0.0,
		Reasoning:      fmt.Sprintf("classifier unavailable: %v", err),
	}
}

// PositionalFallback is the TOC matching degrade path: entry i maps to
// candidate i with confidence 0.5 and a note recording the failure.
func PositionalFallback(entries []book.TOCEntry, candidates []ChapterCandidate, err error) []TOCMatch {
	matches := make([]TOCMatch, 0, len(entries))
	for i := range entries {
		if i >= len(candidates) {
			break
		}
		matches = append(matches, TOCMatch{
			TOCIndex:   i,
			ChapterID:  candidates[i].ID,
			Confidence: 0.5,
			Notes:      fmt.Sprintf("positional fallback: %v", err),
		})
	}
	return matches
}

// PositionHeuristic is the section typing degrade path: first section is
// front matter, last is back matter, everything else is body.
func PositionHeuristic(position, total int) SectionType {
	switch {
	case position <= 0:
		return SectionFrontMatter
	case position >= total-1:
		return SectionBackMatter
	default:
		return SectionBody
	}
}
