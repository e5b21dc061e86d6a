package classifier

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/inkstone/zhanghui/internal/book"
)

// Mock is a deterministic Classifier for testing.
type Mock struct {
	// Configurable behavior
	ShouldFail  bool // every operation takes its degrade path
	IntroResult IntroResult
	Matches     []TOCMatch
	Section     SectionType

	// State
	callCount atomic.Int64
}

// errMockFailure is the simulated collaborator failure.
var errMockFailure = errors.New("mock classifier failure")

// NewMock creates a mock that classifies everything as a chapter.
func NewMock() *Mock {
	return &Mock{
		IntroResult: IntroResult{Classification: "chapter", Confidence: 0.9, Reasoning: "mock"},
		Section:     SectionBody,
	}
}

// Calls returns how many operations have been invoked.
func (m *Mock) Calls() int64 {
	return m.callCount.Load()
}

// ClassifyIntroVsChapter implements Classifier.
func (m *Mock) ClassifyIntroVsChapter(ctx context.Context, title, contentSample string) IntroResult {
	m.callCount.Add(1)
	if m.ShouldFail {
		return UnknownIntro(errMockFailure)
	}
	return m.IntroResult
}

// MatchTOCToChapters implements Classifier.
func (m *Mock) MatchTOCToChapters(ctx context.Context, entries []book.TOCEntry, candidates []ChapterCandidate) []TOCMatch {
	m.callCount.Add(1)
	if m.ShouldFail {
		return PositionalFallback(entries, candidates, errMockFailure)
	}
	if m.Matches != nil {
		return m.Matches
	}
	// Default: confident positional mapping.
	matches := make([]TOCMatch, 0, len(entries))
	for i := range entries {
		if i >= len(candidates) {
			break
		}
		matches = append(matches, TOCMatch{
			TOCIndex:   i,
			ChapterID:  candidates[i].ID,
			Confidence: 0.95,
			Notes:      "mock match",
		})
	}
	return matches
}

// ClassifySectionType implements Classifier.
func (m *Mock) ClassifySectionType(ctx context.Context, title string, position, total int) SectionType {
	m.callCount.Add(1)
	if m.ShouldFail {
		return PositionHeuristic(position, total)
	}
	return m.Section
}
