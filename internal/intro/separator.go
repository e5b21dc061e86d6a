// Package intro decides whether a discovered "chapter 1" is actually front
// matter and performs the extraction and renumbering when it is.
package intro

import (
	"context"
	"log/slog"
	"strings"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/classifier"
	"github.com/inkstone/zhanghui/internal/handlers"
)

// classifierThreshold is the minimum classifier confidence to extract.
const classifierThreshold = 0.7

// sampleRunes is roughly how much paragraph content is sent to the
// classifier.
const sampleRunes = 500

// prologueMarkers name numbered prologue chapters. Despite the
// front-matter-sounding vocabulary these are legitimate chapters and are
// never extracted.
var prologueMarkers = []string{"序章", "楔子", "序幕"}

// simpleIntroKeywords extract unconditionally on exact match of the
// whitespace-stripped title.
var simpleIntroKeywords = []string{"序", "前言", "引言", "自序"}

// Separator implements the chapter-1 front matter decision. The classifier
// is optional; without one, ambiguous titles resolve to "leave it as
// chapter 1", since over-extraction can hide real content while
// under-extraction is still caught by the validator.
type Separator struct {
	Classifier classifier.Classifier // optional
	Logger     *slog.Logger
}

func (s *Separator) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// StripSpace removes all whitespace from a title for exact-keyword checks.
func StripSpace(title string) string {
	return strings.Join(strings.Fields(title), "")
}

// IsSimpleIntroTitle reports whether a whitespace-stripped title is exactly
// a simple-intro keyword.
func IsSimpleIntroTitle(title string) bool {
	stripped := StripSpace(title)
	for _, kw := range simpleIntroKeywords {
		if stripped == kw {
			return true
		}
	}
	return false
}

// ContainsIntroKeyword reports whether a title contains any simple-intro
// keyword as a substring.
func ContainsIntroKeyword(title string) bool {
	for _, kw := range simpleIntroKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// HasPrologueMarker reports whether a title names a numbered prologue.
func HasPrologueMarker(title string) bool {
	for _, marker := range prologueMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

// SeparateIntro returns updated front matter and chapters. Exactly one of
// two outcomes is possible: the chapter list is unchanged, or chapter 1 is
// extracted into front_matter.intro and the remaining chapters are
// renumbered contiguously from 1.
func (s *Separator) SeparateIntro(ctx context.Context, fm book.FrontMatter, chapters []book.Chapter) (book.FrontMatter, []book.Chapter) {
	if len(chapters) == 0 {
		return fm, chapters
	}

	first := chapters[0]
	if !s.shouldExtract(ctx, first) {
		return fm, chapters
	}

	s.logger().Info("extracting chapter 1 as front matter", "title", first.Title)

	fm.Intro = append(fm.Intro, first.ContentBlocks...)
	return fm, book.RenumberChapters(chapters[1:], 1)
}

// shouldExtract applies the decision rule in order: prologue guard, exact
// keyword, classifier, default-keep.
func (s *Separator) shouldExtract(ctx context.Context, first book.Chapter) bool {
	if HasPrologueMarker(first.Title) {
		return false
	}
	if IsSimpleIntroTitle(first.Title) {
		return true
	}
	if s.Classifier == nil {
		return false
	}

	result := s.Classifier.ClassifyIntroVsChapter(ctx, first.Title, contentSample(first))
	if result.Classification == "intro" && result.Confidence > classifierThreshold {
		return true
	}
	return false
}

// contentSample collects the first ~500 runes of paragraph content.
func contentSample(ch book.Chapter) string {
	var b strings.Builder
	for _, block := range ch.ContentBlocks {
		if block.Type != book.BlockParagraph {
			continue
		}
		b.WriteString(block.Content)
		b.WriteString("\n")
		if len([]rune(b.String())) >= sampleRunes {
			break
		}
	}
	sample := []rune(b.String())
	if len(sample) > sampleRunes {
		sample = sample[:sampleRunes]
	}
	return string(sample)
}

// DetectEmbeddedIntro splits a block list where intro material and
// chapter-1 content were concatenated without a clean boundary. The split
// lands on the first block whose text matches a chapter-start pattern.
// If no block matches, or the very first block already starts a chapter,
// nothing qualifies as intro and the input is returned unchanged.
func DetectEmbeddedIntro(blocks []book.ContentBlock) (introBlocks, remaining []book.ContentBlock) {
	for i, block := range blocks {
		if handlers.ChapterStartPattern.MatchString(strings.TrimSpace(block.Content)) {
			if i == 0 {
				return nil, blocks
			}
			return blocks[:i], blocks[i:]
		}
	}
	return nil, blocks
}
