package handlers

import (
	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/cnum"
)

// ModernNovel is the unconditional fallback for unstructured prose: every
// source item becomes a chapter, numbered from its title when parseable and
// by position otherwise. It guarantees some handler always accepts.
type ModernNovel struct{}

// NewModernNovel creates the fallback handler.
func NewModernNovel() *ModernNovel {
	return &ModernNovel{}
}

func (h *ModernNovel) Name() string        { return "modern_novel" }
func (h *ModernNovel) Format() book.Format { return book.FormatModern }

// CanHandle returns the fixed fallback confidence: 0.3 when any chapters
// exist, 0 otherwise.
func (h *ModernNovel) CanHandle(raw *book.RawBook) float64 {
	if len(raw.Chapters) > 0 {
		return 0.3
	}
	return 0
}

// DiscoverStructure treats every item as a chapter.
func (h *ModernNovel) DiscoverStructure(raw *book.RawBook) *book.DiscoveryResult {
	result := &book.DiscoveryResult{DetectedFormat: book.FormatModern}

	nextID := 0
	for _, item := range raw.Chapters {
		start := nextID
		blocks := extractItemBlocks(item, &nextID)
		result.Blocks = append(result.Blocks, blocks...)

		boundary := book.ChapterBoundary{
			ChapterIndex: len(result.Boundaries),
			Title:        item.Title,
			FullTitle:    item.Title,
			BlockStart:   start,
			BlockCount:   len(blocks),
		}
		if n, ok := cnum.Parse(item.Title); ok {
			num := n
			boundary.ChapterNumber = &num
		}
		result.Boundaries = append(result.Boundaries, boundary)
	}

	c := 0.0
	if len(result.Boundaries) > 0 {
		c += 0.3
		c += 0.15
	}
	if len(result.Blocks) > 0 {
		c += 0.15
	}
	result.Confidence = c
	return result
}
