package handlers

import "github.com/inkstone/zhanghui/internal/book"

// ChapterBased handles 第N章 numbering, the most common modern convention.
type ChapterBased struct {
	markerHandler
}

// NewChapterBased creates the chapter-based handler.
func NewChapterBased() *ChapterBased {
	return &ChapterBased{markerHandler{
		name:          "chapter_based",
		format:        book.FormatChapter,
		pattern:       ChapterPattern,
		chapterWeight: 0.4,
		ratioWeight:   0.4,
		tocWeight:     0.15,
		blockWeight:   0.15,
	}}
}
