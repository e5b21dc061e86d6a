package book

import "fmt"

// ChapterBoundary marks where one chapter's blocks begin within the flat
// block sequence produced by Pass-1 discovery. Boundaries are non-overlapping
// and always reference a valid range of discovered blocks.
type ChapterBoundary struct {
	ChapterIndex  int    `json:"chapter_index"`
	ChapterNumber *int   `json:"chapter_number,omitempty"`
	Title         string `json:"title"`
	FullTitle     string `json:"full_title"`
	BlockStart    int    `json:"block_start"`
	BlockCount    int    `json:"block_count"`
}

// Chapter is the final chapter model. Ordinal is the chapter's number for
// sequencing and TOC matching; it is not necessarily the position in the
// chapter list, since multi-volume works continue numbering across volumes.
type Chapter struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Ordinal       *int           `json:"ordinal"`
	ContentBlocks []ContentBlock `json:"content_blocks"`
}

// ChapterID formats a chapter ID from a 1-based number ("chapter_0001").
func ChapterID(n int) string {
	return fmt.Sprintf("chapter_%04d", n)
}

// RenumberChapters returns a copy of chapters with ordinals assigned
// contiguously starting at start and IDs regenerated to match. The input
// slice is not modified; renumbering is all-or-nothing.
func RenumberChapters(chapters []Chapter, start int) []Chapter {
	out := make([]Chapter, len(chapters))
	for i, ch := range chapters {
		n := start + i
		ch.ID = ChapterID(n)
		ord := n
		ch.Ordinal = &ord
		out[i] = ch
	}
	return out
}
