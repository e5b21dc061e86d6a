package book

// TOCEntry is a table-of-contents line. ChapterID stays empty until the TOC
// mapper links the entry to a chapter; an unmapped entry is a signal for the
// validator, not an error.
type TOCEntry struct {
	FullTitle       string  `json:"full_title"`
	ChapterTitle    string  `json:"chapter_title"`
	ChapterNumber   *int    `json:"chapter_number,omitempty"`
	ChapterID       string  `json:"chapter_id,omitempty"`
	MatchConfidence float64 `json:"match_confidence"`
	MatchNotes      string  `json:"match_notes,omitempty"`
}
