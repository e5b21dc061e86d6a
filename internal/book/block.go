// Package book defines the document model shared across the structure
// pipeline: content blocks, chapters, TOC entries, and the assembled
// document that gets persisted. It has no dependencies on other zhanghui
// packages to avoid import cycles.
package book

// BlockType classifies a content block.
type BlockType string

const (
	BlockHeading     BlockType = "heading"
	BlockParagraph   BlockType = "paragraph"
	BlockText        BlockType = "text"
	BlockNarrative   BlockType = "narrative"
	BlockDialogue    BlockType = "dialogue"
	BlockVerse       BlockType = "verse"
	BlockDocument    BlockType = "document"
	BlockThought     BlockType = "thought"
	BlockDescriptive BlockType = "descriptive"
)

// ContentBlock is the atomic unit of text in a document.
// IDs are assigned once during discovery and never reused; content may be
// rewritten downstream (translation) but the ID is structural identity.
type ContentBlock struct {
	ID       int            `json:"id"`
	Type     BlockType      `json:"type"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
