package handlers

import (
	"strings"

	"github.com/inkstone/zhanghui/internal/book"
)

// headingLevels maps heading tags to their level metadata.
var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

// containerTags recurse into list content or collapse string content to a
// single paragraph.
var containerTags = map[string]bool{
	"div": true, "section": true, "article": true, "body": true, "li": true,
}

// extractItemBlocks extracts content blocks for one source item: a heading
// block for the title followed by the item's content. Block IDs increment
// through nextID and stay contiguous across the whole document.
func extractItemBlocks(item book.RawChapter, nextID *int) []book.ContentBlock {
	var blocks []book.ContentBlock

	title := strings.TrimSpace(item.Title)
	if title != "" {
		blocks = append(blocks, book.ContentBlock{
			ID:       *nextID,
			Type:     book.BlockHeading,
			Content:  title,
			Metadata: map[string]any{"level": 1},
		})
		*nextID++
	}

	blocks = append(blocks, extractContent(item.Content, nextID)...)
	return blocks
}

// extractContent turns raw content (plain text or tagged nodes) into blocks.
func extractContent(content book.RawContent, nextID *int) []book.ContentBlock {
	if content.IsText() {
		return extractTextBlocks(content.Text, nextID)
	}
	return extractNodes(content.Nodes, nextID)
}

// extractTextBlocks yields one paragraph block per non-empty line.
func extractTextBlocks(text string, nextID *int) []book.ContentBlock {
	var blocks []book.ContentBlock
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		blocks = append(blocks, book.ContentBlock{
			ID:      *nextID,
			Type:    book.BlockParagraph,
			Content: line,
		})
		*nextID++
	}
	return blocks
}

// extractNodes walks a tagged node list recursively. Strings become
// paragraphs; h1-h6 become headings carrying their level; p becomes a
// paragraph; ul/ol recurse into items; container tags recurse into list
// content or become a single paragraph for non-empty string content.
func extractNodes(nodes []book.RawNode, nextID *int) []book.ContentBlock {
	var blocks []book.ContentBlock
	for _, node := range nodes {
		// Bare string element.
		if node.Tag == "" && node.Content.IsText() {
			text := strings.TrimSpace(node.Content.Text)
			if text == "" {
				continue
			}
			blocks = append(blocks, book.ContentBlock{
				ID:      *nextID,
				Type:    book.BlockParagraph,
				Content: text,
			})
			*nextID++
			continue
		}

		if level, ok := headingLevels[node.Tag]; ok {
			text := strings.TrimSpace(nodeText(node.Content))
			if text == "" {
				continue
			}
			blocks = append(blocks, book.ContentBlock{
				ID:       *nextID,
				Type:     book.BlockHeading,
				Content:  text,
				Metadata: map[string]any{"level": level},
			})
			*nextID++
			continue
		}

		switch node.Tag {
		case "p":
			text := strings.TrimSpace(nodeText(node.Content))
			if text == "" {
				continue
			}
			blocks = append(blocks, book.ContentBlock{
				ID:      *nextID,
				Type:    book.BlockParagraph,
				Content: text,
			})
			*nextID++

		case "ul", "ol":
			if !node.Content.IsText() {
				blocks = append(blocks, extractNodes(node.Content.Nodes, nextID)...)
			}

		default:
			if containerTags[node.Tag] {
				if !node.Content.IsText() {
					blocks = append(blocks, extractNodes(node.Content.Nodes, nextID)...)
					continue
				}
				text := strings.TrimSpace(node.Content.Text)
				if text == "" {
					continue
				}
				blocks = append(blocks, book.ContentBlock{
					ID:      *nextID,
					Type:    book.BlockParagraph,
					Content: text,
				})
				*nextID++
			}
			// Unknown tags are dropped.
		}
	}
	return blocks
}

// nodeText flattens node content to plain text for single-block tags.
func nodeText(content book.RawContent) string {
	if content.IsText() {
		return content.Text
	}
	var parts []string
	for _, n := range content.Nodes {
		if t := strings.TrimSpace(nodeText(n.Content)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
