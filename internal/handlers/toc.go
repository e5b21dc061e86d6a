package handlers

import (
	"regexp"
	"strings"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/cnum"
)

const (
	// tocMinLines is the minimum number of non-empty lines for the
	// content-shape TOC heuristic.
	tocMinLines = 5

	// tocShortLineRunes is the maximum length of a "TOC-looking" line.
	tocShortLineRunes = 15

	// tocShortLineRatio is the fraction of short lines required.
	tocShortLineRatio = 0.7
)

// anyMarkerPattern matches any chapter/volume marker for TOC line parsing,
// regardless of which handler is running.
var anyMarkerPattern = regexp.MustCompile(`第` + NumeralClass + `[章回節集部卷]`)

// LooksLikeTOC applies the first-item TOC heuristics: a TOC keyword in the
// title, or content shaped like a list of short lines.
func LooksLikeTOC(item book.RawChapter) bool {
	if IsTOCTitle(item.Title) {
		return true
	}
	lines := contentLines(item.Content)
	if len(lines) < tocMinLines {
		return false
	}
	short := 0
	for _, line := range lines {
		if len([]rune(line)) <= tocShortLineRunes {
			short++
		}
	}
	return float64(short)/float64(len(lines)) >= tocShortLineRatio
}

// ParseTOC extracts TOC entries from a TOC item's content. Lines carrying a
// chapter marker become entries with parsed numbers; if no line carries a
// marker, every non-empty line becomes an unnumbered entry.
func ParseTOC(item book.RawChapter) []book.TOCEntry {
	lines := contentLines(item.Content)

	var entries []book.TOCEntry
	for _, line := range lines {
		if IsTOCTitle(line) && len(entries) == 0 {
			continue // the TOC's own header line
		}
		loc := anyMarkerPattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		marker := line[loc[0]:loc[1]]
		entry := book.TOCEntry{
			FullTitle:    line,
			ChapterTitle: strings.TrimSpace(line[loc[1]:]),
		}
		if n, ok := cnum.Parse(marker); ok {
			num := n
			entry.ChapterNumber = &num
		}
		if entry.ChapterTitle == "" {
			entry.ChapterTitle = line
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		for _, line := range lines {
			if IsTOCTitle(line) {
				continue
			}
			entries = append(entries, book.TOCEntry{
				FullTitle:    line,
				ChapterTitle: line,
			})
		}
	}
	return entries
}

// contentLines flattens raw content to trimmed non-empty lines.
func contentLines(content book.RawContent) []string {
	var lines []string
	if content.IsText() {
		for _, line := range strings.Split(content.Text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		return lines
	}
	nextID := 0
	for _, b := range extractNodes(content.Nodes, &nextID) {
		for _, line := range strings.Split(b.Content, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
