package handlers

import (
	"regexp"
	"strings"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/cnum"
)

// canHandleSample is how many titles CanHandle inspects.
const canHandleSample = 10

// markerHandler is the shared discovery core for the chapter/episode/volume
// variants: same algorithm, different heading marker and confidence weights.
type markerHandler struct {
	name    string
	format  book.Format
	pattern *regexp.Regexp

	chapterWeight float64
	ratioWeight   float64
	tocWeight     float64
	blockWeight   float64
}

func (h *markerHandler) Name() string        { return h.name }
func (h *markerHandler) Format() book.Format { return h.format }

// CanHandle returns the fraction of a 10-item title sample matching this
// handler's heading marker.
func (h *markerHandler) CanHandle(raw *book.RawBook) float64 {
	return h.titleMatchRatio(raw)
}

func (h *markerHandler) titleMatchRatio(raw *book.RawBook) float64 {
	sample := len(raw.Chapters)
	if sample == 0 {
		return 0
	}
	if sample > canHandleSample {
		sample = canHandleSample
	}
	matched := 0
	for _, item := range raw.Chapters[:sample] {
		if h.pattern.MatchString(item.Title) {
			matched++
		}
	}
	return float64(matched) / float64(sample)
}

// DiscoverStructure runs Pass-1 discovery: first-item TOC and intro
// heuristics, block extraction, and chapter boundary detection from title
// markers. Items without a marker continue the preceding chapter.
func (h *markerHandler) DiscoverStructure(raw *book.RawBook) *book.DiscoveryResult {
	result := &book.DiscoveryResult{DetectedFormat: h.format}

	nextID := 0
	chapterItems := 0

	for i, item := range raw.Chapters {
		if i == 0 && LooksLikeTOC(item) {
			result.TOCEntries = ParseTOC(item)
			if len(result.TOCEntries) == 0 {
				result.Issues = append(result.Issues, "first item looked like a TOC but yielded no entries")
			}
			continue
		}
		if i == 0 && IsIntroTitle(item.Title) {
			result.IntroBlocks = extractItemBlocks(item, &nextID)
			continue
		}

		chapterItems++
		start := nextID
		blocks := extractItemBlocks(item, &nextID)
		result.Blocks = append(result.Blocks, blocks...)

		loc := h.pattern.FindStringIndex(item.Title)
		if loc == nil {
			// No marker: continuation of the previous chapter if one
			// exists, otherwise unclaimed front material.
			if n := len(result.Boundaries); n > 0 {
				result.Boundaries[n-1].BlockCount += len(blocks)
			}
			continue
		}

		boundary := book.ChapterBoundary{
			ChapterIndex: len(result.Boundaries),
			Title:        strings.TrimSpace(item.Title[loc[1]:]),
			FullTitle:    strings.TrimSpace(item.Title),
			BlockStart:   start,
			BlockCount:   len(blocks),
		}
		if boundary.Title == "" {
			boundary.Title = boundary.FullTitle
		}
		if n, ok := cnum.Parse(item.Title[loc[0]:loc[1]]); ok {
			num := n
			boundary.ChapterNumber = &num
		} else {
			result.Issues = append(result.Issues, "unparseable chapter number in title: "+item.Title)
		}
		result.Boundaries = append(result.Boundaries, boundary)
	}

	result.Confidence = h.confidence(result, chapterItems)
	return result
}

// confidence is a coverage-weighted sum: chapters found, boundary coverage,
// TOC presence, block presence.
func (h *markerHandler) confidence(result *book.DiscoveryResult, chapterItems int) float64 {
	c := 0.0
	if len(result.Boundaries) > 0 {
		c += h.chapterWeight
	}
	if chapterItems > 0 {
		c += h.ratioWeight * float64(len(result.Boundaries)) / float64(chapterItems)
	}
	if len(result.TOCEntries) > 0 {
		c += h.tocWeight
	}
	if len(result.Blocks) > 0 {
		c += h.blockWeight
	}
	if c > 1.0 {
		c = 1.0
	}
	return c
}
