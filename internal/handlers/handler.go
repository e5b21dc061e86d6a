// Package handlers implements Pass-1 structure discovery: the closed family
// of format handlers (chapter-based, episode-based, volume-based, and the
// modern-novel fallback) that score raw books for format fit and extract
// blocks, chapter boundaries, TOC entries, and intro material.
package handlers

import (
	"regexp"
	"strings"

	"github.com/inkstone/zhanghui/internal/book"
)

// Handler is the capability set every format handler implements. CanHandle
// returns a confidence in [0,1]; DiscoverStructure performs Pass-1
// discovery. No input is ever rejected here, only scored lower: the
// orchestrator picks the highest-confidence handler and the modern-novel
// fallback always accepts.
type Handler interface {
	Name() string
	Format() book.Format
	CanHandle(raw *book.RawBook) float64
	DiscoverStructure(raw *book.RawBook) *book.DiscoveryResult
}

// NumeralClass matches one numeral sequence in any of the conventions the
// corpus uses: Chinese digits, 十/百/千 compounds, the special tens tokens
// 廿/卅/卌, and Arabic fallbacks.
const NumeralClass = `[零一二三四五六七八九十廿卅卌百千0-9]+`

var (
	// EpisodePattern matches 第N回 headings (classical vernacular fiction).
	EpisodePattern = regexp.MustCompile(`第` + NumeralClass + `回`)

	// ChapterPattern matches 第N章 headings.
	ChapterPattern = regexp.MustCompile(`第` + NumeralClass + `章`)

	// VolumePattern matches 第N卷 / 第N部 / 第N集 volume markers.
	VolumePattern = regexp.MustCompile(`第` + NumeralClass + `[卷部集]`)

	// ChapterStartPattern matches a chapter heading at the start of a line
	// of prose. Used by embedded-intro and recovery scanning.
	ChapterStartPattern = regexp.MustCompile(`^第` + NumeralClass + `[章回]`)
)

// tocKeywords mark a table-of-contents title.
var tocKeywords = []string{"目錄", "目录", "目次"}

// introExactKeywords are titles that are an intro when matched exactly
// (after whitespace stripping).
var introExactKeywords = []string{"序", "前言", "引言", "自序", "序言"}

// introContainsKeywords mark an intro title on substring match. The bare
// 序 is excluded here: 序章/序幕 are numbered-prologue titles, not prefaces.
var introContainsKeywords = []string{"前言", "引言", "自序", "序言"}

// IsTOCTitle reports whether a source item title names a table of contents.
func IsTOCTitle(title string) bool {
	for _, kw := range tocKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// IsIntroTitle reports whether a source item title names front matter.
func IsIntroTitle(title string) bool {
	stripped := stripSpace(title)
	for _, kw := range introExactKeywords {
		if stripped == kw {
			return true
		}
	}
	for _, kw := range introContainsKeywords {
		if strings.Contains(stripped, kw) {
			return true
		}
	}
	return false
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// All returns the fixed, ordered handler list. The modern-novel fallback is
// last so a tie on confidence always resolves to a more specific handler.
func All() []Handler {
	return []Handler{
		NewEpisodeBased(),
		NewChapterBased(),
		NewVolumeBased(),
		NewModernNovel(),
	}
}
