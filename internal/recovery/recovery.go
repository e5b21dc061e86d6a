// Package recovery is the defensive post-pass: best-effort searches that
// raise structural recall after the main pipeline without ever corrupting
// an already-valid document. Every ambiguous case resolves to "leave the
// document unchanged".
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/classifier"
	"github.com/inkstone/zhanghui/internal/cnum"
	"github.com/inkstone/zhanghui/internal/handlers"
	"github.com/inkstone/zhanghui/internal/textmatch"
)

const (
	// DefaultSimilarityThreshold is the minimum fuzzy-title similarity
	// for a recovery match.
	DefaultSimilarityThreshold = 0.6

	// embeddedProseRunes is the accumulated prose length past which a
	// title-page section is judged to hide chapter content.
	embeddedProseRunes = 200

	// decoratorMaxRunes filters short metadata/decorator blocks (author
	// lines, dividers, publisher stamps) out of the prose accumulation.
	decoratorMaxRunes = 30
)

// Outcome classifies one missing-chapter search.
type Outcome string

const (
	// OutcomeFound means the chapter was located outside the body and
	// should be reclassified.
	OutcomeFound Outcome = "found"

	// OutcomeMisclassified means a body chapter matches the entry under
	// a different apparent numbering.
	OutcomeMisclassified Outcome = "misclassified"

	// OutcomeEmbedded means chapter prose is hidden inside a title-page
	// section, beginning at a detected transition block.
	OutcomeEmbedded Outcome = "embedded"

	// OutcomeMissing is the honest terminal state: genuinely absent.
	OutcomeMissing Outcome = "missing"
)

// Finding reports one searched TOC entry.
type Finding struct {
	Entry      book.TOCEntry `json:"entry"`
	Outcome    Outcome       `json:"outcome"`
	FoundIn    string        `json:"found_in,omitempty"` // front_matter, body, back_matter
	Section    int           `json:"section,omitempty"`
	ChapterID  string        `json:"chapter_id,omitempty"`
	Similarity float64       `json:"similarity,omitempty"`
	Transition int           `json:"transition,omitempty"` // embedded: block index where prose begins
	Notes      string        `json:"notes,omitempty"`
}

// Searcher runs the missing-chapter search. The classifier is optional;
// with one configured, sections holding a found chapter are typed so a
// reviewer can see whether the holding section is itself misfiled body
// content.
type Searcher struct {
	SimilarityThreshold float64
	Classifier          classifier.Classifier // optional
	Logger              *slog.Logger
}

func (s *Searcher) threshold() float64 {
	if s.SimilarityThreshold > 0 {
		return s.SimilarityThreshold
	}
	return DefaultSimilarityThreshold
}

func (s *Searcher) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// FindMissing searches for every TOC entry whose chapter number has no
// matching body ordinal. The document is never modified; findings tell the
// caller (or a human reviewer) where each chapter actually is.
func (s *Searcher) FindMissing(ctx context.Context, doc *book.Document) []Finding {
	present := make(map[int]bool)
	for _, ch := range doc.Structure.Body.Chapters {
		if ch.Ordinal != nil {
			present[*ch.Ordinal] = true
		}
	}

	var findings []Finding
	for _, entry := range doc.Structure.FrontMatter.TOC {
		if entry.ChapterNumber == nil || present[*entry.ChapterNumber] {
			continue
		}
		f := s.locate(ctx, doc, entry)
		s.logger().Info("missing chapter searched",
			"entry", entry.FullTitle,
			"outcome", f.Outcome,
			"found_in", f.FoundIn)
		findings = append(findings, f)
	}
	return findings
}

func (s *Searcher) locate(ctx context.Context, doc *book.Document, entry book.TOCEntry) Finding {
	f := Finding{Entry: entry, Outcome: OutcomeMissing}
	n := *entry.ChapterNumber

	if idx, sim, ok := s.searchSections(doc.Structure.FrontMatter.Sections, entry, n); ok {
		f.Outcome = OutcomeFound
		f.FoundIn = "front_matter"
		f.Section = idx
		f.Similarity = sim
		f.Notes = s.sectionNote(ctx, doc.Structure.FrontMatter.Sections, idx)
		return f
	}

	if id, sim, ok := s.searchBody(doc.Structure.Body.Chapters, entry); ok {
		f.Outcome = OutcomeMisclassified
		f.FoundIn = "body"
		f.ChapterID = id
		f.Similarity = sim
		f.Notes = "body chapter matches under a different numbering"
		return f
	}

	if idx, sim, ok := s.searchSections(doc.Structure.BackMatter.Sections, entry, n); ok {
		f.Outcome = OutcomeFound
		f.FoundIn = "back_matter"
		f.Section = idx
		f.Similarity = sim
		f.Notes = s.sectionNote(ctx, doc.Structure.BackMatter.Sections, idx)
		return f
	}

	for idx, sec := range doc.Structure.FrontMatter.Sections {
		if t, ok := embeddedTransition(sec.ContentBlocks); ok {
			f.Outcome = OutcomeEmbedded
			f.FoundIn = "front_matter"
			f.Section = idx
			f.Transition = t
			f.Notes = "substantial prose follows the title-page metadata"
			return f
		}
	}

	return f
}

// sectionNote types the section holding a found chapter. A section the
// classifier judges to be body content strengthens the case for moving the
// chapter out of it; any other answer adds nothing.
func (s *Searcher) sectionNote(ctx context.Context, sections []book.Section, idx int) string {
	if s.Classifier == nil {
		return ""
	}
	st := s.Classifier.ClassifySectionType(ctx, sections[idx].Title, idx, len(sections))
	if st == classifier.SectionBody {
		return "holding section types as body content"
	}
	return ""
}

// searchSections looks for the expected chapter-number marker or a fuzzy
// title match in section blocks.
func (s *Searcher) searchSections(sections []book.Section, entry book.TOCEntry, n int) (int, float64, bool) {
	markers := markerForms(n)
	for idx, sec := range sections {
		for _, block := range sec.ContentBlocks {
			for _, line := range strings.Split(block.Content, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				sim := textmatch.Similarity(line, entry.FullTitle)
				if containsAny(line, markers) || sim >= s.threshold() {
					return idx, sim, true
				}
			}
		}
	}
	return 0, 0, false
}

// searchBody looks for a mis-titled body chapter: one whose title
// fuzzy-matches the entry but whose numbering differs.
func (s *Searcher) searchBody(chapters []book.Chapter, entry book.TOCEntry) (string, float64, bool) {
	bestID := ""
	best := 0.0
	for _, ch := range chapters {
		if sim := textmatch.Similarity(ch.Title, entry.ChapterTitle); sim > best {
			best = sim
			bestID = ch.ID
		}
	}
	if best >= s.threshold() {
		return bestID, best, true
	}
	return "", 0, false
}

// markerForms renders the marker spellings a source might use for chapter
// n: canonical Chinese numerals and the Arabic fallback, with either
// heading suffix.
func markerForms(n int) []string {
	han := cnum.Render(n)
	arabic := strconv.Itoa(n)
	return []string{
		"第" + han + "回", "第" + han + "章",
		"第" + arabic + "回", "第" + arabic + "章",
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// embeddedTransition finds where narrative prose begins inside a
// title-page block list: after filtering headings and short
// metadata/decorator blocks, accumulated prose must exceed the threshold
// and at least one more substantial block must follow the transition.
func embeddedTransition(blocks []book.ContentBlock) (int, bool) {
	transition := -1
	accumulated := 0
	substantial := 0
	for i, block := range blocks {
		if block.Type == book.BlockHeading {
			continue
		}
		if len([]rune(block.Content)) <= decoratorMaxRunes {
			continue
		}
		if transition < 0 {
			transition = i
		}
		accumulated += len([]rune(block.Content))
		substantial++
	}
	if transition >= 0 && accumulated > embeddedProseRunes && substantial >= 2 {
		return transition, true
	}
	return 0, false
}

// PromoteEmbeddedChapter scans front-matter sections of a volume for the
// first chapter marker, splits the section there, and promotes everything
// from the split point into a new chapter at its ordinal position. The
// marker found determines the ordinal, whatever numbering regime the work
// uses. Any ambiguity (no marker, unparseable number, ordinal already
// present) leaves the document unchanged and returns false.
func PromoteEmbeddedChapter(doc *book.Document) bool {
	sections := doc.Structure.FrontMatter.Sections
	for idx, sec := range sections {
		split := -1
		for i, block := range sec.ContentBlocks {
			if handlers.ChapterStartPattern.MatchString(strings.TrimSpace(block.Content)) {
				split = i
				break
			}
		}
		if split < 0 {
			continue
		}
		kept, promoted := sec.ContentBlocks[:split], sec.ContentBlocks[split:]

		title := strings.TrimSpace(strings.SplitN(promoted[0].Content, "\n", 2)[0])
		loc := handlers.ChapterStartPattern.FindStringIndex(title)
		if loc == nil {
			continue
		}
		n, ok := cnum.Parse(title[loc[0]:loc[1]])
		if !ok {
			continue
		}
		if hasOrdinal(doc.Structure.Body.Chapters, n) {
			continue // already present; a split here would duplicate it
		}

		insertChapter(doc, book.Chapter{
			Title:         title,
			Ordinal:       &n,
			ContentBlocks: promoted,
		})
		if len(kept) > 0 {
			doc.Structure.FrontMatter.Sections[idx].ContentBlocks = kept
		} else {
			doc.Structure.FrontMatter.Sections = append(sections[:idx], sections[idx+1:]...)
		}
		relink(doc)
		return true
	}
	return false
}

func hasOrdinal(chapters []book.Chapter, n int) bool {
	for _, ch := range chapters {
		if ch.Ordinal != nil && *ch.Ordinal == n {
			return true
		}
	}
	return false
}

// insertChapter places the chapter before the first existing chapter with
// a greater ordinal, keeping the list in ordinal order.
func insertChapter(doc *book.Document, ch book.Chapter) {
	chapters := doc.Structure.Body.Chapters
	at := len(chapters)
	for i, existing := range chapters {
		if existing.Ordinal != nil && *existing.Ordinal > *ch.Ordinal {
			at = i
			break
		}
	}
	chapters = append(chapters, book.Chapter{})
	copy(chapters[at+1:], chapters[at:])
	chapters[at] = ch
	doc.Structure.Body.Chapters = chapters
}

// relink regenerates positional chapter IDs and rewrites TOC references,
// both the moved old IDs and any unmapped entry whose number now has a
// chapter. Ordinals are left alone: they carry the work's own numbering.
func relink(doc *book.Document) {
	chapters := doc.Structure.Body.Chapters
	remap := make(map[string]string, len(chapters))
	byOrdinal := make(map[int]string, len(chapters))
	for i := range chapters {
		id := book.ChapterID(i + 1)
		if chapters[i].ID != "" {
			remap[chapters[i].ID] = id
		}
		chapters[i].ID = id
		if chapters[i].Ordinal != nil {
			byOrdinal[*chapters[i].Ordinal] = id
		}
	}

	toc := doc.Structure.FrontMatter.TOC
	for i := range toc {
		if toc[i].ChapterID != "" {
			if id, ok := remap[toc[i].ChapterID]; ok {
				toc[i].ChapterID = id
				continue
			}
		}
		if toc[i].ChapterID == "" && toc[i].ChapterNumber != nil {
			if id, ok := byOrdinal[*toc[i].ChapterNumber]; ok {
				toc[i].ChapterID = id
				toc[i].MatchConfidence = 1.0
				toc[i].MatchNotes = fmt.Sprintf("promoted from front matter (%s)", id)
			}
		}
	}
}
