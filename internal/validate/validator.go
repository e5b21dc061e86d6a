// Package validate implements the antagonistic validator: a fixed rubric
// of five adversarial challenges that hunt for the known failure modes of
// structure discovery rather than checking generic well-formedness.
package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/intro"
)

const (
	// PassingScore is the aggregate score at or above which a document
	// passes.
	PassingScore = 90

	// criticalWeight separates critical challenges from warnings.
	criticalWeight = 20

	// maxIntroRunes is the intro length above which the intro is judged
	// too long to be a real preface (likely an unextracted chapter).
	maxIntroRunes = 2000

	// minIntroRunes is the intro length below which a warning is raised.
	minIntroRunes = 50

	// shortChapterRunes flags a suspiciously short chapter 1 that also
	// carries an intro keyword.
	shortChapterRunes = 300
)

// Challenge is one rubric entry's outcome.
type Challenge struct {
	Name         string   `json:"name"`
	MaxPoints    int      `json:"max_points"`
	PointsEarned int      `json:"points_earned"`
	Passed       bool     `json:"passed"`
	Issues       []string `json:"issues,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// Result is the aggregate validation outcome. It is created fresh on every
// call and never mutated after return.
type Result struct {
	Score          int         `json:"score"`
	Passed         bool        `json:"passed"`
	Challenges     []Challenge `json:"challenges"`
	CriticalIssues []string    `json:"critical_issues,omitempty"`
	Warnings       []string    `json:"warnings,omitempty"`
}

// Validate scores a document against the five challenges. Pure and
// deterministic: identical documents yield identical results.
func Validate(doc *book.Document) *Result {
	result := &Result{
		Challenges: []Challenge{
			invertedStructure(doc),
			tocMappings(doc),
			chapterBoundaries(doc),
			introSeparation(doc),
			chapterSequence(doc),
		},
	}

	for _, ch := range result.Challenges {
		result.Score += ch.PointsEarned
		if ch.Passed {
			continue
		}
		if ch.MaxPoints >= criticalWeight {
			result.CriticalIssues = append(result.CriticalIssues, ch.Issues...)
		} else {
			result.Warnings = append(result.Warnings, ch.Issues...)
		}
	}
	result.Passed = result.Score >= PassingScore
	return result
}

// invertedStructure is the highest-weighted challenge: a misclassified
// front-matter/chapter-1 split is the most damaging error class. Credit is
// all-or-nothing: any issue, including the informational ones, forfeits
// the full 40 points.
func invertedStructure(doc *book.Document) Challenge {
	ch := Challenge{Name: "inverted_structure", MaxPoints: 40}

	introBlocks := doc.Structure.FrontMatter.Intro
	chapters := doc.Structure.Body.Chapters

	introLen := 0
	for _, b := range introBlocks {
		introLen += len([]rune(b.Content))
	}

	if len(introBlocks) > 0 && introLen > maxIntroRunes {
		ch.Issues = append(ch.Issues, fmt.Sprintf(
			"intro is %d characters, too long for a preface; likely an unextracted chapter", introLen))
		ch.Suggestions = append(ch.Suggestions, "re-run intro separation or split the intro at the first chapter marker")
	}

	if len(chapters) > 0 && intro.HasPrologueMarker(chapters[0].Title) {
		ch.Issues = append(ch.Issues, fmt.Sprintf(
			"chapter 1 title %q carries a prologue marker", chapters[0].Title))
	}

	for _, entry := range doc.Structure.FrontMatter.TOC {
		if entry.ChapterID == "" {
			continue
		}
		for _, c := range chapters {
			if c.ID == entry.ChapterID && intro.IsSimpleIntroTitle(c.Title) {
				ch.Issues = append(ch.Issues, fmt.Sprintf(
					"TOC entry %q references intro-like chapter %s (%q)", entry.FullTitle, c.ID, c.Title))
			}
		}
	}

	if len(introBlocks) > 0 && introLen < minIntroRunes {
		ch.Issues = append(ch.Issues, fmt.Sprintf(
			"intro is only %d characters; may be a misclassified fragment", introLen))
	}

	if len(chapters) > 0 && !intro.HasPrologueMarker(chapters[0].Title) &&
		intro.ContainsIntroKeyword(chapters[0].Title) && chapterRunes(chapters[0]) < shortChapterRunes {
		ch.Issues = append(ch.Issues, fmt.Sprintf(
			"chapter 1 title %q carries an intro keyword and has little content", chapters[0].Title))
	}

	if len(ch.Issues) == 0 {
		ch.PointsEarned = ch.MaxPoints
		ch.Passed = true
	}
	return ch
}

// tocMappings awards proportional credit for mapped, resolvable TOC
// entries. An absent TOC is not a mapping failure.
func tocMappings(doc *book.Document) Challenge {
	ch := Challenge{Name: "toc_mappings", MaxPoints: 25}

	entries := doc.Structure.FrontMatter.TOC
	if len(entries) == 0 {
		ch.PointsEarned = ch.MaxPoints
		ch.Passed = true
		return ch
	}

	chapterIDs := make(map[string]bool, len(doc.Structure.Body.Chapters))
	for _, c := range doc.Structure.Body.Chapters {
		chapterIDs[c.ID] = true
	}

	valid := 0
	for _, entry := range entries {
		switch {
		case entry.ChapterID == "":
			ch.Issues = append(ch.Issues, fmt.Sprintf("TOC entry %q is unmapped", entry.FullTitle))
		case !chapterIDs[entry.ChapterID]:
			ch.Issues = append(ch.Issues, fmt.Sprintf(
				"TOC entry %q references missing chapter %s", entry.FullTitle, entry.ChapterID))
		default:
			valid++
		}
	}

	ratio := float64(valid) / float64(len(entries))
	ch.PointsEarned = int(math.Round(float64(ch.MaxPoints) * ratio))
	ch.Passed = ratio >= 0.95
	if !ch.Passed {
		ch.Suggestions = append(ch.Suggestions, "run missing-chapter recovery for the unmapped entries")
	}
	return ch
}

// chapterBoundaries awards proportional credit for chapters containing
// exactly one heading block; more than one implies an unsplit combined
// chapter.
func chapterBoundaries(doc *book.Document) Challenge {
	ch := Challenge{Name: "chapter_boundaries", MaxPoints: 15}

	chapters := doc.Structure.Body.Chapters
	if len(chapters) == 0 {
		ch.Issues = append(ch.Issues, "document has no chapters")
		return ch
	}

	clean := 0
	for _, c := range chapters {
		headings := 0
		for _, b := range c.ContentBlocks {
			if b.Type == book.BlockHeading {
				headings++
			}
		}
		if headings == 1 {
			clean++
			continue
		}
		if headings > 1 {
			ch.Issues = append(ch.Issues, fmt.Sprintf(
				"chapter %s contains %d headings; likely an unsplit combined chapter", c.ID, headings))
		} else {
			ch.Issues = append(ch.Issues, fmt.Sprintf("chapter %s has no heading block", c.ID))
		}
	}

	ratio := float64(clean) / float64(len(chapters))
	ch.PointsEarned = int(math.Round(float64(ch.MaxPoints) * ratio))
	ch.Passed = ratio >= 0.95
	return ch
}

// introSeparation is binary: chapter 1 titled exactly a simple-intro
// keyword means the separator should have extracted it and did not.
func introSeparation(doc *book.Document) Challenge {
	ch := Challenge{Name: "intro_separation", MaxPoints: 10}

	chapters := doc.Structure.Body.Chapters
	if len(chapters) > 0 && intro.IsSimpleIntroTitle(chapters[0].Title) {
		ch.Issues = append(ch.Issues, fmt.Sprintf(
			"chapter 1 title %q is a simple intro keyword; it should have been extracted as front matter", chapters[0].Title))
		ch.Suggestions = append(ch.Suggestions, "enable the semantic classifier or extract chapter 1 manually")
		return ch
	}

	ch.PointsEarned = ch.MaxPoints
	ch.Passed = true
	return ch
}

// chapterSequence is binary: duplicate ordinals, gaps, or out-of-order
// ordinals forfeit the challenge. Chapters without an ordinal are excluded
// entirely; they cannot be validated and are not a failure.
func chapterSequence(doc *book.Document) Challenge {
	ch := Challenge{Name: "chapter_sequence", MaxPoints: 10}

	var ordinals []int
	for _, c := range doc.Structure.Body.Chapters {
		if c.Ordinal != nil {
			ordinals = append(ordinals, *c.Ordinal)
		}
	}
	if len(ordinals) == 0 {
		ch.PointsEarned = ch.MaxPoints
		ch.Passed = true
		return ch
	}

	seen := make(map[int]bool, len(ordinals))
	var dups []int
	for _, n := range ordinals {
		if seen[n] {
			dups = append(dups, n)
		}
		seen[n] = true
	}
	if len(dups) > 0 {
		ch.Issues = append(ch.Issues, fmt.Sprintf("duplicate chapter ordinals: %v", dups))
	}

	for i := 1; i < len(ordinals); i++ {
		if ordinals[i] <= ordinals[i-1] {
			ch.Issues = append(ch.Issues, fmt.Sprintf(
				"chapter ordinals not in ascending order: %d follows %d", ordinals[i], ordinals[i-1]))
			break
		}
	}

	// Gaps: symmetric difference against the contiguous range starting at
	// the minimum observed ordinal.
	min, max := ordinals[0], ordinals[0]
	for _, n := range ordinals {
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	var missing []int
	for n := min; n <= max; n++ {
		if !seen[n] {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		ch.Issues = append(ch.Issues, fmt.Sprintf("missing chapters: %v", missing))
		ch.Suggestions = append(ch.Suggestions, "run missing-chapter recovery")
	}

	if len(ch.Issues) == 0 {
		ch.PointsEarned = ch.MaxPoints
		ch.Passed = true
	}
	return ch
}

func chapterRunes(c book.Chapter) int {
	n := 0
	for _, b := range c.ContentBlocks {
		if b.Type == book.BlockHeading {
			continue
		}
		n += len([]rune(b.Content))
	}
	return n
}
