package recovery

import (
	"context"
	"strings"
	"testing"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/classifier"
)

func intp(n int) *int { return &n }

func bodyChapter(pos, ord int, title string) book.Chapter {
	return book.Chapter{
		ID:      book.ChapterID(pos),
		Title:   title,
		Ordinal: intp(ord),
		ContentBlocks: []book.ContentBlock{
			{ID: pos * 10, Type: book.BlockHeading, Content: title},
			{ID: pos*10 + 1, Type: book.BlockParagraph, Content: strings.Repeat("正文。", 40)},
		},
	}
}

func TestFindMissing_FoundInFrontMatter(t *testing.T) {
	doc := &book.Document{}
	doc.Structure.Body.Chapters = []book.Chapter{
		bodyChapter(1, 6, "第六回 舊恨"),
	}
	doc.Structure.FrontMatter.TOC = []book.TOCEntry{
		{FullTitle: "第六回 舊恨", ChapterTitle: "舊恨", ChapterNumber: intp(6), ChapterID: book.ChapterID(1)},
		{FullTitle: "第七回 新仇", ChapterTitle: "新仇", ChapterNumber: intp(7)},
	}
	doc.Structure.FrontMatter.Sections = []book.Section{{
		ContentBlocks: []book.ContentBlock{
			{ID: 1, Type: book.BlockParagraph, Content: "第七回 新仇"},
			{ID: 2, Type: book.BlockParagraph, Content: strings.Repeat("仇人相見分外眼紅。", 10)},
		},
	}}

	findings := (&Searcher{}).FindMissing(context.Background(), doc)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Outcome != OutcomeFound {
		t.Errorf("outcome = %s, want found", f.Outcome)
	}
	if f.FoundIn != "front_matter" {
		t.Errorf("found_in = %q, want front_matter", f.FoundIn)
	}
	if f.Section != 0 {
		t.Errorf("section = %d, want 0", f.Section)
	}
	if f.Similarity < 0.6 {
		t.Errorf("similarity = %v, want >= 0.6", f.Similarity)
	}
}

func TestFindMissing_SectionTyping(t *testing.T) {
	newDoc := func() *book.Document {
		doc := &book.Document{}
		doc.Structure.Body.Chapters = []book.Chapter{
			bodyChapter(1, 6, "第六回 舊恨"),
		}
		doc.Structure.FrontMatter.TOC = []book.TOCEntry{
			{FullTitle: "第七回 新仇", ChapterTitle: "新仇", ChapterNumber: intp(7)},
		}
		doc.Structure.FrontMatter.Sections = []book.Section{{
			Title: "出版說明",
			ContentBlocks: []book.ContentBlock{
				{ID: 1, Type: book.BlockParagraph, Content: "第七回 新仇"},
			},
		}}
		return doc
	}

	t.Run("body-typed holding section is noted", func(t *testing.T) {
		s := &Searcher{Classifier: &classifier.Mock{Section: classifier.SectionBody}}
		findings := s.FindMissing(context.Background(), newDoc())
		if len(findings) != 1 || findings[0].Outcome != OutcomeFound {
			t.Fatalf("findings = %+v", findings)
		}
		if !strings.Contains(findings[0].Notes, "body content") {
			t.Errorf("notes = %q, want the section typed as body", findings[0].Notes)
		}
	})

	t.Run("front-matter typing adds nothing", func(t *testing.T) {
		s := &Searcher{Classifier: &classifier.Mock{Section: classifier.SectionFrontMatter}}
		findings := s.FindMissing(context.Background(), newDoc())
		if findings[0].Notes != "" {
			t.Errorf("notes = %q, want empty", findings[0].Notes)
		}
	})

	t.Run("degraded classifier falls back to the position heuristic", func(t *testing.T) {
		// Section 0 of 1 types as front matter under the heuristic.
		s := &Searcher{Classifier: &classifier.Mock{ShouldFail: true}}
		findings := s.FindMissing(context.Background(), newDoc())
		if findings[0].Outcome != OutcomeFound {
			t.Fatalf("outcome = %s, want found regardless of the classifier", findings[0].Outcome)
		}
		if findings[0].Notes != "" {
			t.Errorf("notes = %q, want empty on the degrade path", findings[0].Notes)
		}
	})
}

func TestFindMissing_Misclassified(t *testing.T) {
	doc := &book.Document{}
	doc.Structure.Body.Chapters = []book.Chapter{
		bodyChapter(1, 1, "第一回 初見"),
		// The source mis-numbered chapter 2 as 第十二回.
		bodyChapter(2, 12, "第十二回 別離江南"),
	}
	doc.Structure.FrontMatter.TOC = []book.TOCEntry{
		{FullTitle: "第二回 別離江南", ChapterTitle: "別離江南", ChapterNumber: intp(2)},
	}

	findings := (&Searcher{}).FindMissing(context.Background(), doc)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Outcome != OutcomeMisclassified {
		t.Fatalf("outcome = %s, want misclassified", f.Outcome)
	}
	if f.ChapterID != book.ChapterID(2) {
		t.Errorf("chapter id = %q, want %q", f.ChapterID, book.ChapterID(2))
	}
}

func TestFindMissing_Embedded(t *testing.T) {
	doc := &book.Document{}
	doc.Structure.Body.Chapters = []book.Chapter{bodyChapter(1, 1, "第一章 開篇")}
	doc.Structure.FrontMatter.TOC = []book.TOCEntry{
		{FullTitle: "第二章 隱沒", ChapterTitle: "隱沒", ChapterNumber: intp(2)},
	}
	doc.Structure.FrontMatter.Sections = []book.Section{{
		ContentBlocks: []book.ContentBlock{
			{ID: 1, Type: book.BlockHeading, Content: "武俠小說全集"},
			{ID: 2, Type: book.BlockParagraph, Content: "某某出版社"},
			{ID: 3, Type: book.BlockParagraph, Content: strings.Repeat("夜色沉沉之中一人獨行。", 15)},
			{ID: 4, Type: book.BlockParagraph, Content: strings.Repeat("他回望來路心事重重。", 15)},
		},
	}}

	findings := (&Searcher{}).FindMissing(context.Background(), doc)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Outcome != OutcomeEmbedded {
		t.Fatalf("outcome = %s, want embedded", f.Outcome)
	}
	if f.Transition != 2 {
		t.Errorf("transition = %d, want 2 (first substantial prose block)", f.Transition)
	}
}

func TestFindMissing_Missing(t *testing.T) {
	doc := &book.Document{}
	doc.Structure.Body.Chapters = []book.Chapter{bodyChapter(1, 1, "第一回 開端")}
	doc.Structure.FrontMatter.TOC = []book.TOCEntry{
		{FullTitle: "第九回 早已散佚", ChapterTitle: "早已散佚", ChapterNumber: intp(9)},
	}

	findings := (&Searcher{}).FindMissing(context.Background(), doc)
	if len(findings) != 1 || findings[0].Outcome != OutcomeMissing {
		t.Fatalf("findings = %+v, want single missing", findings)
	}
}

func TestFindMissing_NothingMissing(t *testing.T) {
	doc := &book.Document{}
	doc.Structure.Body.Chapters = []book.Chapter{bodyChapter(1, 1, "第一回 開端")}
	doc.Structure.FrontMatter.TOC = []book.TOCEntry{
		{FullTitle: "第一回 開端", ChapterTitle: "開端", ChapterNumber: intp(1), ChapterID: book.ChapterID(1)},
	}

	if findings := (&Searcher{}).FindMissing(context.Background(), doc); len(findings) != 0 {
		t.Fatalf("findings = %+v, want none", findings)
	}
}

func TestPromoteEmbeddedChapter(t *testing.T) {
	// Volume 2 title page hides 第二十一回: continuous numbering across
	// volumes, so the promoted ordinal comes from the marker itself.
	newDoc := func() *book.Document {
		doc := &book.Document{}
		doc.Structure.Body.Chapters = []book.Chapter{
			bodyChapter(1, 22, "第二十二回 劍氣縱橫"),
			bodyChapter(2, 23, "第二十三回 刀光如雪"),
		}
		doc.Structure.FrontMatter.TOC = []book.TOCEntry{
			{FullTitle: "第二十一回 重入江湖", ChapterTitle: "重入江湖", ChapterNumber: intp(21)},
			{FullTitle: "第二十二回 劍氣縱橫", ChapterTitle: "劍氣縱橫", ChapterNumber: intp(22), ChapterID: book.ChapterID(1)},
			{FullTitle: "第二十三回 刀光如雪", ChapterTitle: "刀光如雪", ChapterNumber: intp(23), ChapterID: book.ChapterID(2)},
		}
		doc.Structure.FrontMatter.Sections = []book.Section{{
			Title: "第二卷",
			ContentBlocks: []book.ContentBlock{
				{ID: 1, Type: book.BlockParagraph, Content: "某某著"},
				{ID: 2, Type: book.BlockParagraph, Content: "第二十一回 重入江湖"},
				{ID: 3, Type: book.BlockParagraph, Content: strings.Repeat("二十年後他重入江湖。", 10)},
			},
		}}
		return doc
	}

	t.Run("splits, inserts, and relinks", func(t *testing.T) {
		doc := newDoc()
		if !PromoteEmbeddedChapter(doc) {
			t.Fatal("promotion should apply")
		}

		chapters := doc.Structure.Body.Chapters
		if len(chapters) != 3 {
			t.Fatalf("got %d chapters, want 3", len(chapters))
		}
		if chapters[0].Ordinal == nil || *chapters[0].Ordinal != 21 {
			t.Errorf("first ordinal = %v, want 21", chapters[0].Ordinal)
		}
		if chapters[0].Title != "第二十一回 重入江湖" {
			t.Errorf("promoted title = %q", chapters[0].Title)
		}
		if len(chapters[0].ContentBlocks) != 2 {
			t.Errorf("promoted chapter has %d blocks, want 2", len(chapters[0].ContentBlocks))
		}

		// IDs are positional after relinking.
		for i, ch := range chapters {
			if ch.ID != book.ChapterID(i+1) {
				t.Errorf("chapter %d id = %q, want %q", i, ch.ID, book.ChapterID(i+1))
			}
		}

		// Every TOC entry resolves again, including the promoted one.
		toc := doc.Structure.FrontMatter.TOC
		for i, entry := range toc {
			if entry.ChapterID != book.ChapterID(i+1) {
				t.Errorf("TOC entry %d maps to %q, want %q", i, entry.ChapterID, book.ChapterID(i+1))
			}
		}

		// The author line stays behind as front matter.
		secs := doc.Structure.FrontMatter.Sections
		if len(secs) != 1 || len(secs[0].ContentBlocks) != 1 {
			t.Fatalf("sections = %+v, want one single-block section", secs)
		}
		if secs[0].ContentBlocks[0].Content != "某某著" {
			t.Errorf("kept block = %q", secs[0].ContentBlocks[0].Content)
		}
	})

	t.Run("no marker is a no-op", func(t *testing.T) {
		doc := newDoc()
		doc.Structure.FrontMatter.Sections[0].ContentBlocks = []book.ContentBlock{
			{ID: 1, Type: book.BlockParagraph, Content: "只是一頁題詞。"},
		}
		if PromoteEmbeddedChapter(doc) {
			t.Error("no chapter marker, nothing to promote")
		}
		if len(doc.Structure.Body.Chapters) != 2 {
			t.Error("document must be unchanged")
		}
	})

	t.Run("existing ordinal is a no-op", func(t *testing.T) {
		doc := newDoc()
		doc.Structure.Body.Chapters[0].Ordinal = intp(21)
		if PromoteEmbeddedChapter(doc) {
			t.Error("ordinal 21 already present, promotion would duplicate it")
		}
	})

	t.Run("per-volume reset numbering", func(t *testing.T) {
		doc := newDoc()
		doc.Structure.FrontMatter.Sections[0].ContentBlocks[1].Content = "第一回 從頭再來"
		doc.Structure.FrontMatter.TOC[0] = book.TOCEntry{
			FullTitle: "第一回 從頭再來", ChapterTitle: "從頭再來", ChapterNumber: intp(1),
		}

		if !PromoteEmbeddedChapter(doc) {
			t.Fatal("promotion should apply")
		}
		first := doc.Structure.Body.Chapters[0]
		if first.Ordinal == nil || *first.Ordinal != 1 {
			t.Errorf("ordinal = %v, want 1 from the marker itself", first.Ordinal)
		}
	})

	t.Run("marker at section start promotes the whole section", func(t *testing.T) {
		doc := newDoc()
		doc.Structure.FrontMatter.Sections[0].ContentBlocks = doc.Structure.FrontMatter.Sections[0].ContentBlocks[1:]

		if !PromoteEmbeddedChapter(doc) {
			t.Fatal("promotion should apply")
		}
		if len(doc.Structure.FrontMatter.Sections) != 0 {
			t.Errorf("emptied section should be removed, got %+v", doc.Structure.FrontMatter.Sections)
		}
	})
}
