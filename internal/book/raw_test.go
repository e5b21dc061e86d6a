package book

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeRaw(t *testing.T) {
	t.Run("string content", func(t *testing.T) {
		raw, err := DecodeRaw([]byte(`{
			"meta": {"title": "書劍恩仇錄", "work_number": 12, "volume": 1},
			"chapters": [{"title": "第一回 古道駿馬", "content": "清風拂面。\n大漠孤煙。"}]
		}`))
		if err != nil {
			t.Fatalf("DecodeRaw: %v", err)
		}
		if raw.Meta.Title != "書劍恩仇錄" || raw.Meta.WorkNumber != 12 {
			t.Errorf("meta = %+v", raw.Meta)
		}
		if len(raw.Chapters) != 1 {
			t.Fatalf("chapters = %d", len(raw.Chapters))
		}
		c := raw.Chapters[0].Content
		if !c.IsText() || !strings.Contains(c.Text, "大漠孤煙") {
			t.Errorf("content = %+v, want plain text", c)
		}
	})

	t.Run("node content with mixed shapes", func(t *testing.T) {
		raw, err := DecodeRaw([]byte(`{
			"chapters": [{"title": "第一回", "content": [
				"裸字符串段落。",
				{"tag": "p", "content": "標記段落。"},
				{"tag": "div", "content": [{"tag": "p", "content": "嵌套。"}]}
			]}]
		}`))
		if err != nil {
			t.Fatalf("DecodeRaw: %v", err)
		}
		c := raw.Chapters[0].Content
		if c.IsText() {
			t.Fatal("node list decoded as text")
		}
		if len(c.Nodes) != 3 {
			t.Fatalf("nodes = %d, want 3", len(c.Nodes))
		}
		if c.Nodes[0].Tag != "" || c.Nodes[0].Content.Text != "裸字符串段落。" {
			t.Errorf("bare string node = %+v", c.Nodes[0])
		}
		if c.Nodes[1].Tag != "p" {
			t.Errorf("tagged node = %+v", c.Nodes[1])
		}
		inner := c.Nodes[2].Content
		if inner.IsText() || len(inner.Nodes) != 1 || inner.Nodes[0].Tag != "p" {
			t.Errorf("nested content = %+v", inner)
		}
	})

	t.Run("invalid JSON is not a book", func(t *testing.T) {
		_, err := DecodeRaw([]byte(`{"chapters": [`))
		if !errors.Is(err, ErrNotABook) {
			t.Errorf("err = %v, want ErrNotABook", err)
		}
	})

	t.Run("missing chapters is not a book", func(t *testing.T) {
		for _, in := range []string{`{}`, `{"chapters": []}`, `{"title": "只有標題"}`} {
			if _, err := DecodeRaw([]byte(in)); !errors.Is(err, ErrNotABook) {
				t.Errorf("DecodeRaw(%s) err = %v, want ErrNotABook", in, err)
			}
		}
	})

	t.Run("unusable content shape is an error", func(t *testing.T) {
		_, err := DecodeRaw([]byte(`{"chapters": [{"title": "x", "content": 42}]}`))
		if err == nil {
			t.Error("numeric content should fail to decode")
		}
	})
}

func TestRawContent_RoundTrip(t *testing.T) {
	inputs := []string{
		`"純文本。"`,
		`["一段。","二段。"]`,
		`[{"tag":"h2","content":"標題"},{"tag":"ul","content":[{"tag":"li","content":"項"}]}]`,
	}
	for _, in := range inputs {
		var c RawContent
		if err := json.Unmarshal([]byte(in), &c); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		out, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(out) != in {
			t.Errorf("round trip changed shape: %s -> %s", in, out)
		}
	}
}

func TestChapterID(t *testing.T) {
	if got := ChapterID(7); got != "chapter_0007" {
		t.Errorf("ChapterID(7) = %q", got)
	}
	if got := ChapterID(123); got != "chapter_0123" {
		t.Errorf("ChapterID(123) = %q", got)
	}
}

func TestRenumberChapters(t *testing.T) {
	old := 9
	in := []Chapter{
		{ID: "chapter_0009", Title: "甲", Ordinal: &old},
		{ID: "stray", Title: "乙"},
	}

	out := RenumberChapters(in, 21)

	if out[0].ID != "chapter_0021" || *out[0].Ordinal != 21 {
		t.Errorf("first = %+v", out[0])
	}
	if out[1].ID != "chapter_0022" || *out[1].Ordinal != 22 {
		t.Errorf("second = %+v", out[1])
	}
	if in[0].ID != "chapter_0009" || *in[0].Ordinal != 9 {
		t.Error("input slice must not be modified")
	}
	if in[1].Ordinal != nil {
		t.Error("input ordinal must stay unset")
	}
}
