package book

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotABook marks input that cannot be processed as a book at all
// (missing or empty chapters, unparseable JSON). This is the one error
// class that short-circuits a document; it is reported distinctly and does
// not count against any validation score.
var ErrNotABook = errors.New("input is not a book")

// RawBook is the raw input document. Source JSON is inconsistently
// structured; chapter content may be a plain string or a list of tagged
// nodes.
type RawBook struct {
	Meta     *RawMeta     `json:"meta,omitempty"`
	Chapters []RawChapter `json:"chapters"`
}

// RawMeta is optional source metadata.
type RawMeta struct {
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	WorkNumber int    `json:"work_number,omitempty"`
	Volume     int    `json:"volume,omitempty"`
}

// RawChapter is one top-level item of the source. "Chapter" here means a
// source division: the first item is often a TOC or preface rather than a
// real chapter.
type RawChapter struct {
	Title   string     `json:"title"`
	Content RawContent `json:"content"`
}

// RawContent is either a plain string or a list of nodes.
type RawContent struct {
	Text  string
	Nodes []RawNode
}

// IsText reports whether the content is a plain string.
func (c RawContent) IsText() bool { return c.Nodes == nil }

// UnmarshalJSON accepts both content shapes.
func (c *RawContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		c.Nodes = nil
		return nil
	}
	var nodes []RawNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return fmt.Errorf("content is neither string nor node list: %w", err)
	}
	if nodes == nil {
		nodes = []RawNode{}
	}
	c.Nodes = nodes
	return nil
}

// MarshalJSON round-trips the original shape.
func (c RawContent) MarshalJSON() ([]byte, error) {
	if c.IsText() {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Nodes)
}

// RawNode is one element of structured content: either a bare string or a
// tagged object {tag, content}.
type RawNode struct {
	Tag     string
	Content RawContent
}

// UnmarshalJSON accepts both node shapes.
func (n *RawNode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.Tag = ""
		n.Content = RawContent{Text: s}
		return nil
	}
	var obj struct {
		Tag     string     `json:"tag"`
		Content RawContent `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("node is neither string nor tagged object: %w", err)
	}
	n.Tag = obj.Tag
	n.Content = obj.Content
	return nil
}

// MarshalJSON round-trips the original shape.
func (n RawNode) MarshalJSON() ([]byte, error) {
	if n.Tag == "" && n.Content.IsText() {
		return json.Marshal(n.Content.Text)
	}
	return json.Marshal(struct {
		Tag     string     `json:"tag"`
		Content RawContent `json:"content"`
	}{n.Tag, n.Content})
}

// DecodeRaw parses raw book JSON. Returns ErrNotABook (wrapped) when the
// input has no usable chapters.
func DecodeRaw(data []byte) (*RawBook, error) {
	var raw RawBook
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrNotABook, err)
	}
	if len(raw.Chapters) == 0 {
		return nil, fmt.Errorf("%w: missing or empty chapters", ErrNotABook)
	}
	return &raw, nil
}
