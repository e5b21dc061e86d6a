package book

// Format identifies the detected book convention.
type Format string

const (
	FormatChapter Format = "chapter"
	FormatEpisode Format = "episode"
	FormatVolume  Format = "volume"
	FormatModern  Format = "modern"
)

// SchemaVersion is stamped into every persisted document so downstream
// consumers can detect format drift.
const SchemaVersion = "2.0.0"

// DiscoveryResult is the Pass-1 output of a structure handler. It is
// transient: consumed immediately by alignment, never persisted.
type DiscoveryResult struct {
	Blocks         []ContentBlock
	TOCEntries     []TOCEntry
	Boundaries     []ChapterBoundary
	IntroBlocks    []ContentBlock
	DetectedFormat Format
	Confidence     float64
	Issues         []string
}

// Meta holds document metadata.
type Meta struct {
	Title         string            `json:"title"`
	Author        string            `json:"author,omitempty"`
	Language      string            `json:"language"`
	SchemaVersion string            `json:"schema_version"`
	WorkNumber    int               `json:"work_number,omitempty"`
	Volume        int               `json:"volume,omitempty"`
	Translation   map[string]string `json:"translation,omitempty"`
}

// Section is a named run of blocks in front or back matter. Recovery
// searches sections for chapters referenced by the TOC but absent from
// the body.
type Section struct {
	Title         string         `json:"title,omitempty"`
	ContentBlocks []ContentBlock `json:"content_blocks"`
}

// FrontMatter holds preface/intro/TOC material preceding the body.
type FrontMatter struct {
	TOC      []TOCEntry     `json:"toc"`
	Intro    []ContentBlock `json:"intro"`
	Sections []Section      `json:"sections,omitempty"`
}

// BackMatter is reserved; typically empty for this corpus.
type BackMatter struct {
	Sections []Section `json:"sections,omitempty"`
}

// Body holds the chapters.
type Body struct {
	Chapters []Chapter `json:"chapters"`
}

// Structure groups the document's structural regions.
type Structure struct {
	FrontMatter FrontMatter `json:"front_matter"`
	Body        Body        `json:"body"`
	BackMatter  BackMatter  `json:"back_matter"`
}

// Document is the assembled, persistable artifact handed to validation and
// downstream translation.
type Document struct {
	Meta      Meta      `json:"meta"`
	Structure Structure `json:"structure"`
}
