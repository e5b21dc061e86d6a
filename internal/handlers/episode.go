package handlers

import "github.com/inkstone/zhanghui/internal/book"

// EpisodeBased handles 第N回 numbering, the convention of classical
// vernacular fiction.
type EpisodeBased struct {
	markerHandler
}

// NewEpisodeBased creates the episode-based handler.
func NewEpisodeBased() *EpisodeBased {
	return &EpisodeBased{markerHandler{
		name:          "episode_based",
		format:        book.FormatEpisode,
		pattern:       EpisodePattern,
		chapterWeight: 0.4,
		ratioWeight:   0.4,
		tocWeight:     0.15,
		blockWeight:   0.15,
	}}
}
