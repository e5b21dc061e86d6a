package handlers

import "github.com/inkstone/zhanghui/internal/book"

// VolumeBased handles 第N卷/部/集 divisions. Multi-volume works often
// continue chapter numbering across volumes, so volume metadata is a
// stronger signal than title matching.
type VolumeBased struct {
	markerHandler
}

// NewVolumeBased creates the volume-based handler.
func NewVolumeBased() *VolumeBased {
	return &VolumeBased{markerHandler{
		name:          "volume_based",
		format:        book.FormatVolume,
		pattern:       VolumePattern,
		chapterWeight: 0.3,
		ratioWeight:   0.4,
		tocWeight:     0.15,
		blockWeight:   0.15,
	}}
}

// CanHandle returns 0.9 when explicit volume metadata is present, else a
// weak title-marker heuristic.
func (h *VolumeBased) CanHandle(raw *book.RawBook) float64 {
	if raw.Meta != nil && raw.Meta.Volume > 0 {
		return 0.9
	}
	return 0.7 * h.titleMatchRatio(raw)
}
