package model

// Chunk is a contiguous span of normalized document text with its source
// provenance. Chunks are produced once per ingested document and are
// immutable afterwards; the session's index owns them exclusively.
type Chunk struct {
	Page    int    `json:"page"`
	Offset  int    `json:"offset"`
	Content string `json:"content"`
}
