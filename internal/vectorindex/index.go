package vectorindex

import (
	"errors"
	"math"
	"sort"

	"pdfqa/internal/model"
)

var ErrVectorMismatch = errors.New("chunks and vectors length mismatch")

// Index is a brute-force cosine-similarity index over one document's chunks.
// It is built once at ingestion and read-only afterwards; the owning session
// entry serializes access, so no internal locking is needed.
type Index struct {
	chunks  []model.Chunk
	vectors [][]float32
}

// Build creates an index from a chunk set and their embedding vectors.
func Build(chunks []model.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, ErrVectorMismatch
	}
	return &Index{chunks: chunks, vectors: vectors}, nil
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Search returns up to topK chunks ranked by descending cosine similarity
// to the query vector. Returns nil on an empty index.
func (ix *Index) Search(query []float32, topK int) []model.Chunk {
	if topK <= 0 || len(ix.chunks) == 0 {
		return nil
	}

	idxs := make([]int, len(ix.vectors))
	scores := make([]float32, len(ix.vectors))
	for i, vec := range ix.vectors {
		idxs[i] = i
		scores[i] = cosineSimilarity(query, vec)
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})

	if topK > len(idxs) {
		topK = len(idxs)
	}
	out := make([]model.Chunk, topK)
	for i := 0; i < topK; i++ {
		out[i] = ix.chunks[idxs[i]]
	}
	return out
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
