package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/model"
)

func TestBuildRejectsMismatchedLengths(t *testing.T) {
	_, err := Build(
		[]model.Chunk{{Content: "a"}, {Content: "b"}},
		[][]float32{{1, 0}},
	)
	assert.ErrorIs(t, err, ErrVectorMismatch)
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	ix, err := Build(
		[]model.Chunk{
			{Page: 1, Content: "about cats"},
			{Page: 2, Content: "about dogs"},
			{Page: 3, Content: "about fish"},
		},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		},
	)
	require.NoError(t, err)

	got := ix.Search([]float32{1, 0, 0}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "about cats", got[0].Content)
	assert.Equal(t, "about fish", got[1].Content)
}

func TestSearchClampsTopK(t *testing.T) {
	ix, err := Build(
		[]model.Chunk{{Content: "only one"}},
		[][]float32{{1, 0}},
	)
	require.NoError(t, err)

	got := ix.Search([]float32{1, 0}, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "only one", got[0].Content)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
	assert.Nil(t, ix.Search([]float32{1, 0}, 4))
}

func TestSearchZeroTopK(t *testing.T) {
	ix, err := Build([]model.Chunk{{Content: "x"}}, [][]float32{{1}})
	require.NoError(t, err)
	assert.Nil(t, ix.Search([]float32{1}, 0))
}

func TestCosineSimilarityDegenerateVectors(t *testing.T) {
	assert.Equal(t, float32(0), cosineSimilarity(nil, nil))
	assert.Equal(t, float32(0), cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{0, 0}))
}
