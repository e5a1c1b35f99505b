package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragstack/internal/model"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestQueryTerms(t *testing.T) {
	terms := queryTerms("How Does THE rate limiter work?")
	assert.Contains(t, terms, "how")
	assert.Contains(t, terms, "rate")
	assert.Contains(t, terms, "limiter")
	// short words dropped
	assert.NotContains(t, terms, "ok")
}

func TestKeywordOverlap(t *testing.T) {
	terms := []string{"redis", "cache", "eviction"}
	assert.InDelta(t, 1.0, keywordOverlap(terms, "Redis cache eviction policy explained"), 1e-9)
	assert.InDelta(t, 1.0/3.0, keywordOverlap(terms, "the redis handbook"), 1e-9)
	assert.Zero(t, keywordOverlap(terms, "unrelated content"))
	assert.Zero(t, keywordOverlap(nil, "anything"))
}

func TestRerankPrefersKeywordMatches(t *testing.T) {
	svc := &RAGService{maxRetrieval: 40, maxFinal: 2}

	candidates := []RetrievedChunk{
		{Chunk: model.DocumentChunk{ID: "a", Content: "completely unrelated text"}, Score: 0.70},
		{Chunk: model.DocumentChunk{ID: "b", Content: "kubernetes deployment rollout strategies"}, Score: 0.68},
		{Chunk: model.DocumentChunk{ID: "c", Content: "random filler"}, Score: 0.30},
	}

	final := svc.rerank("kubernetes deployment rollout", candidates)
	require.Len(t, final, 2)
	assert.Equal(t, "b", final[0].Chunk.ID)
}

func TestPreprocessNormalizes(t *testing.T) {
	svc := &RAGService{}

	query, err := svc.preprocess("  what   is\tthis  ")
	require.NoError(t, err)
	assert.Equal(t, "what is this", query)
}

func TestPreprocessRejectsShort(t *testing.T) {
	svc := &RAGService{}

	_, err := svc.preprocess("  a ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCitationsTruncate(t *testing.T) {
	svc := &RAGService{}

	long := make([]rune, 500)
	for i := range long {
		long[i] = 'x'
	}
	chunks := []RetrievedChunk{
		{Chunk: model.DocumentChunk{ID: "c1", DocumentID: "d1", Content: string(long), PageNumber: 3}, Score: 0.9},
	}

	citations := svc.Citations("m1", chunks)
	require.Len(t, citations, 1)
	assert.Equal(t, "m1", citations[0].MessageID)
	assert.Equal(t, "d1", citations[0].DocumentID)
	assert.Equal(t, "c1", citations[0].ChunkID)
	assert.Equal(t, 3, citations[0].PageNumber)
	assert.Len(t, []rune(citations[0].Content), 300)
	assert.Equal(t, 300, citations[0].SpanEnd)
	assert.InDelta(t, 0.9, citations[0].Confidence, 1e-9)
}

func TestAverageScore(t *testing.T) {
	assert.Zero(t, averageScore(nil))
	chunks := []RetrievedChunk{{Score: 0.4}, {Score: 0.8}}
	assert.InDelta(t, 0.6, averageScore(chunks), 1e-9)
}
