package app

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"ragstack/internal/ai"
	"ragstack/internal/metrics"
	"ragstack/internal/model"
	"ragstack/internal/repository"
)

var (
	ErrRAGNoCollections = errors.New("no readable collections to search")
	ErrRAGNoChunks      = errors.New("no indexed content in the selected collections")
)

const minQueryLength = 2

// RAGService runs the retrieval pipeline: preprocess the query, retrieve
// candidates by embedding similarity, rerank, generate an answer and
// attach citations.
type RAGService struct {
	chunkRepo      *repository.ChunkRepository
	documentRepo   *repository.DocumentRepository
	collectionRepo *repository.CollectionRepository
	llmClient      *ai.Client
	llmConfig      ai.Config

	maxRetrieval int
	maxFinal     int
}

// RetrievedChunk is a scored retrieval candidate.
type RetrievedChunk struct {
	Chunk model.DocumentChunk
	Score float64
}

// RAGAnswer is the output of a full pipeline run.
type RAGAnswer struct {
	Answer     string
	Chunks     []RetrievedChunk
	Confidence float64
	Duration   time.Duration
}

func NewRAGService(
	chunkRepo *repository.ChunkRepository,
	documentRepo *repository.DocumentRepository,
	collectionRepo *repository.CollectionRepository,
	llmClient *ai.Client,
	llmConfig ai.Config,
	maxRetrieval, maxFinal int,
) *RAGService {
	if maxRetrieval <= 0 {
		maxRetrieval = 40
	}
	if maxFinal <= 0 {
		maxFinal = 8
	}
	return &RAGService{
		chunkRepo:      chunkRepo,
		documentRepo:   documentRepo,
		collectionRepo: collectionRepo,
		llmClient:      llmClient,
		llmConfig:      llmConfig,
		maxRetrieval:   maxRetrieval,
		maxFinal:       maxFinal,
	}
}

// Answer runs the full pipeline against the given collections. History is
// passed through to the generation prompt for follow-up questions.
func (s *RAGService) Answer(ctx context.Context, collectionIDs []string, question string, history []ai.ChatMessage) (*RAGAnswer, error) {
	started := time.Now()
	metrics.RAGQueriesTotal.Inc()

	query, err := s.preprocess(question)
	if err != nil {
		return nil, err
	}

	candidates, err := s.retrieve(ctx, collectionIDs, query)
	if err != nil {
		return nil, err
	}

	final := s.rerank(query, candidates)

	answer, err := s.generate(ctx, query, final, history)
	if err != nil {
		return nil, err
	}

	_ = s.collectionRepo.TouchLastQuery(collectionIDs, time.Now())

	return &RAGAnswer{
		Answer:     answer,
		Chunks:     final,
		Confidence: averageScore(final),
		Duration:   time.Since(started),
	}, nil
}

// preprocess normalises whitespace and rejects degenerate queries.
func (s *RAGService) preprocess(question string) (string, error) {
	defer stageTimer("preprocess")()

	query := strings.Join(strings.Fields(question), " ")
	if len([]rune(query)) < minQueryLength {
		return "", ErrInvalidInput
	}
	return query, nil
}

// retrieve embeds the query and scores every indexed chunk in the target
// collections by cosine similarity, keeping the top candidates.
func (s *RAGService) retrieve(ctx context.Context, collectionIDs []string, query string) ([]RetrievedChunk, error) {
	defer stageTimer("retrieve")()

	if len(collectionIDs) == 0 {
		return nil, ErrRAGNoCollections
	}

	chunks, err := s.chunkRepo.ListByCollectionIDs(collectionIDs)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrRAGNoChunks
	}

	queryVec, err := s.llmClient.Embed(ctx, s.llmConfig, query)
	if err != nil {
		return nil, err
	}

	scored := make([]RetrievedChunk, 0, len(chunks))
	for i := range chunks {
		vec := chunks[i].EmbeddingVector()
		if len(vec) == 0 {
			continue
		}
		scored = append(scored, RetrievedChunk{
			Chunk: chunks[i],
			Score: cosineSimilarity(queryVec, vec),
		})
	}
	if len(scored) == 0 {
		return nil, ErrRAGNoChunks
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > s.maxRetrieval {
		scored = scored[:s.maxRetrieval]
	}
	return scored, nil
}

// rerank boosts candidates that share query terms with the chunk text and
// re-sorts, keeping the final context window.
func (s *RAGService) rerank(query string, candidates []RetrievedChunk) []RetrievedChunk {
	defer stageTimer("rerank")()

	terms := queryTerms(query)
	reranked := make([]RetrievedChunk, len(candidates))
	for i, c := range candidates {
		c.Score = c.Score*0.8 + keywordOverlap(terms, c.Chunk.Content)*0.2
		reranked[i] = c
	}

	sort.Slice(reranked, func(i, j int) bool { return reranked[i].Score > reranked[j].Score })
	if len(reranked) > s.maxFinal {
		reranked = reranked[:s.maxFinal]
	}
	return reranked
}

// generate builds a grounded prompt from the final chunks and asks the LLM.
func (s *RAGService) generate(ctx context.Context, query string, chunks []RetrievedChunk, history []ai.ChatMessage) (string, error) {
	defer stageTimer("generate")()

	var contextBlock strings.Builder
	for i, c := range chunks {
		contextBlock.WriteString("\n---\n")
		contextBlock.WriteString("[")
		contextBlock.WriteString(sourceLabel(i))
		contextBlock.WriteString("] ")
		contextBlock.WriteString(c.Chunk.Content)
	}
	contextBlock.WriteString("\n---")

	systemContent := "You are a helpful assistant. Answer the user's question based only on the following context. " +
		"If the context does not contain enough information, say so. Do not make up facts."

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: systemContent})
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{
		Role:    "user",
		Content: "Context:" + contextBlock.String() + "\n\nQuestion: " + query + "\n\nAnswer:",
	})

	answer, err := s.llmClient.Complete(ctx, s.llmConfig, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Citations converts the final chunks into citation rows for a message.
func (s *RAGService) Citations(messageID string, chunks []RetrievedChunk) []model.Citation {
	defer stageTimer("cite")()

	citations := make([]model.Citation, 0, len(chunks))
	for _, c := range chunks {
		content := c.Chunk.Content
		if len([]rune(content)) > 300 {
			content = string([]rune(content)[:300])
		}
		citations = append(citations, model.Citation{
			MessageID:  messageID,
			DocumentID: c.Chunk.DocumentID,
			ChunkID:    c.Chunk.ID,
			Content:    content,
			PageNumber: c.Chunk.PageNumber,
			Confidence: c.Score,
			SpanStart:  0,
			SpanEnd:    len([]rune(content)),
		})
	}
	return citations
}

func stageTimer(stage string) func() {
	started := time.Now()
	return func() {
		metrics.RAGStageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// keywordOverlap returns the share of query terms present in the text.
func keywordOverlap(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func averageScore(chunks []RetrievedChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	var sum float64
	for _, c := range chunks {
		sum += c.Score
	}
	return sum / float64(len(chunks))
}

func sourceLabel(i int) string {
	return "S" + strconv.Itoa(i+1)
}
