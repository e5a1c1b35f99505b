package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragstack/internal/ai"
	"ragstack/internal/platform/rabbitmq"
	"ragstack/internal/repository"
)

// EmbeddingWorker re-embeds the chunks of an already-processed document,
// used after an embedding model change.
type EmbeddingWorker struct {
	consumer *consumer

	chunkRepo *repository.ChunkRepository
	llmClient *ai.Client
	llmConfig ai.Config
	batchSize int
	logger    *zap.Logger
}

func NewEmbeddingWorker(
	conn *amqp.Connection,
	queueName string,
	chunkRepo *repository.ChunkRepository,
	llmClient *ai.Client,
	llmConfig ai.Config,
	batchSize int,
	logger *zap.Logger,
) *EmbeddingWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	w := &EmbeddingWorker{
		chunkRepo: chunkRepo,
		llmClient: llmClient,
		llmConfig: llmConfig,
		batchSize: batchSize,
		logger:    logger,
	}
	w.consumer = newConsumer(conn, queueName, logger, w.handle)
	return w
}

func (w *EmbeddingWorker) Start(ctx context.Context) error {
	return w.consumer.Start(ctx)
}

func (w *EmbeddingWorker) Close() {
	w.consumer.Close()
}

func (w *EmbeddingWorker) handle(ctx context.Context, task rabbitmq.Task) error {
	var payload rabbitmq.DocumentTask
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode embedding task failed: %w", err)
	}

	chunks, err := w.chunkRepo.ListByDocumentID(payload.DocumentID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	for i := 0; i < len(chunks); i += w.batchSize {
		end := i + w.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Content)
		}

		vecs, err := w.llmClient.EmbedBatch(ctx, w.llmConfig, texts)
		if err != nil {
			return err
		}
		for j := range vecs {
			chunks[i+j].SetEmbedding(vecs[j])
			if err := w.chunkRepo.UpdateEmbedding(chunks[i+j].ID, chunks[i+j].Embedding); err != nil {
				return err
			}
		}
	}

	w.logger.Info("document re-embedded",
		zap.String("document_id", payload.DocumentID),
		zap.Int("chunks", len(chunks)))
	return nil
}
