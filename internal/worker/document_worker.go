package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragstack/internal/ai"
	"ragstack/internal/model"
	"ragstack/internal/pkg/pdfextract"
	"ragstack/internal/pkg/textsplit"
	"ragstack/internal/platform/objectstore"
	"ragstack/internal/platform/rabbitmq"
	"ragstack/internal/repository"
)

// DocumentWorker turns an uploaded file into embedded chunks: download,
// extract text, split, embed in batches, persist, refresh collection stats.
type DocumentWorker struct {
	consumer *consumer

	documentRepo   *repository.DocumentRepository
	chunkRepo      *repository.ChunkRepository
	collectionRepo *repository.CollectionRepository
	store          *objectstore.Client
	llmClient      *ai.Client
	llmConfig      ai.Config
	batchSize      int
	logger         *zap.Logger
}

func NewDocumentWorker(
	conn *amqp.Connection,
	queueName string,
	documentRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	collectionRepo *repository.CollectionRepository,
	store *objectstore.Client,
	llmClient *ai.Client,
	llmConfig ai.Config,
	batchSize int,
	logger *zap.Logger,
) *DocumentWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	w := &DocumentWorker{
		documentRepo:   documentRepo,
		chunkRepo:      chunkRepo,
		collectionRepo: collectionRepo,
		store:          store,
		llmClient:      llmClient,
		llmConfig:      llmConfig,
		batchSize:      batchSize,
		logger:         logger,
	}
	w.consumer = newConsumer(conn, queueName, logger, w.handle)
	return w
}

func (w *DocumentWorker) Start(ctx context.Context) error {
	return w.consumer.Start(ctx)
}

func (w *DocumentWorker) Close() {
	w.consumer.Close()
}

func (w *DocumentWorker) handle(ctx context.Context, task rabbitmq.Task) error {
	var payload rabbitmq.DocumentTask
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode document task failed: %w", err)
	}

	if err := w.process(ctx, payload.DocumentID); err != nil {
		_ = w.documentRepo.UpdateStatus(payload.DocumentID, model.DocumentStatusFailed, 0, err.Error())
		return err
	}
	return nil
}

func (w *DocumentWorker) process(ctx context.Context, documentID string) error {
	doc, err := w.documentRepo.GetByID(documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document %s not found", documentID)
	}

	if err := w.documentRepo.UpdateStatus(doc.ID, model.DocumentStatusProcessing, 10, ""); err != nil {
		return err
	}

	data, err := w.store.Get(ctx, doc.FilePath)
	if err != nil {
		return err
	}

	text, err := extractText(doc.MimeType, data)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("document %s contains no extractable text", doc.ID)
	}
	if err := w.documentRepo.UpdateStatus(doc.ID, model.DocumentStatusProcessing, 30, ""); err != nil {
		return err
	}

	size, overlap := w.chunkParams(doc.CollectionID)
	pieces := textsplit.Split(text, size, overlap)
	if len(pieces) == 0 {
		return fmt.Errorf("document %s produced no chunks", doc.ID)
	}

	chunks := make([]model.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = model.DocumentChunk{
			DocumentID: doc.ID,
			Content:    piece,
			ChunkIndex: i,
		}
	}

	// Embed in batches; progress advances from 30 to 90 across batches.
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
		}

		progress := 30 + 60*end/len(chunks)
		if err := w.documentRepo.UpdateStatus(doc.ID, model.DocumentStatusProcessing, progress, ""); err != nil {
			return err
		}
	}

	if err := w.chunkRepo.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	if err := w.chunkRepo.CreateBatch(chunks); err != nil {
		return err
	}
	if err := w.documentRepo.UpdateStatus(doc.ID, model.DocumentStatusCompleted, 100, ""); err != nil {
		return err
	}
	if err := w.collectionRepo.RefreshStats(doc.CollectionID, time.Now()); err != nil {
		return err
	}

	w.logger.Info("document processed",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)))
	return nil
}

func (w *DocumentWorker) chunkParams(collectionID string) (int, int) {
	settings, err := w.collectionRepo.GetSettings(collectionID)
	if err != nil || settings == nil {
		return textsplit.DefaultChunkSize, textsplit.DefaultChunkOverlap
	}
	return settings.ChunkSize, settings.ChunkOverlap
}

// extractText pulls plain text from the stored bytes. PDF goes through the
// parser; everything else on the allow-list is treated as UTF-8 text.
func extractText(mimeType string, data []byte) (string, error) {
	if mimeType == "application/pdf" {
		return pdfextract.ExtractTextBytes(data)
	}
	return string(data), nil
}
