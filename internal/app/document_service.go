package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"ragstack/internal/metrics"
	"ragstack/internal/model"
	"ragstack/internal/platform/objectstore"
	"ragstack/internal/platform/rabbitmq"
	"ragstack/internal/repository"
)

type DocumentService struct {
	documentRepo   *repository.DocumentRepository
	chunkRepo      *repository.ChunkRepository
	collectionRepo *repository.CollectionRepository
	store          *objectstore.Client
	publisher      *rabbitmq.TaskPublisher
	processQueue   string
	embeddingQueue string
}

type UploadInput struct {
	CollectionID string
	Filename     string
	Data         []byte
}

func NewDocumentService(
	documentRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	collectionRepo *repository.CollectionRepository,
	store *objectstore.Client,
	publisher *rabbitmq.TaskPublisher,
	processQueue, embeddingQueue string,
) *DocumentService {
	return &DocumentService{
		documentRepo:   documentRepo,
		chunkRepo:      chunkRepo,
		collectionRepo: collectionRepo,
		store:          store,
		publisher:      publisher,
		processQueue:   processQueue,
		embeddingQueue: embeddingQueue,
	}
}

// Upload stores the file in the object store, records the document as
// pending and enqueues it for processing.
func (s *DocumentService) Upload(ctx context.Context, accessor Accessor, input UploadInput) (*model.Document, error) {
	if len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if len(input.Data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	mimeType, err := ValidateFilename(input.Filename)
	if err != nil {
		return nil, err
	}

	collection, err := s.collectionRepo.GetByID(input.CollectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, ErrNotFound
	}
	if !CanWriteCollection(accessor, collection) {
		return nil, ErrForbidden
	}

	sum := sha256.Sum256(input.Data)
	checksum := hex.EncodeToString(sum[:])

	duplicate, err := s.documentRepo.GetByChecksum(input.CollectionID, checksum)
	if err != nil {
		return nil, err
	}
	if duplicate != nil {
		return nil, ErrDuplicateFile
	}

	filename := SanitizeFilename(input.Filename)
	key := ObjectKey(accessor.TenantID, input.CollectionID, filename)

	if err := s.store.Put(ctx, key, input.Data, mimeType); err != nil {
		return nil, err
	}

	doc := &model.Document{
		CollectionID: input.CollectionID,
		Filename:     filename,
		FilePath:     key,
		FileSize:     int64(len(input.Data)),
		MimeType:     mimeType,
		Status:       model.DocumentStatusPending,
		Checksum:     checksum,
		UploadedBy:   accessor.UserID,
		TenantID:     accessor.TenantID,
	}
	if err := s.documentRepo.Create(doc); err != nil {
		return nil, err
	}

	task := rabbitmq.DocumentTask{DocumentID: doc.ID, TenantID: accessor.TenantID}
	if err := s.publisher.Publish(ctx, s.processQueue, "document.process", task); err != nil {
		return nil, err
	}

	metrics.DocumentsIngestedTotal.Inc()
	return doc, nil
}

func (s *DocumentService) Get(accessor Accessor, id string) (*model.Document, error) {
	doc, collection, err := s.loadWithCollection(id)
	if err != nil {
		return nil, err
	}
	if !CanReadCollection(accessor, collection) {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *DocumentService) List(accessor Accessor, collectionID, status string, offset, limit int) ([]model.Document, int64, error) {
	collection, err := s.collectionRepo.GetByID(collectionID)
	if err != nil {
		return nil, 0, err
	}
	if collection == nil {
		return nil, 0, ErrNotFound
	}
	if !CanReadCollection(accessor, collection) {
		return nil, 0, ErrForbidden
	}
	return s.documentRepo.ListByCollection(collectionID, status, offset, normalizeLimit(limit))
}

// Delete removes the document record, its chunks and the stored object,
// then refreshes the collection counters.
func (s *DocumentService) Delete(ctx context.Context, accessor Accessor, id string) error {
	doc, collection, err := s.loadWithCollection(id)
	if err != nil {
		return err
	}
	if !CanWriteCollection(accessor, collection) {
		return ErrForbidden
	}

	if err := s.documentRepo.Delete(id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		return err
	}
	return s.collectionRepo.RefreshStats(doc.CollectionID, time.Now())
}

// Reprocess re-enqueues a failed or completed document. With embeddingsOnly
// the existing chunks are kept and only their embeddings are regenerated.
func (s *DocumentService) Reprocess(ctx context.Context, accessor Accessor, id string, embeddingsOnly bool) (*model.Document, error) {
	doc, collection, err := s.loadWithCollection(id)
	if err != nil {
		return nil, err
	}
	if !CanWriteCollection(accessor, collection) {
		return nil, ErrForbidden
	}
	if doc.Status == model.DocumentStatusProcessing {
		return nil, ErrNotReady
	}

	if embeddingsOnly {
		if doc.Status != model.DocumentStatusCompleted {
			return nil, ErrNotReady
		}
		task := rabbitmq.DocumentTask{DocumentID: id, TenantID: doc.TenantID}
		if err := s.publisher.Publish(ctx, s.embeddingQueue, "embedding.generate", task); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if err := s.chunkRepo.DeleteByDocumentID(id); err != nil {
		return nil, err
	}
	doc.Status = model.DocumentStatusPending
	doc.ProcessingProgress = 0
	doc.ErrorMessage = ""
	if err := s.documentRepo.Update(doc); err != nil {
		return nil, err
	}

	task := rabbitmq.DocumentTask{DocumentID: id, TenantID: doc.TenantID}
	if err := s.publisher.Publish(ctx, s.processQueue, "document.process", task); err != nil {
		return nil, err
	}
	return doc, nil
}

// DownloadURL returns a presigned link for the original file.
func (s *DocumentService) DownloadURL(ctx context.Context, accessor Accessor, id string, expiry time.Duration) (string, error) {
	doc, collection, err := s.loadWithCollection(id)
	if err != nil {
		return "", err
	}
	if !CanReadCollection(accessor, collection) {
		return "", ErrForbidden
	}
	return s.store.PresignedURL(ctx, doc.FilePath, expiry)
}

func (s *DocumentService) ListChunks(accessor Accessor, documentID string) ([]model.DocumentChunk, error) {
	_, collection, err := s.loadWithCollection(documentID)
	if err != nil {
		return nil, err
	}
	if !CanReadCollection(accessor, collection) {
		return nil, ErrForbidden
	}
	return s.chunkRepo.ListByDocumentID(documentID)
}

func (s *DocumentService) loadWithCollection(id string) (*model.Document, *model.Collection, error) {
	doc, err := s.documentRepo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, ErrNotFound
	}
	collection, err := s.collectionRepo.GetByID(doc.CollectionID)
	if err != nil {
		return nil, nil, err
	}
	if collection == nil {
		return nil, nil, ErrNotFound
	}
	return doc, collection, nil
}
