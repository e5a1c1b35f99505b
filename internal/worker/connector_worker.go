package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragstack/internal/app"
	"ragstack/internal/model"
	"ragstack/internal/platform/objectstore"
	"ragstack/internal/platform/rabbitmq"
	"ragstack/internal/repository"
)

// ConnectorWorker runs connector sync jobs. Object-store connectors list
// the configured prefix and ingest supported files that are new since the
// last sync; the remaining connector types have no client yet and fail the
// run with an explanatory error.
type ConnectorWorker struct {
	consumer *consumer

	connectorRepo *repository.ConnectorRepository
	documentRepo  *repository.DocumentRepository
	store         *objectstore.Client
	publisher     *rabbitmq.TaskPublisher
	processQueue  string
	logger        *zap.Logger
}

func NewConnectorWorker(
	conn *amqp.Connection,
	queueName string,
	connectorRepo *repository.ConnectorRepository,
	documentRepo *repository.DocumentRepository,
	store *objectstore.Client,
	publisher *rabbitmq.TaskPublisher,
	processQueue string,
	logger *zap.Logger,
) *ConnectorWorker {
	w := &ConnectorWorker{
		connectorRepo: connectorRepo,
		documentRepo:  documentRepo,
		store:         store,
		publisher:     publisher,
		processQueue:  processQueue,
		logger:        logger,
	}
	w.consumer = newConsumer(conn, queueName, logger, w.handle)
	return w
}

func (w *ConnectorWorker) Start(ctx context.Context) error {
	return w.consumer.Start(ctx)
}

func (w *ConnectorWorker) Close() {
	w.consumer.Close()
}

func (w *ConnectorWorker) handle(ctx context.Context, task rabbitmq.Task) error {
	var payload rabbitmq.ConnectorTask
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode connector task failed: %w", err)
	}

	if err := w.sync(ctx, payload.ConnectorID); err != nil {
		_ = w.connectorRepo.UpdateStatus(payload.ConnectorID, model.ConnectorStatusError, err.Error())
		return err
	}
	return nil
}

func (w *ConnectorWorker) sync(ctx context.Context, connectorID string) error {
	connector, err := w.connectorRepo.GetByID(connectorID)
	if err != nil {
		return err
	}
	if connector == nil {
		return fmt.Errorf("connector %s not found", connectorID)
	}

	if connector.Type != "s3" {
		return fmt.Errorf("connector type %s has no sync client", connector.Type)
	}

	cfg := connector.Config()
	if cfg.CollectionID == "" {
		return fmt.Errorf("connector %s has no target collection", connectorID)
	}
	settings := connector.SyncSettings()
	filters := connector.Filters()

	started := time.Now()
	objects, err := w.store.List(ctx, cfg.Prefix, 0)
	if err != nil {
		return err
	}

	synced := 0
	var syncedBytes int64
	for _, obj := range objects {
		if settings.IncrementalSync && connector.LastSync != nil && !obj.LastModified.After(*connector.LastSync) {
			continue
		}
		if settings.MaxFileSize > 0 && obj.Size > settings.MaxFileSize {
			continue
		}
		if !app.SupportedFile(obj.Key) {
			continue
		}
		if !matchesFilters(obj.Key, filters) {
			continue
		}

		doc, err := w.ingest(ctx, connector, cfg.CollectionID, obj)
		if err != nil {
			w.logger.Warn("connector skip object",
				zap.String("connector_id", connectorID),
				zap.String("key", obj.Key),
				zap.Error(err))
			continue
		}
		if doc == nil {
			continue
		}
		synced++
		syncedBytes += obj.Size
	}

	if err := w.connectorRepo.RecordSyncResult(connectorID, synced, syncedBytes, time.Since(started), time.Now()); err != nil {
		return err
	}

	w.logger.Info("connector sync finished",
		zap.String("connector_id", connectorID),
		zap.Int("files", synced),
		zap.Int64("bytes", syncedBytes))
	return nil
}

// ingest records the object as a document and enqueues processing. Returns
// nil when the same content is already present in the collection.
func (w *ConnectorWorker) ingest(ctx context.Context, connector *model.Connector, collectionID string, obj objectstore.Object) (*model.Document, error) {
	data, err := w.store.Get(ctx, obj.Key)
	if err != nil {
		return nil, err
	}

	checksum := checksumOf(data)
	duplicate, err := w.documentRepo.GetByChecksum(collectionID, checksum)
	if err != nil {
		return nil, err
	}
	if duplicate != nil {
		return nil, nil
	}

	filename := app.SanitizeFilename(path.Base(obj.Key))
	mimeType, err := app.ValidateFilename(filename)
	if err != nil {
		return nil, err
	}

	// Copy into the platform's own key space. The document must never point
	// at the connector's source object, or deleting it would destroy the
	// original.
	key := app.ObjectKey(connector.TenantID, collectionID, filename)
	if err := w.store.Put(ctx, key, data, mimeType); err != nil {
		return nil, err
	}

	doc := &model.Document{
		CollectionID: collectionID,
		Filename:     filename,
		FilePath:     key,
		FileSize:     obj.Size,
		MimeType:     mimeType,
		Status:       model.DocumentStatusPending,
		Checksum:     checksum,
		UploadedBy:   connector.OwnerID,
		TenantID:     connector.TenantID,
	}
	if err := w.documentRepo.Create(doc); err != nil {
		return nil, err
	}

	task := rabbitmq.DocumentTask{DocumentID: doc.ID, TenantID: connector.TenantID}
	if err := w.publisher.Publish(ctx, w.processQueue, "document.process", task); err != nil {
		return nil, err
	}
	return doc, nil
}

func checksumOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func matchesFilters(key string, filters model.ConnectorFilters) bool {
	base := path.Base(key)
	for _, pattern := range filters.ExcludePatterns {
		if ok, _ := path.Match(pattern, base); ok {
			return false
		}
	}
	if len(filters.IncludePatterns) == 0 && len(filters.FolderPaths) == 0 {
		return true
	}
	for _, pattern := range filters.IncludePatterns {
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	for _, folder := range filters.FolderPaths {
		if strings.HasPrefix(key, strings.TrimPrefix(folder, "/")) {
			return true
		}
	}
	return false
}
