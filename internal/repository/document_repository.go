package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragstack/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document failed: %w", err)
	}
	return &doc, nil
}

// GetByChecksum finds a document with the same content hash inside a
// collection, used for duplicate upload detection.
func (r *DocumentRepository) GetByChecksum(collectionID, checksum string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("collection_id = ? AND checksum = ?", collectionID, checksum).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document by checksum failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByCollection(collectionID, status string, offset, limit int) ([]model.Document, int64, error) {
	q := r.db.Model(&model.Document{}).Where("collection_id = ?", collectionID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count documents failed: %w", err)
	}

	var docs []model.Document
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, total, nil
}

func (r *DocumentRepository) Update(doc *model.Document) error {
	if err := r.db.Save(doc).Error; err != nil {
		return fmt.Errorf("update document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) UpdateStatus(id, status string, progress int, errorMessage string) error {
	// error_message is always written so a successful rerun clears the
	// previous failure.
	updates := map[string]any{
		"status":              status,
		"processing_progress": progress,
		"error_message":       errorMessage,
	}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update document status failed: %w", err)
	}
	return nil
}

// Delete removes the document and its chunks in one transaction.
func (r *DocumentRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Document{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

// StatusCounts returns the live number of documents per status in a collection.
func (r *DocumentRepository) StatusCounts(collectionID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.db.Model(&model.Document{}).
		Select("status, COUNT(*) AS count").
		Where("collection_id = ?", collectionID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count documents by status failed: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *DocumentRepository) CountByTenant(tenantID string) (int64, error) {
	var total int64
	q := r.db.Model(&model.Document{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count documents failed: %w", err)
	}
	return total, nil
}
