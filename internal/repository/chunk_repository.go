package repository

import (
	"fmt"

	"gorm.io/gorm"

	"ragstack/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListByDocumentID(documentID string) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	if err := r.db.Where("document_id = ?", documentID).Order("chunk_index ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks by document failed: %w", err)
	}
	return chunks, nil
}

// ListByCollectionIDs loads all chunks belonging to completed documents in
// the given collections. Retrieval scans these in memory.
func (r *ChunkRepository) ListByCollectionIDs(collectionIDs []string) ([]model.DocumentChunk, error) {
	if len(collectionIDs) == 0 {
		return nil, nil
	}
	sub := r.db.Model(&model.Document{}).Select("id").
		Where("collection_id IN ? AND status = ?", collectionIDs, model.DocumentStatusCompleted)

	var chunks []model.DocumentChunk
	if err := r.db.Where("document_id IN (?)", sub).Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks by collections failed: %w", err)
	}
	return chunks, nil
}

// CountByCollectionID counts chunks across every document in a collection.
func (r *ChunkRepository) CountByCollectionID(collectionID string) (int64, error) {
	sub := r.db.Model(&model.Document{}).Select("id").Where("collection_id = ?", collectionID)

	var total int64
	if err := r.db.Model(&model.DocumentChunk{}).
		Where("document_id IN (?)", sub).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count chunks by collection failed: %w", err)
	}
	return total, nil
}

func (r *ChunkRepository) UpdateEmbedding(id, embedding string) error {
	if err := r.db.Model(&model.DocumentChunk{}).Where("id = ?", id).
		Update("embedding", embedding).Error; err != nil {
		return fmt.Errorf("update chunk embedding failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}
