package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ragstack/internal/model"
)

type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create inserts the collection and its settings row in one transaction.
func (r *CollectionRepository) Create(collection *model.Collection, settings *model.CollectionSettings) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(collection).Error; err != nil {
			return err
		}
		settings.CollectionID = collection.ID
		return tx.Create(settings).Error
	})
	if err != nil {
		return fmt.Errorf("create collection failed: %w", err)
	}
	return nil
}

func (r *CollectionRepository) GetByID(id string) (*model.Collection, error) {
	var c model.Collection
	if err := r.db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query collection failed: %w", err)
	}
	return &c, nil
}

// ListVisible returns collections the user can see: everything in their
// tenant plus public collections from other tenants. Admins pass an empty
// tenantID to list everything.
func (r *CollectionRepository) ListVisible(tenantID string, offset, limit int) ([]model.Collection, int64, error) {
	q := r.db.Model(&model.Collection{}).Where("is_archived = false")
	if tenantID != "" {
		q = q.Where("tenant_id = ? OR is_public = true", tenantID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count collections failed: %w", err)
	}

	var list []model.Collection
	if err := q.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list collections failed: %w", err)
	}
	return list, total, nil
}

func (r *CollectionRepository) Update(collection *model.Collection) error {
	if err := r.db.Save(collection).Error; err != nil {
		return fmt.Errorf("update collection failed: %w", err)
	}
	return nil
}

// Delete removes the collection, its settings, and all documents and chunks
// under it in one transaction.
func (r *CollectionRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var docIDs []string
		if err := tx.Model(&model.Document{}).Where("collection_id = ?", id).Pluck("id", &docIDs).Error; err != nil {
			return err
		}
		if len(docIDs) > 0 {
			if err := tx.Where("document_id IN ?", docIDs).Delete(&model.DocumentChunk{}).Error; err != nil {
				return err
			}
			if err := tx.Where("collection_id = ?", id).Delete(&model.Document{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("collection_id = ?", id).Delete(&model.CollectionSettings{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Collection{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete collection failed: %w", err)
	}
	return nil
}

func (r *CollectionRepository) GetSettings(collectionID string) (*model.CollectionSettings, error) {
	var s model.CollectionSettings
	if err := r.db.Where("collection_id = ?", collectionID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query collection settings failed: %w", err)
	}
	return &s, nil
}

func (r *CollectionRepository) SaveSettings(settings *model.CollectionSettings) error {
	if err := r.db.Save(settings).Error; err != nil {
		return fmt.Errorf("save collection settings failed: %w", err)
	}
	return nil
}

// RefreshStats recomputes the cached document counters from the documents
// table and stamps the last ingestion time.
func (r *CollectionRepository) RefreshStats(collectionID string, at time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var docCount int64
		if err := tx.Model(&model.Document{}).
			Where("collection_id = ? AND status <> ?", collectionID, model.DocumentStatusArchived).
			Count(&docCount).Error; err != nil {
			return err
		}

		var sizeBytes int64
		if err := tx.Model(&model.Document{}).
			Where("collection_id = ? AND status <> ?", collectionID, model.DocumentStatusArchived).
			Select("COALESCE(SUM(file_size), 0)").Scan(&sizeBytes).Error; err != nil {
			return err
		}

		var chunkCount int64
		if err := tx.Model(&model.DocumentChunk{}).
			Where("document_id IN (?)", tx.Model(&model.Document{}).Select("id").Where("collection_id = ?", collectionID)).
			Count(&chunkCount).Error; err != nil {
			return err
		}

		return tx.Model(&model.Collection{}).Where("id = ?", collectionID).Updates(map[string]any{
			"total_documents":  docCount,
			"total_chunks":     chunkCount,
			"total_size_bytes": sizeBytes,
			"last_ingestion":   at,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("refresh collection stats failed: %w", err)
	}
	return nil
}

func (r *CollectionRepository) TouchLastQuery(collectionIDs []string, at time.Time) error {
	if len(collectionIDs) == 0 {
		return nil
	}
	if err := r.db.Model(&model.Collection{}).Where("id IN ?", collectionIDs).
		Update("last_query", at).Error; err != nil {
		return fmt.Errorf("update collection last query failed: %w", err)
	}
	return nil
}

func (r *CollectionRepository) CountByTenant(tenantID string) (int64, error) {
	var total int64
	q := r.db.Model(&model.Collection{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count collections failed: %w", err)
	}
	return total, nil
}
