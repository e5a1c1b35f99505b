package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ragstack/internal/model"
)

type ConnectorRepository struct {
	db *gorm.DB
}

func NewConnectorRepository(db *gorm.DB) *ConnectorRepository {
	return &ConnectorRepository{db: db}
}

func (r *ConnectorRepository) Create(connector *model.Connector) error {
	if err := r.db.Create(connector).Error; err != nil {
		return fmt.Errorf("create connector failed: %w", err)
	}
	return nil
}

func (r *ConnectorRepository) GetByID(id string) (*model.Connector, error) {
	var c model.Connector
	if err := r.db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query connector failed: %w", err)
	}
	return &c, nil
}

func (r *ConnectorRepository) ListByTenant(tenantID, connectorType, status string, offset, limit int) ([]model.Connector, int64, error) {
	q := r.db.Model(&model.Connector{}).Where("tenant_id = ?", tenantID)
	if connectorType != "" {
		q = q.Where("connector_type = ?", connectorType)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count connectors failed: %w", err)
	}

	var list []model.Connector
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list connectors failed: %w", err)
	}
	return list, total, nil
}

func (r *ConnectorRepository) Update(connector *model.Connector) error {
	if err := r.db.Save(connector).Error; err != nil {
		return fmt.Errorf("update connector failed: %w", err)
	}
	return nil
}

func (r *ConnectorRepository) UpdateStatus(id, status, lastError string) error {
	updates := map[string]any{"status": status}
	if lastError != "" {
		updates["last_error"] = lastError
		updates["errors_count"] = gorm.Expr("errors_count + 1")
	}
	if err := r.db.Model(&model.Connector{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update connector status failed: %w", err)
	}
	return nil
}

// RecordSyncResult stamps the sync completion counters after a run. A
// successful run clears any error left by a previous one.
func (r *ConnectorRepository) RecordSyncResult(id string, filesSynced int, sizeBytes int64, duration time.Duration, at time.Time) error {
	updates := map[string]any{
		"status":                model.ConnectorStatusActive,
		"last_error":            "",
		"last_sync":             at,
		"last_sync_duration_ms": duration.Milliseconds(),
		"total_files_synced":    gorm.Expr("total_files_synced + ?", filesSynced),
		"total_size_bytes":      gorm.Expr("total_size_bytes + ?", sizeBytes),
	}
	if err := r.db.Model(&model.Connector{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("record connector sync result failed: %w", err)
	}
	return nil
}

func (r *ConnectorRepository) Delete(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.Connector{}).Error; err != nil {
		return fmt.Errorf("delete connector failed: %w", err)
	}
	return nil
}
