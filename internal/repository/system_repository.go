package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragstack/internal/model"
)

type SystemRepository struct {
	db *gorm.DB
}

func NewSystemRepository(db *gorm.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

func (r *SystemRepository) SaveMetrics(metrics *model.SystemMetrics) error {
	if err := r.db.Create(metrics).Error; err != nil {
		return fmt.Errorf("save system metrics failed: %w", err)
	}
	return nil
}

func (r *SystemRepository) LatestMetrics() (*model.SystemMetrics, error) {
	var m model.SystemMetrics
	if err := r.db.Order("timestamp DESC").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest metrics failed: %w", err)
	}
	return &m, nil
}

// UpsertServiceStatus replaces the row for a named service, keeping one
// status record per service.
func (r *SystemRepository) UpsertServiceStatus(status *model.ServiceStatus) error {
	var existing model.ServiceStatus
	err := r.db.Where("name = ?", status.Name).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.Create(status).Error; err != nil {
				return fmt.Errorf("create service status failed: %w", err)
			}
			return nil
		}
		return fmt.Errorf("query service status failed: %w", err)
	}

	status.ID = existing.ID
	if err := r.db.Save(status).Error; err != nil {
		return fmt.Errorf("update service status failed: %w", err)
	}
	return nil
}

func (r *SystemRepository) ListServiceStatuses() ([]model.ServiceStatus, error) {
	var statuses []model.ServiceStatus
	if err := r.db.Order("name ASC").Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("list service statuses failed: %w", err)
	}
	return statuses, nil
}
