package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ragstack/internal/model"
)

type EvaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts the evaluation with its test queries in one transaction.
func (r *EvaluationRepository) Create(evaluation *model.Evaluation, queries []model.TestQuery) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(evaluation).Error; err != nil {
			return err
		}
		for i := range queries {
			queries[i].EvaluationID = evaluation.ID
		}
		if len(queries) == 0 {
			return nil
		}
		return tx.Create(&queries).Error
	})
	if err != nil {
		return fmt.Errorf("create evaluation failed: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) GetByID(id string) (*model.Evaluation, error) {
	var e model.Evaluation
	if err := r.db.Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query evaluation failed: %w", err)
	}
	return &e, nil
}

func (r *EvaluationRepository) ListByTenant(tenantID, status string, offset, limit int) ([]model.Evaluation, int64, error) {
	q := r.db.Model(&model.Evaluation{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count evaluations failed: %w", err)
	}

	var list []model.Evaluation
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list evaluations failed: %w", err)
	}
	return list, total, nil
}

func (r *EvaluationRepository) ListQueries(evaluationID string) ([]model.TestQuery, error) {
	var queries []model.TestQuery
	if err := r.db.Where("evaluation_id = ?", evaluationID).Find(&queries).Error; err != nil {
		return nil, fmt.Errorf("list test queries failed: %w", err)
	}
	return queries, nil
}

func (r *EvaluationRepository) UpdateStatus(id, status, errorMessage string) error {
	updates := map[string]any{"status": status}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	if err := r.db.Model(&model.Evaluation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update evaluation status failed: %w", err)
	}
	return nil
}

// Complete stores the query results and the summary score in one transaction.
func (r *EvaluationRepository) Complete(id string, results []model.QueryResult, overallScore float64, at time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if len(results) > 0 {
			if err := tx.Create(&results).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Evaluation{}).Where("id = ?", id).Updates(map[string]any{
			"status":        model.EvaluationStatusCompleted,
			"overall_score": overallScore,
			"completed_at":  at,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("complete evaluation failed: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) ListResults(evaluationID string) ([]model.QueryResult, error) {
	var results []model.QueryResult
	if err := r.db.Where("evaluation_id = ?", evaluationID).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("list query results failed: %w", err)
	}
	return results, nil
}

// Delete removes the evaluation with its queries and results.
func (r *EvaluationRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("evaluation_id = ?", id).Delete(&model.QueryResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("evaluation_id = ?", id).Delete(&model.TestQuery{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Evaluation{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete evaluation failed: %w", err)
	}
	return nil
}
