package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EvaluationStatusPending   = "pending"
	EvaluationStatusRunning   = "running"
	EvaluationStatusCompleted = "completed"
	EvaluationStatusFailed    = "failed"
)

type Evaluation struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	Name          string `gorm:"size:255;not null" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	CreatedBy     string `gorm:"size:36;not null;index" json:"created_by"`
	TenantID      string `gorm:"size:255;not null;index" json:"tenant_id"`
	CollectionIDs string `gorm:"type:text" json:"-"` // JSON array
	Status        string `gorm:"size:20;default:pending" json:"status"`

	OverallScore float64    `gorm:"default:0" json:"overall_score"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *Evaluation) Collections() []string {
	if e.CollectionIDs == "" {
		return nil
	}
	var ids []string
	_ = json.Unmarshal([]byte(e.CollectionIDs), &ids)
	return ids
}

func (e *Evaluation) SetCollections(ids []string) {
	if len(ids) == 0 {
		e.CollectionIDs = "[]"
		return
	}
	b, _ := json.Marshal(ids)
	e.CollectionIDs = string(b)
}

type TestQuery struct {
	ID             string `gorm:"primaryKey;size:36" json:"id"`
	EvaluationID   string `gorm:"size:36;not null;index" json:"evaluation_id"`
	Query          string `gorm:"type:text;not null" json:"query"`
	ExpectedAnswer string `gorm:"type:text" json:"expected_answer,omitempty"`
	Category       string `gorm:"size:100" json:"category"`
	Difficulty     string `gorm:"size:20;default:medium" json:"difficulty"` // easy, medium, hard
}

func (q *TestQuery) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

type QueryResult struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	EvaluationID     string    `gorm:"size:36;not null;index" json:"evaluation_id"`
	QueryID          string    `gorm:"size:36;not null" json:"query_id"`
	Query            string    `gorm:"type:text;not null" json:"query"`
	Answer           string    `gorm:"type:text" json:"answer"`
	Success          bool      `gorm:"default:true" json:"success"`
	ErrorMessage     string    `gorm:"type:text" json:"error_message,omitempty"`
	Confidence       float64   `gorm:"default:0" json:"confidence"`
	SourcesRetrieved int       `gorm:"default:0" json:"sources_retrieved"`
	ProcessingTimeMS int64     `gorm:"default:0" json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

func (r *QueryResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
