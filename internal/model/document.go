package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
	DocumentStatusArchived   = "archived"
)

type Document struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	CollectionID       string    `gorm:"size:36;not null;index" json:"collection_id"`
	Filename           string    `gorm:"size:500;not null" json:"filename"`
	FilePath           string    `gorm:"size:1000;not null" json:"file_path"`
	FileSize           int64     `gorm:"not null" json:"file_size"`
	MimeType           string    `gorm:"size:100;not null" json:"mime_type"`
	Status             string    `gorm:"size:20;default:pending;index" json:"status"`
	Checksum           string    `gorm:"size:64" json:"checksum"` // SHA-256
	UploadedBy         string    `gorm:"size:36;not null;index" json:"uploaded_by"`
	TenantID           string    `gorm:"size:255;not null;index" json:"tenant_id"`
	ProcessingProgress int       `gorm:"default:0" json:"processing_progress"`
	ErrorMessage       string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DocumentChunk is the retrieval unit. The embedding is stored as a JSON
// array of float32 for portability across database backends.
type DocumentChunk struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	PageNumber int       `json:"page_number,omitempty"`
	Section    string    `gorm:"size:255" json:"section,omitempty"`
	Embedding  string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *DocumentChunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *DocumentChunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *DocumentChunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
