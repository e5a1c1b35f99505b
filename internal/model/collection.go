package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Collection struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	TenantID    string `gorm:"size:255;not null;index" json:"tenant_id"`
	OwnerID     string `gorm:"size:36;not null;index" json:"owner_id"`
	IsPublic    bool   `gorm:"default:false" json:"is_public"`
	IsArchived  bool   `gorm:"default:false" json:"is_archived"`

	// Cached statistics, maintained by the document worker.
	TotalDocuments int        `gorm:"default:0" json:"total_documents"`
	TotalChunks    int        `gorm:"default:0" json:"total_chunks"`
	TotalSizeBytes int64      `gorm:"default:0" json:"total_size_bytes"`
	LastIngestion  *time.Time `json:"last_ingestion,omitempty"`
	LastQuery      *time.Time `json:"last_query,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CollectionSettings controls how documents in a collection are chunked,
// embedded and retrieved. One row per collection, created with defaults.
type CollectionSettings struct {
	ID                string `gorm:"primaryKey;size:36" json:"id"`
	CollectionID      string `gorm:"size:36;not null;uniqueIndex" json:"collection_id"`
	ChunkSize         int    `gorm:"default:1000" json:"chunk_size"`
	ChunkOverlap      int    `gorm:"default:150" json:"chunk_overlap"`
	EmbeddingModel    string `gorm:"size:100" json:"embedding_model"`
	RetrievalStrategy string `gorm:"size:20;default:hybrid" json:"retrieval_strategy"`
	RerankerEnabled   bool   `gorm:"default:true" json:"reranker_enabled"`
}

func (s *CollectionSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
