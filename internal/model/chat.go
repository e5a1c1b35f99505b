package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSession struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"size:36;not null;index" json:"user_id"`
	TenantID      string    `gorm:"size:255;not null;index" json:"tenant_id"`
	Title         string    `gorm:"size:500;not null" json:"title"`
	CollectionIDs string    `gorm:"type:text" json:"-"` // JSON array of collection IDs
	IsArchived    bool      `gorm:"default:false" json:"is_archived"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Collections returns the parsed collection ID list; empty on parse error.
func (s *ChatSession) Collections() []string {
	if s.CollectionIDs == "" {
		return nil
	}
	var ids []string
	_ = json.Unmarshal([]byte(s.CollectionIDs), &ids)
	return ids
}

func (s *ChatSession) SetCollections(ids []string) {
	if len(ids) == 0 {
		s.CollectionIDs = "[]"
		return
	}
	b, _ := json.Marshal(ids)
	s.CollectionIDs = string(b)
}

type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"size:36;not null;index" json:"session_id"`
	Role      string    `gorm:"size:20;not null" json:"role"` // user, assistant, system
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Citation links an assistant message back to the chunk that grounds it.
type Citation struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	MessageID  string    `gorm:"size:36;not null;index" json:"message_id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	ChunkID    string    `gorm:"size:36;not null" json:"chunk_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	PageNumber int       `json:"page_number,omitempty"`
	Confidence float64   `gorm:"default:1" json:"confidence"`
	SpanStart  int       `gorm:"not null" json:"span_start"`
	SpanEnd    int       `gorm:"not null" json:"span_end"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *Citation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
