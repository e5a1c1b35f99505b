package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragstack/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) CreateSession(session *model.ChatSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create chat session failed: %w", err)
	}
	return nil
}

func (r *ChatRepository) GetSessionByID(id string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query chat session failed: %w", err)
	}
	return &session, nil
}

func (r *ChatRepository) ListSessionsByUser(userID string, includeArchived bool, offset, limit int) ([]model.ChatSession, int64, error) {
	q := r.db.Model(&model.ChatSession{}).Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("is_archived = false")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count chat sessions failed: %w", err)
	}

	var sessions []model.ChatSession
	if err := q.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("list chat sessions failed: %w", err)
	}
	return sessions, total, nil
}

func (r *ChatRepository) UpdateSession(session *model.ChatSession) error {
	if err := r.db.Save(session).Error; err != nil {
		return fmt.Errorf("update chat session failed: %w", err)
	}
	return nil
}

// DeleteSession removes the session with its messages and their citations.
func (r *ChatRepository) DeleteSession(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.ChatMessage{}).Select("id").Where("session_id = ?", id)
		if err := tx.Where("message_id IN (?)", sub).Delete(&model.Citation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.ChatSession{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete chat session failed: %w", err)
	}
	return nil
}

func (r *ChatRepository) CreateMessage(message *model.ChatMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create chat message failed: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListMessages(sessionID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list chat messages failed: %w", err)
	}
	return messages, nil
}

func (r *ChatRepository) CreateCitations(citations []model.Citation) error {
	if len(citations) == 0 {
		return nil
	}
	if err := r.db.Create(&citations).Error; err != nil {
		return fmt.Errorf("create citations failed: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListCitationsByMessage(messageID string) ([]model.Citation, error) {
	var citations []model.Citation
	if err := r.db.Where("message_id = ?", messageID).Find(&citations).Error; err != nil {
		return nil, fmt.Errorf("list citations failed: %w", err)
	}
	return citations, nil
}
