package repository

import (
	"excel_interview_backend/internal/model"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: tx}
}

func (r *MessageRepository) Create(msg *model.ChatMessage) error {
	return r.DB.Create(msg).Error
}

// ListBySession returns the full transcript in chronological order.
func (r *MessageRepository) ListBySession(sessionID string) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.DB.Where("session_id = ?", sessionID).Order("created_at asc").Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepository) CountBySession(sessionID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ChatMessage{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}
