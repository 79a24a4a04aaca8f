package model

import (
	"encoding/json"
	"time"
)

type MessageSender string

const (
	SenderAI   MessageSender = "ai"
	SenderUser MessageSender = "user"
)

type MessageType string

const (
	MessageText             MessageType = "text"
	MessageFileUpload       MessageType = "file_upload"
	MessageTemplateDownload MessageType = "template_download"
	MessageTask             MessageType = "task"
)

// ChatMessage is an append-only transcript entry. Messages are never
// mutated or deleted; ordering is (session_id, created_at).
// swagger:model ChatMessage
type ChatMessage struct {
	UUIDBase
	SessionID string          `gorm:"index;index:idx_session_created;type:varchar(36);not null" json:"sessionId"`
	CreatedAt time.Time       `gorm:"index:idx_session_created" json:"createdAt"`
	Sender    MessageSender   `gorm:"type:enum('ai','user');not null" json:"sender"`
	Type      MessageType     `gorm:"type:enum('text','file_upload','template_download','task');default:'text'" json:"type"`
	Content   string          `gorm:"type:text" json:"content"`
	Metadata  json.RawMessage `gorm:"type:json" json:"metadata,omitempty"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
