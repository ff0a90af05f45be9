package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation. IsLoading marks a
// transient assistant placeholder awaiting a completion result; it is
// never persisted.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role           string    `gorm:"not null" json:"role"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"image_url,omitempty"`
	IsLoading      bool      `gorm:"-" json:"is_loading,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
