package logic

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sunrunnn/SageSparke/models"
)

// Store errors. Implementations map their backend failures onto these so
// callers can match with errors.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("already exists")
)

// ConversationPatch describes a partial conversation update. Nil fields
// are left untouched; a non-nil Messages slice replaces the stored
// message list wholesale.
type ConversationPatch struct {
	Title    *string
	Messages []models.Message
}

// ConversationStore durably persists conversations per owning identity.
// Every operation enforces ownership: a conversation that exists but
// belongs to another user yields ErrForbidden.
type ConversationStore interface {
	// ListConversations returns the user's conversations without their
	// messages, newest first.
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	// GetConversation returns a single conversation including its
	// messages in conversation order.
	GetConversation(ctx context.Context, userID string, id uuid.UUID) (*models.Conversation, error)
	// CreateConversation stores a new conversation. ErrConflict if the
	// id is already taken.
	CreateConversation(ctx context.Context, userID string, convo *models.Conversation) error
	// UpdateConversation applies a partial update to an owned
	// conversation.
	UpdateConversation(ctx context.Context, userID string, id uuid.UUID, patch ConversationPatch) error
	// DeleteConversation removes an owned conversation and its messages.
	DeleteConversation(ctx context.Context, userID string, id uuid.UUID) error
}

// UserStore persists registered accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
