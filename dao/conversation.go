package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sunrunnn/SageSparke/logic"
	"github.com/sunrunnn/SageSparke/models"
)

// ConversationDAO handles conversation-related database operations. It
// implements logic.ConversationStore on top of Postgres.
type ConversationDAO struct {
	db *gorm.DB
}

func NewConversationDAO(db *gorm.DB) *ConversationDAO {
	return &ConversationDAO{db: db}
}

// ListConversations retrieves a user's conversations without messages,
// newest first.
func (d *ConversationDAO) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convos []models.Conversation
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&convos).Error
	if err != nil {
		return nil, err
	}
	return convos, nil
}

// GetConversation retrieves a conversation with its messages in
// conversation order.
func (d *ConversationDAO) GetConversation(ctx context.Context, userID string, id uuid.UUID) (*models.Conversation, error) {
	convo, err := d.getOwned(ctx, d.db, userID, id)
	if err != nil {
		return nil, err
	}
	var messages []models.Message
	err = d.db.WithContext(ctx).
		Where("conversation_id = ?", id).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	convo.Messages = messages
	return convo, nil
}

// CreateConversation stores a new conversation for a user.
func (d *ConversationDAO) CreateConversation(ctx context.Context, userID string, convo *models.Conversation) error {
	var existing models.Conversation
	err := d.db.WithContext(ctx).Where("id = ?", convo.ID).First(&existing).Error
	if err == nil {
		return logic.ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	record := *convo
	record.UserID = userID
	return d.db.WithContext(ctx).Create(&record).Error
}

// UpdateConversation applies a partial update to an owned conversation.
// A non-nil message list replaces the stored messages wholesale, the way
// the rest of the system treats a conversation as a single document.
func (d *ConversationDAO) UpdateConversation(ctx context.Context, userID string, id uuid.UUID, patch logic.ConversationPatch) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		convo, err := d.getOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			if err := tx.Model(convo).Update("title", *patch.Title).Error; err != nil {
				return err
			}
		}
		if patch.Messages != nil {
			if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			for i := range patch.Messages {
				msg := patch.Messages[i]
				if msg.IsLoading {
					return fmt.Errorf("refusing to persist a loading placeholder")
				}
				msg.ConversationID = id
				if err := tx.Create(&msg).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// DeleteConversation removes an owned conversation and its messages.
func (d *ConversationDAO) DeleteConversation(ctx context.Context, userID string, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		convo, err := d.getOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(convo).Error
	})
}

func (d *ConversationDAO) getOwned(ctx context.Context, tx *gorm.DB, userID string, id uuid.UUID) (*models.Conversation, error) {
	var convo models.Conversation
	err := tx.WithContext(ctx).Where("id = ?", id).First(&convo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, logic.ErrNotFound
		}
		return nil, err
	}
	if convo.UserID != userID {
		return nil, logic.ErrForbidden
	}
	return &convo, nil
}
