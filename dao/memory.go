package dao

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sunrunnn/SageSparke/logic"
	"github.com/sunrunnn/SageSparke/models"
)

// MemoryConversationStore keeps conversations in process memory. It
// backs guest sessions with the exact contract of the Postgres store,
// ownership and conflict checks included.
type MemoryConversationStore struct {
	mu     sync.Mutex
	convos map[uuid.UUID]*models.Conversation
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{convos: make(map[uuid.UUID]*models.Conversation)}
}

func (s *MemoryConversationStore) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Conversation
	for _, c := range s.convos {
		if c.UserID != userID {
			continue
		}
		summary := *c
		summary.Messages = nil
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryConversationStore) GetConversation(_ context.Context, userID string, id uuid.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.getOwnedLocked(userID, id)
	if err != nil {
		return nil, err
	}
	out := *c
	out.Messages = append([]models.Message(nil), c.Messages...)
	return &out, nil
}

func (s *MemoryConversationStore) CreateConversation(_ context.Context, userID string, convo *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convos[convo.ID]; ok {
		return logic.ErrConflict
	}
	record := *convo
	record.UserID = userID
	record.Messages = append([]models.Message(nil), convo.Messages...)
	s.convos[convo.ID] = &record
	return nil
}

func (s *MemoryConversationStore) UpdateConversation(_ context.Context, userID string, id uuid.UUID, patch logic.ConversationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.getOwnedLocked(userID, id)
	if err != nil {
		return err
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Messages != nil {
		c.Messages = append([]models.Message(nil), patch.Messages...)
	}
	return nil
}

func (s *MemoryConversationStore) DeleteConversation(_ context.Context, userID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getOwnedLocked(userID, id); err != nil {
		return err
	}
	delete(s.convos, id)
	return nil
}

func (s *MemoryConversationStore) getOwnedLocked(userID string, id uuid.UUID) (*models.Conversation, error) {
	c, ok := s.convos[id]
	if !ok {
		return nil, logic.ErrNotFound
	}
	if c.UserID != userID {
		return nil, logic.ErrForbidden
	}
	return c, nil
}

// MemoryUserStore is the in-memory counterpart of UserDAO, used in
// tests.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return logic.ErrConflict
		}
	}
	record := *user
	s.users[user.ID] = &record
	return nil
}

func (s *MemoryUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			out := *u
			return &out, nil
		}
	}
	return nil, logic.ErrNotFound
}

func (s *MemoryUserStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, logic.ErrNotFound
	}
	out := *u
	return &out, nil
}
