package logic

import (
	"context"
	"sync"
)

// Hub hands out one conversation state machine per identity. Signed-in
// users share the persistent store; each guest session gets its own
// ephemeral store with the same contract.
type Hub struct {
	store      ConversationStore
	guestStore func() ConversationStore
	provider   CompletionProvider

	mu       sync.Mutex
	sessions map[string]*ConversationLogic
}

func NewHub(store ConversationStore, guestStore func() ConversationStore, provider CompletionProvider) *Hub {
	return &Hub{
		store:      store,
		guestStore: guestStore,
		provider:   provider,
		sessions:   make(map[string]*ConversationLogic),
	}
}

// ForUser returns the state machine for an authenticated user, creating
// and hydrating it on first use.
func (h *Hub) ForUser(ctx context.Context, userID string) (*ConversationLogic, error) {
	return h.session(ctx, userID, h.store)
}

// ForGuest returns the state machine for a guest session. Guest state
// lives only as long as the process.
func (h *Hub) ForGuest(ctx context.Context, guestID string) (*ConversationLogic, error) {
	h.mu.Lock()
	if l, ok := h.sessions[guestID]; ok {
		h.mu.Unlock()
		return l, nil
	}
	h.mu.Unlock()
	return h.session(ctx, guestID, h.guestStore())
}

func (h *Hub) session(ctx context.Context, id string, store ConversationStore) (*ConversationLogic, error) {
	h.mu.Lock()
	if l, ok := h.sessions[id]; ok {
		h.mu.Unlock()
		return l, nil
	}
	h.mu.Unlock()

	l := NewConversationLogic(id, store, h.provider)
	if err := l.Load(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.sessions[id]; ok {
		return existing, nil
	}
	h.sessions[id] = l
	return l, nil
}

// Wait drains every session's in-flight background work. Used at
// shutdown and in tests.
func (h *Hub) Wait() {
	h.mu.Lock()
	sessions := make([]*ConversationLogic, 0, len(h.sessions))
	for _, l := range h.sessions {
		sessions = append(sessions, l)
	}
	h.mu.Unlock()
	for _, l := range sessions {
		l.Wait()
	}
}
