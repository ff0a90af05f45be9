package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sunrunnn/SageSparke/logger"
	"github.com/sunrunnn/SageSparke/models"
)

// DefaultTitle is the title every conversation starts with. It is
// replaced at most once, after the first completed exchange.
const DefaultTitle = "New Chat"

var (
	// ErrCompletionPending is returned when a send or edit targets a
	// conversation that still has an unresolved assistant placeholder.
	ErrCompletionPending = errors.New("a completion is already pending for this conversation")
	// ErrMessageNotFound is returned by EditMessage for an unknown
	// message id.
	ErrMessageNotFound = errors.New("message not found")
)

// Notice levels.
const (
	NoticeLevelError = "error"
	NoticeLevelSync  = "sync"
)

// Notice reports a best-effort failure (persistence sync, title update)
// outside the originating call chain. Sync notices never imply a local
// state rollback.
type Notice struct {
	Level   string
	Message string
	Err     error
}

// ConversationLogic owns the in-memory conversation list for a single
// identity and coordinates the conversation store and the completion
// provider. All mutations go through it so the list keeps its
// invariants: newest-first ordering, at most one loading placeholder
// per conversation, title rewritten at most once.
type ConversationLogic struct {
	userID   string
	store    ConversationStore
	provider CompletionProvider
	notify   func(Notice)

	mu            sync.Mutex
	conversations []*models.Conversation
	activeID      uuid.UUID
	pending       map[uuid.UUID]bool
	hydrated      map[uuid.UUID]bool

	titleWG sync.WaitGroup
}

// Option configures a ConversationLogic.
type Option func(*ConversationLogic)

// WithNotifier routes best-effort failure notices to fn instead of the
// global logger.
func WithNotifier(fn func(Notice)) Option {
	return func(l *ConversationLogic) { l.notify = fn }
}

func NewConversationLogic(userID string, store ConversationStore, provider CompletionProvider, opts ...Option) *ConversationLogic {
	l := &ConversationLogic{
		userID:   userID,
		store:    store,
		provider: provider,
		pending:  make(map[uuid.UUID]bool),
		hydrated: make(map[uuid.UUID]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// UserID returns the identity this state machine belongs to.
func (l *ConversationLogic) UserID() string {
	return l.userID
}

// Load hydrates the conversation list from the store. The most recent
// conversation becomes active when none is selected yet.
func (l *ConversationLogic) Load(ctx context.Context) error {
	convos, err := l.store.ListConversations(ctx, l.userID)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.conversations = make([]*models.Conversation, 0, len(convos))
	l.hydrated = make(map[uuid.UUID]bool)
	for i := range convos {
		c := convos[i]
		l.conversations = append(l.conversations, &c)
	}
	if l.activeID == uuid.Nil && len(l.conversations) > 0 {
		l.activeID = l.conversations[0].ID
	}
	return nil
}

// CreateConversation allocates a new empty conversation, persists it,
// and makes it active. A store failure leaves local state unchanged.
func (l *ConversationLogic) CreateConversation(ctx context.Context) (*models.Conversation, error) {
	convo, err := l.newConversation(ctx)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneConversation(convo), nil
}

func (l *ConversationLogic) newConversation(ctx context.Context) (*models.Conversation, error) {
	now := time.Now()
	convo := &models.Conversation{
		ID:        uuid.New(),
		UserID:    l.userID,
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.CreateConversation(ctx, l.userID, convo); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	l.mu.Lock()
	l.conversations = append([]*models.Conversation{convo}, l.conversations...)
	l.activeID = convo.ID
	l.hydrated[convo.ID] = true
	l.mu.Unlock()
	return convo, nil
}

// SelectConversation makes the given conversation active.
func (l *ConversationLogic) SelectConversation(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.findLocked(id) == nil {
		return ErrNotFound
	}
	l.activeID = id
	return nil
}

// ActiveConversationID returns the active conversation id, or uuid.Nil
// when none is selected.
func (l *ConversationLogic) ActiveConversationID() uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeID
}

// Conversations returns a snapshot of the conversation list, newest
// first, without messages.
func (l *ConversationLogic) Conversations() []models.Conversation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Conversation, 0, len(l.conversations))
	for _, c := range l.conversations {
		summary := *c
		summary.Messages = nil
		out = append(out, summary)
	}
	return out
}

// Messages returns a snapshot of a conversation's message list, fetching
// it from the store when the local copy has not been hydrated yet.
func (l *ConversationLogic) Messages(ctx context.Context, id uuid.UUID) ([]models.Message, error) {
	if err := l.ensureHydrated(ctx, id); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	convo := l.findLocked(id)
	if convo == nil {
		return nil, ErrNotFound
	}
	return append([]models.Message(nil), convo.Messages...), nil
}

// ensureHydrated fetches a conversation's messages from the store the
// first time they are needed. A conversation absent from the store keeps
// its local state; that happens when an earlier persistence sync failed.
func (l *ConversationLogic) ensureHydrated(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	convo := l.findLocked(id)
	if convo == nil {
		l.mu.Unlock()
		return ErrNotFound
	}
	if l.hydrated[id] {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	stored, err := l.store.GetConversation(ctx, l.userID, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.findLocked(id) == nil {
		return ErrNotFound
	}
	if !l.hydrated[id] {
		if stored != nil {
			convo.Messages = append([]models.Message(nil), stored.Messages...)
		}
		l.hydrated[id] = true
	}
	return nil
}

// SendMessage appends a user message to the target conversation and
// requests a completion for the updated history. When conversationID is
// uuid.Nil the active conversation is used, and a new conversation is
// created if none is active. The user message is visible immediately;
// only the assistant placeholder is rolled back on provider failure.
func (l *ConversationLogic) SendMessage(ctx context.Context, text, imageURL string, conversationID uuid.UUID) (*models.Message, error) {
	convo, err := l.resolveTarget(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := l.ensureHydrated(ctx, convo.ID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	if l.pending[convo.ID] {
		l.mu.Unlock()
		return nil, ErrCompletionPending
	}
	l.pending[convo.ID] = true
	firstMessage := len(convo.Messages) == 0
	userMsg := models.Message{
		ID:             uuid.New(),
		ConversationID: convo.ID,
		Role:           models.RoleUser,
		Content:        text,
		ImageURL:       imageURL,
		CreatedAt:      time.Now(),
	}
	convo.Messages = append(convo.Messages, userMsg)
	convo.UpdatedAt = userMsg.CreatedAt
	l.mu.Unlock()

	if firstMessage {
		// Title derivation runs concurrently with the completion call
		// and commits independently of its outcome.
		l.titleWG.Add(1)
		go func() {
			defer l.titleWG.Done()
			l.deriveTitle(context.Background(), convo.ID, text)
		}()
	}

	return l.complete(ctx, convo)
}

// EditMessage replaces the content of an existing message, discards
// everything after it, and regenerates the assistant response. The
// truncation is persisted fail-closed: a store failure restores the
// previous in-memory state.
func (l *ConversationLogic) EditMessage(ctx context.Context, conversationID, messageID uuid.UUID, newContent string) (*models.Message, error) {
	if err := l.ensureHydrated(ctx, conversationID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	convo := l.findLocked(conversationID)
	if convo == nil {
		l.mu.Unlock()
		return nil, ErrNotFound
	}
	if l.pending[convo.ID] {
		l.mu.Unlock()
		return nil, ErrCompletionPending
	}
	idx := indexOfMessage(convo.Messages, messageID)
	if idx < 0 {
		l.mu.Unlock()
		return nil, ErrMessageNotFound
	}
	l.pending[convo.ID] = true
	backup := append([]models.Message(nil), convo.Messages...)
	truncated := append([]models.Message(nil), convo.Messages[:idx+1]...)
	truncated[idx].Content = newContent
	truncated[idx].CreatedAt = time.Now()
	convo.Messages = truncated
	convo.UpdatedAt = truncated[idx].CreatedAt
	persisted := append([]models.Message(nil), truncated...)
	l.mu.Unlock()

	if err := l.store.UpdateConversation(ctx, l.userID, convo.ID, ConversationPatch{Messages: persisted}); err != nil {
		l.mu.Lock()
		convo.Messages = backup
		delete(l.pending, convo.ID)
		l.mu.Unlock()
		return nil, fmt.Errorf("failed to persist edit: %w", err)
	}

	return l.complete(ctx, convo)
}

// RenameConversation sets a conversation's title, store first.
func (l *ConversationLogic) RenameConversation(ctx context.Context, id uuid.UUID, title string) error {
	l.mu.Lock()
	convo := l.findLocked(id)
	l.mu.Unlock()
	if convo == nil {
		return ErrNotFound
	}

	if err := l.store.UpdateConversation(ctx, l.userID, id, ConversationPatch{Title: &title}); err != nil {
		return err
	}

	l.mu.Lock()
	convo.Title = title
	convo.UpdatedAt = time.Now()
	l.mu.Unlock()
	return nil
}

// DeleteConversation removes a conversation, store first. When the
// active conversation is deleted, the most recent remaining one becomes
// active, or none if the list is empty.
func (l *ConversationLogic) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	if err := l.store.DeleteConversation(ctx, l.userID, id); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.conversations {
		if c.ID == id {
			l.conversations = append(l.conversations[:i], l.conversations[i+1:]...)
			break
		}
	}
	delete(l.hydrated, id)
	if l.activeID == id {
		if len(l.conversations) > 0 {
			l.activeID = l.conversations[0].ID
		} else {
			l.activeID = uuid.Nil
		}
	}
	return nil
}

// Wait blocks until all in-flight title derivations have committed.
func (l *ConversationLogic) Wait() {
	l.titleWG.Wait()
}

// complete appends the loading placeholder, calls the provider with the
// settled history, and resolves the placeholder in place. The caller
// must already hold the conversation's pending mark; complete clears it
// on every path. On provider failure the placeholder is removed and
// nothing else changes. On success the full message list is persisted
// best-effort: a store failure is reported as a sync notice, never
// rolled back.
func (l *ConversationLogic) complete(ctx context.Context, convo *models.Conversation) (*models.Message, error) {
	l.mu.Lock()
	placeholder := models.Message{
		ID:             uuid.New(),
		ConversationID: convo.ID,
		Role:           models.RoleAssistant,
		IsLoading:      true,
		CreatedAt:      time.Now(),
	}
	convo.Messages = append(convo.Messages, placeholder)
	history := make([]models.Message, 0, len(convo.Messages))
	for _, m := range convo.Messages {
		if m.IsLoading {
			continue
		}
		history = append(history, m)
	}
	l.mu.Unlock()

	reply, genErr := l.provider.Generate(ctx, history)

	l.mu.Lock()
	delete(l.pending, convo.ID)
	idx := indexOfMessage(convo.Messages, placeholder.ID)
	if genErr != nil {
		if idx >= 0 {
			convo.Messages = append(convo.Messages[:idx], convo.Messages[idx+1:]...)
		}
		l.mu.Unlock()
		return nil, fmt.Errorf("completion failed: %w", genErr)
	}
	convo.Messages[idx].Content = reply
	convo.Messages[idx].IsLoading = false
	convo.UpdatedAt = time.Now()
	answer := convo.Messages[idx]
	persisted := append([]models.Message(nil), convo.Messages...)
	l.mu.Unlock()

	if err := l.store.UpdateConversation(ctx, l.userID, convo.ID, ConversationPatch{Messages: persisted}); err != nil {
		l.report(Notice{Level: NoticeLevelSync, Message: "failed to persist conversation messages", Err: err})
	}

	return &answer, nil
}

// resolveTarget picks the conversation a send applies to: the explicit
// id when given, otherwise the active conversation, otherwise a freshly
// created one.
func (l *ConversationLogic) resolveTarget(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	l.mu.Lock()
	var convo *models.Conversation
	if id != uuid.Nil {
		convo = l.findLocked(id)
	} else if l.activeID != uuid.Nil {
		convo = l.findLocked(l.activeID)
	}
	l.mu.Unlock()

	if convo != nil {
		return convo, nil
	}
	if id != uuid.Nil {
		return nil, ErrNotFound
	}
	return l.newConversation(ctx)
}

func (l *ConversationLogic) report(n Notice) {
	if l.notify != nil {
		l.notify(n)
		return
	}
	logger.GetLogger().Warn().Err(n.Err).Str("level", n.Level).Msg(n.Message)
}

func (l *ConversationLogic) findLocked(id uuid.UUID) *models.Conversation {
	for _, c := range l.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func indexOfMessage(messages []models.Message, id uuid.UUID) int {
	for i, m := range messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	out := *c
	out.Messages = append([]models.Message(nil), c.Messages...)
	return &out
}
