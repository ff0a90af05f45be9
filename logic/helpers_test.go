package logic_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sunrunnn/SageSparke/logic"
	"github.com/sunrunnn/SageSparke/models"
)

const (
	testWaitTimeout = 2 * time.Second
	testWaitTick    = 5 * time.Millisecond
)

var seedClock = time.Now().Add(-time.Hour)

// seedConversation inserts a conversation directly into the store with a
// strictly increasing creation time, so list ordering is deterministic.
func seedConversation(t *testing.T, store logic.ConversationStore, userID, title string) uuid.UUID {
	t.Helper()
	seedClock = seedClock.Add(time.Minute)
	convo := &models.Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: seedClock,
		UpdatedAt: seedClock,
	}
	require.NoError(t, store.CreateConversation(context.Background(), userID, convo))
	return convo.ID
}
