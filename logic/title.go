package logic

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// shortInputMax is the length under which the first user message is used
// as the title verbatim instead of asking the provider for a summary.
const shortInputMax = 20

// titleWordLimit caps the deterministic fallback title.
const titleWordLimit = 5

// deriveTitle computes and commits a title for a conversation's first
// exchange. The title leaves the default at most once; a provider
// failure degrades to a local fallback and is never surfaced as an
// operation error. The store update is best-effort.
func (l *ConversationLogic) deriveTitle(ctx context.Context, conversationID uuid.UUID, text string) {
	title := l.titleFor(ctx, text)
	if title == "" || title == DefaultTitle {
		return
	}

	l.mu.Lock()
	convo := l.findLocked(conversationID)
	if convo == nil || convo.Title != DefaultTitle {
		l.mu.Unlock()
		return
	}
	convo.Title = title
	l.mu.Unlock()

	if err := l.store.UpdateConversation(ctx, l.userID, conversationID, ConversationPatch{Title: &title}); err != nil {
		l.report(Notice{Level: NoticeLevelSync, Message: "failed to persist conversation title", Err: err})
	}
}

func (l *ConversationLogic) titleFor(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return DefaultTitle
	}
	if len(trimmed) < shortInputMax {
		return stripQuotes(trimmed)
	}

	summary, err := l.provider.SummarizeTitle(ctx, trimmed)
	if err != nil || strings.TrimSpace(summary) == "" {
		return fallbackTitle(trimmed)
	}
	return stripQuotes(strings.TrimSpace(summary))
}

// fallbackTitle takes the first few words of the input when the provider
// is unavailable.
func fallbackTitle(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return DefaultTitle
	}
	if len(words) > titleWordLimit {
		words = words[:titleWordLimit]
	}
	return stripQuotes(strings.Join(words, " "))
}

// stripQuotes removes literal quote characters regardless of what the
// provider was instructed to do.
func stripQuotes(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '`', '“', '”', '‘', '’':
			return -1
		}
		return r
	}, s)
}
