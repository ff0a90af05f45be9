package logic

import (
	"context"

	"github.com/sunrunnn/SageSparke/models"
)

// CompletionProvider turns a message history into a generated reply or a
// short title. Both calls are network-bound and fallible; the caller is
// responsible for deciding what a failure means.
type CompletionProvider interface {
	Generate(ctx context.Context, history []models.Message) (string, error)
	SummarizeTitle(ctx context.Context, text string) (string, error)
}
