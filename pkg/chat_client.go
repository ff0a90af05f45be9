package pkg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sunrunnn/SageSparke/models"
)

const systemPrompt = "You are SageSpark, an intelligent and sophisticated AI assistant. " +
	"Your goal is to provide accurate, helpful, and concise responses."

const titleInstruction = "Generate a short, descriptive title (5 words or fewer, no quotation marks) " +
	"for the following conversation snippet:"

const titleMaxTokens = 32

// ProviderError wraps a completion failure with the operation that
// produced it. The underlying error carries the provider's own message
// (network, auth, rate-limit, or content-filter).
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ChatClient calls an OpenAI-compatible chat completion API. It is the
// only place that knows how internal messages map onto the provider's
// wire shapes.
type ChatClient struct {
	client     *openai.Client
	model      string
	titleModel string
}

func NewChatClient(apiKey, baseURL, model, titleModel string) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if titleModel == "" {
		titleModel = model
	}
	return &ChatClient{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		titleModel: titleModel,
	}
}

// Generate produces an assistant reply for the given message history.
func (c *ChatClient) Generate(ctx context.Context, history []models.Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    buildChatMessages(history),
		Temperature: 0.5,
	})
	if err != nil {
		return "", &ProviderError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Op: "chat completion", Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// SummarizeTitle asks the provider for a short conversation title.
func (c *ChatClient) SummarizeTitle(ctx context.Context, text string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.titleModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: titleInstruction + "\n\n" + text},
		},
		MaxTokens: titleMaxTokens,
	})
	if err != nil {
		return "", &ProviderError{Op: "title summarization", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Op: "title summarization", Err: errors.New("no choices in response")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildChatMessages converts internal messages to the provider's
// request shape. Loading placeholders are never sent; an attached image
// turns the message into multi-part content.
func buildChatMessages(history []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, msg := range history {
		if msg.IsLoading {
			continue
		}
		m := openai.ChatCompletionMessage{Role: msg.Role}
		if msg.ImageURL != "" {
			m.MultiContent = []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: msg.Content},
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: msg.ImageURL},
				},
			}
		} else {
			m.Content = msg.Content
		}
		out = append(out, m)
	}
	return out
}
