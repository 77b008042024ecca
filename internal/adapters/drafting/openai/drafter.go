package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/adapters/drafting"
	"github.com/liendesk/collections-tracker/internal/core"
)

// Drafter produces collection email drafts through the OpenAI chat API.
type Drafter struct {
	client         *openai.Client
	modelName      string
	maxTokens      int
	temperature    float32
	topP           float32
	maxHistorySize int
	logger         *zap.Logger
}

// NewDrafter creates an OpenAI-backed drafter.
func NewDrafter(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxHistorySize int,
	logger *zap.Logger,
) *Drafter {
	return &Drafter{
		client:         openai.NewClient(apiKey),
		modelName:      modelName,
		maxTokens:      maxTokens,
		temperature:    temperature,
		topP:           topP,
		maxHistorySize: maxHistorySize,
		logger:         logger,
	}
}

// Draft writes one email body for the request.
func (d *Drafter) Draft(ctx context.Context, req core.DraftRequest) (string, error) {
	prompt := drafting.BuildPrompt(req, d.maxHistorySize)

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: drafting.SystemInstruction,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
		TopP:        d.topP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	body := strings.TrimSpace(resp.Choices[0].Message.Content)
	d.logger.Debug("Draft generated",
		zap.String("pv", req.Case.PV),
		zap.String("kind", string(req.Kind)),
		zap.Int("length", len(body)))
	return body, nil
}
