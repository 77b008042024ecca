package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/liendesk/collections-tracker/internal/adapters/drafting"
	"github.com/liendesk/collections-tracker/internal/core"
)

// Drafter produces collection email drafts through Google Gemini.
type Drafter struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	modelName      string
	maxHistorySize int
	logger         *zap.Logger
}

// NewDrafter creates a Gemini-backed drafter.
func NewDrafter(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxHistorySize int,
	logger *zap.Logger,
) (*Drafter, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(drafting.SystemInstruction)},
	}

	return &Drafter{
		client:         client,
		model:          model,
		modelName:      modelName,
		maxHistorySize: maxHistorySize,
		logger:         logger,
	}, nil
}

// Close releases the underlying client.
func (d *Drafter) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// Draft writes one email body for the request.
func (d *Drafter) Draft(ctx context.Context, req core.DraftRequest) (string, error) {
	prompt := drafting.BuildPrompt(req, d.maxHistorySize)

	resp, err := d.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	body := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	d.logger.Debug("Draft generated",
		zap.String("pv", req.Case.PV),
		zap.String("kind", string(req.Kind)),
		zap.Int("length", len(body)))
	return body, nil
}
