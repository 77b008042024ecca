package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/adapters/drafting/bedrock"
	"github.com/liendesk/collections-tracker/internal/adapters/drafting/gemini"
	"github.com/liendesk/collections-tracker/internal/adapters/drafting/openai"
	"github.com/liendesk/collections-tracker/internal/config"
	"github.com/liendesk/collections-tracker/internal/core"
)

// DrafterFactory creates email drafters
type DrafterFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDrafterFactory creates a new drafter factory
func NewDrafterFactory(cfg *config.Config, logger *zap.Logger) *DrafterFactory {
	return &DrafterFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDrafter creates a drafter based on the configuration
func (f *DrafterFactory) CreateDrafter() (core.Drafter, error) {
	draftingCfg := f.cfg.GetDrafting()

	switch draftingCfg.Provider {
	case "openai":
		c := f.cfg.GetOpenAI()
		return openai.NewDrafter(
			c.APIKey, c.ModelName, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxHistorySize, f.logger), nil
	case "bedrock":
		c := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(c.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.NewDrafter(
			client, c.ModelID, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxHistorySize, f.logger), nil
	case "gemini":
		c := f.cfg.GetGemini()
		return gemini.NewDrafter(
			c.APIKey, c.ModelName, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxHistorySize, f.logger)
	default:
		return nil, fmt.Errorf("unsupported drafting provider: %s", draftingCfg.Provider)
	}
}
