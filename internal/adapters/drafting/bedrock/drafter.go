package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/adapters/drafting"
	"github.com/liendesk/collections-tracker/internal/core"
)

// Drafter produces collection email drafts through Amazon Bedrock.
type Drafter struct {
	client         *bedrockruntime.Client
	modelID        string
	maxTokens      int
	temperature    float32
	topP           float32
	maxHistorySize int
	logger         *zap.Logger
}

// NewDrafter creates a Bedrock-backed drafter.
func NewDrafter(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxHistorySize int,
	logger *zap.Logger,
) *Drafter {
	return &Drafter{
		client:         client,
		modelID:        modelID,
		maxTokens:      maxTokens,
		temperature:    temperature,
		topP:           topP,
		maxHistorySize: maxHistorySize,
		logger:         logger,
	}
}

// Draft writes one email body for the request. The invoke payload shape
// depends on the model family behind the modelID.
func (d *Drafter) Draft(ctx context.Context, req core.DraftRequest) (string, error) {
	prompt := drafting.SystemInstruction + "\n\n" + drafting.BuildPrompt(req, d.maxHistorySize)

	var payload []byte
	var err error
	switch {
	case d.isAnthropicModel():
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": d.maxTokens,
			"temperature":          d.temperature,
			"top_p":                d.topP,
		})
	case d.isAmazonTitanModel():
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": d.maxTokens,
				"temperature":   d.temperature,
				"topP":          d.topP,
			},
		})
	default:
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  d.maxTokens,
			"temperature": d.temperature,
			"top_p":       d.topP,
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := d.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &d.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := d.extractText(resp.Body)
	if err != nil {
		return "", err
	}
	body := strings.TrimSpace(text)
	d.logger.Debug("Draft generated",
		zap.String("pv", req.Case.PV),
		zap.String("kind", string(req.Kind)),
		zap.Int("length", len(body)))
	return body, nil
}

func (d *Drafter) extractText(raw []byte) (string, error) {
	if d.isAnthropicModel() {
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return resp.Completion, nil
	}
	if d.isAmazonTitanModel() {
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return resp.Results[0].OutputText, nil
	}

	var resp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal model response: %w", err)
	}
	switch {
	case resp.Output != "":
		return resp.Output, nil
	case resp.Text != "":
		return resp.Text, nil
	case resp.Response != "":
		return resp.Response, nil
	}
	return string(raw), nil
}

func (d *Drafter) isAnthropicModel() bool {
	return strings.HasPrefix(d.modelID, "anthropic.claude")
}

func (d *Drafter) isAmazonTitanModel() bool {
	return strings.HasPrefix(d.modelID, "amazon.titan")
}
