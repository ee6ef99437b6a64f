// Package claude implements sentiment.Classifier on the Anthropic API. It is
// the fallback backend when no dedicated inference endpoint is configured.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/pulse/internal/sentiment"
)

const systemPrompt = `You classify the sentiment of short social media posts about a product or brand.
Respond with a single JSON object and nothing else:
{"label": "POSITIVE" | "NEGATIVE" | "NEUTRAL", "confidence": <0.0-1.0>}`

const responseTokens = 128

// Classifier scores text by prompting a Claude model.
type Classifier struct {
	client anthropic.Client
	model  string
}

// New creates a Claude-backed classifier with the given API key and model.
func New(apiKey, model string) *Classifier {
	return &Classifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

type verdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ClassifyText asks the model for a label and confidence.
func (c *Classifier) ClassifyText(ctx context.Context, text string) (sentiment.Label, float64, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: responseTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("claude: %w", err)
	}

	var raw string
	for _, block := range msg.Content {
		if block.Type == "text" {
			raw = block.Text
			break
		}
	}
	if raw == "" {
		return "", 0, fmt.Errorf("claude: no text content in response")
	}

	return parseVerdict(raw)
}

func parseVerdict(raw string) (sentiment.Label, float64, error) {
	// Models occasionally wrap JSON in a code fence despite instructions.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return "", 0, fmt.Errorf("claude: parse verdict %q: %w", raw, err)
	}

	if v.Confidence < 0 || v.Confidence > 1 {
		return "", 0, fmt.Errorf("claude: confidence %v out of range", v.Confidence)
	}

	switch sentiment.Label(strings.ToUpper(v.Label)) {
	case sentiment.LabelPositive:
		return sentiment.LabelPositive, v.Confidence, nil
	case sentiment.LabelNegative:
		return sentiment.LabelNegative, v.Confidence, nil
	case sentiment.LabelNeutral:
		return sentiment.LabelNeutral, v.Confidence, nil
	default:
		return "", 0, fmt.Errorf("claude: unknown label %q", v.Label)
	}
}
