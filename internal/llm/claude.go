// Package llm wraps the single-turn Claude call that turns scraped market
// data into an analysis. The wrapper never fails outward: credential or API
// problems come back as short user-sendable strings.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/concalliq/concalliq/internal/config"
)

const systemPrompt = "You are an expert equity analyst for Indian stock markets (NSE/BSE). " +
	"Give crisp, actionable analysis in simple language. Use Markdown formatting with * for bold. " +
	"Keep responses under 400 words."

const requestTimeout = 30 * time.Second

// Placeholder is sent when no API key is configured.
const Placeholder = "AI unavailable. Add ANTHROPIC_API_KEY."

type Analyst struct {
	client  anthropic.Client
	model   string
	enabled bool
}

func NewAnalyst(cfg *config.Config) *Analyst {
	if cfg.AnthropicAPIKey == "" {
		return &Analyst{}
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.AnthropicAPIKey),
	)

	return &Analyst{
		client:  client,
		model:   cfg.Model,
		enabled: true,
	}
}

// Generate runs one stateless completion. The return value is always a
// non-empty string safe to send to a chat: real analysis, the missing-key
// placeholder, or an inline "AI error" line.
func (a *Analyst) Generate(ctx context.Context, prompt string, maxTokens int) string {
	if !a.enabled {
		return Placeholder
	}
	if maxTokens <= 0 {
		maxTokens = 900
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.Messages.New(reqCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return fmt.Sprintf("AI error: %v", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "AI error: empty response"
	}
	return out.String()
}
