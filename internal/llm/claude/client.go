// Package claude implements vitals.Generator on the Anthropic messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ResponseTokens caps the narrative length. Interpretations are short; a low
// cap keeps latency inside the engine's timeout budget.
const ResponseTokens = 1024

// Client is a single-shot text generation client for the Claude API.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a new Claude client with the given API key and model name.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Generate sends one system+user prompt pair and returns the concatenated
// text content. No tools, no conversation state, no retry.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: ResponseTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	text := textContent(msg)
	if text == "" {
		return "", errors.New("claude: empty response")
	}
	return text, nil
}

// textContent concatenates the text blocks of a response, skipping any other
// content types.
func textContent(msg *anthropic.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
