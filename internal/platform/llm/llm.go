package llm

import (
	"context"

	"github.com/andreypavlenko/crmcore/internal/config"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Adapter is the narrow LLM collaborator spec §6 describes:
// send(prompt) -> text, synchronous with a per-call timeout. Its only
// caller is the Monday auto-newsletter content generator in
// modules/newsletter; the import worker never uses it.
type Adapter struct {
	client anthropic.Client
	model  anthropic.Model
}

func New(cfg config.LLMConfig) *Adapter {
	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = anthropic.ModelClaude3_5HaikuLatest
	}
	return &Adapter{
		client: anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:  model,
	}
}

// Send submits one prompt and returns the concatenated text of the
// response's content blocks.
func (a *Adapter) Send(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	text := ""
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
