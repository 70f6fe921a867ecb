package claude

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/suggest"
)

// maxTokens leaves room for a few dozen items.
const maxTokens = 1024

type ClaudeSuggester struct {
	client *anthropic.Client
	model  string
}

// NewClaudeSuggester builds a suggester. baseURL may be empty to use the
// public API.
func NewClaudeSuggester(apiKey, model, baseURL string) *ClaudeSuggester {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeSuggester{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (s *ClaudeSuggester) Suggest(ctx context.Context, prompt string) ([]domain.SelectedRecentItem, error) {
	message, err := suggest.UserMessage(prompt)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		System:    suggest.SystemPrompt,
		MaxTokens: maxTokens,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(message)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText {
			return suggest.ParseResponse(block.GetText())
		}
	}
	return nil, suggest.ErrNoItems
}
