package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/suggest"
)

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type OllamaSuggester struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaSuggester(host, model string) *OllamaSuggester {
	return &OllamaSuggester{
		host:   host,
		model:  model,
		client: &http.Client{},
	}
}

func (s *OllamaSuggester) Suggest(ctx context.Context, prompt string) ([]domain.SelectedRecentItem, error) {
	message, err := suggest.UserMessage(prompt)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(generateRequest{
		Model:  s.model,
		System: suggest.SystemPrompt,
		Prompt: message,
		Format: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return suggest.ParseResponse(respBody.Response)
}
