// Package suggest turns a free-text request ("taco night for six") into
// shopping items using a language model.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vbonduro/listsync/internal/domain"
)

// SystemPrompt is shared by all suggestion adapters.
const SystemPrompt = `You are a helpful assistant that generates shopping list items based on user prompts. ` +
	`Output ONLY valid JSON in the specific format requested. ` +
	`Format: {"items": [{"name": "Item Name", "quantity": 1}]}. ` +
	`The items should be typical grocery or shopping items. Keep quantities reasonable.`

var ErrPromptRequired = errors.New("prompt is required")

type Suggester interface {
	Suggest(ctx context.Context, prompt string) ([]domain.SelectedRecentItem, error)
}

// UserMessage builds the request text for prompt.
func UserMessage(prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrPromptRequired
	}
	return fmt.Sprintf("Create a shopping list for: %s. Return ONLY the JSON response.", prompt), nil
}
