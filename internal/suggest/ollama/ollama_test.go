package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/listsync/internal/domain"
	"github.com/vbonduro/listsync/internal/suggest"
)

func TestOllamaSuggest(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)

		resp := map[string]any{
			"model":    got.Model,
			"response": `{"items":[{"name":"Pasta","quantity":2},{"name":"Basil"}]}`,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	suggester := NewOllamaSuggester(server.URL, "llama3")
	items, err := suggester.Suggest(context.Background(), "pasta dinner")

	require.NoError(t, err)
	assert.Equal(t, []domain.SelectedRecentItem{{Name: "Pasta", Quantity: 2}, {Name: "Basil", Quantity: 1}}, items)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.Equal(t, suggest.SystemPrompt, got.System)
	assert.Contains(t, got.Prompt, "pasta dinner")
}

func TestOllamaSuggestRequiresPrompt(t *testing.T) {
	suggester := NewOllamaSuggester("http://localhost:11434", "llama3")

	_, err := suggester.Suggest(context.Background(), "  ")
	assert.ErrorIs(t, err, suggest.ErrPromptRequired)
}

func TestOllamaSuggestNetworkError(t *testing.T) {
	suggester := NewOllamaSuggester("http://localhost:99999", "llama3")

	_, err := suggester.Suggest(context.Background(), "snacks")
	assert.Error(t, err)
}

func TestOllamaSuggestBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewOllamaSuggester(server.URL, "llama3").Suggest(context.Background(), "snacks")
	assert.Error(t, err)
}

func TestOllamaSuggestUnparseableReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "no idea"})
	}))
	defer server.Close()

	_, err := NewOllamaSuggester(server.URL, "llama3").Suggest(context.Background(), "snacks")
	assert.ErrorIs(t, err, suggest.ErrNoItems)
}
