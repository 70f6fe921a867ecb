package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/listsync/internal/domain"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []domain.SelectedRecentItem
	}{
		{
			name:     "plain object",
			raw:      `{"items":[{"name":"Tortillas","quantity":2},{"name":"Salsa","quantity":1}]}`,
			expected: []domain.SelectedRecentItem{{Name: "Tortillas", Quantity: 2}, {Name: "Salsa", Quantity: 1}},
		},
		{
			name:     "fenced with preamble",
			raw:      "Here you go:\n```json\n{\"items\":[{\"name\":\" Limes \",\"quantity\":6}]}\n```",
			expected: []domain.SelectedRecentItem{{Name: "Limes", Quantity: 6}},
		},
		{
			name:     "missing and odd quantities",
			raw:      `{"items":[{"name":"Cheese"},{"name":"Beans","quantity":0},{"name":"Rice","quantity":2.6}]}`,
			expected: []domain.SelectedRecentItem{{Name: "Cheese", Quantity: 1}, {Name: "Beans", Quantity: 1}, {Name: "Rice", Quantity: 3}},
		},
		{
			name:     "blank names dropped",
			raw:      `{"items":[{"name":"  ","quantity":3}]}`,
			expected: []domain.SelectedRecentItem{},
		},
		{
			name:     "no items key",
			raw:      `{"list":[]}`,
			expected: []domain.SelectedRecentItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ParseResponse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, items)
		})
	}
}

func TestParseResponseErrors(t *testing.T) {
	_, err := ParseResponse("I cannot help with that.")
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = ParseResponse(`{"items": [`)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = ParseResponse(`{"items": "soon"}`)
	assert.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	msg, err := UserMessage("  taco night ")
	require.NoError(t, err)
	assert.Equal(t, "Create a shopping list for: taco night. Return ONLY the JSON response.", msg)

	_, err = UserMessage(" ")
	assert.ErrorIs(t, err, ErrPromptRequired)
}
