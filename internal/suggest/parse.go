package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vbonduro/listsync/internal/domain"
)

var ErrNoItems = errors.New("model response contained no JSON object")

// ParseResponse extracts {"items":[{"name":..,"quantity":..}]} from a model
// reply. Text around the object (code fences, preamble) is ignored, blank
// names are dropped and quantities are rounded and clamped to at least one.
func ParseResponse(raw string) ([]domain.SelectedRecentItem, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, ErrNoItems
	}

	var body struct {
		Items []struct {
			Name     string   `json:"name"`
			Quantity *float64 `json:"quantity"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &body); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}

	items := make([]domain.SelectedRecentItem, 0, len(body.Items))
	for _, it := range body.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		qty := 1
		if it.Quantity != nil {
			qty = max(1, int(math.Round(*it.Quantity)))
		}
		items = append(items, domain.SelectedRecentItem{Name: name, Quantity: qty})
	}
	return items, nil
}
