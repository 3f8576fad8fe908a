package domain

import (
	"strings"

	"github.com/kapu/quien-soy-bot-go/pkg/errors"
)

// HintCount is the fixed number of hints every character carries.
const HintCount = 5

// Character is one round's subject. Hints are ordered from most obscure to
// most revealing.
type Character struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Hints       []string `json:"hints"`
	Description string   `json:"description"`
	ImageQuery  string   `json:"imageSearchQuery"`
}

// Normalize trims surrounding whitespace from every field in place.
func (c *Character) Normalize() {
	if c == nil {
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Category = strings.TrimSpace(c.Category)
	c.Description = strings.TrimSpace(c.Description)
	c.ImageQuery = strings.TrimSpace(c.ImageQuery)
	for i, hint := range c.Hints {
		c.Hints[i] = strings.TrimSpace(hint)
	}
}

// Validate checks the record against the generator schema.
func (c *Character) Validate() error {
	if c == nil {
		return errors.NewValidationError("character is missing", "character", nil)
	}
	if c.Name == "" {
		return errors.NewValidationError("character name is required", "name", c.Name)
	}
	if c.Category == "" {
		return errors.NewValidationError("character category is required", "category", c.Category)
	}
	if len(c.Hints) != HintCount {
		return errors.NewValidationError("character must have exactly 5 hints", "hints", len(c.Hints))
	}
	for i, hint := range c.Hints {
		if hint == "" {
			return errors.NewValidationError("character hint is empty", "hints", i)
		}
	}
	if c.Description == "" {
		return errors.NewValidationError("character description is required", "description", c.Description)
	}
	if c.ImageQuery == "" {
		return errors.NewValidationError("character image query is required", "imageSearchQuery", c.ImageQuery)
	}
	return nil
}

// Hint returns the 1-based hint n, or "" when out of range.
func (c *Character) Hint(n int) string {
	if c == nil || n < 1 || n > len(c.Hints) {
		return ""
	}
	return c.Hints[n-1]
}

// ShortName is the first word of the name, used in compact stats.
func (c *Character) ShortName() string {
	if c == nil {
		return ""
	}
	return ShortName(c.Name)
}

func ShortName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
