package extract

import (
	"context"

	"github.com/creastat/foodagent/fields"
)

// NameChecker asks the extractor whether a name is a real food.
type NameChecker struct {
	ex Extractor
}

// NewNameChecker wraps ex as a fields.NameChecker.
func NewNameChecker(ex Extractor) *NameChecker {
	return &NameChecker{ex: ex}
}

// IsFood implements fields.NameChecker.
func (c *NameChecker) IsFood(ctx context.Context, name string) (bool, error) {
	out, err := c.ex.Extract(ctx, Request{
		Mode:         ModeFoodCheck,
		Field:        fields.Name,
		Instructions: FoodCheckInstructions(name),
	})
	if err != nil {
		return false, err
	}
	return IsYes(out), nil
}

var _ fields.NameChecker = (*NameChecker)(nil)
