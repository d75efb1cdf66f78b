// Package fields defines the six slots collected for a food item: their keys,
// prompts, accepted formats and grammars.
package fields

import (
	"context"
	"strings"
)

// Key identifies one of the collected slots.
type Key string

const (
	Name        Key = "name"
	FoodType    Key = "food_type"
	StorageType Key = "storage_type"
	StockDate   Key = "stock_date"
	Quantity    Key = "quantity"
	ExpiryDate  Key = "expiry_date"
)

var allKeys = []Key{Name, FoodType, StorageType, StockDate, Quantity, ExpiryDate}

var fallbackOrder = []Key{Name, FoodType, Quantity, StockDate, ExpiryDate, StorageType}

// All returns every key in declaration order.
func All() []Key {
	return append([]Key(nil), allKeys...)
}

// FallbackOrder returns the fixed order walked by the step-by-step funnel.
func FallbackOrder() []Key {
	return append([]Key(nil), fallbackOrder...)
}

// Parse maps loosely formatted field names ("Food Type", "food-type") to a Key.
func Parse(s string) (Key, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`*")
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, k := range allKeys {
		if Key(s) == k {
			return k, true
		}
	}
	return "", false
}

// Label returns the human-readable name, e.g. "Food Type".
func (k Key) Label() string {
	if spec, ok := registry[k]; ok {
		return spec.Label
	}
	return string(k)
}

func (k Key) String() string { return string(k) }

// NameChecker decides whether a candidate name refers to a real food.
type NameChecker interface {
	IsFood(ctx context.Context, name string) (bool, error)
}

// NameCheckerFunc adapts a function to NameChecker.
type NameCheckerFunc func(ctx context.Context, name string) (bool, error)

// IsFood implements NameChecker.
func (f NameCheckerFunc) IsFood(ctx context.Context, name string) (bool, error) {
	return f(ctx, name)
}
