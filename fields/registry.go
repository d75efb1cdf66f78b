package fields

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/creastat/foodagent"
)

// DateLayout is the accepted calendar date form (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// FoodTypes is the closed set accepted for the food_type slot.
var FoodTypes = []string{
	"vegetable", "fruit", "beverage", "grains", "breakfast-cereal",
	"meat", "dairy", "non-dairy", "edible-oils",
}

// StorageTypes is the closed set accepted for the storage_type slot.
var StorageTypes = []string{"cold", "warm"}

var (
	quantityRE = regexp.MustCompile(`^\d+(\.\d+)?(g|l)$`)
	dateRE     = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
)

// Spec is the immutable definition of one slot.
type Spec struct {
	Key    Key
	Label  string
	Prompt string // funnel question
	Format string // accepted form, shown to the extractor

	validate     func(string) error
	canonicalize func(string) string
}

// Validate reports whether v matches the slot grammar. Failures wrap
// foodagent.ErrValidation.
func (s Spec) Validate(v string) error {
	if err := s.validate(v); err != nil {
		return fmt.Errorf("%w: %s: %v", foodagent.ErrValidation, s.Key, err)
	}
	return nil
}

// Canonicalize rewrites v into the slot's canonical spelling where it can.
// It never rejects; values it cannot map are returned trimmed and lower-cased.
func (s Spec) Canonicalize(v string) string {
	return s.canonicalize(v)
}

var registry = map[Key]Spec{
	Name: {
		Key:          Name,
		Label:        "Name",
		Prompt:       "What food do you want to add?",
		Format:       "the name of the food item, e.g. apple",
		validate:     validateName,
		canonicalize: canonicalName,
	},
	FoodType: {
		Key:          FoodType,
		Label:        "Food Type",
		Prompt:       "What type of food is it? (" + strings.Join(FoodTypes, ", ") + ")",
		Format:       "one of: " + strings.Join(FoodTypes, ", "),
		validate:     oneOf(FoodTypes),
		canonicalize: canonicalFoodType,
	},
	Quantity: {
		Key:          Quantity,
		Label:        "Quantity",
		Prompt:       "How much did you get? (e.g. 50g, 4l)",
		Format:       "a number immediately followed by g or l, e.g. 50g, 4l",
		validate:     validateQuantity,
		canonicalize: canonicalQuantity,
	},
	StockDate: {
		Key:          StockDate,
		Label:        "Stock Date",
		Prompt:       "When did you get this food? (e.g. today, yesterday, 24-05-2025)",
		Format:       "today, yesterday, or a date as DD-MM-YYYY",
		validate:     validateStockDate,
		canonicalize: canonicalDate,
	},
	ExpiryDate: {
		Key:          ExpiryDate,
		Label:        "Expiry Date",
		Prompt:       "Is there an expiry date for this food? If yes, enter the date (e.g. 24-05-2025). Otherwise, enter 'none'",
		Format:       "none, or a date as DD-MM-YYYY",
		validate:     validateExpiryDate,
		canonicalize: canonicalExpiry,
	},
	StorageType: {
		Key:          StorageType,
		Label:        "Storage Type",
		Prompt:       "How is the food being stored, are you using a cold or warm storage device?",
		Format:       "cold or warm",
		validate:     oneOf(StorageTypes),
		canonicalize: canonicalStorage,
	},
}

// Lookup returns the definition for k.
func Lookup(k Key) (Spec, bool) {
	s, ok := registry[k]
	return s, ok
}

// MustLookup is Lookup for keys known at compile time.
func MustLookup(k Key) Spec {
	s, ok := registry[k]
	if !ok {
		panic("fields: unknown key " + string(k))
	}
	return s
}

// Validate checks v against the grammar of k.
func Validate(k Key, v string) error {
	s, ok := registry[k]
	if !ok {
		return fmt.Errorf("%w: %q", foodagent.ErrUnknownField, k)
	}
	return s.Validate(v)
}

// Canonicalize rewrites v with the canonicaliser of k.
func Canonicalize(k Key, v string) string {
	s, ok := registry[k]
	if !ok {
		return strings.TrimSpace(v)
	}
	return s.Canonicalize(v)
}

func validateName(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("empty name")
	}
	if !strings.ContainsFunc(v, isLetter) {
		return fmt.Errorf("name %q has no letters", v)
	}
	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127
}

func oneOf(set []string) func(string) error {
	return func(v string) error {
		if !slices.Contains(set, v) {
			return fmt.Errorf("%q is not one of %s", v, strings.Join(set, ", "))
		}
		return nil
	}
}

func validateQuantity(v string) error {
	if !quantityRE.MatchString(v) {
		return fmt.Errorf("%q is not a number followed by g or l", v)
	}
	return nil
}

func validateStockDate(v string) error {
	if v == "today" || v == "yesterday" {
		return nil
	}
	_, err := ParseDate(v)
	return err
}

func validateExpiryDate(v string) error {
	if v == "none" {
		return nil
	}
	_, err := ParseDate(v)
	return err
}

// ParseDate parses a DD-MM-YYYY calendar date.
func ParseDate(v string) (time.Time, error) {
	if !dateRE.MatchString(v) {
		return time.Time{}, fmt.Errorf("%q is not DD-MM-YYYY", v)
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a calendar date", v)
	}
	return t, nil
}
