package fields

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/foodagent"
)

func TestOrder(t *testing.T) {
	assert.Equal(t, []Key{Name, FoodType, Quantity, StockDate, ExpiryDate, StorageType}, FallbackOrder())
	assert.Len(t, All(), 6)
	assert.ElementsMatch(t, All(), FallbackOrder())

	// callers cannot mutate the package order
	order := FallbackOrder()
	order[0] = StorageType
	assert.Equal(t, Name, FallbackOrder()[0])
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Key
		ok   bool
	}{
		{"name", Name, true},
		{"Food Type", FoodType, true},
		{"food-type", FoodType, true},
		{" EXPIRY_DATE ", ExpiryDate, true},
		{"`quantity`", Quantity, true},
		{"colour", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		key   Key
		value string
		ok    bool
	}{
		{Name, "apple", true},
		{Name, "", false},
		{Name, "1234", false},
		{FoodType, "fruit", true},
		{FoodType, "breakfast-cereal", true},
		{FoodType, "candy", false},
		{Quantity, "50g", true},
		{Quantity, "4l", true},
		{Quantity, "0.5l", true},
		{Quantity, "50 g", false},
		{Quantity, "50kg", false},
		{Quantity, "g", false},
		{StockDate, "today", true},
		{StockDate, "yesterday", true},
		{StockDate, "24-05-2025", true},
		{StockDate, "31-02-2025", false},
		{StockDate, "2025-05-24", false},
		{StockDate, "none", false},
		{ExpiryDate, "none", true},
		{ExpiryDate, "01-06-2025", true},
		{ExpiryDate, "today", false},
		{StorageType, "cold", true},
		{StorageType, "warm", true},
		{StorageType, "hot", false},
	}
	for _, tt := range tests {
		err := Validate(tt.key, tt.value)
		if tt.ok {
			assert.NoError(t, err, "%s=%q", tt.key, tt.value)
		} else {
			require.Error(t, err, "%s=%q", tt.key, tt.value)
			assert.True(t, errors.Is(err, foodagent.ErrValidation))
		}
	}

	err := Validate(Key("colour"), "red")
	assert.ErrorIs(t, err, foodagent.ErrUnknownField)
}

func TestCanonicalizeQuantity(t *testing.T) {
	tests := map[string]string{
		"50g":          "50g",
		"50 grams":     "50g",
		"5 kilograms":  "5000g",
		"1.5kg":        "1500g",
		"4 litres":     "4l",
		"4 Liters":     "4l",
		"500ml":        "0.5l",
		"2,5 l":        "2.5l",
		"some apples":  "some apples",
		"a lot":        "a lot",
		"50 bananas":   "50 bananas",
	}
	for in, want := range tests {
		assert.Equal(t, want, Canonicalize(Quantity, in), in)
	}
	assert.Error(t, Validate(Quantity, Canonicalize(Quantity, "some apples")))
}

func TestCanonicalizeOther(t *testing.T) {
	assert.Equal(t, "fruit", Canonicalize(FoodType, " Fruits "))
	assert.Equal(t, "breakfast-cereal", Canonicalize(FoodType, "Breakfast Cereal"))
	assert.Equal(t, "edible-oils", Canonicalize(FoodType, "edible_oils"))
	assert.Equal(t, "non-dairy", Canonicalize(FoodType, "non dairy"))
	assert.Equal(t, "cold", Canonicalize(StorageType, "Fridge"))
	assert.Equal(t, "warm", Canonicalize(StorageType, "room temperature"))
	assert.Equal(t, "today", Canonicalize(StockDate, "Today."))
	assert.Equal(t, "01-06-2025", Canonicalize(StockDate, "1/6/2025"))
	assert.Equal(t, "none", Canonicalize(ExpiryDate, "No"))
	assert.Equal(t, "24-05-2025", Canonicalize(ExpiryDate, "24.05.2025"))
	assert.Equal(t, "green apple", Canonicalize(Name, "  \"Green   Apple\" "))
}

func TestLabelsAndPrompts(t *testing.T) {
	for _, k := range All() {
		spec := MustLookup(k)
		assert.NotEmpty(t, spec.Prompt, k)
		assert.NotEmpty(t, spec.Format, k)
		assert.Equal(t, spec.Label, k.Label())
	}
	assert.Equal(t, "What food do you want to add?", MustLookup(Name).Prompt)
	assert.Panics(t, func() { MustLookup(Key("colour")) })
}

func TestNameCheckerFunc(t *testing.T) {
	var c NameChecker = NameCheckerFunc(func(_ context.Context, name string) (bool, error) {
		return name == "apple", nil
	})
	ok, err := c.IsFood(context.Background(), "apple")
	require.NoError(t, err)
	assert.True(t, ok)
}
