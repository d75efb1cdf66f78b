package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/creastat/foodagent/fields"
)

// Major nutrients derived from the food type.
const (
	NutrientMineralsAndVitamins = "minerals-and-vitamins"
	NutrientBalanced            = "balanced"
	NutrientCarbohydrate        = "carbohydrate"
	NutrientProtein             = "protein"
	NutrientSugars              = "sugars"
	NutrientFat                 = "fat"
)

var nutrients = map[string]string{
	"vegetable":        NutrientMineralsAndVitamins,
	"dairy":            NutrientBalanced,
	"non-dairy":        NutrientCarbohydrate,
	"fruit":            NutrientCarbohydrate,
	"meat":             NutrientProtein,
	"breakfast-cereal": NutrientCarbohydrate,
	"grains":           NutrientCarbohydrate,
	"beverage":         NutrientSugars,
	"edible-oils":      NutrientFat,
}

// shelf life in days by food type, {cold, warm}
var shelfLife = map[string][2]int{
	"meat":      {7, 2},
	"vegetable": {5, 2},
	"grains":    {90, 90},
	"dairy":     {10, 1},
	"non-dairy": {10, 2},
	"fruit":     {7, 3},
}

var defaultShelfLife = [2]int{5, 2}

// Record is the stored form of an Item.
type Record struct {
	ID              string            `json:"id,omitempty"`
	Name            string            `json:"name"`
	FoodType        string            `json:"food_type"`
	Nutrient        string            `json:"nutrient"`
	StorageType     string            `json:"storage_type"`
	StockDate       time.Time         `json:"stock_date"`
	ExpiryDate      time.Time         `json:"expiry_date"`
	ExpiryEstimated bool              `json:"expiry_estimated"`
	QuantityValue   float64           `json:"quantity_value"`
	QuantityUnit    string            `json:"quantity_unit"`
	Caller          map[string]string `json:"caller,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Nutrient returns the major nutrient for a food type.
func Nutrient(foodType string) string {
	if n, ok := nutrients[foodType]; ok {
		return n
	}
	return NutrientBalanced
}

// EstimateExpiry guesses an expiry date from food type and storage.
func EstimateExpiry(foodType, storageType string, stocked time.Time) time.Time {
	days, ok := shelfLife[foodType]
	if !ok {
		days = defaultShelfLife
	}
	d := days[0]
	if storageType == "warm" {
		d = days[1]
	}
	return stocked.AddDate(0, 0, d)
}

// ResolveDate turns "today", "yesterday" or DD-MM-YYYY into a date, relative to now.
func ResolveDate(v string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch v {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	return fields.ParseDate(v)
}

// SplitQuantity splits "50g" into 50 and "g".
func SplitQuantity(q string) (float64, string, error) {
	if err := fields.Validate(fields.Quantity, q); err != nil {
		return 0, "", err
	}
	unit := q[len(q)-1:]
	n, err := strconv.ParseFloat(q[:len(q)-1], 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse quantity %q: %w", q, err)
	}
	return n, unit, nil
}

// NewRecord derives the stored record from an item. When the expiry date is
// "none" it is estimated from the food type and storage.
func NewRecord(item Item, now time.Time) (Record, error) {
	stocked, err := ResolveDate(item.StockDate, now)
	if err != nil {
		return Record{}, fmt.Errorf("stock date: %w", err)
	}

	value, unit, err := SplitQuantity(item.Quantity)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		Name:          item.Name,
		FoodType:      item.FoodType,
		Nutrient:      Nutrient(item.FoodType),
		StorageType:   item.StorageType,
		StockDate:     stocked,
		QuantityValue: value,
		QuantityUnit:  unit,
		Caller:        item.Caller,
		CreatedAt:     now.UTC(),
	}

	if strings.EqualFold(item.ExpiryDate, "none") {
		r.ExpiryDate = EstimateExpiry(item.FoodType, item.StorageType, stocked)
		r.ExpiryEstimated = true
	} else {
		r.ExpiryDate, err = fields.ParseDate(item.ExpiryDate)
		if err != nil {
			return Record{}, fmt.Errorf("expiry date: %w", err)
		}
	}
	return r, nil
}

// Quantity renders the quantity back in canonical form.
func (r Record) Quantity() string {
	return strconv.FormatFloat(r.QuantityValue, 'f', -1, 64) + r.QuantityUnit
}

// Describe is the confirmation shown to the user after a commit.
func (r Record) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Added %s (%s, %s) to %s storage.", r.Name, r.FoodType, r.Quantity(), r.StorageType)
	fmt.Fprintf(&b, " Stocked %s, expires %s", r.StockDate.Format(fields.DateLayout), r.ExpiryDate.Format(fields.DateLayout))
	if r.ExpiryEstimated {
		b.WriteString(" (estimated)")
	}
	b.WriteString(".")
	return b.String()
}
