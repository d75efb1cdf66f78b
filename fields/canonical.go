package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	spaceRE  = regexp.MustCompile(`\s+`)
	amountRE = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*([a-z]+)\.?$`)
)

// unit aliases mapped to (canonical unit, multiplier, divisor)
type unitRule struct {
	unit string
	mul  float64
	div  float64
}

var unitAliases = map[string]unitRule{
	"g": {"g", 1, 1}, "gr": {"g", 1, 1}, "gm": {"g", 1, 1}, "gms": {"g", 1, 1},
	"gram": {"g", 1, 1}, "grams": {"g", 1, 1}, "gramme": {"g", 1, 1}, "grammes": {"g", 1, 1},
	"kg": {"g", 1000, 1}, "kgs": {"g", 1000, 1}, "kilo": {"g", 1000, 1}, "kilos": {"g", 1000, 1},
	"kilogram": {"g", 1000, 1}, "kilograms": {"g", 1000, 1}, "kilogramme": {"g", 1000, 1},
	"l": {"l", 1, 1}, "lt": {"l", 1, 1}, "ltr": {"l", 1, 1}, "ltrs": {"l", 1, 1},
	"litre": {"l", 1, 1}, "litres": {"l", 1, 1}, "liter": {"l", 1, 1}, "liters": {"l", 1, 1},
	"ml": {"l", 1, 1000}, "millilitre": {"l", 1, 1000}, "millilitres": {"l", 1, 1000},
	"milliliter": {"l", 1, 1000}, "milliliters": {"l", 1, 1000},
}

var foodTypeAliases = map[string]string{
	"vegetables": "vegetable", "veg": "vegetable", "veggie": "vegetable", "veggies": "vegetable",
	"fruits": "fruit",
	"beverages": "beverage", "drink": "beverage", "drinks": "beverage",
	"grain": "grains", "cereal-grains": "grains",
	"cereal": "breakfast-cereal", "cereals": "breakfast-cereal", "breakfast-cereals": "breakfast-cereal",
	"meats": "meat",
	"nondairy": "non-dairy", "non-dairy-product": "non-dairy",
	"dairy-product": "dairy", "dairy-products": "dairy",
	"oil": "edible-oils", "oils": "edible-oils", "edible-oil": "edible-oils", "cooking-oil": "edible-oils",
}

var storageAliases = map[string]string{
	"fridge": "cold", "refrigerator": "cold", "refrigerated": "cold", "freezer": "cold",
	"frozen": "cold", "chilled": "cold", "cool": "cold",
	"room temperature": "warm", "room temp": "warm", "pantry": "warm", "cupboard": "warm",
	"shelf": "warm", "counter": "warm", "ambient": "warm",
}

var noExpiry = map[string]bool{
	"none": true, "no": true, "n/a": true, "na": true, "never": true,
	"no expiry": true, "no expiry date": true, "nope": true,
}

// clean lower-cases, trims surrounding quotes and punctuation, and collapses whitespace.
func clean(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.Trim(v, "\"'`.!?,;: ")
	return spaceRE.ReplaceAllString(v, " ")
}

func canonicalName(v string) string {
	return clean(v)
}

func canonicalFoodType(v string) string {
	v = clean(v)
	v = strings.ReplaceAll(v, "_", "-")
	v = strings.ReplaceAll(v, " ", "-")
	if alias, ok := foodTypeAliases[v]; ok {
		return alias
	}
	return v
}

func canonicalStorage(v string) string {
	v = clean(v)
	if alias, ok := storageAliases[v]; ok {
		return alias
	}
	return v
}

// canonicalQuantity turns "50 grams" into "50g", "5 kilograms" into "5000g",
// "4 litres" into "4l" and "500ml" into "0.5l". Anything without a numeral and
// a known unit is returned cleaned and left for the grammar to reject.
func canonicalQuantity(v string) string {
	v = clean(v)
	m := amountRE.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	rule, ok := unitAliases[m[2]]
	if !ok {
		return v
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return v
	}
	n = n * rule.mul / rule.div
	return strconv.FormatFloat(n, 'f', -1, 64) + rule.unit
}

func canonicalDate(v string) string {
	v = clean(v)
	switch v {
	case "today", "yesterday":
		return v
	}
	return padDate(v)
}

func canonicalExpiry(v string) string {
	v = clean(v)
	if noExpiry[v] {
		return "none"
	}
	return padDate(v)
}

// padDate normalises separators and zero-pads day and month: "1/6/2025" -> "01-06-2025".
func padDate(v string) string {
	v = strings.NewReplacer("/", "-", ".", "-", " ", "-").Replace(v)
	parts := strings.Split(v, "-")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return v
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || len(parts[0]) > 2 || len(parts[1]) > 2 {
		return v
	}
	return fmt.Sprintf("%02d-%02d-%s", day, month, parts[2])
}
