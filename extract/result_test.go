package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/creastat/foodagent"
	"github.com/creastat/foodagent/fields"
)

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  Kind
		field fields.Key
		value string
	}{
		{"plain", "quantity=50g", KindAssigned, fields.Quantity, "50g"},
		{"spaces", "  food_type = fruit \n", KindAssigned, fields.FoodType, "fruit"},
		{"label form", "Food Type=fruit", KindAssigned, fields.FoodType, "fruit"},
		{"quoted value", `name="apple"`, KindAssigned, fields.Name, "apple"},
		{"code fence", "```\nstock_date=today\n```", KindAssigned, fields.StockDate, "today"},
		{"chatter before", "Sure!\nexpiry_date=none", KindAssigned, fields.ExpiryDate, "none"},
		{"value with equals", "name=a=b", KindAssigned, fields.Name, "a=b"},
		{"no equals", "I think it is an apple", KindMalformed, "", ""},
		{"empty value", "name=", KindMalformed, "", ""},
		{"empty name", "=apple", KindMalformed, "", ""},
		{"empty", "", KindMalformed, "", ""},
		{"unknown field", "colour=red", KindUnrecognized, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseAssignment(tt.raw)
			assert.Equal(t, tt.kind, r.Kind, r.Kind.String())
			assert.Equal(t, tt.field, r.Field)
			assert.Equal(t, tt.value, r.Value)
		})
	}
}

func TestResultError(t *testing.T) {
	assert.NoError(t, ParseAssignment("name=apple").Error())
	assert.ErrorIs(t, ParseAssignment("nothing").Error(), foodagent.ErrMalformedExtraction)

	r := ParseAssignment("colour=red")
	assert.Equal(t, "colour", r.Name)
	assert.ErrorIs(t, r.Error(), foodagent.ErrUnknownField)
	assert.Contains(t, r.Error().Error(), "colour")

	failed := Classify("name=apple", errors.New("timeout"))
	assert.Equal(t, KindFailed, failed.Kind)
	assert.ErrorIs(t, failed.Error(), foodagent.ErrCollaborator)
}

func TestIsYes(t *testing.T) {
	assert.True(t, IsYes("YES"))
	assert.True(t, IsYes("Yes, all good."))
	assert.True(t, IsYes("eyes")) // substring match is intended
	assert.False(t, IsYes("NO"))
	assert.False(t, IsYes(""))
}

func TestSummary(t *testing.T) {
	got := Summary(map[fields.Key]string{fields.Name: "apple"})
	assert.Contains(t, got, " - Name: apple")
	assert.Contains(t, got, " - Food Type: not yet provided")
	assert.Contains(t, got, " - Expiry Date: not yet provided")
}

func TestInstructions(t *testing.T) {
	values := map[fields.Key]string{fields.Name: "apple"}

	q := QuestionInstructions(values, true)
	assert.Contains(t, q, "next missing field")
	assert.Contains(t, q, "greet")
	assert.NotContains(t, QuestionInstructions(values, false), "greet")

	a := AssignInstructions(values, "How much?", "fifty grams")
	assert.Contains(t, a, "They answered: 'fifty grams'")
	assert.Contains(t, a, "field_name=value")

	c := ConfirmInstructions(values)
	assert.Contains(t, c, "YES")
	assert.Contains(t, c, "breakfast-cereal")

	n := NormalizeInstructions(fields.Quantity, "five kilos")
	assert.Contains(t, n, "Quantity")
	assert.Contains(t, n, "five kilos")

	assert.Contains(t, FoodCheckInstructions("apple"), `"apple"`)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "assign", ModeAssign.String())
	assert.Equal(t, "food_check", ModeFoodCheck.String())
	assert.Equal(t, "unknown", Mode(99).String())
}
