package extract

import (
	"fmt"
	"strings"

	"github.com/creastat/foodagent/fields"
)

// Persona is sent as the system instruction on every call.
const Persona = "You are a helpful kitchen assistant collecting details about a food item for a home inventory."

// Summary renders the collected values, one " - Label: value" line per field.
func Summary(values map[fields.Key]string) string {
	var b strings.Builder
	for i, k := range fields.All() {
		if i > 0 {
			b.WriteByte('\n')
		}
		v, ok := values[k]
		if !ok || v == "" {
			v = "not yet provided"
		}
		fmt.Fprintf(&b, " - %s: %s", k.Label(), v)
	}
	return b.String()
}

func fieldGuide() string {
	var b strings.Builder
	for _, k := range fields.All() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", k, k.Label(), fields.MustLookup(k).Format)
	}
	return b.String()
}

// QuestionInstructions asks for one natural question about the next missing field.
func QuestionInstructions(values map[fields.Key]string, opening bool) string {
	var b strings.Builder
	b.WriteString("We are collecting these fields about a food item:\n")
	b.WriteString(fieldGuide())
	b.WriteString("\nInformation collected so far:\n")
	b.WriteString(Summary(values))
	b.WriteString("\n\nYour task:\n1. Identify the next missing field.\n2. Ask one natural, conversational question to obtain it.\n3. Ask about only one field.\n")
	if opening {
		b.WriteString("This is the start of the conversation, so greet the user briefly.\n")
	}
	b.WriteString("Reply with the question only.")
	return b.String()
}

// AssignInstructions asks for exactly one field=value pair from the newest answer.
func AssignInstructions(values map[fields.Key]string, question, answer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "We asked the user: %s\nThey answered: '%s'\n\n", question, answer)
	b.WriteString("Information collected so far:\n")
	b.WriteString(Summary(values))
	b.WriteString("\n\nAccepted formats:\n")
	b.WriteString(fieldGuide())
	b.WriteString("\nDetermine which field this answer gives and extract its value in the accepted format.\n")
	b.WriteString("Reply with exactly one line in the form field_name=value, for example quantity=50g.")
	return b.String()
}

// ConfirmInstructions asks whether every collected value is well formed.
func ConfirmInstructions(values map[fields.Key]string) string {
	var b strings.Builder
	b.WriteString("All required food information has been collected:\n")
	b.WriteString(Summary(values))
	b.WriteString("\n\nAccepted formats:\n")
	b.WriteString(fieldGuide())
	b.WriteString("\nReply only with YES if every value matches its format, or NO if you notice any formatting issue.")
	return b.String()
}

// NormalizeInstructions asks to rewrite an answer into the canonical form of k.
func NormalizeInstructions(k fields.Key, answer string) string {
	spec := fields.MustLookup(k)
	return fmt.Sprintf("Rewrite the user's answer for the field %q so that it is %s.\nAnswer: '%s'\nReply with the rewritten value only. If it cannot be rewritten, reply with INVALID.",
		spec.Label, spec.Format, answer)
}

// FoodCheckInstructions asks whether name is a real food.
func FoodCheckInstructions(name string) string {
	return fmt.Sprintf("Is %q the name of a real food or drink? Reply only with YES or NO.", name)
}

// IsYes reports whether an answer affirms, by case-insensitive substring.
func IsYes(answer string) bool {
	return strings.Contains(strings.ToLower(answer), "yes")
}
