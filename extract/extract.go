// Package extract talks to the language model that turns free text into
// questions, field assignments and yes/no verdicts.
package extract

import (
	"context"

	"github.com/creastat/foodagent"
	"github.com/creastat/foodagent/fields"
)

// Mode selects what the extractor is asked to produce.
type Mode int

const (
	// ModeQuestion asks for the next natural question about missing fields.
	ModeQuestion Mode = iota
	// ModeAssign asks for exactly one field=value pair.
	ModeAssign
	// ModeConfirm asks a strict yes/no validity question.
	ModeConfirm
	// ModeNormalize asks to rewrite one answer into a field's canonical form.
	ModeNormalize
	// ModeFoodCheck asks whether a name is a real food.
	ModeFoodCheck
)

func (m Mode) String() string {
	switch m {
	case ModeQuestion:
		return "question"
	case ModeAssign:
		return "assign"
	case ModeConfirm:
		return "confirm"
	case ModeNormalize:
		return "normalize"
	case ModeFoodCheck:
		return "food_check"
	default:
		return "unknown"
	}
}

// Request is one call to the extractor.
type Request struct {
	Mode         Mode
	Field        fields.Key // set for ModeNormalize and ModeFoodCheck
	Instructions string
	Dialogue     []foodagent.Message
}

// Extractor is the language capability consumed by the engine. Its output is
// untrusted text.
type Extractor interface {
	Extract(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Extractor.
type Func func(ctx context.Context, req Request) (string, error)

// Extract implements Extractor.
func (f Func) Extract(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
