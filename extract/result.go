package extract

import (
	"fmt"
	"strings"

	"github.com/creastat/foodagent"
	"github.com/creastat/foodagent/fields"
)

// Kind tags the outcome of an assignment extraction.
type Kind int

const (
	KindAssigned Kind = iota
	KindMalformed
	KindUnrecognized
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindAssigned:
		return "assigned"
	case KindMalformed:
		return "malformed"
	case KindUnrecognized:
		return "unrecognized"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of one ModeAssign call.
//
//	KindAssigned:     Field and Value are set
//	KindMalformed:    Raw holds the unparseable text
//	KindUnrecognized: Name holds the unknown field name
//	KindFailed:       Err holds the collaborator error
type Result struct {
	Kind  Kind
	Field fields.Key
	Value string
	Name  string
	Raw   string
	Err   error
}

// Classify turns an extractor response into a Result.
func Classify(raw string, err error) Result {
	if err != nil {
		return Result{Kind: KindFailed, Err: err}
	}
	return ParseAssignment(raw)
}

// ParseAssignment parses "field=value". Code fences, quotes and surrounding
// whitespace are tolerated; the first line holding '=' wins.
func ParseAssignment(raw string) Result {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```text")
	text = strings.Trim(text, "`")

	var line string
	for _, l := range strings.Split(text, "\n") {
		if strings.Contains(l, "=") {
			line = strings.TrimSpace(l)
			break
		}
	}
	if line == "" {
		return Result{Kind: KindMalformed, Raw: raw}
	}

	name, value, _ := strings.Cut(line, "=")
	name = strings.Trim(strings.TrimSpace(name), "\"'`*-")
	value = strings.Trim(strings.TrimSpace(value), "\"'`")
	if name == "" || value == "" {
		return Result{Kind: KindMalformed, Raw: raw}
	}

	key, ok := fields.Parse(name)
	if !ok {
		return Result{Kind: KindUnrecognized, Name: strings.ToLower(name), Raw: raw}
	}
	return Result{Kind: KindAssigned, Field: key, Value: value, Raw: raw}
}

// Error maps the result onto the shared error taxonomy; nil for KindAssigned.
func (r Result) Error() error {
	switch r.Kind {
	case KindMalformed:
		return foodagent.ErrMalformedExtraction
	case KindUnrecognized:
		return fmt.Errorf("%w: %s", foodagent.ErrUnknownField, r.Name)
	case KindFailed:
		return fmt.Errorf("%w: %v", foodagent.ErrCollaborator, r.Err)
	default:
		return nil
	}
}
