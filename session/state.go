package session

import (
	"maps"
	"slices"
	"time"

	"github.com/creastat/foodagent"
	"github.com/creastat/foodagent/fields"
)

// Mode says which collector owns a session.
type Mode string

const (
	ModeFreeText Mode = "free_text"
	ModeFallback Mode = "fallback"
)

// Phase is the position of a free-text session in its state machine.
type Phase string

const (
	PhaseAwaitingFirstPrompt Phase = "awaiting_first_prompt"
	PhaseCollecting          Phase = "collecting"
	PhaseConfirming          Phase = "confirming"
	PhaseCompleted           Phase = "completed"
)

// State is the serialisable progress of one food-intake dialogue.
//
// Fields holds only slots that have been set; absence means "not provided yet".
// AttemptCount never decreases. FunnelStep indexes fields.FallbackOrder while
// Mode is ModeFallback. Caller is opaque context forwarded to the inventory.
type State struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"` // Monotonically increasing for optimistic locking

	Fields       map[fields.Key]string `json:"fields"`
	AttemptCount int                   `json:"attempt_count"`
	Completed    bool                  `json:"completed"`
	Mode         Mode                  `json:"mode"`
	Phase        Phase                 `json:"phase"`
	FunnelStep   int                   `json:"funnel_step"`
	LastPrompt   string                `json:"last_prompt"`
	Log          []foodagent.Message   `json:"dialogue_log"`
	Caller       map[string]string     `json:"caller,omitempty"`
}

// NewState returns an empty free-text session.
func NewState(id string) *State {
	return &State{
		ID:     id,
		Fields: make(map[fields.Key]string),
		Mode:   ModeFreeText,
		Phase:  PhaseAwaitingFirstPrompt,
	}
}

// Set assigns a slot, replacing any previous value.
func (s *State) Set(k fields.Key, v string) {
	if s.Fields == nil {
		s.Fields = make(map[fields.Key]string)
	}
	s.Fields[k] = v
}

// Value returns a slot value and whether it has been provided.
func (s *State) Value(k fields.Key) (string, bool) {
	v, ok := s.Fields[k]
	return v, ok
}

// Missing lists the unset slots in declaration order.
func (s *State) Missing() []fields.Key {
	var out []fields.Key
	for _, k := range fields.All() {
		if _, ok := s.Fields[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Filled reports whether all six slots are set.
func (s *State) Filled() bool {
	return len(s.Missing()) == 0
}

// Append adds a dialogue turn.
func (s *State) Append(role, text string, now time.Time) {
	s.Log = foodagent.AddMessageToHistory(s.Log, role, text, now)
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Fields = maps.Clone(s.Fields)
	if c.Fields == nil {
		c.Fields = make(map[fields.Key]string)
	}
	c.Caller = maps.Clone(s.Caller)
	c.Log = slices.Clone(s.Log)
	return &c
}
