// Package engine drives the food intake dialogue: it fills six slots from
// free text, confirms and commits the record, and falls back to a fixed
// field-by-field walk when free text keeps failing.
package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/creastat/foodagent"
	"github.com/creastat/foodagent/extract"
	"github.com/creastat/foodagent/fields"
	"github.com/creastat/foodagent/inventory"
	"github.com/creastat/foodagent/session"
)

// ErrEmptySessionID is returned for turns without a session ID.
var ErrEmptySessionID = errors.New("session id is required")

// Turn is one inbound dialogue turn. A nil Text asks for the current prompt.
type Turn struct {
	SessionID string
	Text      *string
	Caller    map[string]string // opaque, forwarded to the inventory
}

// Say is a convenience for building a Turn with text.
func Say(id, text string) Turn {
	return Turn{SessionID: id, Text: &text}
}

// Ask builds a Turn without text.
func Ask(id string) Turn {
	return Turn{SessionID: id}
}

// Reply is the engine's answer to a turn.
type Reply struct {
	Text     string
	Complete bool
	Phase    session.Phase
	Mode     session.Mode
	// Err is set when the inventory commit failed; Text is still safe to show.
	Err error
}

// Engine runs dialogue steps. It is safe for concurrent use; turns for the
// same session are serialised.
type Engine struct {
	store     session.Store
	extractor extract.Extractor
	committer inventory.Committer
	locker    *session.Locker
	names     fields.NameChecker
	logger    *zap.Logger

	maxAttempts     int
	policy          AttemptPolicy
	historyMessages int
	historyTokens   int
	now             func() time.Time
}

// New creates an Engine.
func New(store session.Store, ex extract.Extractor, c inventory.Committer, opts ...Option) (*Engine, error) {
	if store == nil || ex == nil || c == nil {
		return nil, fmt.Errorf("engine: store, extractor and committer are required")
	}
	e := &Engine{
		store:           store,
		extractor:       ex,
		committer:       c,
		logger:          zap.NewNop(),
		maxAttempts:     DefaultMaxAttempts,
		historyMessages: DefaultHistoryMessages,
		historyTokens:   DefaultHistoryTokens,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locker == nil {
		e.locker = session.NewLocker()
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = DefaultMaxAttempts
	}
	return e, nil
}

// Step advances one session by one turn. The returned error covers
// infrastructure failures only; recoverable problems are reported in Reply.
func (e *Engine) Step(ctx context.Context, turn Turn) (Reply, error) {
	if turn.SessionID == "" {
		return Reply{}, ErrEmptySessionID
	}

	unlock, err := e.locker.Lock(ctx, turn.SessionID)
	if err != nil {
		return Reply{}, err
	}
	defer unlock()

	st, err := e.load(ctx, turn)
	if err != nil {
		return Reply{}, err
	}

	if turn.Text == nil {
		return e.prompt(ctx, st)
	}

	text := strings.TrimSpace(*turn.Text)
	st.Append(foodagent.RoleUser, text, e.now())

	var r Reply
	if st.Mode == session.ModeFallback {
		r = e.funnel(ctx, st, text)
	} else {
		r = e.collect(ctx, st, text)
	}

	return e.finish(ctx, st, r)
}

// Cancel discards a session. Unknown IDs are ignored.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}
	unlock, err := e.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("cancel session %s: %w", id, err)
	}
	e.logger.Info("session cancelled", zap.String("session", id))
	return nil
}

// Peek returns a copy of a session's state, or nil if there is none.
func (e *Engine) Peek(ctx context.Context, id string) (*session.State, error) {
	unlock, err := e.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.Clone(), nil
}

func (e *Engine) load(ctx context.Context, turn Turn) (*session.State, error) {
	st, err := e.store.Get(ctx, turn.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", turn.SessionID, err)
	}
	if st != nil {
		if len(turn.Caller) > 0 {
			if st.Caller == nil {
				st.Caller = make(map[string]string, len(turn.Caller))
			}
			maps.Copy(st.Caller, turn.Caller)
		}
		return st, nil
	}

	st = session.NewState(turn.SessionID)
	st.Caller = maps.Clone(turn.Caller)
	if err := e.store.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create session %s: %w", turn.SessionID, err)
	}
	e.logger.Info("session created", zap.String("session", st.ID))
	return st, nil
}

// prompt answers a text-less turn. Once a prompt exists it is returned
// unchanged and nothing is written.
func (e *Engine) prompt(ctx context.Context, st *session.State) (Reply, error) {
	if st.LastPrompt != "" {
		return e.reply(st, Reply{Text: st.LastPrompt}), nil
	}

	question := e.question(ctx, st, true)
	st.Phase = session.PhaseCollecting
	return e.finish(ctx, st, Reply{Text: question})
}

// finish records the reply in the log and persists or destroys the session.
func (e *Engine) finish(ctx context.Context, st *session.State, r Reply) (Reply, error) {
	if st.Completed {
		if err := e.store.Delete(ctx, st.ID); err != nil {
			// the record is committed; a leftover session only lingers until TTL
			e.logger.Error("delete completed session", zap.String("session", st.ID), zap.Error(err))
		}
		e.logger.Info("session completed", zap.String("session", st.ID))
		return e.reply(st, r), nil
	}

	st.Append(foodagent.RoleAssistant, r.Text, e.now())
	st.LastPrompt = r.Text
	if err := e.store.Update(ctx, st); err != nil {
		return Reply{}, fmt.Errorf("save session %s: %w", st.ID, err)
	}
	return e.reply(st, r), nil
}

func (e *Engine) reply(st *session.State, r Reply) Reply {
	r.Phase = st.Phase
	r.Mode = st.Mode
	r.Complete = st.Completed
	return r
}

func (e *Engine) dialogue(st *session.State) []foodagent.Message {
	return foodagent.TruncateHistory(st.Log, e.historyTokens, e.historyMessages)
}
