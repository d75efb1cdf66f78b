package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/creastat/foodagent/extract"
	"github.com/creastat/foodagent/fields"
	"github.com/creastat/foodagent/inventory"
	"github.com/creastat/foodagent/session"
)

// collect runs one free-text round: extract a field=value pair, store it,
// confirm and commit once every slot is filled, and hand over to the funnel
// when the retry bound is reached.
func (e *Engine) collect(ctx context.Context, st *session.State, text string) Reply {
	if st.Phase == session.PhaseAwaitingFirstPrompt {
		st.Phase = session.PhaseCollecting
	}

	raw, err := e.extractor.Extract(ctx, extract.Request{
		Mode:         extract.ModeAssign,
		Instructions: extract.AssignInstructions(st.Fields, st.LastPrompt, text),
		Dialogue:     e.dialogue(st),
	})
	res := extract.Classify(raw, err)

	var notice string
	switch res.Kind {
	case extract.KindFailed:
		e.logger.Warn("assignment extraction failed",
			zap.String("session", st.ID),
			zap.Error(res.Err))
		return Reply{Text: msgRetry}
	case extract.KindMalformed:
		e.logger.Debug("malformed extraction", zap.String("session", st.ID), zap.String("raw", res.Raw))
		notice = msgMalformed
	case extract.KindUnrecognized:
		e.logger.Debug("unrecognized field", zap.String("session", st.ID), zap.String("field", res.Name))
		notice = fmt.Sprintf(msgUnrecognized, res.Name)
	case extract.KindAssigned:
		st.Set(res.Field, fields.Canonicalize(res.Field, res.Value))
	}

	if st.Filled() {
		r, done := e.confirm(ctx, st)
		if done {
			return r
		}
		notice = r.Text
	}

	if e.counts(res.Kind) {
		st.AttemptCount++
	}
	if st.AttemptCount >= e.maxAttempts {
		return e.startFunnel(st)
	}

	return Reply{Text: joinLines(notice, e.question(ctx, st, false))}
}

func (e *Engine) counts(k extract.Kind) bool {
	if e.policy == AttemptsExtractedOnly {
		return k != extract.KindMalformed
	}
	return true
}

// confirm runs the confirmation step on a filled session. done is false when
// collection must continue; the reply text then explains why.
func (e *Engine) confirm(ctx context.Context, st *session.State) (r Reply, done bool) {
	st.Phase = session.PhaseConfirming

	if bad := invalidFields(st); len(bad) > 0 {
		st.Phase = session.PhaseCollecting
		return Reply{Text: fmt.Sprintf(msgInvalidFields, strings.Join(bad, ", "))}, false
	}

	answer, err := e.extractor.Extract(ctx, extract.Request{
		Mode:         extract.ModeConfirm,
		Instructions: extract.ConfirmInstructions(st.Fields),
	})
	if err != nil {
		e.logger.Warn("confirmation failed", zap.String("session", st.ID), zap.Error(err))
		return Reply{Text: msgRetry}, true
	}
	if !extract.IsYes(answer) {
		e.logger.Info("confirmation declined", zap.String("session", st.ID), zap.String("answer", answer))
		st.Phase = session.PhaseCollecting
		return Reply{Text: msgNotConfirmed}, false
	}

	return e.commit(ctx, st), true
}

// commit hands the record to the inventory. On failure the session stays
// where it is and the next text turn tries again.
func (e *Engine) commit(ctx context.Context, st *session.State) Reply {
	item, err := inventory.ItemFromFields(st.Fields, st.Caller)
	if err != nil {
		e.logger.Error("commit with invalid record", zap.String("session", st.ID), zap.Error(err))
		return Reply{Text: msgRetry, Err: err}
	}

	desc, err := e.committer.Commit(ctx, item)
	if err != nil {
		err = inventory.AsStorageError("commit", err)
		e.logger.Error("inventory commit failed",
			zap.String("session", st.ID),
			zap.String("name", item.Name),
			zap.Error(err))
		return Reply{Text: fmt.Sprintf(msgStorageFailed, item.Name), Err: err}
	}

	st.Completed = true
	st.Phase = session.PhaseCompleted
	return Reply{Text: fmt.Sprintf(msgCompleted, desc)}
}

// question asks the extractor for the next question, falling back to a fixed
// prompt when the call fails.
func (e *Engine) question(ctx context.Context, st *session.State, opening bool) string {
	q, err := e.extractor.Extract(ctx, extract.Request{
		Mode:         extract.ModeQuestion,
		Instructions: extract.QuestionInstructions(st.Fields, opening),
		Dialogue:     e.dialogue(st),
	})
	q = strings.TrimSpace(q)
	if err == nil && q != "" {
		return q
	}

	e.logger.Warn("question generation failed", zap.String("session", st.ID), zap.Error(err))
	if opening {
		return msgOpening
	}
	for _, k := range fields.FallbackOrder() {
		if _, ok := st.Value(k); !ok {
			return fields.MustLookup(k).Prompt
		}
	}
	return msgNext
}

func invalidFields(st *session.State) []string {
	var bad []string
	for _, k := range fields.All() {
		v, _ := st.Value(k)
		if err := fields.Validate(k, v); err != nil {
			bad = append(bad, k.Label())
		}
	}
	return bad
}

func joinLines(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
