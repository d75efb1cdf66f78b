package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/creastat/foodagent/extract"
	"github.com/creastat/foodagent/fields"
	"github.com/creastat/foodagent/session"
)

// startFunnel moves a session to the step-by-step walk.
func (e *Engine) startFunnel(st *session.State) Reply {
	st.Mode = session.ModeFallback
	st.Phase = session.PhaseCollecting
	st.FunnelStep = 0
	e.logger.Info("switching to fallback funnel",
		zap.String("session", st.ID),
		zap.Int("attempts", st.AttemptCount))
	return Reply{Text: msgHandoff + fields.MustLookup(fields.FallbackOrder()[0]).Prompt}
}

// funnel handles one answer in fallback mode. Each field is asked until it
// validates; after the last one the record is committed.
func (e *Engine) funnel(ctx context.Context, st *session.State, text string) Reply {
	order := fields.FallbackOrder()
	if st.FunnelStep >= len(order) {
		return e.commit(ctx, st)
	}

	key := order[st.FunnelStep]
	value, retry := e.accept(ctx, st, key, text)
	if retry != "" {
		return Reply{Text: retry + fields.MustLookup(key).Prompt}
	}

	st.Set(key, value)
	st.FunnelStep++
	if st.FunnelStep == len(order) {
		return e.commit(ctx, st)
	}
	return Reply{Text: fields.MustLookup(order[st.FunnelStep]).Prompt}
}

// accept normalises and validates one funnel answer. A non-empty retry
// message means the answer was rejected.
func (e *Engine) accept(ctx context.Context, st *session.State, key fields.Key, text string) (value, retry string) {
	spec := fields.MustLookup(key)
	invalid := fmt.Sprintf(msgInvalidValue, strings.ToLower(spec.Label))
	if key == fields.Name {
		invalid = msgInvalidFood
	}

	value = spec.Canonicalize(text)
	if err := spec.Validate(value); err != nil {
		out, err := e.extractor.Extract(ctx, extract.Request{
			Mode:         extract.ModeNormalize,
			Field:        key,
			Instructions: extract.NormalizeInstructions(key, text),
		})
		if err != nil {
			e.logger.Warn("normalisation failed", zap.String("session", st.ID), zap.Stringer("field", key), zap.Error(err))
			return "", invalid
		}
		value = spec.Canonicalize(out)
		if err := spec.Validate(value); err != nil {
			e.logger.Debug("funnel answer rejected", zap.String("session", st.ID), zap.Error(err))
			return "", invalid
		}
	}

	if key == fields.Name && e.names != nil {
		ok, err := e.names.IsFood(ctx, value)
		if err != nil {
			e.logger.Warn("food name check failed", zap.String("session", st.ID), zap.Error(err))
			return "", msgCheckUnavailable
		}
		if !ok {
			return "", invalid
		}
	}
	return value, ""
}
