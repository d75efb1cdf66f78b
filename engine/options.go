package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/creastat/foodagent/fields"
	"github.com/creastat/foodagent/session"
)

// DefaultMaxAttempts is the number of free-text rounds before the funnel takes over.
const DefaultMaxAttempts = 7

// Dialogue sent to the extractor is capped at these limits.
const (
	DefaultHistoryMessages = 40
	DefaultHistoryTokens   = 4000
)

// AttemptPolicy decides which free-text rounds count toward the retry bound.
type AttemptPolicy int

const (
	// AttemptsEveryRound counts every processed round that does not complete
	// the record, including malformed and unrecognized extractions.
	AttemptsEveryRound AttemptPolicy = iota
	// AttemptsExtractedOnly skips rounds whose extraction was malformed.
	AttemptsExtractedOnly
)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLocker shares a per-session locker between engines.
func WithLocker(l *session.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithMaxAttempts sets the free-text retry bound.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) { e.maxAttempts = n }
}

// WithAttemptPolicy sets how rounds are counted.
func WithAttemptPolicy(p AttemptPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithNameChecker sets the food-name check used by the funnel.
func WithNameChecker(c fields.NameChecker) Option {
	return func(e *Engine) { e.names = c }
}

// WithHistoryLimits caps the dialogue passed to the extractor.
func WithHistoryLimits(messages, tokens int) Option {
	return func(e *Engine) {
		e.historyMessages = messages
		e.historyTokens = tokens
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}
