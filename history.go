package foodagent

import "time"

// Message roles used in the dialogue log.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single dialogue turn.
type Message struct {
	Role       string    `json:"role"` // "user" or "assistant"
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"` // Estimated tokens
	Timestamp  time.Time `json:"timestamp"`
}

// TruncateHistory trims the dialogue log to the given token and message limits.
// The message limit is applied first, then the oldest messages are dropped until
// the estimated token total fits. Non-positive limits disable the matching check.
func TruncateHistory(history []Message, tokenLimit, messageLimit int) []Message {
	if len(history) == 0 {
		return history
	}

	if messageLimit > 0 && len(history) > messageLimit {
		history = history[len(history)-messageLimit:]
	}
	if tokenLimit <= 0 {
		return history
	}

	totalTokens := 0
	for _, msg := range history {
		totalTokens += msg.TokenCount
	}

	// Keep at least the newest message so the extractor always sees the utterance.
	for totalTokens > tokenLimit && len(history) > 1 {
		totalTokens -= history[0].TokenCount
		history = history[1:]
	}

	return history
}

// AddMessageToHistory appends a message with an estimated token count.
func AddMessageToHistory(history []Message, role, content string, now time.Time) []Message {
	return append(history, Message{
		Role:       role,
		Content:    content,
		TokenCount: EstimateTokens(content),
		Timestamp:  now,
	})
}
