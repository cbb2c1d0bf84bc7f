// Package llm provides interfaces and implementations for chat-completion clients.
package llm

import "context"

// Message is one turn of a chat-completion conversation.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Chat defines the interface for chat-completion LLM clients.
type Chat interface {
	// Complete sends the messages and returns the model's reply text.
	// It blocks until the full response is received or an error occurs.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Configured reports whether the client holds a usable credential.
	// Unconfigured clients let callers degrade instead of failing.
	Configured() bool
}
