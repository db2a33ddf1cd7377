package ai

import "context"

// Turn is one prior exchange in a chat session.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// TextGenerator generates a reply from a system prompt, prior turns, and the
// latest user message.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt string, history []Turn, userMessage string) (string, error)
}
