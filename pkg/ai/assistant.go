package ai

import (
	"context"
	"fmt"
	"log/slog"
)

// FallbackReply is shown when the generator fails. Chat failures never
// surface as errors; the document core must keep working without the
// assistant.
const FallbackReply = "Sorry, I encountered an error while processing your request. Please try again later."

const systemPromptTemplate = `You are a helpful assistant integrated into a document management system.
You have access to the content of the document the user is currently viewing.
Use the provided Document Content to answer the user's questions.
If the answer is not in the document, state that clearly unless it's a general question about the document type.
Format your response using Markdown (bold, lists, code blocks) for better readability.

Document Content:
"""
%s
"""`

// Assistant answers questions about a document's text. The document content
// is passed read-only as generation context and is never mutated here.
type Assistant struct {
	generator TextGenerator
}

// NewAssistant wraps a text generator.
func NewAssistant(generator TextGenerator) *Assistant {
	return &Assistant{generator: generator}
}

// Reply generates an answer grounded in the document text. Generator
// failures are logged and replaced with FallbackReply.
func (a *Assistant) Reply(ctx context.Context, history []Turn, documentText, userMessage string) string {
	if a.generator == nil {
		return FallbackReply
	}
	prompt := fmt.Sprintf(systemPromptTemplate, documentText)
	answer, err := a.generator.GenerateText(ctx, prompt, history, userMessage)
	if err != nil {
		slog.Warn("assistant reply failed", "err", err)
		return FallbackReply
	}
	return answer
}
