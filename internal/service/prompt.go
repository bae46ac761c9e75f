package service

import (
	"strings"

	"github.com/askadoc/askadoc/internal/domain"
)

// FallbackAnswer is the literal sentence the assistant must return when the
// answer is absent from the supplied context. The verifier depends on this
// exact string; do not reword it.
const FallbackAnswer = "The answer is not found in the document."

const groundingInstructions = "You are a document question answering assistant.\n" +
	"You must answer ONLY using the information present in the provided document context below.\n" +
	"If the answer is not explicitly present in the document, you MUST reply with: 'The answer is not found in the document.'\n" +
	"You are NOT allowed to use any outside knowledge, make assumptions, or provide general information.\n" +
	"If the user asks anything not covered in the document, you must reply: 'The answer is not found in the document.'\n" +
	"When providing code examples, JSON, or any structured data, always format them using markdown code blocks with appropriate language tags.\n" +
	"For example: ```python for code, ```json for JSON, ```javascript for JavaScript, etc.\n\n" +
	"Document Context:\n"

// BuildPrompt assembles the two-message sequence sent to the language model:
// a system message carrying the grounding instructions plus the context
// chunks joined with newlines (highest relevance first), and a user message
// carrying the question verbatim.
func BuildPrompt(contextChunks []string, question string) []domain.PromptMessage {
	return []domain.PromptMessage{
		{
			Role:    domain.RoleSystem,
			Content: groundingInstructions + strings.Join(contextChunks, "\n"),
		},
		{
			Role:    domain.RoleUser,
			Content: question,
		},
	}
}
