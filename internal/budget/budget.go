// Package budget provides token budget estimation and context trimming for
// prompt assembly. Because multiple LLM backends with different tokenizers
// are supported, this package uses a conservative character-based heuristic:
// 1 token ≈ 4 characters (English prose). This deliberately under-estimates
// token counts to leave headroom for model-specific overhead.
package budget

import (
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/pdfchat-go/internal/rag"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English prose; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models while leaving
	// room for the answer.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimContext drops retrieved documents from the tail of docs until the
// estimated token count of reserved + remaining documents fits within
// maxTokens. Retrieval returns documents ordered by descending similarity,
// so the tail holds the least relevant chunks.
//
// reserved is the token cost of everything else in the prompt (instructions
// and the question). If even a single document cannot fit, the highest
// scoring document is kept anyway so the model always sees some context.
func TrimContext(docs []rag.Document, reserved, maxTokens int) []rag.Document {
	if len(docs) == 0 {
		return docs
	}

	total := reserved
	for _, d := range docs {
		total += Estimate(d.Content)
	}
	for len(docs) > 1 && total > maxTokens {
		total -= Estimate(docs[len(docs)-1].Content)
		docs = docs[:len(docs)-1]
	}
	return docs
}
