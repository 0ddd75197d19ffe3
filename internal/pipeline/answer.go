package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/pdfchat-go/internal/budget"
	"github.com/54b3r/pdfchat-go/internal/logging"
	"github.com/54b3r/pdfchat-go/internal/rag"
	"github.com/54b3r/pdfchat-go/internal/session"
)

// RefusalAnswer is the exact answer returned when the document does not
// contain the requested information. The system prompt instructs the model
// to emit it verbatim, and it is returned directly when retrieval finds
// nothing at all.
const RefusalAnswer = "I could not find the answer in the document."

// answerSystemPrompt constrains the model to the retrieved document context.
const answerSystemPrompt = `You are a helpful assistant that answers questions about an uploaded document.

Answer using ONLY the document excerpts provided by the user. Do not use outside knowledge.
If the excerpts do not contain the information needed to answer, reply with exactly:
` + RefusalAnswer

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// Answerer runs the question flow: resolve the session, retrieve the most
// relevant chunks from its namespace, and generate a grounded answer with
// one chat-model call.
type Answerer struct {
	embedder rag.Embedder
	store    rag.VectorStore
	registry session.Registry
	chat     model.BaseChatModel
	locks    *session.KeyedMutex

	topK             int
	maxContextTokens int
}

// NewAnswerer constructs an Answerer from its collaborators. topK falls
// back to [DefaultTopK] when zero; maxContextTokens falls back to
// [budget.DefaultMaxContextTokens]. locks may be shared with a Teardown so
// answering never interleaves with teardown on the same session; nil gets a
// private mutex.
func NewAnswerer(embedder rag.Embedder, store rag.VectorStore, registry session.Registry, chat model.BaseChatModel, locks *session.KeyedMutex, topK, maxContextTokens int) (*Answerer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("pipeline: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: vector store must not be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("pipeline: registry must not be nil")
	}
	if chat == nil {
		return nil, fmt.Errorf("pipeline: chat model must not be nil")
	}
	if locks == nil {
		locks = session.NewKeyedMutex()
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxContextTokens <= 0 {
		maxContextTokens = budget.DefaultMaxContextTokens
	}
	return &Answerer{
		embedder:         embedder,
		store:            store,
		registry:         registry,
		chat:             chat,
		locks:            locks,
		topK:             topK,
		maxContextTokens: maxContextTokens,
	}, nil
}

// Answer resolves sessionID, retrieves context, and generates an answer.
// Unknown sessions surface session.ErrNotFound unchanged so transports can
// map it to their own not-found responses. The per-session lock is held for
// the whole flow, so a concurrent teardown either runs entirely before (the
// lookup then reports not found) or entirely after the answer.
func (a *Answerer) Answer(ctx context.Context, sessionID, question string) (string, error) {
	a.locks.Lock(sessionID)
	defer a.locks.Unlock(sessionID)

	if _, err := a.registry.Lookup(ctx, sessionID); err != nil {
		return "", err
	}

	embeddings, err := a.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", fmt.Errorf("pipeline: embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return "", fmt.Errorf("pipeline: embedder returned empty result for question")
	}

	docs, err := a.store.Search(ctx, sessionID, embeddings[0], a.topK)
	if err != nil {
		return "", fmt.Errorf("pipeline: vector search: %w", err)
	}
	if len(docs) == 0 {
		// Nothing indexed matches at all — no model call needed.
		return RefusalAnswer, nil
	}

	reserved := budget.Estimate(answerSystemPrompt) + budget.Estimate(question) + 32
	before := len(docs)
	docs = budget.TrimContext(docs, reserved, a.maxContextTokens)
	if dropped := before - len(docs); dropped > 0 {
		logging.FromContext(ctx).Warn("budget: dropped retrieved chunks to fit context window",
			slog.String("session_id", sessionID),
			slog.Int("dropped", dropped),
			slog.Int("retained", len(docs)),
		)
	}

	messages := []*schema.Message{
		schema.SystemMessage(answerSystemPrompt),
		schema.UserMessage(buildQuestionPrompt(docs, question)),
	}

	reply, err := a.chat.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("pipeline: generate answer: %w", err)
	}

	answer := strings.TrimSpace(reply.Content)
	if answer == "" {
		return RefusalAnswer, nil
	}
	return answer, nil
}

// buildQuestionPrompt formats the retrieved excerpts and the question into a
// single user message.
func buildQuestionPrompt(docs []rag.Document, question string) string {
	var b strings.Builder
	b.WriteString("Document excerpts:\n\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "[Excerpt %d]\n%s\n\n", i+1, d.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
