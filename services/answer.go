package services

import (
	"context"
	"fmt"
	"strings"

	"drive-rag-chatbot/internal/ai"
	"drive-rag-chatbot/internal/logger"
	"drive-rag-chatbot/models"
)

// Generator is the language-model collaborator.
type Generator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// Fixed user-facing replies. Every failure mode of a query resolves to one
// of these or to generated text; raw errors never reach the HTTP caller.
const (
	MsgEmptyQuery  = "Please enter a question."
	MsgUnavailable = "AI services are not configured. Set GEMINI_API_KEY to enable answers."
	MsgQueryFailed = "Sorry, there was an error processing your question. Please try again."
	MsgQuota       = "The AI service is over its quota right now. Please try again in a few minutes."
	MsgTransient   = "The AI service is temporarily unavailable. Please try again."

	generalDisclaimer = "Note: no relevant content was found in your selected documents, so this answer is based on general knowledge."
)

// AnswerSynthesizer combines retrieved chunks with the user query into one
// generation request, or falls back to unconditioned generation when
// retrieval came back empty.
type AnswerSynthesizer struct {
	generator Generator // nil when no language model is configured
}

func NewAnswerSynthesizer(generator Generator) *AnswerSynthesizer {
	return &AnswerSynthesizer{generator: generator}
}

// Available reports whether a language model is configured at all.
func (as *AnswerSynthesizer) Available() bool {
	return as.generator != nil
}

// Answer produces the final reply for one query. Exactly one branch runs:
// validation, unconfigured, grounded synthesis, or general fallback.
func (as *AnswerSynthesizer) Answer(ctx context.Context, query string, results []models.ScoredChunk) string {
	if strings.TrimSpace(query) == "" {
		return MsgEmptyQuery
	}
	if as.generator == nil {
		return MsgUnavailable
	}
	if len(results) == 0 {
		return as.generalAnswer(ctx, query)
	}

	answer, err := as.generator.GenerateAnswer(ctx, buildGroundedPrompt(query, results))
	if err != nil {
		logger.Error("grounded generation failed", "error", err)
		return MsgQueryFailed
	}
	answer = strings.TrimSpace(answer)

	// The model sometimes answers "I don't know" (or near-nothing) even with
	// context; treat that the same as finding no relevant content.
	if strings.Contains(answer, "I don't know") || len(answer) < 50 {
		return as.generalAnswer(ctx, query)
	}

	return answer + sourceSuffix(results)
}

func (as *AnswerSynthesizer) generalAnswer(ctx context.Context, query string) string {
	answer, err := as.generator.GenerateAnswer(ctx, query)
	if err != nil {
		logger.Error("general generation failed", "error", err)
		return MsgQueryFailed
	}
	return strings.TrimSpace(answer) + "\n\n" + generalDisclaimer
}

// buildGroundedPrompt assembles the context block in rank order, each chunk
// labeled with its source name.
func buildGroundedPrompt(query string, results []models.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Based on the following context:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "Context %d (from %s):\n%s\n\n", i+1, r.Chunk.DisplayName, r.Chunk.Text)
	}
	fmt.Fprintf(&b, "Please answer this question: %s", query)
	return b.String()
}

// sourceSuffix appends attribution: distinct source names when there are at
// most three, otherwise just their count.
func sourceSuffix(results []models.ScoredChunk) string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range results {
		if !seen[r.Chunk.DisplayName] {
			seen[r.Chunk.DisplayName] = true
			names = append(names, r.Chunk.DisplayName)
		}
	}
	if len(names) == 0 {
		return ""
	}
	if len(names) <= 3 {
		return "\n\nSources: " + strings.Join(names, ", ")
	}
	return fmt.Sprintf("\n\nSources: %d documents", len(names))
}

// UserMessageForError maps a typed AI-service failure to a user-safe,
// retry-suggesting reply. Full detail stays in the log.
func UserMessageForError(err error) string {
	switch {
	case ai.IsQuota(err):
		return MsgQuota
	case ai.IsAuth(err):
		return MsgUnavailable
	default:
		return MsgTransient
	}
}
