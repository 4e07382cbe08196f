package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chronos-hq/chronos-agent/index"
	"github.com/chronos-hq/chronos-agent/llm"
)

const answerSystemPromptTemplate = `You are a calendar assistant. Today's date is %s.

Answer the user's question using ONLY the calendar context provided below. The context consists of paragraphs, each describing several calendar events. If the context does not contain the answer, say you don't know; never invent events.

Calendar context:
%s`

// Answerer answers free-text questions about the calendar by retrieving
// the nearest chunks from the semantic index and phrasing a constrained
// answer with the generation capability
type Answerer struct {
	index    *index.SemanticIndex
	llm      llm.Service
	topK     int
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnswerer creates a new query answerer
func NewAnswerer(semanticIndex *index.SemanticIndex, llmService llm.Service, topK int, location *time.Location, logger *zap.Logger) *Answerer {
	return &Answerer{
		index:    semanticIndex,
		llm:      llmService,
		topK:     topK,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// Answer retrieves the top-k chunks for the question and passes them to
// one generation call. The retrieved paragraphs are advisory context, not
// event identifiers.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	matches := a.index.Search(ctx, question, a.topK)
	if matches == nil {
		return "", fmt.Errorf("calendar search is unavailable")
	}

	retrieved := "No calendar events are indexed."
	if len(matches.Documents) > 0 {
		retrieved = strings.Join(matches.Documents, "\n\n")
	}

	answer, err := a.llm.Generate(ctx, llm.GenerateRequest{
		System: fmt.Sprintf(answerSystemPromptTemplate, a.now().In(a.location).Format("2006-01-02"), retrieved),
		User:   question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to phrase answer: %w", err)
	}

	a.logger.Debug("answered calendar question",
		zap.String("component", "answerer"),
		zap.Int("matchCount", len(matches.Documents)))

	return strings.TrimSpace(answer), nil
}
