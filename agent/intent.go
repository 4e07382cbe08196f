package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chronos-hq/chronos-agent/llm"
)

const intentSystemPrompt = `You are an intent classifier for a calendar application. Your task is to analyze user requests and classify them into one of four possible intents: CREATE, DELETE, EDIT, or UNKNOWN.

Guidelines for classification:
- CREATE: Use when user wants to make a completely new calendar event with no reference to existing events (e.g., "let's meet tomorrow", "schedule a call")
- DELETE: Use when user wants to remove an existing event (e.g., "cancel meeting", "remove appointment")
- EDIT: Use when user wants to modify an existing event or mentions changing times/dates (e.g., "move meeting to 3pm", "instead of tomorrow", "reschedule to Wednesday", "change the time")
- UNKNOWN: Use only if the request doesn't clearly fit the above categories

Key indicators for EDIT:
- Phrases like "instead of", "move to", "change to", "reschedule"
- References to moving from one time/date to another
- Any modification of an implied existing event

Key indicators for CREATE:
- Very simple phrases, that do not imply editing or deleting

You must output EXACTLY ONE of these four words: CREATE, DELETE, EDIT, or UNKNOWN.

Examples:
"Let's have coffee tomorrow" -> CREATE
"Cancel my dentist appointment" -> DELETE
"Move my meeting to 3pm" -> EDIT
"Let's do dinner Wednesday instead of tomorrow" -> EDIT
"What's the weather like?" -> UNKNOWN`

const mutationIntentSystemPrompt = `You are an intent classifier for a calendar application. The user has already selected an existing calendar event, so their request refers to that event. Classify the request into one of three possible intents: EDIT, DELETE, or UNKNOWN.

Guidelines for classification:
- EDIT: Use when user wants to change anything about the selected event (e.g., "move it to 3pm", "rename it", "add Sarah", "make it an hour longer")
- DELETE: Use when user wants to remove the selected event (e.g., "cancel it", "delete this", "get rid of it", "cancel my dentist appointment")
- UNKNOWN: Use only if the request doesn't clearly fit the above categories

You must output EXACTLY ONE of these three words: EDIT, DELETE, or UNKNOWN.

Examples:
"Move it to Friday" -> EDIT
"Cancel my dentist appointment" -> DELETE
"Change the location to the office" -> EDIT
"What's the weather like?" -> UNKNOWN`

// IntentClassifier maps a free-text action request to a fixed label set
type IntentClassifier struct {
	llm     llm.Service
	model   string
	labels  map[Intent]bool
	prompt  string
	logger  *zap.Logger
}

// NewIntentClassifier creates the 4-way classifier used for fresh
// scheduling requests
func NewIntentClassifier(llmService llm.Service, model string, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{
		llm:   llmService,
		model: model,
		labels: map[Intent]bool{
			IntentCreate:  true,
			IntentEdit:    true,
			IntentDelete:  true,
			IntentUnknown: true,
		},
		prompt: intentSystemPrompt,
		logger: logger,
	}
}

// NewMutationClassifier creates the 3-way classifier used when the request
// references an already-selected event. CREATE is deliberately not offered.
func NewMutationClassifier(llmService llm.Service, model string, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{
		llm:   llmService,
		model: model,
		labels: map[Intent]bool{
			IntentEdit:    true,
			IntentDelete:  true,
			IntentUnknown: true,
		},
		prompt: mutationIntentSystemPrompt,
		logger: logger,
	}
}

// Classify sends the utterance to the generation capability and expects
// exactly one label token back. Returns ErrInvalidClassification when the
// response is not in the permitted set.
func (c *IntentClassifier) Classify(ctx context.Context, utterance string) (Intent, error) {
	response, err := c.llm.Generate(ctx, llm.GenerateRequest{
		System: c.prompt,
		User:   utterance,
		Model:  c.model,
	})
	if err != nil {
		return IntentUnknown, fmt.Errorf("intent classification failed: %w", err)
	}

	label := Intent(strings.ToUpper(strings.TrimSpace(stripCodeFences(response))))
	if !c.labels[label] {
		c.logger.Warn("classifier returned label outside the allowed set",
			zap.String("component", "intent-classifier"),
			zap.String("label", string(label)),
			zap.String("utterance", utterance))
		return IntentUnknown, fmt.Errorf("%w: %q", ErrInvalidClassification, label)
	}

	c.logger.Debug("classified intent",
		zap.String("component", "intent-classifier"),
		zap.String("intent", string(label)))

	return label, nil
}

// ClassifyOrUnknown applies the caller policy of treating classification
// contract violations as UNKNOWN rather than errors. Transport failures
// are still returned.
func (c *IntentClassifier) ClassifyOrUnknown(ctx context.Context, utterance string) (Intent, error) {
	intent, err := c.Classify(ctx, utterance)
	if err != nil {
		if errors.Is(err, ErrInvalidClassification) {
			return IntentUnknown, nil
		}
		return IntentUnknown, err
	}
	return intent, nil
}
