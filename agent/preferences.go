package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chronos-hq/chronos-agent/llm"
)

const preferencesSystemPrompt = `You are a preferences analyzer for a calendar application. Your task is to convert natural language preferences into strict time-based rules.

For each preference, extract:
1. The type of activity (work, social, etc.)
2. The time constraints (start time and end time, 24-hour "HH:MM")
3. The days it applies to (lowercase weekday names)
4. Whether it's a blocking rule (prevents other activities) or a preference

Output the rules in a structured JSON format like this:
{
    "rules": [
        {
            "activity": "work_calls",
            "start_time": "06:00",
            "end_time": "16:00",
            "days": ["monday", "tuesday", "wednesday", "thursday", "friday"],
            "blocking": true
        }
    ],
    "dropped": []
}

If a preference is unclear or can't be converted to a rule, do not invent a rule for it; instead add the original statement verbatim to the "dropped" array.`

// PreferenceCompiler maps free-text availability statements into structured
// rules. One generation call per batch of statements; no retry on malformed
// JSON, since compiled rules are advisory input to synthesis.
type PreferenceCompiler struct {
	llm    llm.Service
	model  string
	logger *zap.Logger
}

// NewPreferenceCompiler creates a new preference compiler
func NewPreferenceCompiler(llmService llm.Service, model string, logger *zap.Logger) *PreferenceCompiler {
	return &PreferenceCompiler{
		llm:    llmService,
		model:  model,
		logger: logger,
	}
}

// Compile converts the statements into rules. The returned value reports
// both the mapped rules and the statements the compiler dropped, so no
// constraint is lost silently. An empty statement list compiles to an
// empty rule set without a generation call.
func (p *PreferenceCompiler) Compile(ctx context.Context, statements []string) (*CompiledPreferences, error) {
	if len(statements) == 0 {
		return &CompiledPreferences{Rules: []PreferenceRule{}}, nil
	}

	var b strings.Builder
	for _, statement := range statements {
		fmt.Fprintf(&b, "- %s\n", statement)
	}

	response, err := p.llm.Generate(ctx, llm.GenerateRequest{
		System: preferencesSystemPrompt,
		User:   fmt.Sprintf("Convert these preferences to rules:\n%s", b.String()),
		Model:  p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("preference compilation failed: %w", err)
	}

	obj, err := decodeJSONObject(response)
	if err != nil {
		p.logger.Warn("preference compiler returned malformed JSON",
			zap.String("component", "preference-compiler"),
			zap.Error(err))
		return nil, fmt.Errorf("preference compilation returned malformed JSON: %w", err)
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode compiled preferences: %w", err)
	}

	var compiled CompiledPreferences
	if err := json.Unmarshal(raw, &compiled); err != nil {
		return nil, fmt.Errorf("failed to decode compiled preferences: %w", err)
	}
	if compiled.Rules == nil {
		compiled.Rules = []PreferenceRule{}
	}

	p.logger.Debug("compiled preferences",
		zap.String("component", "preference-compiler"),
		zap.Int("ruleCount", len(compiled.Rules)),
		zap.Int("droppedCount", len(compiled.Dropped)))

	return &compiled, nil
}
