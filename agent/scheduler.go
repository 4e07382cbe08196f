package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"

	"github.com/chronos-hq/chronos-agent/llm"
)

var emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

// eventSchema is the contract enforced on generation output for synthesis.
// Defaults (timeZone, reminders) are injected after validation, so only the
// fields the model must produce are required here.
var eventSchema = map[string]any{
	"type":     "object",
	"required": []string{"summary", "start", "end"},
	"properties": map[string]any{
		"summary":     map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"location":    map[string]any{"type": "string"},
		"start": map[string]any{
			"type":     "object",
			"required": []string{"dateTime"},
			"properties": map[string]any{
				"dateTime": map[string]any{"type": "string"},
				"timeZone": map[string]any{"type": "string"},
			},
		},
		"end": map[string]any{
			"type":     "object",
			"required": []string{"dateTime"},
			"properties": map[string]any{
				"dateTime": map[string]any{"type": "string"},
				"timeZone": map[string]any{"type": "string"},
			},
		},
		"attendees": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"email"},
				"properties": map[string]any{
					"email": map[string]any{"type": "string"},
				},
			},
		},
		"reminders": map[string]any{"type": "object"},
	},
}

// SchedulingAgent composes intent classification, preference compilation,
// availability aggregation, and contact resolution into one generation
// request, then parses, repairs, and validates the result against the
// event schema
type SchedulingAgent struct {
	classifier   *IntentClassifier
	preferences  *PreferenceCompiler
	availability *AvailabilityAgent
	contacts     *ContactResolver
	llm          llm.Service
	timeZone     string
	location     *time.Location
	temperature  float64
	logger       *zap.Logger
	now          func() time.Time
}

// NewSchedulingAgent creates a new scheduling agent
func NewSchedulingAgent(
	classifier *IntentClassifier,
	preferences *PreferenceCompiler,
	availability *AvailabilityAgent,
	contacts *ContactResolver,
	llmService llm.Service,
	timeZone string,
	location *time.Location,
	temperature float64,
	logger *zap.Logger,
) *SchedulingAgent {
	return &SchedulingAgent{
		classifier:   classifier,
		preferences:  preferences,
		availability: availability,
		contacts:     contacts,
		llm:          llmService,
		timeZone:     timeZone,
		location:     location,
		temperature:  temperature,
		logger:       logger,
		now:          time.Now,
	}
}

// ProgressFunc observes pipeline phases as synthesis moves through them,
// used by the asynchronous scheduling flow to surface stage updates
type ProgressFunc func(phase, message string)

// Synthesize turns a free-text action request plus availability preference
// statements into a schema-valid calendar event, a delete directive, or a
// structured error. Resolution of a delete directive to a concrete event id
// is the caller's responsibility.
func (s *SchedulingAgent) Synthesize(ctx context.Context, actionQuery string, preferences []string) *SynthesisResult {
	return s.SynthesizeWithProgress(ctx, actionQuery, preferences, nil)
}

// SynthesizeWithProgress behaves as Synthesize and reports each pipeline
// phase to progress when non-nil
func (s *SchedulingAgent) SynthesizeWithProgress(ctx context.Context, actionQuery string, preferences []string, progress ProgressFunc) *SynthesisResult {
	report := func(phase, message string) {
		if progress != nil {
			progress(phase, message)
		}
	}

	report("classify", "classifying scheduling intent")
	intent, err := s.classifier.ClassifyOrUnknown(ctx, actionQuery)
	if err != nil {
		return &SynthesisResult{
			Status:  StatusError,
			Message: fmt.Sprintf("intent classification failed: %v", err),
		}
	}

	switch intent {
	case IntentDelete:
		return &SynthesisResult{Status: StatusDelete, Intent: intent, Query: actionQuery}
	case IntentUnknown:
		return &SynthesisResult{
			Status:  StatusError,
			Intent:  intent,
			Message: "could not determine a scheduling intent from the request",
		}
	}

	report("preferences", "compiling availability preferences")
	compiled, err := s.preferences.Compile(ctx, preferences)
	if err != nil {
		// Preference rules are advisory context, not a blocking step
		s.logger.Warn("proceeding without compiled preferences",
			zap.String("component", "scheduling-agent"),
			zap.Error(err))
		compiled = &CompiledPreferences{Rules: []PreferenceRule{}}
	}

	report("availability", "aggregating calendar availability")
	narrative, err := s.availability.Narrative(s.now())
	if err != nil {
		s.logger.Warn("proceeding without availability narrative",
			zap.String("component", "scheduling-agent"),
			zap.Error(err))
		narrative = "Not available"
	}

	contacts := s.contacts.Resolve("")

	report("create", "generating calendar event")
	response, err := s.llm.Generate(ctx, llm.GenerateRequest{
		System:      s.buildSystemPrompt(),
		User:        s.buildUserContent(actionQuery, compiled, narrative, contacts),
		Temperature: s.temperature,
	})
	if err != nil {
		return &SynthesisResult{
			Status:  StatusError,
			Intent:  intent,
			Message: fmt.Sprintf("event generation failed: %v", err),
		}
	}

	event, errResult := s.parseAndValidate(actionQuery, response)
	if errResult != nil {
		errResult.Intent = intent
		return errResult
	}

	s.logger.Info("synthesized event",
		zap.String("component", "scheduling-agent"),
		zap.String("intent", string(intent)),
		zap.String("summary", event.Summary))

	return &SynthesisResult{
		Status:             StatusOK,
		Intent:             intent,
		Event:              event,
		RawResponse:        response,
		DroppedPreferences: compiled.Dropped,
	}
}

func (s *SchedulingAgent) buildSystemPrompt() string {
	now := s.now().In(s.location)
	return fmt.Sprintf(`You are a calendar scheduling assistant. Today's date is %s and the current time is %s in the %s timezone.

Given an action query and user preferences, generate a calendar event in the exact JSON format specified.
Handle relative time expressions like:
- "tomorrow", "next week", "in 3 days"
- "this afternoon", "evening", "morning"
- "next Monday", "this Friday"

Your output must be valid JSON and match this structure exactly:
{
    "summary": "Brief title of event",
    "description": "Detailed description",
    "start": {
        "dateTime": "YYYY-MM-DDTHH:mm:ss-HH:MM",
        "timeZone": "%s"
    },
    "end": {
        "dateTime": "YYYY-MM-DDTHH:mm:ss-HH:MM",
        "timeZone": "%s"
    },
    "location": "Optional location",
    "attendees": [
        {"email": "example@email.com"}
    ],
    "reminders": {
        "useDefault": true
    }
}

Rules:
1. Times must be in exact ISO format with timezone offset
2. Only summary, description, start, and end are required
3. Default duration is 1 hour if not specified
4. Use the %s timezone
5. Extract attendee emails if present
6. Extract location if present
7. Always set reminders.useDefault to true
8. ABOVE ALL, RESPECT THE AVAILABILITY PREFERENCES THAT A USER PROVIDES YOU`,
		now.Format("2006-01-02"), now.Format("15:04:05"), s.timeZone, s.timeZone, s.timeZone, s.timeZone)
}

func (s *SchedulingAgent) buildUserContent(actionQuery string, compiled *CompiledPreferences, narrative string, contacts []Contact) string {
	rulesJSON, err := json.Marshal(compiled.Rules)
	if err != nil {
		rulesJSON = []byte("[]")
	}

	rendered := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		if contact.Name != "" {
			rendered = append(rendered, fmt.Sprintf("%s <%s>", contact.Name, contact.Email))
		} else {
			rendered = append(rendered, contact.Email)
		}
	}
	contactList := "none known"
	if len(rendered) > 0 {
		contactList = strings.Join(rendered, ", ")
	}

	return fmt.Sprintf(`Action: %s
User Preferences: %s
Current Availability: %s
Known Contacts: %s

Generate a calendar event JSON that respects these preferences and availability.`,
		actionQuery, string(rulesJSON), narrative, contactList)
}

// parseAndValidate enforces the event schema on the generation output.
// Failures return a structured error carrying the raw output, never a
// partial or guessed event.
func (s *SchedulingAgent) parseAndValidate(actionQuery, response string) (*calendar.Event, *SynthesisResult) {
	obj, err := decodeJSONObject(response)
	if err != nil {
		return nil, &SynthesisResult{
			Status:      StatusError,
			Message:     fmt.Sprintf("generation output is not a JSON object: %v", err),
			RawResponse: response,
		}
	}

	schemaResult, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(eventSchema),
		gojsonschema.NewGoLoader(obj),
	)
	if err != nil {
		return nil, &SynthesisResult{
			Status:      StatusError,
			Message:     fmt.Sprintf("event schema validation error: %v", err),
			RawResponse: response,
		}
	}
	if !schemaResult.Valid() {
		violations := make([]string, 0, len(schemaResult.Errors()))
		for _, violation := range schemaResult.Errors() {
			violations = append(violations, violation.String())
		}
		return nil, &SynthesisResult{
			Status:      StatusError,
			Message:     fmt.Sprintf("generated event violates the event schema: %s", strings.Join(violations, "; ")),
			RawResponse: response,
		}
	}

	s.applyDefaults(obj, actionQuery)

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, &SynthesisResult{
			Status:      StatusError,
			Message:     fmt.Sprintf("failed to re-encode generated event: %v", err),
			RawResponse: response,
		}
	}

	var event calendar.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, &SynthesisResult{
			Status:      StatusError,
			Message:     fmt.Sprintf("generated event does not decode as a calendar event: %v", err),
			RawResponse: response,
		}
	}

	if errResult := validateInterval(&event, response); errResult != nil {
		return nil, errResult
	}

	return &event, nil
}

// applyDefaults injects the documented defaults: the configured timezone on
// both endpoints, default reminders, and attendees scanned from the action
// query when the generation omitted them entirely
func (s *SchedulingAgent) applyDefaults(obj map[string]any, actionQuery string) {
	for _, key := range []string{"start", "end"} {
		if endpoint, ok := obj[key].(map[string]any); ok {
			if _, ok := endpoint["timeZone"]; !ok {
				endpoint["timeZone"] = s.timeZone
			}
		}
	}

	if _, ok := obj["reminders"]; !ok {
		obj["reminders"] = map[string]any{"useDefault": true}
	}

	if _, ok := obj["attendees"]; !ok {
		matches := emailPattern.FindAllString(actionQuery, -1)
		if len(matches) > 0 {
			attendees := make([]any, 0, len(matches))
			for _, email := range matches {
				attendees = append(attendees, map[string]any{"email": email})
			}
			obj["attendees"] = attendees
		}
	}
}

func validateInterval(event *calendar.Event, response string) *SynthesisResult {
	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return &SynthesisResult{
			Status:      StatusError,
			Message:     fmt.Sprintf("generated start dateTime is not ISO-8601: %v", err),
			RawResponse: response,
		}
	}
	end, err := time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		return &SynthesisResult{
			Status:      StatusError,
			Message:     fmt.Sprintf("generated end dateTime is not ISO-8601: %v", err),
			RawResponse: response,
		}
	}
	if !start.Before(end) {
		return &SynthesisResult{
			Status:      StatusError,
			Message:     "generated event does not start before it ends",
			RawResponse: response,
		}
	}
	return nil
}
