package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"

	"github.com/chronos-hq/chronos-agent/eventfmt"
	"github.com/chronos-hq/chronos-agent/google"
	"github.com/chronos-hq/chronos-agent/llm"
)

// allowedEditFields is the fixed permitted set for LLM-resolved edits. Any
// field outside this set rejects the whole edit.
var allowedEditFields = map[string]bool{
	"summary":     true,
	"description": true,
	"start":       true,
	"end":         true,
	"location":    true,
	"attendees":   true,
}

const editSystemPromptTemplate = `You are a calendar editing assistant. Today's date is %s in the %s timezone.

You are given the current state of a calendar event and a requested change. Respond with a JSON object containing ONLY the fields that change, using the Google Calendar event schema:
- "summary": string
- "description": string
- "start": {"dateTime": "YYYY-MM-DDTHH:mm:ss-HH:MM", "timeZone": "%s"}
- "end": {"dateTime": "YYYY-MM-DDTHH:mm:ss-HH:MM", "timeZone": "%s"}
- "location": string
- "attendees": [{"email": "example@email.com"}]

Rules:
1. Include ONLY fields that the request changes. Do not repeat unchanged fields.
2. Never include any field not listed above.
3. Times must be in exact ISO format with timezone offset.`

// MutationExecutor performs create/edit/delete mutations against the
// calendar provider. Provider failures become structured error results;
// callers never see raw provider errors.
type MutationExecutor struct {
	calendar   google.CalendarService
	calendarID string
	llm        llm.Service
	timeZone   string
	location   *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// NewMutationExecutor creates a new mutation executor
func NewMutationExecutor(calendarService google.CalendarService, calendarID string, llmService llm.Service, timeZone string, location *time.Location, logger *zap.Logger) *MutationExecutor {
	return &MutationExecutor{
		calendar:   calendarService,
		calendarID: calendarID,
		llm:        llmService,
		timeZone:   timeZone,
		location:   location,
		logger:     logger,
		now:        time.Now,
	}
}

// Create inserts a synthesized event into the calendar
func (e *MutationExecutor) Create(event *calendar.Event) Result {
	created, err := e.calendar.CreateEvent(e.calendarID, event)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to create event: %v", err)}
	}
	return Result{
		Status:   StatusSuccess,
		Message:  "event created",
		EventID:  created.Id,
		Summary:  created.Summary,
		HTMLLink: created.HtmlLink,
	}
}

// Delete removes an event by id. A provider-side not-found is reported as
// an error result, not raised and not silently succeeded.
func (e *MutationExecutor) Delete(eventID string) Result {
	if err := e.calendar.DeleteEvent(e.calendarID, eventID); err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to delete event: %v", err), EventID: eventID}
	}
	return Result{Status: StatusSuccess, Message: "event deleted", EventID: eventID}
}

// Edit fetches the current event, applies patch as a shallow field
// overwrite (patch values replace existing field values, never merge),
// and writes the result back
func (e *MutationExecutor) Edit(eventID string, patch map[string]any) Result {
	current, err := e.calendar.GetEvent(e.calendarID, eventID)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to fetch event for edit: %v", err), EventID: eventID}
	}

	patched, err := applyPatch(current, patch)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to apply edit: %v", err), EventID: eventID}
	}

	updated, err := e.calendar.UpdateEvent(e.calendarID, eventID, patched)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to update event: %v", err), EventID: eventID}
	}

	return Result{
		Status:   StatusSuccess,
		Message:  "event updated",
		EventID:  updated.Id,
		Summary:  updated.Summary,
		HTMLLink: updated.HtmlLink,
	}
}

// ResolveAndEdit resolves a free-text edit request into a field patch via
// one generation call constrained to the edit allow-list, then behaves as
// Edit. A single field outside the allow-list rejects the whole edit with
// the offending fields named; there is no field-level filtering.
func (e *MutationExecutor) ResolveAndEdit(ctx context.Context, eventID, freeTextEditRequest string) Result {
	current, err := e.calendar.GetEvent(e.calendarID, eventID)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to fetch event for edit: %v", err), EventID: eventID}
	}

	now := e.now().In(e.location)
	response, err := e.llm.Generate(ctx, llm.GenerateRequest{
		System: fmt.Sprintf(editSystemPromptTemplate, now.Format("2006-01-02"), e.timeZone, e.timeZone, e.timeZone),
		User: fmt.Sprintf("Current event: %s\nRequested change: %s",
			eventfmt.Stringify(current), freeTextEditRequest),
	})
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("edit resolution failed: %v", err), EventID: eventID}
	}

	patch, err := decodeJSONObject(response)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("edit resolution returned malformed JSON: %v", err), EventID: eventID}
	}

	invalid := make([]string, 0)
	for field := range patch {
		if !allowedEditFields[field] {
			invalid = append(invalid, field)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		e.logger.Warn("rejecting edit with disallowed fields",
			zap.String("component", "mutation-executor"),
			zap.String("eventID", eventID),
			zap.Strings("fields", invalid))
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("edit rejected: disallowed field(s) %s", strings.Join(invalid, ", ")),
			EventID: eventID,
			Details: invalid,
		}
	}
	if len(patch) == 0 {
		return Result{Status: StatusError, Message: "edit rejected: no changed fields resolved", EventID: eventID}
	}

	patched, err := applyPatch(current, patch)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to apply edit: %v", err), EventID: eventID}
	}

	updated, err := e.calendar.UpdateEvent(e.calendarID, eventID, patched)
	if err != nil {
		return Result{Status: StatusError, Message: fmt.Sprintf("failed to update event: %v", err), EventID: eventID}
	}

	return Result{
		Status:   StatusSuccess,
		Message:  "event updated",
		EventID:  updated.Id,
		Summary:  updated.Summary,
		HTMLLink: updated.HtmlLink,
	}
}

// applyPatch overwrites top-level fields of the event with the patch
// values through a JSON round-trip, preserving unpatched fields
func applyPatch(event *calendar.Event, patch map[string]any) (*calendar.Event, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode current event: %w", err)
	}

	var merged map[string]any
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("failed to decode current event: %w", err)
	}

	for field, value := range patch {
		merged[field] = value
	}

	raw, err = json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patched event: %w", err)
	}

	var patched calendar.Event
	if err := json.Unmarshal(raw, &patched); err != nil {
		return nil, fmt.Errorf("failed to decode patched event: %w", err)
	}
	return &patched, nil
}
