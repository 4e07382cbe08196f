// Package agent implements the scheduling pipeline: intent classification,
// preference compilation, availability aggregation, contact resolution,
// event synthesis, and calendar mutations.
package agent

import (
	"errors"

	"google.golang.org/api/calendar/v3"
)

// Intent is the classified purpose of a scheduling utterance
type Intent string

const (
	IntentCreate  Intent = "CREATE"
	IntentEdit    Intent = "EDIT"
	IntentDelete  Intent = "DELETE"
	IntentUnknown Intent = "UNKNOWN"
)

// ErrInvalidClassification indicates the generation output was not a label
// in the classifier's permitted set
var ErrInvalidClassification = errors.New("classification output outside the allowed label set")

// PreferenceRule is a structured availability constraint compiled from a
// free-text statement. Blocking rules are hard constraints on event
// placement; non-blocking rules are advisory.
type PreferenceRule struct {
	Activity  string   `json:"activity"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Days      []string `json:"days"`
	Blocking  bool     `json:"blocking"`
}

// CompiledPreferences carries the compiled rules plus the statements the
// compiler could not express as rules
type CompiledPreferences struct {
	Rules   []PreferenceRule `json:"rules"`
	Dropped []string         `json:"dropped,omitempty"`
}

// Contact is a resolved name/email pair used to enrich event payloads
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Result statuses used across synthesis and mutation responses
const (
	StatusOK      = "ok"
	StatusSuccess = "success"
	StatusDelete  = "delete"
	StatusError   = "error"
)

// SynthesisResult is the outcome of one scheduling request. Status is the
// discriminator: "ok" carries a schema-valid event, "delete" carries the
// original query for the caller to resolve to an event id, "error" carries
// a message and the raw generation output for diagnostics.
type SynthesisResult struct {
	Status             string          `json:"status"`
	Intent             Intent          `json:"intent,omitempty"`
	Event              *calendar.Event `json:"event,omitempty"`
	Query              string          `json:"query,omitempty"`
	Message            string          `json:"message,omitempty"`
	RawResponse        string          `json:"raw_response,omitempty"`
	DroppedPreferences []string        `json:"dropped_preferences,omitempty"`
}

// Result is the outcome of a calendar mutation. Provider failures are
// reported here, never propagated as raw errors past the executor.
type Result struct {
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	EventID  string   `json:"event_id,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	HTMLLink string   `json:"html_link,omitempty"`
	Details  []string `json:"details,omitempty"`
}
