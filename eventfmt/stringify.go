// Package eventfmt renders calendar events as prose for semantic indexing
// and for embedding event context into generation prompts.
package eventfmt

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
)

const (
	dateTimeLayout = "January 02, 2006 at 03:04 PM"
	dateLayout     = "January 02, 2006"
	timeLayout     = "03:04 PM"
)

// Stringify deterministically renders an event to a one-sentence description.
// Missing optional fields are omitted entirely, never replaced with
// placeholder text. Returns the empty string for a nil event.
func Stringify(event *calendar.Event) string {
	if event == nil {
		return ""
	}

	parts := make([]string, 0, 6)

	if event.Summary != "" {
		parts = append(parts, fmt.Sprintf("Event '%s'", event.Summary))
	} else {
		parts = append(parts, "Untitled event")
	}

	if event.Start != nil {
		if event.Start.DateTime != "" {
			if start, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
				parts = append(parts, fmt.Sprintf("starts on %s", start.Format(dateTimeLayout)))
			}
		} else if event.Start.Date != "" {
			if start, err := time.Parse("2006-01-02", event.Start.Date); err == nil {
				parts = append(parts, fmt.Sprintf("starts on %s", start.Format(dateLayout)))
			}
		}
	}

	if event.End != nil {
		if event.End.DateTime != "" {
			if end, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
				parts = append(parts, fmt.Sprintf("ends at %s", end.Format(timeLayout)))
			}
		} else if event.End.Date != "" {
			if end, err := time.Parse("2006-01-02", event.End.Date); err == nil {
				parts = append(parts, fmt.Sprintf("ends on %s", end.Format(dateLayout)))
			}
		}
	}

	if len(event.Attendees) > 0 {
		names := make([]string, 0, len(event.Attendees))
		for _, attendee := range event.Attendees {
			if attendee.DisplayName != "" {
				names = append(names, attendee.DisplayName)
			} else if attendee.Email != "" {
				names = append(names, attendee.Email)
			}
		}
		if len(names) > 0 {
			parts = append(parts, fmt.Sprintf("with attendees %s", strings.Join(names, ", ")))
		}
	}

	if event.Description != "" {
		parts = append(parts, fmt.Sprintf("with description: %s", event.Description))
	}

	if len(event.Recurrence) > 0 {
		parts = append(parts, fmt.Sprintf("recurring (%s)", event.Recurrence[0]))
	}

	return strings.Join(parts, " ") + "."
}
