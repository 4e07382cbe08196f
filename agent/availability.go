package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"

	"github.com/chronos-hq/chronos-agent/google"
)

// NoUpcomingEvents is the fixed sentinel returned when the look-ahead
// window contains no events
const NoUpcomingEvents = "You have no events scheduled for the next two weeks."

// AvailabilityAgent renders the calendar's busy intervals over a fixed
// look-ahead window as a day-grouped narrative. The narrative, not
// structured data, is what the event synthesizer feeds to the generation
// capability, so correctness here means unambiguous day grouping and
// chronological ordering.
type AvailabilityAgent struct {
	calendar    google.CalendarService
	calendarID  string
	horizonDays int
	location    *time.Location
	logger      *zap.Logger
}

// NewAvailabilityAgent creates a new availability aggregator
func NewAvailabilityAgent(calendarService google.CalendarService, calendarID string, horizonDays int, location *time.Location, logger *zap.Logger) *AvailabilityAgent {
	return &AvailabilityAgent{
		calendar:    calendarService,
		calendarID:  calendarID,
		horizonDays: horizonDays,
		location:    location,
		logger:      logger,
	}
}

type busyInterval struct {
	summary string
	start   time.Time
	end     time.Time
}

// Narrative queries the calendar for [now, now+horizon) and renders each
// day as "On <Weekday, Month Day>, you have N event(s): <title> from
// <start> to <end>; ..."
func (a *AvailabilityAgent) Narrative(now time.Time) (string, error) {
	timeMin := now
	timeMax := now.AddDate(0, 0, a.horizonDays)

	events, err := a.calendar.ListEvents(a.calendarID, timeMin, timeMax, 0)
	if err != nil {
		return "", fmt.Errorf("failed to aggregate availability: %w", err)
	}

	if len(events) == 0 {
		return NoUpcomingEvents, nil
	}

	days := make(map[string][]busyInterval)
	for _, event := range events {
		interval, ok := a.parseInterval(event)
		if !ok {
			continue
		}
		dayKey := interval.start.In(a.location).Format("2006-01-02")
		days[dayKey] = append(days[dayKey], interval)
	}

	dayKeys := make([]string, 0, len(days))
	for dayKey := range days {
		dayKeys = append(dayKeys, dayKey)
	}
	sort.Strings(dayKeys)

	summaries := make([]string, 0, len(dayKeys))
	for _, dayKey := range dayKeys {
		intervals := days[dayKey]
		sort.Slice(intervals, func(i, j int) bool {
			return intervals[i].start.Before(intervals[j].start)
		})

		dayDate, err := time.ParseInLocation("2006-01-02", dayKey, a.location)
		if err != nil {
			continue
		}

		rendered := make([]string, 0, len(intervals))
		for _, interval := range intervals {
			rendered = append(rendered, fmt.Sprintf("%s from %s to %s",
				interval.summary,
				interval.start.In(a.location).Format("03:04 PM"),
				interval.end.In(a.location).Format("03:04 PM")))
		}

		plural := ""
		if len(rendered) > 1 {
			plural = "s"
		}
		summaries = append(summaries, fmt.Sprintf("On %s, you have %d event%s: %s",
			dayDate.Format("Monday, January 02"), len(rendered), plural, strings.Join(rendered, "; ")))
	}

	if len(summaries) == 0 {
		return NoUpcomingEvents, nil
	}

	a.logger.Debug("aggregated availability",
		zap.String("component", "availability-agent"),
		zap.Int("eventCount", len(events)),
		zap.Int("dayCount", len(summaries)))

	return strings.Join(summaries, "\n\n"), nil
}

func (a *AvailabilityAgent) parseInterval(event *calendar.Event) (busyInterval, bool) {
	summary := event.Summary
	if summary == "" {
		summary = "Untitled event"
	}

	start, ok := parseEventTime(event.Start)
	if !ok {
		return busyInterval{}, false
	}
	end, ok := parseEventTime(event.End)
	if !ok {
		end = start
	}

	return busyInterval{summary: summary, start: start, end: end}, true
}

func parseEventTime(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t, true
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
