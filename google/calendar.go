package google

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarService represents the interface for interacting with Google Calendar API
type CalendarService interface {
	ListEvents(calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error)
	CreateEvent(calendarID string, event *calendar.Event) (*calendar.Event, error)
	UpdateEvent(calendarID, eventID string, event *calendar.Event) (*calendar.Event, error)
	DeleteEvent(calendarID, eventID string) error
	GetEvent(calendarID, eventID string) (*calendar.Event, error)
}

// CalendarServiceImpl implements the calendar service interface for Google Calendar API
type CalendarServiceImpl struct {
	service *calendar.Service
	logger  *zap.Logger
}

// NewCalendarService creates a new Google Calendar service
func NewCalendarService(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (CalendarService, error) {
	scopesOption := option.WithScopes(
		calendar.CalendarReadonlyScope,
		calendar.CalendarScope,
	)

	allOptions := append([]option.ClientOption{scopesOption}, opts...)

	svc, err := calendar.NewService(ctx, allOptions...)
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}
	return &CalendarServiceImpl{service: svc, logger: logger}, nil
}

// ListEvents retrieves single (non-recurring-expanded) events from the calendar
// within the specified time range, ordered by start time
func (g *CalendarServiceImpl) ListEvents(calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error) {
	g.logger.Debug("listing events",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "list-events"),
		zap.String("calendarID", calendarID),
		zap.Time("timeMin", timeMin),
		zap.Time("timeMax", timeMax))

	call := g.service.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		OrderBy("startTime").
		SingleEvents(true)
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}

	events, err := call.Do()
	if err != nil {
		g.logger.Error("failed to retrieve events from google calendar api",
			zap.String("component", "google-calendar-service"),
			zap.String("operation", "list-events"),
			zap.String("calendarID", calendarID),
			zap.Error(err))
		return nil, fmt.Errorf("unable to retrieve events: %w", err)
	}

	g.logger.Info("successfully retrieved events",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "list-events"),
		zap.String("calendarID", calendarID),
		zap.Int("eventCount", len(events.Items)))

	return events.Items, nil
}

// CreateEvent creates a new event in the calendar
func (g *CalendarServiceImpl) CreateEvent(calendarID string, event *calendar.Event) (*calendar.Event, error) {
	g.logger.Debug("creating event",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "create-event"),
		zap.String("calendarID", calendarID),
		zap.String("eventSummary", event.Summary))

	createdEvent, err := g.service.Events.Insert(calendarID, event).Do()
	if err != nil {
		g.logger.Error("failed to create event in google calendar api",
			zap.String("component", "google-calendar-service"),
			zap.String("operation", "create-event"),
			zap.String("calendarID", calendarID),
			zap.String("eventSummary", event.Summary),
			zap.Error(err))
		return nil, fmt.Errorf("unable to create event: %w", err)
	}

	g.logger.Info("successfully created event",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "create-event"),
		zap.String("calendarID", calendarID),
		zap.String("eventID", createdEvent.Id),
		zap.String("eventSummary", createdEvent.Summary))

	return createdEvent, nil
}

// UpdateEvent updates an existing event in the calendar
func (g *CalendarServiceImpl) UpdateEvent(calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	g.logger.Debug("updating event",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "update-event"),
		zap.String("calendarID", calendarID),
		zap.String("eventID", eventID))

	updatedEvent, err := g.service.Events.Update(calendarID, eventID, event).Do()
	if err != nil {
		g.logger.Error("failed to update event in google calendar api",
			zap.String("component", "google-calendar-service"),
			zap.String("operation", "update-event"),
			zap.String("calendarID", calendarID),
			zap.String("eventID", eventID),
			zap.Error(err))
		return nil, fmt.Errorf("unable to update event: %w", err)
	}

	g.logger.Info("successfully updated event",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "update-event"),
		zap.String("calendarID", calendarID),
		zap.String("eventID", eventID),
		zap.String("eventSummary", updatedEvent.Summary))

	return updatedEvent, nil
}

// DeleteEvent removes an event from the calendar
func (g *CalendarServiceImpl) DeleteEvent(calendarID, eventID string) error {
	g.logger.Debug("deleting event",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "delete-event"),
		zap.String("calendarID", calendarID),
		zap.String("eventID", eventID))

	err := g.service.Events.Delete(calendarID, eventID).Do()
	if err != nil {
		g.logger.Error("failed to delete event from google calendar api",
			zap.String("component", "google-calendar-service"),
			zap.String("operation", "delete-event"),
			zap.String("calendarID", calendarID),
			zap.String("eventID", eventID),
			zap.Error(err))
		return fmt.Errorf("unable to delete event: %w", err)
	}

	g.logger.Info("successfully deleted event",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "delete-event"),
		zap.String("calendarID", calendarID),
		zap.String("eventID", eventID))

	return nil
}

// GetEvent retrieves a specific event from the calendar
func (g *CalendarServiceImpl) GetEvent(calendarID, eventID string) (*calendar.Event, error) {
	g.logger.Debug("getting event",
		zap.String("component", "google-calendar-service"),
		zap.String("operation", "get-event"),
		zap.String("calendarID", calendarID),
		zap.String("eventID", eventID))

	event, err := g.service.Events.Get(calendarID, eventID).Do()
	if err != nil {
		g.logger.Error("failed to get event from google calendar api",
			zap.String("component", "google-calendar-service"),
			zap.String("operation", "get-event"),
			zap.String("calendarID", calendarID),
			zap.String("eventID", eventID),
			zap.Error(err))
		return nil, fmt.Errorf("unable to get event: %w", err)
	}

	return event, nil
}
