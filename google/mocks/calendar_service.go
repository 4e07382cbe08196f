package google_mocks

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
)

// MockCalendarService provides an in-memory calendar implementation for demo mode
type MockCalendarService struct {
	mu     sync.Mutex
	events map[string]*calendar.Event
}

// NewMockCalendarService creates an empty in-memory calendar
func NewMockCalendarService() *MockCalendarService {
	return &MockCalendarService{events: make(map[string]*calendar.Event)}
}

func (m *MockCalendarService) ListEvents(calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]*calendar.Event, 0, len(m.events))
	for _, event := range m.events {
		events = append(events, event)
	}
	return events, nil
}

func (m *MockCalendarService) CreateEvent(calendarID string, event *calendar.Event) (*calendar.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.Id == "" {
		event.Id = uuid.New().String()
	}
	event.HtmlLink = "https://calendar.google.com/event?eid=" + event.Id
	m.events[event.Id] = event
	return event, nil
}

func (m *MockCalendarService) UpdateEvent(calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; !ok {
		return nil, fmt.Errorf("unable to update event: event %s not found", eventID)
	}
	event.Id = eventID
	m.events[eventID] = event
	return event, nil
}

func (m *MockCalendarService) DeleteEvent(calendarID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; !ok {
		return fmt.Errorf("unable to delete event: event %s not found", eventID)
	}
	delete(m.events, eventID)
	return nil
}

func (m *MockCalendarService) GetEvent(calendarID, eventID string) (*calendar.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return nil, fmt.Errorf("unable to get event: event %s not found", eventID)
	}
	return event, nil
}

// FakeCalendarService is a configurable test double for the calendar service.
// Unset stubs return zero values.
type FakeCalendarService struct {
	ListEventsStub  func(calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error)
	CreateEventStub func(calendarID string, event *calendar.Event) (*calendar.Event, error)
	UpdateEventStub func(calendarID, eventID string, event *calendar.Event) (*calendar.Event, error)
	DeleteEventStub func(calendarID, eventID string) error
	GetEventStub    func(calendarID, eventID string) (*calendar.Event, error)

	ListEventsCallCount  int
	CreateEventCallCount int
	UpdateEventCallCount int
	DeleteEventCallCount int
	GetEventCallCount    int
}

func (f *FakeCalendarService) ListEvents(calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error) {
	f.ListEventsCallCount++
	if f.ListEventsStub != nil {
		return f.ListEventsStub(calendarID, timeMin, timeMax, maxResults)
	}
	return []*calendar.Event{}, nil
}

func (f *FakeCalendarService) CreateEvent(calendarID string, event *calendar.Event) (*calendar.Event, error) {
	f.CreateEventCallCount++
	if f.CreateEventStub != nil {
		return f.CreateEventStub(calendarID, event)
	}
	return event, nil
}

func (f *FakeCalendarService) UpdateEvent(calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	f.UpdateEventCallCount++
	if f.UpdateEventStub != nil {
		return f.UpdateEventStub(calendarID, eventID, event)
	}
	return event, nil
}

func (f *FakeCalendarService) DeleteEvent(calendarID, eventID string) error {
	f.DeleteEventCallCount++
	if f.DeleteEventStub != nil {
		return f.DeleteEventStub(calendarID, eventID)
	}
	return nil
}

func (f *FakeCalendarService) GetEvent(calendarID, eventID string) (*calendar.Event, error) {
	f.GetEventCallCount++
	if f.GetEventStub != nil {
		return f.GetEventStub(calendarID, eventID)
	}
	return &calendar.Event{Id: eventID}, nil
}
