package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/people/v1"

	google_mocks "github.com/chronos-hq/chronos-agent/google/mocks"
	"github.com/chronos-hq/chronos-agent/llm"
	llm_mocks "github.com/chronos-hq/chronos-agent/llm/mocks"
)

// schedulerFixture wires a scheduling agent over fakes. The generation
// stub dispatches on the system prompt, so one fake serves the
// classifier, the preference compiler, and the synthesizer.
type schedulerFixture struct {
	agent    *SchedulingAgent
	llm      *llm_mocks.FakeService
	calendar *google_mocks.FakeCalendarService
}

func newSchedulerFixture(t *testing.T, intentLabel, preferencesJSON, eventJSON string) *schedulerFixture {
	t.Helper()

	fakeLLM := &llm_mocks.FakeService{
		GenerateStub: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
			switch {
			case strings.Contains(req.System, "intent classifier"):
				return intentLabel, nil
			case strings.Contains(req.System, "preferences analyzer"):
				return preferencesJSON, nil
			default:
				return eventJSON, nil
			}
		},
	}
	fakeCalendar := &google_mocks.FakeCalendarService{}
	fakeContacts := &google_mocks.FakeContactsService{
		ListConnectionsStub: func(pageSize int64) ([]*people.Person, error) {
			return []*people.Person{
				{
					Names:          []*people.Name{{DisplayName: "Connor Chan"}},
					EmailAddresses: []*people.EmailAddress{{Value: "connor.chan@example.com"}},
				},
			}, nil
		},
	}

	logger := zap.NewNop()
	location := time.UTC
	classifier := NewIntentClassifier(fakeLLM, "classifier-model", logger)
	compiler := NewPreferenceCompiler(fakeLLM, "classifier-model", logger)
	availability := NewAvailabilityAgent(fakeCalendar, "primary", 14, location, logger)
	contacts := NewContactResolver(fakeContacts, 200, false, logger)

	schedulingAgent := NewSchedulingAgent(classifier, compiler, availability, contacts,
		fakeLLM, "America/Los_Angeles", location, 0.2, logger)
	schedulingAgent.now = func() time.Time {
		return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	}

	return &schedulerFixture{agent: schedulingAgent, llm: fakeLLM, calendar: fakeCalendar}
}

const validEventJSON = `{
	"summary": "Lunch with Connor",
	"description": "Lunch at noon",
	"start": {"dateTime": "2026-03-04T12:00:00-08:00"},
	"end": {"dateTime": "2026-03-04T13:00:00-08:00"}
}`

func TestSchedulingAgent_Synthesize_Create(t *testing.T) {
	fixture := newSchedulerFixture(t, "CREATE",
		`{"rules": [{"activity": "lunch", "start_time": "12:00", "end_time": "13:00", "days": ["wednesday"], "blocking": false}], "dropped": ["whenever works"]}`,
		"```json\n"+validEventJSON+"\n```")

	result := fixture.agent.Synthesize(context.Background(),
		"Schedule lunch with Connor next Wednesday at noon",
		[]string{"I prefer lunch meetings around noon", "whenever works"})

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, IntentCreate, result.Intent)
	require.NotNil(t, result.Event)
	assert.Equal(t, "Lunch with Connor", result.Event.Summary)

	// Defaults injected after schema validation
	assert.Equal(t, "America/Los_Angeles", result.Event.Start.TimeZone)
	assert.Equal(t, "America/Los_Angeles", result.Event.End.TimeZone)
	require.NotNil(t, result.Event.Reminders)
	assert.True(t, result.Event.Reminders.UseDefault)

	assert.Equal(t, []string{"whenever works"}, result.DroppedPreferences)
	assert.NotEmpty(t, result.RawResponse)

	// Classification, compilation, and synthesis: three generation calls
	require.Equal(t, 3, fixture.llm.GenerateCallCount)
	synthesisRequest := fixture.llm.Requests[2]
	assert.Contains(t, synthesisRequest.User, "Schedule lunch with Connor next Wednesday at noon")
	assert.Contains(t, synthesisRequest.User, `"activity":"lunch"`)
	assert.Contains(t, synthesisRequest.User, NoUpcomingEvents)
	assert.Contains(t, synthesisRequest.User, "Connor Chan <connor.chan@example.com>")
	assert.Contains(t, synthesisRequest.System, "2026-03-02")
	assert.InDelta(t, 0.2, synthesisRequest.Temperature, 0.0001)
}

func TestSchedulingAgent_SynthesizeWithProgress_ReportsPhases(t *testing.T) {
	fixture := newSchedulerFixture(t, "CREATE", `{"rules": []}`, validEventJSON)

	var phases []string
	result := fixture.agent.SynthesizeWithProgress(context.Background(),
		"Schedule lunch tomorrow", nil,
		func(phase, message string) { phases = append(phases, phase) })

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []string{"classify", "preferences", "availability", "create"}, phases)
}

func TestSchedulingAgent_Synthesize_DeleteDirective(t *testing.T) {
	fixture := newSchedulerFixture(t, "DELETE", "", "")

	result := fixture.agent.Synthesize(context.Background(), "Cancel my dentist appointment", nil)

	assert.Equal(t, StatusDelete, result.Status)
	assert.Equal(t, IntentDelete, result.Intent)
	assert.Equal(t, "Cancel my dentist appointment", result.Query)
	assert.Nil(t, result.Event)
	// Only the classification call runs for a delete directive
	assert.Equal(t, 1, fixture.llm.GenerateCallCount)
}

func TestSchedulingAgent_Synthesize_UnknownIntent(t *testing.T) {
	fixture := newSchedulerFixture(t, "UNKNOWN", "", "")

	result := fixture.agent.Synthesize(context.Background(), "What's the weather like?", nil)

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, IntentUnknown, result.Intent)
	assert.NotEmpty(t, result.Message)
}

func TestSchedulingAgent_Synthesize_InvalidLabelBecomesUnknown(t *testing.T) {
	fixture := newSchedulerFixture(t, "PERHAPS", "", "")

	result := fixture.agent.Synthesize(context.Background(), "???", nil)

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, IntentUnknown, result.Intent)
}

func TestSchedulingAgent_Synthesize_MalformedGeneration(t *testing.T) {
	fixture := newSchedulerFixture(t, "CREATE", `{"rules": []}`,
		"I scheduled that for you, no JSON needed!")

	result := fixture.agent.Synthesize(context.Background(), "Schedule lunch tomorrow", nil)

	assert.Equal(t, StatusError, result.Status)
	assert.Nil(t, result.Event)
	assert.Equal(t, "I scheduled that for you, no JSON needed!", result.RawResponse)
}

func TestSchedulingAgent_Synthesize_SchemaViolation(t *testing.T) {
	fixture := newSchedulerFixture(t, "CREATE", `{"rules": []}`,
		`{"summary": "Lunch", "start": {"dateTime": "2026-03-04T12:00:00-08:00"}}`)

	result := fixture.agent.Synthesize(context.Background(), "Schedule lunch tomorrow", nil)

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Message, "schema")
	assert.NotEmpty(t, result.RawResponse)
}

func TestSchedulingAgent_Synthesize_StartNotBeforeEnd(t *testing.T) {
	fixture := newSchedulerFixture(t, "CREATE", `{"rules": []}`, `{
		"summary": "Backwards",
		"start": {"dateTime": "2026-03-04T13:00:00-08:00"},
		"end": {"dateTime": "2026-03-04T12:00:00-08:00"}
	}`)

	result := fixture.agent.Synthesize(context.Background(), "Schedule lunch tomorrow", nil)

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Message, "start before it ends")
}

func TestSchedulingAgent_Synthesize_AttendeeScanFromQuery(t *testing.T) {
	fixture := newSchedulerFixture(t, "CREATE", `{"rules": []}`, validEventJSON)

	result := fixture.agent.Synthesize(context.Background(),
		"Schedule lunch with bob.watson@example.com tomorrow at noon", nil)

	require.Equal(t, StatusOK, result.Status)
	require.Len(t, result.Event.Attendees, 1)
	assert.Equal(t, "bob.watson@example.com", result.Event.Attendees[0].Email)
}

func TestSchedulingAgent_Synthesize_GenerationAttendeesNotOverwritten(t *testing.T) {
	eventWithAttendees := `{
		"summary": "Lunch",
		"start": {"dateTime": "2026-03-04T12:00:00-08:00"},
		"end": {"dateTime": "2026-03-04T13:00:00-08:00"},
		"attendees": [{"email": "sarah.lee@example.com"}]
	}`
	fixture := newSchedulerFixture(t, "CREATE", `{"rules": []}`, eventWithAttendees)

	result := fixture.agent.Synthesize(context.Background(),
		"Schedule lunch with bob.watson@example.com tomorrow", nil)

	require.Equal(t, StatusOK, result.Status)
	require.Len(t, result.Event.Attendees, 1)
	assert.Equal(t, "sarah.lee@example.com", result.Event.Attendees[0].Email)
}

func TestSchedulingAgent_Synthesize_PreferenceFailureIsNotFatal(t *testing.T) {
	fixture := newSchedulerFixture(t, "CREATE", "not JSON at all", validEventJSON)

	result := fixture.agent.Synthesize(context.Background(),
		"Schedule lunch tomorrow", []string{"mornings only"})

	require.Equal(t, StatusOK, result.Status)
	assert.Empty(t, result.DroppedPreferences)
}

func TestSchedulingAgent_Synthesize_AvailabilityFailureIsNotFatal(t *testing.T) {
	fixture := newSchedulerFixture(t, "CREATE", `{"rules": []}`, validEventJSON)
	fixture.calendar.ListEventsStub = func(calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error) {
		return nil, errors.New("calendar unavailable")
	}

	result := fixture.agent.Synthesize(context.Background(), "Schedule lunch tomorrow", nil)

	require.Equal(t, StatusOK, result.Status)
	assert.Contains(t, fixture.llm.Requests[2].User, "Not available")
}
