package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"google.golang.org/api/people/v1"

	google_mocks "github.com/chronos-hq/chronos-agent/google/mocks"
)

func person(name, email string) *people.Person {
	p := &people.Person{}
	if name != "" {
		p.Names = []*people.Name{{DisplayName: name}}
	}
	if email != "" {
		p.EmailAddresses = []*people.EmailAddress{{Value: email}}
	}
	return p
}

func TestContactResolver_Resolve_EmptyQueryListsConnections(t *testing.T) {
	fakeContacts := &google_mocks.FakeContactsService{
		ListConnectionsStub: func(pageSize int64) ([]*people.Person, error) {
			return []*people.Person{
				person("Connor Chan", "connor.chan@example.com"),
				person("Sarah Lee", "sarah.lee@example.com"),
			}, nil
		},
	}
	resolver := NewContactResolver(fakeContacts, 200, false, zap.NewNop())

	contacts := resolver.Resolve("")
	assert.Equal(t, []Contact{
		{Name: "Connor Chan", Email: "connor.chan@example.com"},
		{Name: "Sarah Lee", Email: "sarah.lee@example.com"},
	}, contacts)
	assert.Equal(t, 0, fakeContacts.SearchContactsCallCount)
	assert.Equal(t, 1, fakeContacts.ListConnectionsCallCount)
}

func TestContactResolver_Resolve_QueryFansOutToBothPaths(t *testing.T) {
	fakeContacts := &google_mocks.FakeContactsService{
		SearchContactsStub: func(query string, pageSize int64) ([]*people.Person, error) {
			assert.Equal(t, "connor", query)
			return []*people.Person{person("Connor Chan", "connor.chan@example.com")}, nil
		},
		ListConnectionsStub: func(pageSize int64) ([]*people.Person, error) {
			return []*people.Person{
				person("Connor Chan", "connor.chan@example.com"),
				person("Sarah Lee", "sarah.lee@example.com"),
			}, nil
		},
	}
	resolver := NewContactResolver(fakeContacts, 200, false, zap.NewNop())

	contacts := resolver.Resolve("connor")
	// The substring filter on connections matches "Connor Chan" a second
	// time; without dedupe both hits are kept
	assert.Equal(t, []Contact{
		{Name: "Connor Chan", Email: "connor.chan@example.com"},
		{Name: "Connor Chan", Email: "connor.chan@example.com"},
	}, contacts)
}

func TestContactResolver_Resolve_DedupeByEmail(t *testing.T) {
	fakeContacts := &google_mocks.FakeContactsService{
		SearchContactsStub: func(query string, pageSize int64) ([]*people.Person, error) {
			return []*people.Person{person("Connor Chan", "connor.chan@example.com")}, nil
		},
		ListConnectionsStub: func(pageSize int64) ([]*people.Person, error) {
			return []*people.Person{person("Connor Chan", "Connor.Chan@example.com")}, nil
		},
	}
	resolver := NewContactResolver(fakeContacts, 200, true, zap.NewNop())

	contacts := resolver.Resolve("connor")
	assert.Len(t, contacts, 1)
	assert.Equal(t, "connor.chan@example.com", contacts[0].Email)
}

func TestContactResolver_Resolve_SearchFailureDoesNotFailFilterPath(t *testing.T) {
	fakeContacts := &google_mocks.FakeContactsService{
		SearchContactsStub: func(query string, pageSize int64) ([]*people.Person, error) {
			return nil, errors.New("search backend down")
		},
		ListConnectionsStub: func(pageSize int64) ([]*people.Person, error) {
			return []*people.Person{
				person("Connor Chan", "connor.chan@example.com"),
				person("Sarah Lee", "sarah.lee@example.com"),
			}, nil
		},
	}
	resolver := NewContactResolver(fakeContacts, 200, false, zap.NewNop())

	contacts := resolver.Resolve("sarah")
	assert.Equal(t, []Contact{{Name: "Sarah Lee", Email: "sarah.lee@example.com"}}, contacts)
}

func TestContactResolver_Resolve_BothPathsFailingReturnsEmpty(t *testing.T) {
	fakeContacts := &google_mocks.FakeContactsService{
		SearchContactsStub: func(query string, pageSize int64) ([]*people.Person, error) {
			return nil, errors.New("search backend down")
		},
		ListConnectionsStub: func(pageSize int64) ([]*people.Person, error) {
			return nil, errors.New("people API down")
		},
	}
	resolver := NewContactResolver(fakeContacts, 200, false, zap.NewNop())

	contacts := resolver.Resolve("anyone")
	assert.Empty(t, contacts)
	assert.NotNil(t, contacts)
}

func TestContactResolver_Resolve_ExcludesContactsWithoutEmail(t *testing.T) {
	fakeContacts := &google_mocks.FakeContactsService{
		ListConnectionsStub: func(pageSize int64) ([]*people.Person, error) {
			return []*people.Person{
				person("No Email", ""),
				person("", "anonymous@example.com"),
				nil,
			}, nil
		},
	}
	resolver := NewContactResolver(fakeContacts, 200, false, zap.NewNop())

	contacts := resolver.Resolve("")
	assert.Equal(t, []Contact{{Name: "", Email: "anonymous@example.com"}}, contacts)
}

func TestContactResolver_Resolve_MatchesOnEmailSubstring(t *testing.T) {
	fakeContacts := &google_mocks.FakeContactsService{
		ListConnectionsStub: func(pageSize int64) ([]*people.Person, error) {
			return []*people.Person{
				person("Bob Watson", "bob.watson@example.com"),
				person("Sarah Lee", "sarah.lee@example.com"),
			}, nil
		},
	}
	resolver := NewContactResolver(fakeContacts, 200, false, zap.NewNop())

	contacts := resolver.Resolve("watson@")
	assert.Equal(t, []Contact{{Name: "Bob Watson", Email: "bob.watson@example.com"}}, contacts)
}
