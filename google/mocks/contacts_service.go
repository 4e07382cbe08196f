package google_mocks

import (
	"strings"

	"google.golang.org/api/people/v1"
)

// MockContactsService provides a canned contact list for demo mode
type MockContactsService struct {
	Persons []*people.Person
}

// NewMockContactsService creates a contacts service with a small demo roster
func NewMockContactsService() *MockContactsService {
	return &MockContactsService{
		Persons: []*people.Person{
			{
				Names:          []*people.Name{{DisplayName: "Connor Chan"}},
				EmailAddresses: []*people.EmailAddress{{Value: "connor.chan@example.com"}},
			},
			{
				Names:          []*people.Name{{DisplayName: "Sarah Lee"}},
				EmailAddresses: []*people.EmailAddress{{Value: "sarah.lee@example.com"}},
			},
			{
				Names:          []*people.Name{{DisplayName: "Bob Watson"}},
				EmailAddresses: []*people.EmailAddress{{Value: "bob.watson@example.com"}},
			},
		},
	}
}

func (m *MockContactsService) SearchContacts(query string, pageSize int64) ([]*people.Person, error) {
	matched := make([]*people.Person, 0)
	for _, person := range m.Persons {
		for _, name := range person.Names {
			if strings.Contains(strings.ToLower(name.DisplayName), strings.ToLower(query)) {
				matched = append(matched, person)
				break
			}
		}
	}
	return matched, nil
}

func (m *MockContactsService) ListConnections(pageSize int64) ([]*people.Person, error) {
	return m.Persons, nil
}

// FakeContactsService is a configurable test double for the contacts service
type FakeContactsService struct {
	SearchContactsStub  func(query string, pageSize int64) ([]*people.Person, error)
	ListConnectionsStub func(pageSize int64) ([]*people.Person, error)

	SearchContactsCallCount  int
	ListConnectionsCallCount int
}

func (f *FakeContactsService) SearchContacts(query string, pageSize int64) ([]*people.Person, error) {
	f.SearchContactsCallCount++
	if f.SearchContactsStub != nil {
		return f.SearchContactsStub(query, pageSize)
	}
	return []*people.Person{}, nil
}

func (f *FakeContactsService) ListConnections(pageSize int64) ([]*people.Person, error) {
	f.ListConnectionsCallCount++
	if f.ListConnectionsStub != nil {
		return f.ListConnectionsStub(pageSize)
	}
	return []*people.Person{}, nil
}
