package google

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// contactReadMask selects the person fields needed to build attendee lists.
const contactReadMask = "names,emailAddresses"

// ContactsService represents the interface for interacting with Google People API
type ContactsService interface {
	SearchContacts(query string, pageSize int64) ([]*people.Person, error)
	ListConnections(pageSize int64) ([]*people.Person, error)
}

// ContactsServiceImpl implements the contacts service interface for Google People API
type ContactsServiceImpl struct {
	service *people.Service
	logger  *zap.Logger
}

// NewContactsService creates a new Google People service
func NewContactsService(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (ContactsService, error) {
	scopesOption := option.WithScopes(people.ContactsReadonlyScope)

	allOptions := append([]option.ClientOption{scopesOption}, opts...)

	svc, err := people.NewService(ctx, allOptions...)
	if err != nil {
		return nil, fmt.Errorf("unable to create people service: %w", err)
	}
	return &ContactsServiceImpl{service: svc, logger: logger}, nil
}

// SearchContacts performs a provider-side fuzzy search over the user's contacts
func (g *ContactsServiceImpl) SearchContacts(query string, pageSize int64) ([]*people.Person, error) {
	g.logger.Debug("searching contacts",
		zap.String("component", "google-contacts-service"),
		zap.String("operation", "search-contacts"),
		zap.String("query", query))

	resp, err := g.service.People.SearchContacts().
		Query(query).
		ReadMask(contactReadMask).
		PageSize(pageSize).
		Do()
	if err != nil {
		g.logger.Error("failed to search contacts in google people api",
			zap.String("component", "google-contacts-service"),
			zap.String("operation", "search-contacts"),
			zap.String("query", query),
			zap.Error(err))
		return nil, fmt.Errorf("unable to search contacts: %w", err)
	}

	persons := make([]*people.Person, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.Person != nil {
			persons = append(persons, result.Person)
		}
	}

	g.logger.Info("successfully searched contacts",
		zap.String("component", "google-contacts-service"),
		zap.String("operation", "search-contacts"),
		zap.Int("resultCount", len(persons)))

	return persons, nil
}

// ListConnections retrieves the user's full connections list
func (g *ContactsServiceImpl) ListConnections(pageSize int64) ([]*people.Person, error) {
	g.logger.Debug("listing connections",
		zap.String("component", "google-contacts-service"),
		zap.String("operation", "list-connections"))

	resp, err := g.service.People.Connections.List("people/me").
		PageSize(pageSize).
		PersonFields(contactReadMask).
		Do()
	if err != nil {
		g.logger.Error("failed to list connections from google people api",
			zap.String("component", "google-contacts-service"),
			zap.String("operation", "list-connections"),
			zap.Error(err))
		return nil, fmt.Errorf("unable to list connections: %w", err)
	}

	g.logger.Info("successfully listed connections",
		zap.String("component", "google-contacts-service"),
		zap.String("operation", "list-connections"),
		zap.Int("connectionCount", len(resp.Connections)))

	return resp.Connections, nil
}
