package agent

import (
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/people/v1"

	"github.com/chronos-hq/chronos-agent/google"
)

// ContactResolver looks up name/email pairs in the contacts provider,
// used to enrich event payloads with attendee addresses
type ContactResolver struct {
	contacts google.ContactsService
	pageSize int64
	dedupe   bool
	logger   *zap.Logger
}

// NewContactResolver creates a new contact resolver. When dedupe is set,
// the union of the two lookup paths is deduplicated by email.
func NewContactResolver(contactsService google.ContactsService, pageSize int64, dedupe bool, logger *zap.Logger) *ContactResolver {
	return &ContactResolver{
		contacts: contactsService,
		pageSize: pageSize,
		dedupe:   dedupe,
		logger:   logger,
	}
}

// Resolve returns contacts matching the query, or the full contact list
// when the query is empty. A query fans out to two independent lookups: a
// provider-side fuzzy search and a client-side substring filter over the
// full connections list. A failure in one path does not fail the other;
// both are logged, never raised. Contacts lacking an email are excluded.
func (r *ContactResolver) Resolve(query string) []Contact {
	if query == "" {
		persons, err := r.contacts.ListConnections(r.pageSize)
		if err != nil {
			r.logger.Warn("failed to list connections",
				zap.String("component", "contact-resolver"),
				zap.Error(err))
			return []Contact{}
		}
		return r.finish(personsToContacts(persons))
	}

	contacts := make([]Contact, 0)

	searched, err := r.contacts.SearchContacts(query, 30)
	if err != nil {
		r.logger.Warn("contact search path failed",
			zap.String("component", "contact-resolver"),
			zap.String("query", query),
			zap.Error(err))
	} else {
		contacts = append(contacts, personsToContacts(searched)...)
	}

	connections, err := r.contacts.ListConnections(r.pageSize)
	if err != nil {
		r.logger.Warn("connections listing path failed",
			zap.String("component", "contact-resolver"),
			zap.String("query", query),
			zap.Error(err))
	} else {
		needle := strings.ToLower(query)
		for _, contact := range personsToContacts(connections) {
			if strings.Contains(strings.ToLower(contact.Name), needle) ||
				strings.Contains(strings.ToLower(contact.Email), needle) {
				contacts = append(contacts, contact)
			}
		}
	}

	return r.finish(contacts)
}

func (r *ContactResolver) finish(contacts []Contact) []Contact {
	if !r.dedupe {
		return contacts
	}
	seen := make(map[string]bool, len(contacts))
	deduped := make([]Contact, 0, len(contacts))
	for _, contact := range contacts {
		key := strings.ToLower(contact.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, contact)
	}
	return deduped
}

func personsToContacts(persons []*people.Person) []Contact {
	contacts := make([]Contact, 0, len(persons))
	for _, person := range persons {
		if person == nil || len(person.EmailAddresses) == 0 {
			continue
		}
		email := person.EmailAddresses[0].Value
		if email == "" {
			continue
		}
		name := ""
		if len(person.Names) > 0 {
			name = person.Names[0].DisplayName
		}
		contacts = append(contacts, Contact{Name: name, Email: email})
	}
	return contacts
}
