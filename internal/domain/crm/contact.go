package crm

import (
	"net/mail"
	"strings"

	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Contact is the aggregate root for a person record, optionally linked
// to an account
type Contact struct {
	shared.BaseAggregateRoot
	AccountID  *uuid.UUID
	FirstName  string
	LastName   string
	Title      string
	Email      string
	ProfileURL string
	Notes      string
}

// NewContact creates a new contact
func NewContact(firstName, lastName string, accountID *uuid.UUID) (*Contact, error) {
	if err := validateContactName(firstName, "First name"); err != nil {
		return nil, err
	}
	if err := validateContactName(lastName, "Last name"); err != nil {
		return nil, err
	}

	contact := &Contact{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountID:         accountID,
		FirstName:         strings.TrimSpace(firstName),
		LastName:          strings.TrimSpace(lastName),
	}

	contact.AddDomainEvent(NewContactCreatedEvent(contact))
	return contact, nil
}

// FullName returns the display name
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// UpdateName changes first and last name
func (c *Contact) UpdateName(firstName, lastName string) error {
	if err := validateContactName(firstName, "First name"); err != nil {
		return err
	}
	if err := validateContactName(lastName, "Last name"); err != nil {
		return err
	}
	c.FirstName = strings.TrimSpace(firstName)
	c.LastName = strings.TrimSpace(lastName)
	c.markUpdated()
	return nil
}

// UpdateTitle changes the job title
func (c *Contact) UpdateTitle(title string) {
	c.Title = strings.TrimSpace(title)
	c.markUpdated()
}

// UpdateEmail changes the email address. Empty clears it.
func (c *Contact) UpdateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed != "" {
		if _, err := mail.ParseAddress(trimmed); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
		}
	}
	c.Email = trimmed
	c.markUpdated()
	return nil
}

// UpdateProfileURL changes the professional profile link
func (c *Contact) UpdateProfileURL(url string) {
	c.ProfileURL = strings.TrimSpace(url)
	c.markUpdated()
}

// UpdateNotes changes the free-form notes
func (c *Contact) UpdateNotes(notes string) {
	c.Notes = notes
	c.markUpdated()
}

// AssignAccount links the contact to an account. Nil unlinks it.
func (c *Contact) AssignAccount(accountID *uuid.UUID) {
	c.AccountID = accountID
	c.markUpdated()
}

func (c *Contact) markUpdated() {
	c.Touch()
	c.IncrementVersion()
}

func validateContactName(name, label string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_NAME", label+" is required")
	}
	if len(trimmed) > 100 {
		return shared.NewDomainError("INVALID_NAME", label+" cannot exceed 100 characters")
	}
	return nil
}
