package crm

import "github.com/anycrm/backend/internal/domain/shared"

// Event types published by the crm domain
const (
	EventTypeAccountCreated      = "crm.account.created"
	EventTypeAccountDeleted      = "crm.account.deleted"
	EventTypeContactCreated      = "crm.contact.created"
	EventTypeEnrichmentStarted   = "crm.enrichment.started"
	EventTypeEnrichmentCompleted = "crm.enrichment.completed"
)

// Aggregate type names used in events
const (
	AggregateTypeAccount = "Account"
	AggregateTypeContact = "Contact"
)

// AccountCreatedEvent is raised when a new account is created
type AccountCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewAccountCreatedEvent creates an AccountCreatedEvent
func NewAccountCreatedEvent(account *Account) *AccountCreatedEvent {
	return &AccountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountCreated, AggregateTypeAccount, account.ID),
		Name:            account.Name,
	}
}

// AccountDeletedEvent is raised when an account is deleted
type AccountDeletedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewAccountDeletedEvent creates an AccountDeletedEvent
func NewAccountDeletedEvent(account *Account) *AccountDeletedEvent {
	return &AccountDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountDeleted, AggregateTypeAccount, account.ID),
		Name:            account.Name,
	}
}

// ContactCreatedEvent is raised when a new contact is created
type ContactCreatedEvent struct {
	shared.BaseDomainEvent
	FullName string `json:"full_name"`
}

// NewContactCreatedEvent creates a ContactCreatedEvent
func NewContactCreatedEvent(contact *Contact) *ContactCreatedEvent {
	return &ContactCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactCreated, AggregateTypeContact, contact.ID),
		FullName:        contact.FullName(),
	}
}

// EnrichmentStartedEvent is raised when an account enters the enriching state
type EnrichmentStartedEvent struct {
	shared.BaseDomainEvent
}

// NewEnrichmentStartedEvent creates an EnrichmentStartedEvent
func NewEnrichmentStartedEvent(account *Account) *EnrichmentStartedEvent {
	return &EnrichmentStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEnrichmentStarted, AggregateTypeAccount, account.ID),
	}
}

// EnrichmentCompletedEvent is raised exactly once per enrichment attempt,
// on both the success and the failure path
type EnrichmentCompletedEvent struct {
	shared.BaseDomainEvent
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewEnrichmentCompletedEvent creates an EnrichmentCompletedEvent
func NewEnrichmentCompletedEvent(account *Account, success bool, errorMessage string) *EnrichmentCompletedEvent {
	return &EnrichmentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEnrichmentCompleted, AggregateTypeAccount, account.ID),
		Success:         success,
		ErrorMessage:    errorMessage,
	}
}
