package crm

import (
	"context"
	"errors"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactService handles contact-related business operations
type ContactService struct {
	contactRepo crm.ContactRepository
	accountRepo crm.AccountRepository
	publisher   shared.EventPublisher
}

// NewContactService creates a new ContactService
func NewContactService(
	contactRepo crm.ContactRepository,
	accountRepo crm.AccountRepository,
	publisher shared.EventPublisher,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// Create creates a new contact. A referenced account must exist.
func (s *ContactService) Create(ctx context.Context, req CreateContactRequest) (*ContactResponse, error) {
	if err := s.validateAccountReference(ctx, req.AccountID); err != nil {
		return nil, err
	}

	contact, err := crm.NewContact(req.FirstName, req.LastName, req.AccountID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		contact.UpdateTitle(req.Title)
	}
	if req.Email != "" {
		if err := contact.UpdateEmail(req.Email); err != nil {
			return nil, err
		}
	}
	if req.ProfileURL != "" {
		contact.UpdateProfileURL(req.ProfileURL)
	}
	if req.Notes != "" {
		contact.UpdateNotes(req.Notes)
	}

	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, contact)

	response := ToContactResponse(contact)
	return &response, nil
}

// GetByID retrieves a contact by ID
func (s *ContactService) GetByID(ctx context.Context, contactID uuid.UUID) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByID(ctx, contactID)
	if err != nil {
		return nil, err
	}

	response := ToContactResponse(contact)
	return &response, nil
}

// List retrieves contacts with filtering and pagination
func (s *ContactService) List(ctx context.Context, filter ContactListFilter) ([]ContactResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "last_name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}

	if filter.AccountID != "" {
		accountID, err := uuid.Parse(filter.AccountID)
		if err != nil {
			return nil, 0, shared.NewDomainError("INVALID_ACCOUNT", "Account ID is not a valid UUID")
		}
		domainFilter.Filters["account_id"] = accountID
	}
	if filter.Unassigned {
		domainFilter.Filters["unassigned"] = true
	}

	contacts, err := s.contactRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.contactRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToContactResponses(contacts), total, nil
}

// ListByAccount retrieves all contacts linked to an account
func (s *ContactService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]ContactResponse, error) {
	exists, err := s.accountRepo.ExistsByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrNotFound
	}

	contacts, err := s.contactRepo.FindByAccount(ctx, accountID, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}

	return ToContactResponses(contacts), nil
}

// Update applies a partial update to a contact
func (s *ContactService) Update(ctx context.Context, contactID uuid.UUID, req UpdateContactRequest) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByID(ctx, contactID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil || req.LastName != nil {
		firstName := contact.FirstName
		lastName := contact.LastName
		if req.FirstName != nil {
			firstName = *req.FirstName
		}
		if req.LastName != nil {
			lastName = *req.LastName
		}
		if err := contact.UpdateName(firstName, lastName); err != nil {
			return nil, err
		}
	}
	if req.Title != nil {
		contact.UpdateTitle(*req.Title)
	}
	if req.Email != nil {
		if err := contact.UpdateEmail(*req.Email); err != nil {
			return nil, err
		}
	}
	if req.ProfileURL != nil {
		contact.UpdateProfileURL(*req.ProfileURL)
	}
	if req.Notes != nil {
		contact.UpdateNotes(*req.Notes)
	}
	if req.AccountIDSet {
		if err := s.validateAccountReference(ctx, req.AccountID); err != nil {
			return nil, err
		}
		contact.AssignAccount(req.AccountID)
	}

	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}

	response := ToContactResponse(contact)
	return &response, nil
}

// Delete removes a contact
func (s *ContactService) Delete(ctx context.Context, contactID uuid.UUID) error {
	err := s.contactRepo.Delete(ctx, contactID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return err
}

// validateAccountReference rejects references to accounts that do not exist
func (s *ContactService) validateAccountReference(ctx context.Context, accountID *uuid.UUID) error {
	if accountID == nil {
		return nil
	}
	exists, err := s.accountRepo.ExistsByID(ctx, *accountID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NewDomainError("INVALID_ACCOUNT", "Referenced account does not exist")
	}
	return nil
}

// publishEvents drains the aggregate's pending events onto the bus
func (s *ContactService) publishEvents(ctx context.Context, contact *crm.Contact) {
	if s.publisher == nil {
		return
	}
	events := contact.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	contact.ClearDomainEvents()
}
