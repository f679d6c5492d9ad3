package crm

import (
	"context"
	"errors"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountService handles account-related business operations
type AccountService struct {
	accountRepo crm.AccountRepository
	contactRepo crm.ContactRepository
	publisher   shared.EventPublisher
}

// NewAccountService creates a new AccountService
func NewAccountService(
	accountRepo crm.AccountRepository,
	contactRepo crm.ContactRepository,
	publisher shared.EventPublisher,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		contactRepo: contactRepo,
		publisher:   publisher,
	}
}

// Create creates a new account
func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest) (*AccountResponse, error) {
	account, err := crm.NewAccount(req.Name)
	if err != nil {
		return nil, err
	}

	if req.Industry != "" {
		if err := account.UpdateIndustry(crm.Industry(req.Industry)); err != nil {
			return nil, err
		}
	}
	if req.Website != "" {
		account.UpdateWebsite(req.Website)
	}
	if req.Notes != "" {
		account.UpdateNotes(req.Notes)
	}
	if req.AnnualRevenue != nil {
		if err := account.UpdateAnnualRevenue(req.AnnualRevenue); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, account)

	response := ToAccountResponse(account)
	return &response, nil
}

// GetByID retrieves an account by ID
func (s *AccountService) GetByID(ctx context.Context, accountID uuid.UUID) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	response := ToAccountResponse(account)
	return &response, nil
}

// List retrieves accounts with filtering and pagination
func (s *AccountService) List(ctx context.Context, filter AccountListFilter) ([]AccountResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
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

	if filter.Industry != "" {
		domainFilter.Filters["industry"] = filter.Industry
	}
	if filter.EnrichmentState != "" {
		domainFilter.Filters["enrichment_state"] = filter.EnrichmentState
	}

	accounts, err := s.accountRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.accountRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToAccountResponses(accounts), total, nil
}

// Update applies a partial update to an account
func (s *AccountService) Update(ctx context.Context, accountID uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := account.UpdateName(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Industry != nil {
		if err := account.UpdateIndustry(crm.Industry(*req.Industry)); err != nil {
			return nil, err
		}
	}
	if req.Website != nil {
		account.UpdateWebsite(*req.Website)
	}
	if req.Notes != nil {
		account.UpdateNotes(*req.Notes)
	}
	if req.AnnualRevenue != nil {
		if err := account.UpdateAnnualRevenue(req.AnnualRevenue); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, account)

	response := ToAccountResponse(account)
	return &response, nil
}

// Delete removes an account. Linked contacts survive with their account
// reference cleared.
func (s *AccountService) Delete(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.contactRepo.ClearAccountReference(ctx, accountID); err != nil {
		return err
	}

	if err := s.accountRepo.Delete(ctx, accountID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrNotFound
		}
		return err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, crm.NewAccountDeletedEvent(account))
	}

	return nil
}

// publishEvents drains the aggregate's pending events onto the bus
func (s *AccountService) publishEvents(ctx context.Context, account *crm.Account) {
	if s.publisher == nil {
		return
	}
	events := account.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	account.ClearDomainEvents()
}
