package crm

import (
	"strings"
	"time"

	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EnrichmentState represents the per-account enrichment flag
type EnrichmentState string

const (
	EnrichmentStateReady     EnrichmentState = "ready"
	EnrichmentStateEnriching EnrichmentState = "enriching"
)

// IsValid checks if the enrichment state is valid
func (s EnrichmentState) IsValid() bool {
	return s == EnrichmentStateReady || s == EnrichmentStateEnriching
}

// Account is the aggregate root for a company record
type Account struct {
	shared.BaseAggregateRoot
	Name                  string
	Industry              Industry
	Website               string
	Notes                 string
	AnnualRevenue         *decimal.Decimal
	EnrichmentState       EnrichmentState
	EnrichmentRequestedAt *time.Time
}

// NewAccount creates a new account in the ready state
func NewAccount(name string) (*Account, error) {
	if err := validateAccountName(name); err != nil {
		return nil, err
	}

	account := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		EnrichmentState:   EnrichmentStateReady,
	}

	account.AddDomainEvent(NewAccountCreatedEvent(account))
	return account, nil
}

// UpdateName changes the account name
func (a *Account) UpdateName(name string) error {
	if err := validateAccountName(name); err != nil {
		return err
	}
	a.Name = strings.TrimSpace(name)
	a.markUpdated()
	return nil
}

// UpdateIndustry changes the industry classification. Empty clears it.
func (a *Account) UpdateIndustry(industry Industry) error {
	if industry != "" && !industry.IsValid() {
		return shared.NewDomainError("INVALID_INDUSTRY", "Unknown industry")
	}
	a.Industry = industry
	a.markUpdated()
	return nil
}

// UpdateWebsite changes the website URL
func (a *Account) UpdateWebsite(website string) {
	a.Website = strings.TrimSpace(website)
	a.markUpdated()
}

// UpdateNotes changes the free-form notes
func (a *Account) UpdateNotes(notes string) {
	a.Notes = notes
	a.markUpdated()
}

// UpdateAnnualRevenue changes the annual revenue figure. Nil clears it.
func (a *Account) UpdateAnnualRevenue(revenue *decimal.Decimal) error {
	if revenue != nil && revenue.IsNegative() {
		return shared.NewDomainError("INVALID_REVENUE", "Annual revenue cannot be negative")
	}
	a.AnnualRevenue = revenue
	a.markUpdated()
	return nil
}

// BeginEnrichment moves the account into the enriching state.
// The repository enforces the same guard with a compare-and-set write;
// this check rejects the obvious case before touching the store.
func (a *Account) BeginEnrichment() error {
	if a.EnrichmentState == EnrichmentStateEnriching {
		return shared.NewDomainError("ENRICHMENT_IN_PROGRESS", "Enrichment already in progress for this account")
	}
	now := time.Now()
	a.EnrichmentState = EnrichmentStateEnriching
	a.EnrichmentRequestedAt = &now
	a.markUpdated()
	a.AddDomainEvent(NewEnrichmentStartedEvent(a))
	return nil
}

// EnrichmentResult carries the fields an enrichment run may set
type EnrichmentResult struct {
	Industry      *string
	Website       *string
	Notes         *string
	AnnualRevenue *decimal.Decimal
}

// CompleteEnrichment applies an enrichment result and returns the account
// to the ready state. A nil result leaves the fields untouched, which is
// the failure path.
func (a *Account) CompleteEnrichment(result *EnrichmentResult) error {
	if a.EnrichmentState != EnrichmentStateEnriching {
		return shared.NewDomainError("INVALID_STATE", "Account is not being enriched")
	}

	if result != nil {
		if result.Industry != nil {
			industry := Industry(*result.Industry)
			if industry.IsValid() {
				a.Industry = industry
			}
		}
		if result.Website != nil {
			a.Website = strings.TrimSpace(*result.Website)
		}
		if result.Notes != nil {
			a.Notes = *result.Notes
		}
		if result.AnnualRevenue != nil && !result.AnnualRevenue.IsNegative() {
			a.AnnualRevenue = result.AnnualRevenue
		}
	}

	a.EnrichmentState = EnrichmentStateReady
	a.EnrichmentRequestedAt = nil
	a.markUpdated()
	return nil
}

// IsEnriching reports whether an enrichment call is in flight
func (a *Account) IsEnriching() bool {
	return a.EnrichmentState == EnrichmentStateEnriching
}

func (a *Account) markUpdated() {
	a.Touch()
	a.IncrementVersion()
}

func validateAccountName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_NAME", "Account name is required")
	}
	if len(trimmed) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Account name cannot exceed 255 characters")
	}
	return nil
}
