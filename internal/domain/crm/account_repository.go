package crm

import (
	"context"
	"time"

	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountRepository defines persistence operations for accounts
type AccountRepository interface {
	// FindByID finds an account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindAll finds all accounts matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Account, error)

	// FindByIndustry finds accounts in the given industry
	FindByIndustry(ctx context.Context, industry Industry, filter shared.Filter) ([]Account, error)

	// FindStaleEnriching finds accounts stuck in the enriching state since
	// before the given cutoff
	FindStaleEnriching(ctx context.Context, cutoff time.Time) ([]Account, error)

	// Save persists an account (insert or update)
	Save(ctx context.Context, account *Account) error

	// CompareAndSetEnrichmentState atomically transitions the enrichment
	// state with a guarded update. Returns false when the account was not
	// in the expected state, without touching the row.
	CompareAndSetEnrichmentState(ctx context.Context, id uuid.UUID, from, to EnrichmentState) (bool, error)

	// Delete removes an account
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts accounts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByID checks whether an account exists
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}
