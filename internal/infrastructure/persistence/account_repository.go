package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/anycrm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all accounts matching the filter
func (r *GormAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Account, error) {
	var accountModels []models.AccountModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AccountModel{}), filter)

	if err := query.Find(&accountModels).Error; err != nil {
		return nil, err
	}

	accounts := make([]crm.Account, len(accountModels))
	for i, model := range accountModels {
		accounts[i] = *model.ToDomain()
	}
	return accounts, nil
}

// FindByIndustry finds accounts in the given industry
func (r *GormAccountRepository) FindByIndustry(ctx context.Context, industry crm.Industry, filter shared.Filter) ([]crm.Account, error) {
	var accountModels []models.AccountModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.AccountModel{}).
			Where("industry = ?", industry),
		filter,
	)

	if err := query.Find(&accountModels).Error; err != nil {
		return nil, err
	}

	accounts := make([]crm.Account, len(accountModels))
	for i, model := range accountModels {
		accounts[i] = *model.ToDomain()
	}
	return accounts, nil
}

// FindStaleEnriching finds accounts stuck in the enriching state since before the cutoff
func (r *GormAccountRepository) FindStaleEnriching(ctx context.Context, cutoff time.Time) ([]crm.Account, error) {
	var accountModels []models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("enrichment_state = ? AND enrichment_requested_at < ?", crm.EnrichmentStateEnriching, cutoff).
		Find(&accountModels).Error; err != nil {
		return nil, err
	}

	accounts := make([]crm.Account, len(accountModels))
	for i, model := range accountModels {
		accounts[i] = *model.ToDomain()
	}
	return accounts, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *crm.Account) error {
	model := models.AccountModelFromDomain(account)
	return r.db.WithContext(ctx).Save(model).Error
}

// CompareAndSetEnrichmentState transitions the enrichment state only if the
// account is currently in the expected state. Returns false when another
// request won the transition.
func (r *GormAccountRepository) CompareAndSetEnrichmentState(ctx context.Context, id uuid.UUID, from, to crm.EnrichmentState) (bool, error) {
	updates := map[string]interface{}{
		"enrichment_state": to,
		"updated_at":       time.Now(),
	}
	if to == crm.EnrichmentStateEnriching {
		updates["enrichment_requested_at"] = time.Now()
	} else {
		updates["enrichment_requested_at"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ? AND enrichment_state = ?", id, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete deletes an account
func (r *GormAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AccountModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts accounts matching the filter
func (r *GormAccountRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AccountModel{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByID checks whether an account with the given ID exists
func (r *GormAccountRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Sorting goes through the whitelist so caller input never lands in ORDER BY
	sortField := ValidateSortField(filter.OrderBy, AccountSortFields, "name")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormAccountRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(website) LIKE ?",
			searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "industry":
			query = query.Where("industry = ?", value)
		case "enrichment_state":
			query = query.Where("enrichment_state = ?", value)
		}
	}

	return query
}

// Ensure GormAccountRepository implements AccountRepository
var _ crm.AccountRepository = (*GormAccountRepository)(nil)
