package persistence

import (
	"context"
	"errors"

	"github.com/anycrm/backend/internal/domain/settings"
	"github.com/anycrm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettingsRepository implements settings.Repository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get loads the settings row, creating an empty one on first access
func (r *GormSettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	var model models.SettingsModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", settings.SingletonID).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := settings.NewSettings()
	if err := r.Save(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Save persists the settings row
func (r *GormSettingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	model := models.SettingsModelFromDomain(s)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormSettingsRepository implements settings.Repository
var _ settings.Repository = (*GormSettingsRepository)(nil)
