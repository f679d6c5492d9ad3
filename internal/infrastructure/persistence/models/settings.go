package models

import (
	"github.com/anycrm/backend/internal/domain/settings"
)

// SettingsModel is the persistence model for the single Settings row.
type SettingsModel struct {
	AggregateModel
	APIToken          string `gorm:"type:varchar(255)"`
	AgentURL          string `gorm:"type:varchar(500)"`
	AgentKey          string `gorm:"type:varchar(255)"`
	BaseURL           string `gorm:"type:varchar(500)"`
	AdminPasswordHash string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (SettingsModel) TableName() string {
	return "settings"
}

// ToDomain converts the persistence model to the domain Settings entity.
func (m *SettingsModel) ToDomain() *settings.Settings {
	s := &settings.Settings{
		APIToken:          m.APIToken,
		AgentURL:          m.AgentURL,
		AgentKey:          m.AgentKey,
		BaseURL:           m.BaseURL,
		AdminPasswordHash: m.AdminPasswordHash,
	}
	m.PopulateAggregateRoot(&s.BaseAggregateRoot)
	return s
}

// FromDomain populates the persistence model from the domain Settings entity.
func (m *SettingsModel) FromDomain(s *settings.Settings) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.APIToken = s.APIToken
	m.AgentURL = s.AgentURL
	m.AgentKey = s.AgentKey
	m.BaseURL = s.BaseURL
	m.AdminPasswordHash = s.AdminPasswordHash
}

// SettingsModelFromDomain creates a new persistence model from the domain Settings entity.
func SettingsModelFromDomain(s *settings.Settings) *SettingsModel {
	m := &SettingsModel{}
	m.FromDomain(s)
	return m
}
