package models

import (
	"time"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account domain entity.
type AccountModel struct {
	AggregateModel
	Name                  string              `gorm:"type:varchar(255);not null;index"`
	Industry              string              `gorm:"type:varchar(50);index"`
	Website               string              `gorm:"type:varchar(500)"`
	Notes                 string              `gorm:"type:text"`
	AnnualRevenue         *decimal.Decimal    `gorm:"type:decimal(18,2)"`
	EnrichmentState       crm.EnrichmentState `gorm:"type:varchar(20);not null;default:'ready';index"`
	EnrichmentRequestedAt *time.Time
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *crm.Account {
	account := &crm.Account{
		Name:                  m.Name,
		Industry:              crm.Industry(m.Industry),
		Website:               m.Website,
		Notes:                 m.Notes,
		AnnualRevenue:         m.AnnualRevenue,
		EnrichmentState:       m.EnrichmentState,
		EnrichmentRequestedAt: m.EnrichmentRequestedAt,
	}
	m.PopulateAggregateRoot(&account.BaseAggregateRoot)
	return account
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *crm.Account) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Name = a.Name
	m.Industry = string(a.Industry)
	m.Website = a.Website
	m.Notes = a.Notes
	m.AnnualRevenue = a.AnnualRevenue
	m.EnrichmentState = a.EnrichmentState
	m.EnrichmentRequestedAt = a.EnrichmentRequestedAt
}

// AccountModelFromDomain creates a new persistence model from a domain Account entity.
func AccountModelFromDomain(a *crm.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// ContactModel is the persistence model for the Contact domain entity.
type ContactModel struct {
	AggregateModel
	AccountID  *uuid.UUID `gorm:"type:uuid;index"`
	FirstName  string     `gorm:"type:varchar(100);not null"`
	LastName   string     `gorm:"type:varchar(100);not null"`
	Title      string     `gorm:"type:varchar(150)"`
	Email      string     `gorm:"type:varchar(200);index"`
	ProfileURL string     `gorm:"type:varchar(500)"`
	Notes      string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact entity.
func (m *ContactModel) ToDomain() *crm.Contact {
	contact := &crm.Contact{
		AccountID:  m.AccountID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Title:      m.Title,
		Email:      m.Email,
		ProfileURL: m.ProfileURL,
		Notes:      m.Notes,
	}
	m.PopulateAggregateRoot(&contact.BaseAggregateRoot)
	return contact
}

// FromDomain populates the persistence model from a domain Contact entity.
func (m *ContactModel) FromDomain(c *crm.Contact) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.AccountID = c.AccountID
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Title = c.Title
	m.Email = c.Email
	m.ProfileURL = c.ProfileURL
	m.Notes = c.Notes
}

// ContactModelFromDomain creates a new persistence model from a domain Contact entity.
func ContactModelFromDomain(c *crm.Contact) *ContactModel {
	m := &ContactModel{}
	m.FromDomain(c)
	return m
}

// AttachmentModel is the persistence model for the Attachment domain entity.
type AttachmentModel struct {
	AggregateModel
	AccountID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	FileName    string               `gorm:"type:varchar(255);not null"`
	ContentType string               `gorm:"type:varchar(100)"`
	SizeBytes   int64                `gorm:"not null"`
	StorageKey  string               `gorm:"type:varchar(500);not null;uniqueIndex"`
	Status      crm.AttachmentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "attachments"
}

// ToDomain converts the persistence model to a domain Attachment entity.
func (m *AttachmentModel) ToDomain() *crm.Attachment {
	attachment := &crm.Attachment{
		AccountID:   m.AccountID,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		StorageKey:  m.StorageKey,
		Status:      m.Status,
	}
	m.PopulateAggregateRoot(&attachment.BaseAggregateRoot)
	return attachment
}

// FromDomain populates the persistence model from a domain Attachment entity.
func (m *AttachmentModel) FromDomain(a *crm.Attachment) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.AccountID = a.AccountID
	m.FileName = a.FileName
	m.ContentType = a.ContentType
	m.SizeBytes = a.SizeBytes
	m.StorageKey = a.StorageKey
	m.Status = a.Status
}

// AttachmentModelFromDomain creates a new persistence model from a domain Attachment entity.
func AttachmentModelFromDomain(a *crm.Attachment) *AttachmentModel {
	m := &AttachmentModel{}
	m.FromDomain(a)
	return m
}
