package crm

import (
	"time"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Account DTOs
// =============================================================================

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=255"`
	Industry      string           `json:"industry" binding:"omitempty,max=50"`
	Website       string           `json:"website" binding:"omitempty,max=500"`
	Notes         string           `json:"notes"`
	AnnualRevenue *decimal.Decimal `json:"annual_revenue"`
}

// UpdateAccountRequest represents a request to update an account.
// Nil fields are left unchanged.
type UpdateAccountRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Industry      *string          `json:"industry" binding:"omitempty,max=50"`
	Website       *string          `json:"website" binding:"omitempty,max=500"`
	Notes         *string          `json:"notes"`
	AnnualRevenue *decimal.Decimal `json:"annual_revenue"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID                    uuid.UUID        `json:"id"`
	Name                  string           `json:"name"`
	Industry              string           `json:"industry"`
	Website               string           `json:"website"`
	Notes                 string           `json:"notes"`
	AnnualRevenue         *decimal.Decimal `json:"annual_revenue"`
	EnrichmentState       string           `json:"enrichment_state"`
	EnrichmentRequestedAt *time.Time       `json:"enrichment_requested_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	Version               int              `json:"version"`
}

// AccountListFilter represents filter options for the account list
type AccountListFilter struct {
	Search          string `form:"search"`
	Industry        string `form:"industry" binding:"omitempty,max=50"`
	EnrichmentState string `form:"enrichment_state" binding:"omitempty,oneof=ready enriching"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToAccountResponse converts a domain account to a response DTO
func ToAccountResponse(account *crm.Account) AccountResponse {
	return AccountResponse{
		ID:                    account.ID,
		Name:                  account.Name,
		Industry:              string(account.Industry),
		Website:               account.Website,
		Notes:                 account.Notes,
		AnnualRevenue:         account.AnnualRevenue,
		EnrichmentState:       string(account.EnrichmentState),
		EnrichmentRequestedAt: account.EnrichmentRequestedAt,
		CreatedAt:             account.CreatedAt,
		UpdatedAt:             account.UpdatedAt,
		Version:               account.Version,
	}
}

// ToAccountResponses converts a slice of domain accounts to response DTOs
func ToAccountResponses(accounts []crm.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}

// =============================================================================
// Contact DTOs
// =============================================================================

// CreateContactRequest represents a request to create a new contact
type CreateContactRequest struct {
	FirstName  string     `json:"first_name" binding:"required,min=1,max=100"`
	LastName   string     `json:"last_name" binding:"required,min=1,max=100"`
	Title      string     `json:"title" binding:"omitempty,max=200"`
	Email      string     `json:"email" binding:"omitempty,max=200"`
	ProfileURL string     `json:"profile_url" binding:"omitempty,max=500"`
	Notes      string     `json:"notes"`
	AccountID  *uuid.UUID `json:"account_id"`
}

// UpdateContactRequest represents a request to update a contact.
// Nil fields are left unchanged; AccountID uses the Set flag so the
// link can be cleared explicitly.
type UpdateContactRequest struct {
	FirstName  *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName   *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Title      *string `json:"title" binding:"omitempty,max=200"`
	Email      *string `json:"email" binding:"omitempty,max=200"`
	ProfileURL *string `json:"profile_url" binding:"omitempty,max=500"`
	Notes      *string `json:"notes"`

	AccountID    *uuid.UUID `json:"account_id"`
	AccountIDSet bool       `json:"-"`
}

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	ID         uuid.UUID  `json:"id"`
	AccountID  *uuid.UUID `json:"account_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	FullName   string     `json:"full_name"`
	Title      string     `json:"title"`
	Email      string     `json:"email"`
	ProfileURL string     `json:"profile_url"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Version    int        `json:"version"`
}

// ContactListFilter represents filter options for the contact list
type ContactListFilter struct {
	Search     string `form:"search"`
	AccountID  string `form:"account_id" binding:"omitempty,uuid"`
	Unassigned bool   `form:"unassigned"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToContactResponse converts a domain contact to a response DTO
func ToContactResponse(contact *crm.Contact) ContactResponse {
	return ContactResponse{
		ID:         contact.ID,
		AccountID:  contact.AccountID,
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		FullName:   contact.FullName(),
		Title:      contact.Title,
		Email:      contact.Email,
		ProfileURL: contact.ProfileURL,
		Notes:      contact.Notes,
		CreatedAt:  contact.CreatedAt,
		UpdatedAt:  contact.UpdatedAt,
		Version:    contact.Version,
	}
}

// ToContactResponses converts a slice of domain contacts to response DTOs
func ToContactResponses(contacts []crm.Contact) []ContactResponse {
	responses := make([]ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactResponse(&contacts[i])
	}
	return responses
}

// =============================================================================
// Attachment DTOs
// =============================================================================

// InitiateUploadRequest represents a request to start an attachment upload
type InitiateUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,min=1"`
}

// InitiateUploadResponse carries the presigned upload URL for a new attachment
type InitiateUploadResponse struct {
	AttachmentID uuid.UUID `json:"attachment_id"`
	UploadURL    string    `json:"upload_url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AttachmentResponse represents an attachment in API responses
type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToAttachmentResponse converts a domain attachment to a response DTO
func ToAttachmentResponse(attachment *crm.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          attachment.ID,
		AccountID:   attachment.AccountID,
		FileName:    attachment.FileName,
		ContentType: attachment.ContentType,
		SizeBytes:   attachment.SizeBytes,
		Status:      string(attachment.Status),
		CreatedAt:   attachment.CreatedAt,
	}
}

// ToAttachmentResponses converts a slice of domain attachments to response DTOs
func ToAttachmentResponses(attachments []crm.Attachment) []AttachmentResponse {
	responses := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		responses[i] = ToAttachmentResponse(&attachments[i])
	}
	return responses
}
