package crm

import (
	"context"

	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactRepository defines persistence operations for contacts
type ContactRepository interface {
	// FindByID finds a contact by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Contact, error)

	// FindAll finds all contacts matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Contact, error)

	// FindByAccount finds the contacts linked to an account
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]Contact, error)

	// Save persists a contact (insert or update)
	Save(ctx context.Context, contact *Contact) error

	// Delete removes a contact
	Delete(ctx context.Context, id uuid.UUID) error

	// ClearAccountReference unlinks every contact pointing at the given
	// account. Used when the account is deleted so contacts survive it.
	ClearAccountReference(ctx context.Context, accountID uuid.UUID) error

	// Count counts contacts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByAccount counts the contacts linked to an account
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// AttachmentRepository defines persistence operations for account attachments
type AttachmentRepository interface {
	// FindByID finds an attachment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Attachment, error)

	// FindByAccount lists the attachments of an account
	FindByAccount(ctx context.Context, accountID uuid.UUID) ([]Attachment, error)

	// CountByAccount counts the attachments of an account
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// Save persists an attachment (insert or update)
	Save(ctx context.Context, attachment *Attachment) error

	// Delete removes an attachment
	Delete(ctx context.Context, id uuid.UUID) error
}
