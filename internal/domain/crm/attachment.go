package crm

import (
	"strings"

	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AttachmentStatus represents the upload lifecycle of an attachment
type AttachmentStatus string

const (
	AttachmentStatusPending  AttachmentStatus = "pending"
	AttachmentStatusUploaded AttachmentStatus = "uploaded"
)

// IsValid checks if the attachment status is valid
func (s AttachmentStatus) IsValid() bool {
	return s == AttachmentStatusPending || s == AttachmentStatusUploaded
}

// Attachment is a file stored in object storage and linked to an account
type Attachment struct {
	shared.BaseAggregateRoot
	AccountID   uuid.UUID
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	Status      AttachmentStatus
}

// NewAttachment creates a pending attachment record
func NewAttachment(accountID uuid.UUID, fileName, contentType, storageKey string, sizeBytes int64) (*Attachment, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name is required")
	}
	if len(fileName) > 255 {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	if sizeBytes <= 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size must be positive")
	}
	if storageKey == "" {
		return nil, shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key is required")
	}

	return &Attachment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountID:         accountID,
		FileName:          strings.TrimSpace(fileName),
		ContentType:       contentType,
		SizeBytes:         sizeBytes,
		StorageKey:        storageKey,
		Status:            AttachmentStatusPending,
	}, nil
}

// MarkUploaded confirms the object landed in storage
func (a *Attachment) MarkUploaded() error {
	if a.Status == AttachmentStatusUploaded {
		return shared.NewDomainError("INVALID_STATE", "Attachment is already uploaded")
	}
	a.Status = AttachmentStatusUploaded
	a.Touch()
	a.IncrementVersion()
	return nil
}
