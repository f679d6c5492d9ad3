package crm

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowedContentTypes is the upload whitelist. SVG stays out because it
// can carry scripts.
var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},

	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {},

	"text/plain": {},
	"text/csv":   {},
}

func contentTypeAllowed(contentType string) bool {
	_, ok := allowedContentTypes[strings.ToLower(contentType)]
	return ok
}

// ObjectStorageService is the storage backend seen from the application
// layer, implemented by S3 or the local stub.
type ObjectStorageService interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// AttachmentServiceConfig bounds uploads per account and per file.
type AttachmentServiceConfig struct {
	UploadURLExpiry          time.Duration
	DownloadURLExpiry        time.Duration
	MaxAttachmentsPerAccount int
	MaxFileSizeBytes         int64
}

// DefaultAttachmentServiceConfig returns the limits used by the server.
func DefaultAttachmentServiceConfig() AttachmentServiceConfig {
	return AttachmentServiceConfig{
		UploadURLExpiry:          15 * time.Minute,
		DownloadURLExpiry:        1 * time.Hour,
		MaxAttachmentsPerAccount: 50,
		MaxFileSizeBytes:         25 * 1024 * 1024,
	}
}

// AttachmentService manages the attachment lifecycle: pending record,
// presigned upload, confirmation, download URLs and deletion.
type AttachmentService struct {
	attachmentRepo crm.AttachmentRepository
	accountRepo    crm.AccountRepository
	store          ObjectStorageService
	config         AttachmentServiceConfig
	log            *zap.Logger
}

// NewAttachmentService wires the service with default limits; SetConfig
// overrides them.
func NewAttachmentService(
	attachmentRepo crm.AttachmentRepository,
	accountRepo crm.AccountRepository,
	store ObjectStorageService,
	log *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		accountRepo:    accountRepo,
		store:          store,
		config:         DefaultAttachmentServiceConfig(),
		log:            log,
	}
}

// SetConfig replaces the service limits.
func (s *AttachmentService) SetConfig(config AttachmentServiceConfig) {
	s.config = config
}

func (s *AttachmentService) checkUploadRequest(ctx context.Context, accountID uuid.UUID, req InitiateUploadRequest) error {
	exists, err := s.accountRepo.ExistsByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.ErrNotFound
	}

	count, err := s.attachmentRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if count >= int64(s.config.MaxAttachmentsPerAccount) {
		return shared.NewDomainError("ATTACHMENT_LIMIT_EXCEEDED",
			fmt.Sprintf("Accounts may hold at most %d attachments", s.config.MaxAttachmentsPerAccount))
	}

	if !contentTypeAllowed(req.ContentType) {
		return shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type %q is not accepted", req.ContentType))
	}
	if req.SizeBytes > s.config.MaxFileSizeBytes {
		return shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds the limit of %d bytes", s.config.MaxFileSizeBytes))
	}
	return nil
}

// InitiateUpload records a pending attachment and hands back a presigned
// PUT URL the client uploads against.
func (s *AttachmentService) InitiateUpload(ctx context.Context, accountID uuid.UUID, req InitiateUploadRequest) (*InitiateUploadResponse, error) {
	if err := s.checkUploadRequest(ctx, accountID, req); err != nil {
		return nil, err
	}

	storageKey := storageKeyFor(accountID, req.FileName)

	attachment, err := crm.NewAttachment(accountID, req.FileName, req.ContentType, storageKey, req.SizeBytes)
	if err != nil {
		return nil, err
	}
	if err := s.attachmentRepo.Save(ctx, attachment); err != nil {
		return nil, err
	}

	uploadURL, expiresAt, err := s.store.GenerateUploadURL(ctx, storageKey, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		// Roll back the pending record so a retry starts clean.
		_ = s.attachmentRepo.Delete(ctx, attachment.ID)
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Could not create an upload URL")
	}

	return &InitiateUploadResponse{
		AttachmentID: attachment.ID,
		UploadURL:    uploadURL,
		ExpiresAt:    expiresAt,
	}, nil
}

// ConfirmUpload checks the object actually landed in storage and flips
// the attachment to uploaded.
func (s *AttachmentService) ConfirmUpload(ctx context.Context, attachmentID uuid.UUID) (*AttachmentResponse, error) {
	attachment, err := s.attachmentRepo.FindByID(ctx, attachmentID)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.ObjectExists(ctx, attachment.StorageKey)
	if err != nil {
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Could not verify the uploaded object")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND",
			"No object found in storage for this attachment. Upload the file first.")
	}

	if err := attachment.MarkUploaded(); err != nil {
		return nil, err
	}
	if err := s.attachmentRepo.Save(ctx, attachment); err != nil {
		return nil, err
	}

	response := ToAttachmentResponse(attachment)
	s.attachDownloadURL(ctx, &response, attachment)
	return &response, nil
}

// ListByAccount returns the account's attachments, uploaded ones with a
// fresh download URL.
func (s *AttachmentService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]AttachmentResponse, error) {
	exists, err := s.accountRepo.ExistsByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrNotFound
	}

	attachments, err := s.attachmentRepo.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	responses := ToAttachmentResponses(attachments)
	for i := range attachments {
		s.attachDownloadURL(ctx, &responses[i], &attachments[i])
	}
	return responses, nil
}

// Delete removes the attachment record and its storage object.
func (s *AttachmentService) Delete(ctx context.Context, attachmentID uuid.UUID) error {
	attachment, err := s.attachmentRepo.FindByID(ctx, attachmentID)
	if err != nil {
		return err
	}

	// The object may already be gone; log and keep going.
	if err := s.store.DeleteObject(ctx, attachment.StorageKey); err != nil {
		s.log.Warn("failed to delete attachment from storage",
			zap.String("attachment_id", attachment.ID.String()),
			zap.String("storage_key", attachment.StorageKey),
			zap.Error(err))
	}

	return s.attachmentRepo.Delete(ctx, attachmentID)
}

// DeleteByAccount removes every attachment belonging to the account.
func (s *AttachmentService) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	attachments, err := s.attachmentRepo.FindByAccount(ctx, accountID)
	if err != nil {
		return err
	}

	for i := range attachments {
		if err := s.Delete(ctx, attachments[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// storageKeyFor namespaces objects by account and randomizes the file
// name, keeping only the extension.
func storageKeyFor(accountID uuid.UUID, fileName string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("accounts/%s/attachments/%s%s", accountID.String(), uuid.New().String(), ext)
}

func (s *AttachmentService) attachDownloadURL(ctx context.Context, response *AttachmentResponse, attachment *crm.Attachment) {
	if attachment.Status != crm.AttachmentStatusUploaded {
		return
	}
	if url, _, err := s.store.GenerateDownloadURL(ctx, attachment.StorageKey, s.config.DownloadURLExpiry); err == nil {
		response.DownloadURL = url
	}
}
