package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	crmapp "github.com/anycrm/backend/internal/application/crm"
	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupAttachmentHandler(
	attachmentRepo *MockAttachmentRepository,
	accountRepo *MockAccountRepository,
	storage *MockObjectStorage,
) *AttachmentHandler {
	service := crmapp.NewAttachmentService(attachmentRepo, accountRepo, storage, zap.NewNop())
	return NewAttachmentHandler(service)
}

func createTestAttachment(accountID uuid.UUID) *crm.Attachment {
	attachment, _ := crm.NewAttachment(accountID, "deck.pdf", "application/pdf",
		"accounts/"+accountID.String()+"/attachments/"+uuid.New().String()+".pdf", 1024)
	attachment.ClearDomainEvents()
	return attachment
}

func TestAttachmentHandler_InitiateUpload_Success(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	accountID := uuid.New()
	expiresAt := time.Now().Add(15 * time.Minute)

	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(true, nil)
	attachmentRepo.On("CountByAccount", mock.Anything, accountID).Return(int64(3), nil)
	attachmentRepo.On("Save", mock.Anything, mock.AnythingOfType("*crm.Attachment")).Return(nil)
	storage.On("GenerateUploadURL", mock.Anything, mock.AnythingOfType("string"), "application/pdf", mock.AnythingOfType("time.Duration")).
		Return("https://storage.example.com/upload", expiresAt, nil)

	router := gin.New()
	router.POST("/accounts/:id/attachments", handler.InitiateUpload)

	body, _ := json.Marshal(crmapp.InitiateUploadRequest{
		FileName:    "deck.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/attachments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "https://storage.example.com/upload", data["upload_url"])

	attachmentRepo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestAttachmentHandler_InitiateUpload_AccountNotFound(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	accountID := uuid.New()
	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(false, nil)

	router := gin.New()
	router.POST("/accounts/:id/attachments", handler.InitiateUpload)

	body, _ := json.Marshal(crmapp.InitiateUploadRequest{
		FileName:    "deck.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/attachments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	attachmentRepo.AssertNotCalled(t, "Save")
}

func TestAttachmentHandler_InitiateUpload_LimitExceeded(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	accountID := uuid.New()
	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(true, nil)
	attachmentRepo.On("CountByAccount", mock.Anything, accountID).Return(int64(50), nil)

	router := gin.New()
	router.POST("/accounts/:id/attachments", handler.InitiateUpload)

	body, _ := json.Marshal(crmapp.InitiateUploadRequest{
		FileName:    "deck.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/attachments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	attachmentRepo.AssertNotCalled(t, "Save")
}

func TestAttachmentHandler_InitiateUpload_DisallowedContentType(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	accountID := uuid.New()
	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(true, nil)
	attachmentRepo.On("CountByAccount", mock.Anything, accountID).Return(int64(0), nil)

	router := gin.New()
	router.POST("/accounts/:id/attachments", handler.InitiateUpload)

	body, _ := json.Marshal(crmapp.InitiateUploadRequest{
		FileName:    "logo.svg",
		ContentType: "image/svg+xml",
		SizeBytes:   1024,
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/attachments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	attachmentRepo.AssertNotCalled(t, "Save")
}

func TestAttachmentHandler_InitiateUpload_FileTooLarge(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	accountID := uuid.New()
	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(true, nil)
	attachmentRepo.On("CountByAccount", mock.Anything, accountID).Return(int64(0), nil)

	router := gin.New()
	router.POST("/accounts/:id/attachments", handler.InitiateUpload)

	body, _ := json.Marshal(crmapp.InitiateUploadRequest{
		FileName:    "huge.pdf",
		ContentType: "application/pdf",
		SizeBytes:   26 * 1024 * 1024,
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/attachments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	attachmentRepo.AssertNotCalled(t, "Save")
}

func TestAttachmentHandler_InitiateUpload_URLGenerationFailureRollsBack(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	accountID := uuid.New()
	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(true, nil)
	attachmentRepo.On("CountByAccount", mock.Anything, accountID).Return(int64(0), nil)
	attachmentRepo.On("Save", mock.Anything, mock.AnythingOfType("*crm.Attachment")).Return(nil)
	storage.On("GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", time.Time{}, errors.New("s3 unavailable"))
	attachmentRepo.On("Delete", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)

	router := gin.New()
	router.POST("/accounts/:id/attachments", handler.InitiateUpload)

	body, _ := json.Marshal(crmapp.InitiateUploadRequest{
		FileName:    "deck.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	req := httptest.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/attachments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	attachmentRepo.AssertExpectations(t)
}

func TestAttachmentHandler_ConfirmUpload_Success(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	attachment := createTestAttachment(uuid.New())
	expiresAt := time.Now().Add(time.Hour)

	attachmentRepo.On("FindByID", mock.Anything, attachment.ID).Return(attachment, nil)
	storage.On("ObjectExists", mock.Anything, attachment.StorageKey).Return(true, nil)
	attachmentRepo.On("Save", mock.Anything, mock.AnythingOfType("*crm.Attachment")).Return(nil)
	storage.On("GenerateDownloadURL", mock.Anything, attachment.StorageKey, mock.AnythingOfType("time.Duration")).
		Return("https://storage.example.com/download", expiresAt, nil)

	router := gin.New()
	router.POST("/attachments/:id/confirm", handler.ConfirmUpload)

	req := httptest.NewRequest(http.MethodPost, "/attachments/"+attachment.ID.String()+"/confirm", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "uploaded", data["status"])
	assert.Equal(t, "https://storage.example.com/download", data["download_url"])

	attachmentRepo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestAttachmentHandler_ConfirmUpload_ObjectMissing(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	attachment := createTestAttachment(uuid.New())
	attachmentRepo.On("FindByID", mock.Anything, attachment.ID).Return(attachment, nil)
	storage.On("ObjectExists", mock.Anything, attachment.StorageKey).Return(false, nil)

	router := gin.New()
	router.POST("/attachments/:id/confirm", handler.ConfirmUpload)

	req := httptest.NewRequest(http.MethodPost, "/attachments/"+attachment.ID.String()+"/confirm", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeUploadNotFound, resp.Error.Code)

	attachmentRepo.AssertNotCalled(t, "Save")
}

func TestAttachmentHandler_ConfirmUpload_AlreadyUploaded(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	attachment := createTestAttachment(uuid.New())
	require.NoError(t, attachment.MarkUploaded())

	attachmentRepo.On("FindByID", mock.Anything, attachment.ID).Return(attachment, nil)
	storage.On("ObjectExists", mock.Anything, attachment.StorageKey).Return(true, nil)

	router := gin.New()
	router.POST("/attachments/:id/confirm", handler.ConfirmUpload)

	req := httptest.NewRequest(http.MethodPost, "/attachments/"+attachment.ID.String()+"/confirm", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	attachmentRepo.AssertNotCalled(t, "Save")
}

func TestAttachmentHandler_ListByAccount_Success(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	accountID := uuid.New()
	uploaded := createTestAttachment(accountID)
	require.NoError(t, uploaded.MarkUploaded())
	pending := createTestAttachment(accountID)

	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(true, nil)
	attachmentRepo.On("FindByAccount", mock.Anything, accountID).Return([]crm.Attachment{*uploaded, *pending}, nil)
	storage.On("GenerateDownloadURL", mock.Anything, uploaded.StorageKey, mock.AnythingOfType("time.Duration")).
		Return("https://storage.example.com/download", time.Now().Add(time.Hour), nil)

	router := gin.New()
	router.GET("/accounts/:id/attachments", handler.ListByAccount)

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/attachments", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp.Data.([]any)
	assert.Len(t, items, 2)

	first := items[0].(map[string]any)
	assert.Equal(t, "https://storage.example.com/download", first["download_url"])
	second := items[1].(map[string]any)
	assert.NotContains(t, second, "download_url")

	storage.AssertExpectations(t)
}

func TestAttachmentHandler_Delete_Success(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	attachment := createTestAttachment(uuid.New())
	attachmentRepo.On("FindByID", mock.Anything, attachment.ID).Return(attachment, nil)
	storage.On("DeleteObject", mock.Anything, attachment.StorageKey).Return(nil)
	attachmentRepo.On("Delete", mock.Anything, attachment.ID).Return(nil)

	router := gin.New()
	router.DELETE("/attachments/:id", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/attachments/"+attachment.ID.String(), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	attachmentRepo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestAttachmentHandler_Delete_StorageFailureStillDeletes(t *testing.T) {
	attachmentRepo := new(MockAttachmentRepository)
	accountRepo := new(MockAccountRepository)
	storage := new(MockObjectStorage)
	handler := setupAttachmentHandler(attachmentRepo, accountRepo, storage)

	attachment := createTestAttachment(uuid.New())
	attachmentRepo.On("FindByID", mock.Anything, attachment.ID).Return(attachment, nil)
	storage.On("DeleteObject", mock.Anything, attachment.StorageKey).Return(errors.New("s3 unavailable"))
	attachmentRepo.On("Delete", mock.Anything, attachment.ID).Return(nil)

	router := gin.New()
	router.DELETE("/attachments/:id", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/attachments/"+attachment.ID.String(), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	attachmentRepo.AssertExpectations(t)
}
