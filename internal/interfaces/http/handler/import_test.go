package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anycrm/backend/internal/application/importer"
	"github.com/anycrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupImportHandler(accountRepo *MockAccountRepository, contactRepo *MockContactRepository) *ImportHandler {
	accountImporter := importer.NewAccountImportService(accountRepo, nil)
	contactImporter := importer.NewContactImportService(contactRepo, accountRepo, nil)
	return NewImportHandler(accountImporter, contactImporter)
}

func csvUploadRequest(t *testing.T, target, csvContent string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "import.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvContent))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportHandler_ImportAccounts_Success(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	contactRepo := new(MockContactRepository)
	handler := setupImportHandler(accountRepo, contactRepo)

	accountRepo.On("Save", mock.Anything, mock.AnythingOfType("*crm.Account")).Return(nil)

	router := gin.New()
	router.POST("/import/accounts", handler.ImportAccounts)

	csvContent := "name,industry,website\nAcme Corp,Technology,https://acme.example.com\nGlobex,Finance,\n"
	req := csvUploadRequest(t, "/import/accounts", csvContent)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["total_rows"])
	assert.Equal(t, float64(2), data["imported_rows"])
	assert.Equal(t, float64(0), data["error_rows"])

	accountRepo.AssertNumberOfCalls(t, "Save", 2)
}

func TestImportHandler_ImportAccounts_PartialErrors(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	contactRepo := new(MockContactRepository)
	handler := setupImportHandler(accountRepo, contactRepo)

	accountRepo.On("Save", mock.Anything, mock.AnythingOfType("*crm.Account")).Return(nil)

	router := gin.New()
	router.POST("/import/accounts", handler.ImportAccounts)

	csvContent := "name,industry\nAcme Corp,Technology\n,Finance\nGlobex,Alchemy\n"
	req := csvUploadRequest(t, "/import/accounts", csvContent)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(3), data["total_rows"])
	assert.Equal(t, float64(1), data["imported_rows"])
	assert.Equal(t, float64(2), data["error_rows"])

	errorsList := data["errors"].([]any)
	assert.NotEmpty(t, errorsList)

	accountRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestImportHandler_ImportAccounts_MissingNameColumn(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	contactRepo := new(MockContactRepository)
	handler := setupImportHandler(accountRepo, contactRepo)

	router := gin.New()
	router.POST("/import/accounts", handler.ImportAccounts)

	req := csvUploadRequest(t, "/import/accounts", "industry,website\nTechnology,https://acme.example.com\n")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeImportInvalidFile, resp.Error.Code)

	accountRepo.AssertNotCalled(t, "Save")
}

func TestImportHandler_ImportAccounts_EmptyFile(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	contactRepo := new(MockContactRepository)
	handler := setupImportHandler(accountRepo, contactRepo)

	router := gin.New()
	router.POST("/import/accounts", handler.ImportAccounts)

	req := csvUploadRequest(t, "/import/accounts", "name,industry\n")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	accountRepo.AssertNotCalled(t, "Save")
}

func TestImportHandler_ImportAccounts_MissingFile(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	contactRepo := new(MockContactRepository)
	handler := setupImportHandler(accountRepo, contactRepo)

	router := gin.New()
	router.POST("/import/accounts", handler.ImportAccounts)

	req := httptest.NewRequest(http.MethodPost, "/import/accounts", strings.NewReader("name\nAcme\n"))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	accountRepo.AssertNotCalled(t, "Save")
}

func TestImportHandler_ImportContacts_Success(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	contactRepo := new(MockContactRepository)
	handler := setupImportHandler(accountRepo, contactRepo)

	accountID := uuid.New()
	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(true, nil)
	contactRepo.On("Save", mock.Anything, mock.AnythingOfType("*crm.Contact")).Return(nil)

	router := gin.New()
	router.POST("/import/contacts", handler.ImportContacts)

	csvContent := "first_name,last_name,email,account_id\n" +
		"Ada,Lovelace,ada@example.com," + accountID.String() + "\n" +
		"Grace,Hopper,grace@example.com,\n"
	req := csvUploadRequest(t, "/import/contacts", csvContent)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["imported_rows"])

	contactRepo.AssertNumberOfCalls(t, "Save", 2)
	accountRepo.AssertExpectations(t)
}

func TestImportHandler_ImportContacts_UnknownAccountRowSkipped(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	contactRepo := new(MockContactRepository)
	handler := setupImportHandler(accountRepo, contactRepo)

	accountID := uuid.New()
	accountRepo.On("ExistsByID", mock.Anything, accountID).Return(false, nil)

	router := gin.New()
	router.POST("/import/contacts", handler.ImportContacts)

	csvContent := "first_name,last_name,account_id\nAda,Lovelace," + accountID.String() + "\n"
	req := csvUploadRequest(t, "/import/contacts", csvContent)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(0), data["imported_rows"])
	assert.Equal(t, float64(1), data["error_rows"])

	contactRepo.AssertNotCalled(t, "Save")
}

func TestImportHandler_ImportContacts_MissingLastNameColumn(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	contactRepo := new(MockContactRepository)
	handler := setupImportHandler(accountRepo, contactRepo)

	router := gin.New()
	router.POST("/import/contacts", handler.ImportContacts)

	req := csvUploadRequest(t, "/import/contacts", "first_name,email\nAda,ada@example.com\n")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	contactRepo.AssertNotCalled(t, "Save")
}
