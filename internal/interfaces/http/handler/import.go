package handler

import (
	"mime/multipart"

	"github.com/anycrm/backend/internal/application/importer"
	"github.com/anycrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Maximum CSV upload size (10MB)
const maxImportFileSize = 10 << 20

// ImportHandler handles CSV import API endpoints
type ImportHandler struct {
	BaseHandler
	accountImporter *importer.AccountImportService
	contactImporter *importer.ContactImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(
	accountImporter *importer.AccountImportService,
	contactImporter *importer.ContactImportService,
) *ImportHandler {
	return &ImportHandler{
		accountImporter: accountImporter,
		contactImporter: contactImporter,
	}
}

// ImportAccounts godoc
// @ID           importAccounts
// @Summary      Import accounts from CSV
// @Description  Import accounts from an uploaded CSV file. Rows with errors
// @Description  are skipped and reported; valid rows are imported.
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} APIResponse[dto.ImportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /import/accounts [post]
func (h *ImportHandler) ImportAccounts(c *gin.Context) {
	file, ok := h.openImportFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.accountImporter.Import(c.Request.Context(), file)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeImportInvalidFile, err.Error())
		return
	}

	h.Success(c, dto.FromImportResult(result))
}

// ImportContacts godoc
// @ID           importContacts
// @Summary      Import contacts from CSV
// @Description  Import contacts from an uploaded CSV file. Account references
// @Description  are validated; rows pointing at unknown accounts are reported.
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} APIResponse[dto.ImportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /import/contacts [post]
func (h *ImportHandler) ImportContacts(c *gin.Context) {
	file, ok := h.openImportFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.contactImporter.Import(c.Request.Context(), file)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeImportInvalidFile, err.Error())
		return
	}

	h.Success(c, dto.FromImportResult(result))
}

// openImportFile extracts and validates the uploaded CSV file.
func (h *ImportHandler) openImportFile(c *gin.Context) (multipart.File, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file upload")
		return nil, false
	}
	if fileHeader.Size > maxImportFileSize {
		h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, "CSV file exceeds the maximum allowed size")
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to open uploaded file")
		return nil, false
	}
	return file, true
}
