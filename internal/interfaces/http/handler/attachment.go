package handler

import (
	crmapp "github.com/anycrm/backend/internal/application/crm"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AttachmentHandler handles account attachment API endpoints
type AttachmentHandler struct {
	BaseHandler
	attachmentService *crmapp.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentService *crmapp.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
	}
}

// InitiateUpload godoc
// @ID           initiateAttachmentUpload
// @Summary      Start an attachment upload
// @Description  Register attachment metadata and return a presigned upload URL.
// @Description  The client uploads the file directly to object storage and then
// @Description  confirms the upload.
// @Tags         attachments
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID"
// @Param        request body crmapp.InitiateUploadRequest true "Upload initiation request"
// @Success      201 {object} APIResponse[crmapp.InitiateUploadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/{id}/attachments [post]
func (h *AttachmentHandler) InitiateUpload(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req crmapp.InitiateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	upload, err := h.attachmentService.InitiateUpload(c.Request.Context(), accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, upload)
}

// ConfirmUpload godoc
// @ID           confirmAttachmentUpload
// @Summary      Confirm an attachment upload
// @Description  Verify the object landed in storage and mark the attachment uploaded
// @Tags         attachments
// @Produce      json
// @Param        id path string true "Attachment ID"
// @Success      200 {object} APIResponse[crmapp.AttachmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /attachments/{id}/confirm [post]
func (h *AttachmentHandler) ConfirmUpload(c *gin.Context) {
	attachmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid attachment ID format")
		return
	}

	attachment, err := h.attachmentService.ConfirmUpload(c.Request.Context(), attachmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, attachment)
}

// ListByAccount godoc
// @ID           listAccountAttachments
// @Summary      List attachments of an account
// @Description  List attachments with presigned download URLs for uploaded files
// @Tags         attachments
// @Produce      json
// @Param        id path string true "Account ID"
// @Success      200 {object} APIResponse[[]crmapp.AttachmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/{id}/attachments [get]
func (h *AttachmentHandler) ListByAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	attachments, err := h.attachmentService.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, attachments)
}

// Delete godoc
// @ID           deleteAttachment
// @Summary      Delete an attachment
// @Description  Remove the attachment record and its stored object
// @Tags         attachments
// @Produce      json
// @Param        id path string true "Attachment ID"
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	attachmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid attachment ID format")
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), attachmentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
