package handler

import (
	crmapp "github.com/anycrm/backend/internal/application/crm"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContactHandler handles contact-related API endpoints
type ContactHandler struct {
	BaseHandler
	contactService *crmapp.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService *crmapp.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
	}
}

// Create godoc
// @ID           createContact
// @Summary      Create a new contact
// @Description  Create a new contact, optionally linked to an account
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        request body crmapp.CreateContactRequest true "Contact creation request"
// @Success      201 {object} APIResponse[crmapp.ContactResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	var req crmapp.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	contact, err := h.contactService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, contact)
}

// GetByID godoc
// @ID           getContact
// @Summary      Get contact by ID
// @Tags         contacts
// @Produce      json
// @Param        id path string true "Contact ID"
// @Success      200 {object} APIResponse[crmapp.ContactResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contacts/{id} [get]
func (h *ContactHandler) GetByID(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	contact, err := h.contactService.GetByID(c.Request.Context(), contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// List godoc
// @ID           listContacts
// @Summary      List contacts
// @Description  Retrieve a paginated list of contacts with optional filtering
// @Tags         contacts
// @Produce      json
// @Param        search query string false "Search term (name, email)"
// @Param        account_id query string false "Filter by account ID"
// @Param        unassigned query bool false "Only contacts without an account"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(last_name)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(asc)
// @Success      200 {object} APIResponse[[]crmapp.ContactResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	var filter crmapp.ContactListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	contacts, total, err := h.contactService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page == 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, contacts, page, pageSize, total)
}

// ListByAccount godoc
// @ID           listAccountContacts
// @Summary      List contacts of an account
// @Tags         contacts
// @Produce      json
// @Param        id path string true "Account ID"
// @Success      200 {object} APIResponse[[]crmapp.ContactResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/{id}/contacts [get]
func (h *ContactHandler) ListByAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	contacts, err := h.contactService.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contacts)
}

// Update godoc
// @ID           updateContact
// @Summary      Update a contact
// @Description  Partially update a contact. Setting account_id to null unlinks
// @Description  the contact from its account.
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contact ID"
// @Param        request body crmapp.UpdateContactRequest true "Contact update request"
// @Success      200 {object} APIResponse[crmapp.ContactResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contacts/{id} [patch]
func (h *ContactHandler) Update(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	var req crmapp.UpdateContactRequest
	// An explicit "account_id": null unlinks the contact, while an absent
	// key leaves the link untouched.
	accountIDSet, err := bindJSONTrackingKey(c, &req, "account_id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.AccountIDSet = accountIDSet

	contact, err := h.contactService.Update(c.Request.Context(), contactID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, contact)
}

// Delete godoc
// @ID           deleteContact
// @Summary      Delete a contact
// @Tags         contacts
// @Produce      json
// @Param        id path string true "Contact ID"
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contact ID format")
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), contactID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
