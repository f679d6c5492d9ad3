package handler

import (
	"github.com/anycrm/backend/internal/application/enrichment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EnrichmentHandler handles enrichment trigger API endpoints
type EnrichmentHandler struct {
	BaseHandler
	enrichmentService *enrichment.Service
}

// NewEnrichmentHandler creates a new EnrichmentHandler
func NewEnrichmentHandler(enrichmentService *enrichment.Service) *EnrichmentHandler {
	return &EnrichmentHandler{
		enrichmentService: enrichmentService,
	}
}

// Trigger godoc
// @ID           triggerEnrichment
// @Summary      Trigger account enrichment
// @Description  Start an asynchronous enrichment run for the account. The
// @Description  account transitions to the enriching state and the result
// @Description  arrives later through the agent webhook. Optional caller
// @Description  instructions are appended to the agent prompt.
// @Tags         enrichment
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID"
// @Param        request body enrichment.TriggerRequest false "Optional instructions"
// @Success      202 {object} APIResponse[StatusData]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /accounts/{id}/enrich [post]
func (h *EnrichmentHandler) Trigger(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	// The body is optional; a missing one means no extra instructions.
	var req enrichment.TriggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	if err := h.enrichmentService.Trigger(c.Request.Context(), accountID, req.Instructions); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, StatusData{Status: "enriching"})
}
