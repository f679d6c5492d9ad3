package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/anycrm/backend/internal/application/enrichment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Maximum webhook payload size (256KB - enrichment results are small)
const maxWebhookPayloadSize = 262144

// DeliveryIDHeader carries the agent's delivery identifier for webhook
// deduplication. Redeliveries reuse the same value.
const DeliveryIDHeader = "X-Delivery-ID"

// EventTypeHeader tells response deliveries apart from intermediate
// agent events. An absent header counts as a response.
const EventTypeHeader = "aq-event-type"

// WebhookHandler receives enrichment results from the agent.
// These endpoints are called by the agent and do not require authentication.
type WebhookHandler struct {
	BaseHandler
	enrichmentService *enrichment.Service
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(enrichmentService *enrichment.Service) *WebhookHandler {
	return &WebhookHandler{
		enrichmentService: enrichmentService,
	}
}

// WebhookResponse represents the webhook acknowledgement
//
//	@Description	Enrichment webhook response
type WebhookResponse struct {
	Received bool   `json:"received" example:"true"`
	Message  string `json:"message,omitempty" example:"Result applied"`
}

// HandleEnrichmentResult godoc
//
//	@ID				handleEnrichmentResult
//	@Summary		Receive an enrichment result
//	@Description	Apply the enrichment result delivered by the agent to the account.
//	@Description	Redeliveries carrying a previously seen delivery ID are acknowledged
//	@Description	without being applied twice.
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Delivery-ID	header		string			false	"Delivery identifier for deduplication"
//	@Param			aq-event-type	header		string			false	"Agent event type; only response events are applied"
//	@Param			id				path		string			true	"Account ID"
//	@Success		200				{object}	WebhookResponse	"Result applied"
//	@Failure		400				{object}	WebhookResponse	"Invalid request"
//	@Failure		404				{object}	WebhookResponse	"Account not found"
//	@Failure		413				{object}	WebhookResponse	"Payload too large"
//	@Failure		422				{object}	WebhookResponse	"Account not in enriching state"
//	@Failure		500				{object}	WebhookResponse	"Internal server error"
//	@Router			/webhook/accounts/{id} [post]
func (h *WebhookHandler) HandleEnrichmentResult(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{
			Received: false,
			Message:  "Invalid account ID format",
		})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{
			Received: false,
			Message:  "Failed to read request body",
		})
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, WebhookResponse{
			Received: false,
			Message:  "Payload too large",
		})
		return
	}
	if len(payload) == 0 {
		c.JSON(http.StatusBadRequest, WebhookResponse{
			Received: false,
			Message:  enrichment.ErrNilPayload.Error(),
		})
		return
	}

	var result enrichment.ResultPayload
	if err := json.Unmarshal(payload, &result); err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{
			Received: false,
			Message:  "Invalid JSON payload",
		})
		return
	}

	eventType := c.GetHeader(EventTypeHeader)
	if eventType == "" {
		eventType = enrichment.EventTypeResponse
	}

	deliveryID := c.GetHeader(DeliveryIDHeader)
	if err := h.enrichmentService.ApplyResult(c.Request.Context(), accountID, eventType, deliveryID, result); err != nil {
		h.HandleError(c, err)
		return
	}

	if eventType != enrichment.EventTypeResponse {
		c.JSON(http.StatusOK, WebhookResponse{Received: true, Message: "Event ignored"})
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{Received: true, Message: "Result applied"})
}
