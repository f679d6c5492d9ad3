package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID        string
	AccountID *uuid.UUID
	Chan      chan SSEMessage
	Done      chan struct{}
}

// SSEMessage represents a message to be sent to SSE clients
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// AccountEventData represents the data sent for account lifecycle events
type AccountEventData struct {
	AccountID    string `json:"account_id"`
	State        string `json:"state,omitempty"`
	Success      *bool  `json:"success,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// EventStreamHandler streams domain events to connected clients over SSE.
// It subscribes to the event bus and forwards enrichment and account
// lifecycle events, optionally filtered per account.
type EventStreamHandler struct {
	BaseHandler
	logger     *zap.Logger
	clients    sync.Map // map[string]*SSEClient
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	started    bool
	startMu    sync.Mutex
	maxClients int
}

// EventStreamOption is a functional option for configuring the handler
type EventStreamOption func(*EventStreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) EventStreamOption {
	return func(h *EventStreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) EventStreamOption {
	return func(h *EventStreamHandler) {
		h.heartbeat = interval
	}
}

// WithStreamMaxClients sets the maximum number of concurrent SSE clients
func WithStreamMaxClients(max int) EventStreamOption {
	return func(h *EventStreamHandler) {
		h.maxClients = max
	}
}

// NewEventStreamHandler creates a new SSE handler for domain events
func NewEventStreamHandler(opts ...EventStreamOption) *EventStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &EventStreamHandler{
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		maxClients: 1000,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// EventTypes returns the event types forwarded to SSE clients
func (h *EventStreamHandler) EventTypes() []string {
	return []string{
		crm.EventTypeEnrichmentStarted,
		crm.EventTypeEnrichmentCompleted,
		crm.EventTypeAccountCreated,
		crm.EventTypeAccountDeleted,
	}
}

// Handle converts a domain event to an SSE message and broadcasts it
func (h *EventStreamHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	data := AccountEventData{
		AccountID: event.AggregateID().String(),
		Timestamp: event.OccurredAt().Unix(),
	}

	switch e := event.(type) {
	case *crm.EnrichmentStartedEvent:
		data.State = string(crm.EnrichmentStateEnriching)
	case *crm.EnrichmentCompletedEvent:
		data.State = string(crm.EnrichmentStateReady)
		success := e.Success
		data.Success = &success
		data.ErrorMessage = e.ErrorMessage
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal SSE event: %w", err)
	}

	h.broadcast(event.AggregateID(), SSEMessage{
		Event: event.EventType(),
		Data:  string(encoded),
		ID:    event.EventID().String(),
	})
	return nil
}

// Start begins the heartbeat loop
func (h *EventStreamHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.started {
		return fmt.Errorf("SSE handler already started")
	}

	go h.sendHeartbeats()

	h.started = true
	h.logger.Info("Event stream handler started")
	return nil
}

// Stop stops the SSE handler and disconnects all clients
func (h *EventStreamHandler) Stop() {
	h.cancel()

	h.clients.Range(func(key, value any) bool {
		if client, ok := value.(*SSEClient); ok {
			close(client.Done)
		}
		return true
	})

	h.logger.Info("Event stream handler stopped")
}

// broadcast sends a message to all connected clients whose filter matches
func (h *EventStreamHandler) broadcast(accountID uuid.UUID, msg SSEMessage) {
	h.clients.Range(func(key, value any) bool {
		client, ok := value.(*SSEClient)
		if !ok {
			return true
		}
		if client.AccountID != nil && *client.AccountID != accountID {
			return true
		}

		select {
		case client.Chan <- msg:
		default:
			// Channel full, client might be slow
			h.logger.Warn("Client channel full, dropping message",
				zap.String("client_id", client.ID))
		}
		return true
	})
}

// sendHeartbeats periodically sends heartbeat messages to keep connections alive
func (h *EventStreamHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.clients.Range(func(key, value any) bool {
				if client, ok := value.(*SSEClient); ok {
					select {
					case client.Chan <- SSEMessage{
						Event: "heartbeat",
						Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
					}:
					default:
					}
				}
				return true
			})
		}
	}
}

// Stream godoc
//
//	@Summary		Subscribe to account events via SSE
//	@Description	Establishes a Server-Sent Events connection streaming account
//	@Description	lifecycle and enrichment state changes, optionally for a
//	@Description	single account
//	@Tags			events
//	@Produce		text/event-stream
//	@Param			account_id	query		string	false	"Only stream events for this account"
//	@Success		200			{string}	string	"SSE stream"
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/events/stream [get]
func (h *EventStreamHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.ClientCount() >= h.maxClients {
		c.JSON(503, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MAX_CONNECTIONS_REACHED",
				"message": "Maximum number of SSE connections reached",
			},
		})
		return
	}

	var accountFilter *uuid.UUID
	if raw := c.Query("account_id"); raw != "" {
		accountID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid account ID format")
			return
		}
		accountFilter = &accountID
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Buffer size allows messages to queue without blocking broadcast
	const sseMessageBufferSize = 100
	client := &SSEClient{
		ID:        uuid.New().String(),
		AccountID: accountFilter,
		Chan:      make(chan SSEMessage, sseMessageBufferSize),
		Done:      make(chan struct{}),
	}

	h.clients.Store(client.ID, client)
	// The channel is never closed: broadcast and heartbeat goroutines may
	// still hold a reference after the client is removed from the map, and
	// a send on a closed channel would panic. Deleting the entry is enough;
	// the channel is collected once the senders move on.
	defer h.clients.Delete(client.ID)

	h.logger.Info("SSE client connected",
		zap.String("client_id", client.ID))

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, client.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	reqCtx := c.Request.Context()

	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("SSE client disconnected",
				zap.String("client_id", client.ID))
			return
		case <-client.Done:
			return
		case <-h.ctx.Done():
			return
		case msg := <-client.Chan:
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

// sendEvent writes an SSE event to the response writer
func (h *EventStreamHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// ClientCount returns the number of connected SSE clients
func (h *EventStreamHandler) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
