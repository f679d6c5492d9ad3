package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/settings"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/anycrm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AgentRunRequest describes an enrichment run handed to the external agent
type AgentRunRequest struct {
	AgentURL string
	APIKey   string
	Prompt   string
	Webhook  string
}

// AgentClient dispatches enrichment runs to the external agent.
// Implemented by the infrastructure layer.
type AgentClient interface {
	Run(ctx context.Context, req AgentRunRequest) error
}

// ResultPayload is the result the agent posts back over the webhook.
// A non-nil Error marks the attempt as failed; field values are merged
// into the account otherwise.
type ResultPayload struct {
	Industry      *string          `json:"industry"`
	Website       *string          `json:"website"`
	Notes         *string          `json:"notes"`
	AnnualRevenue *decimal.Decimal `json:"annual_revenue"`
	Error         *string          `json:"error"`
}

// TriggerRequest carries the optional caller instructions for a run.
type TriggerRequest struct {
	Instructions string `json:"instructions" binding:"omitempty,max=2000"`
}

// ServiceConfig holds tunables for the enrichment workflow
type ServiceConfig struct {
	// StaleAfter is how long an account may sit in the enriching state
	// before the sweeper returns it to ready
	StaleAfter time.Duration
	// WebhookIdempotencyTTL is how long processed webhook deliveries are remembered
	WebhookIdempotencyTTL time.Duration
	// DispatchTimeout bounds the background agent call
	DispatchTimeout time.Duration
}

// rollbackTimeout bounds the state rollback after a failed dispatch.
const rollbackTimeout = 10 * time.Second

// EventTypeResponse is the agent webhook event carrying the final run
// result. Other event types (progress, tool output) are acknowledged
// without being applied.
const EventTypeResponse = "response"

// DefaultServiceConfig returns the default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		StaleAfter:            10 * time.Minute,
		WebhookIdempotencyTTL: 24 * time.Hour,
		DispatchTimeout:       60 * time.Second,
	}
}

// Service coordinates the asynchronous account enrichment workflow
type Service struct {
	accountRepo  crm.AccountRepository
	settingsRepo settings.Repository
	agentClient  AgentClient
	idempotency  shared.IdempotencyStore
	publisher    shared.EventPublisher
	config       ServiceConfig
	logger       *zap.Logger
}

// NewService creates a new enrichment Service
func NewService(
	accountRepo crm.AccountRepository,
	settingsRepo settings.Repository,
	agentClient AgentClient,
	idempotency shared.IdempotencyStore,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		accountRepo:  accountRepo,
		settingsRepo: settingsRepo,
		agentClient:  agentClient,
		idempotency:  idempotency,
		publisher:    publisher,
		config:       DefaultServiceConfig(),
		logger:       logger,
	}
}

// SetConfig sets the service configuration
func (s *Service) SetConfig(config ServiceConfig) {
	s.config = config
}

// Trigger starts an enrichment run for the account, with optional caller
// instructions appended to the agent prompt. The state transition is a
// guarded update so concurrent triggers resolve to a single winner; the
// loser gets an ENRICHMENT_IN_PROGRESS error. The agent call itself happens
// in the background and the caller returns immediately.
func (s *Service) Trigger(ctx context.Context, accountID uuid.UUID, instructions string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "enrichment", "trigger",
		telemetry.WithAttribute(telemetry.SpanAttrAccountID, accountID.String()))
	defer span.End()

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	cfg, err := s.settingsRepo.Get(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if !cfg.AgentConfigured() {
		err := shared.NewDomainError("AGENT_NOT_CONFIGURED", "Configure the agent URL in settings before triggering enrichment")
		telemetry.RecordError(span, err)
		return err
	}

	won, err := s.accountRepo.CompareAndSetEnrichmentState(ctx, accountID,
		crm.EnrichmentStateReady, crm.EnrichmentStateEnriching)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if !won {
		err := shared.NewDomainError("ENRICHMENT_IN_PROGRESS", "An enrichment run is already in progress for this account")
		telemetry.RecordError(span, err)
		return err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, crm.NewEnrichmentStartedEvent(account))
	}

	run := AgentRunRequest{
		AgentURL: cfg.AgentURL,
		APIKey:   cfg.AgentKey,
		Prompt:   buildPrompt(account, instructions),
		Webhook:  webhookURL(cfg.BaseURL, accountID),
	}

	go s.dispatch(account, run)

	telemetry.AddEvent(span, "enrichment_dispatched",
		telemetry.SpanAttrAccountName, account.Name)
	telemetry.SetOK(span)
	return nil
}

// dispatch performs the agent call in the background. A failed dispatch
// rolls the account back to ready and reports a failed attempt, so the
// caller never has to poll for a run that never started.
func (s *Service) dispatch(account *crm.Account, run AgentRunRequest) {
	runCtx, cancel := context.WithTimeout(context.Background(), s.config.DispatchTimeout)
	err := s.agentClient.Run(runCtx, run)
	cancel()
	if err == nil {
		return
	}

	s.logger.Error("agent dispatch failed",
		zap.String("account_id", account.ID.String()),
		zap.Error(err),
	)

	// The run context is spent when the call timed out; the rollback
	// needs its own deadline or the account stays enriching until the
	// sweeper reclaims it.
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	won, casErr := s.accountRepo.CompareAndSetEnrichmentState(ctx, account.ID,
		crm.EnrichmentStateEnriching, crm.EnrichmentStateReady)
	if casErr != nil {
		s.logger.Error("failed to roll back enrichment state",
			zap.String("account_id", account.ID.String()),
			zap.Error(casErr),
		)
		return
	}
	if won && s.publisher != nil {
		_ = s.publisher.Publish(ctx, crm.NewEnrichmentCompletedEvent(account, false, err.Error()))
	}
}

// ApplyResult applies an agent result delivered over the webhook. Only
// final response events touch the account; intermediate agent events are
// acknowledged and dropped. Deliveries are deduplicated by deliveryID;
// replays return without touching the account.
func (s *Service) ApplyResult(ctx context.Context, accountID uuid.UUID, eventType, deliveryID string, payload ResultPayload) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "enrichment", "apply_result",
		telemetry.WithAttribute(telemetry.SpanAttrAccountID, accountID.String()))
	defer span.End()

	if eventType != EventTypeResponse {
		s.logger.Info("ignoring non-response webhook event",
			zap.String("account_id", accountID.String()),
			zap.String("event_type", eventType),
		)
		telemetry.AddEvent(span, "event_ignored", "event_type", eventType)
		telemetry.SetOK(span)
		return nil
	}

	if deliveryID != "" && s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, deliveryKey(accountID, deliveryID), s.config.WebhookIdempotencyTTL)
		if err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		if !fresh {
			s.logger.Info("ignoring duplicate webhook delivery",
				zap.String("account_id", accountID.String()),
				zap.String("delivery_id", deliveryID),
			)
			telemetry.AddEvent(span, "duplicate_delivery_ignored")
			telemetry.SetOK(span)
			return nil
		}
	}

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	var result *crm.EnrichmentResult
	success := payload.Error == nil
	if success {
		result = &crm.EnrichmentResult{
			Industry:      payload.Industry,
			Website:       payload.Website,
			Notes:         payload.Notes,
			AnnualRevenue: payload.AnnualRevenue,
		}
	}

	if err := account.CompleteEnrichment(result); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	errorMessage := ""
	if payload.Error != nil {
		errorMessage = *payload.Error
	}
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, crm.NewEnrichmentCompletedEvent(account, success, errorMessage))
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrEnrichmentState, string(account.EnrichmentState),
		"enrichment.success", success)
	telemetry.SetOK(span)
	return nil
}

// SweepStale returns accounts stuck in the enriching state to ready.
// Each reclaimed account reports one failed attempt.
func (s *Service) SweepStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.config.StaleAfter)
	stale, err := s.accountRepo.FindStaleEnriching(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		account := &stale[i]
		won, err := s.accountRepo.CompareAndSetEnrichmentState(ctx, account.ID,
			crm.EnrichmentStateEnriching, crm.EnrichmentStateReady)
		if err != nil {
			s.logger.Error("failed to reclaim stale enrichment",
				zap.String("account_id", account.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !won {
			// The webhook landed between the query and the update.
			continue
		}

		swept++
		s.logger.Warn("reclaimed stale enrichment",
			zap.String("account_id", account.ID.String()),
		)
		if s.publisher != nil {
			_ = s.publisher.Publish(ctx, crm.NewEnrichmentCompletedEvent(account, false, "enrichment timed out"))
		}
	}

	return swept, nil
}

// buildPrompt renders the instruction handed to the agent
func buildPrompt(account *crm.Account, instructions string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research the company %q and report its industry, website, estimated annual revenue in USD, and a short profile.", account.Name)
	if account.Website != "" {
		fmt.Fprintf(&b, " Known website: %s.", account.Website)
	}
	if account.Industry != "" {
		fmt.Fprintf(&b, " Currently filed under: %s.", account.Industry)
	}
	if instructions = strings.TrimSpace(instructions); instructions != "" {
		fmt.Fprintf(&b, " Additional instructions: %s", instructions)
	}
	return b.String()
}

// webhookURL builds the callback URL the agent posts results to
func webhookURL(baseURL string, accountID uuid.UUID) string {
	return fmt.Sprintf("%s/webhook/accounts/%s", strings.TrimRight(baseURL, "/"), accountID)
}

// deliveryKey namespaces webhook delivery IDs per account
func deliveryKey(accountID uuid.UUID, deliveryID string) string {
	return accountID.String() + ":" + deliveryID
}

// ErrNilPayload guards the webhook handler against empty bodies
var ErrNilPayload = errors.New("enrichment: empty result payload")
