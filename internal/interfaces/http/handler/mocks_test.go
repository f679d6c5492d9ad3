package handler

import (
	"context"
	"time"

	crmapp "github.com/anycrm/backend/internal/application/crm"
	"github.com/anycrm/backend/internal/application/enrichment"
	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/settings"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository implements crm.AccountRepository for testing
type MockAccountRepository struct {
	mock.Mock
}

var _ crm.AccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Account, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByIndustry(ctx context.Context, industry crm.Industry, filter shared.Filter) ([]crm.Account, error) {
	args := m.Called(ctx, industry, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.Account), args.Error(1)
}

func (m *MockAccountRepository) FindStaleEnriching(ctx context.Context, cutoff time.Time) ([]crm.Account, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *crm.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) CompareAndSetEnrichmentState(ctx context.Context, id uuid.UUID, from, to crm.EnrichmentState) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockContactRepository implements crm.ContactRepository for testing
type MockContactRepository struct {
	mock.Mock
}

var _ crm.ContactRepository = (*MockContactRepository)(nil)

func (m *MockContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Contact), args.Error(1)
}

func (m *MockContactRepository) FindAll(ctx context.Context, filter shared.Filter) ([]crm.Contact, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]crm.Contact, error) {
	args := m.Called(ctx, accountID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.Contact), args.Error(1)
}

func (m *MockContactRepository) Save(ctx context.Context, contact *crm.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContactRepository) ClearAccountReference(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockContactRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContactRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAttachmentRepository implements crm.AttachmentRepository for testing
type MockAttachmentRepository struct {
	mock.Mock
}

var _ crm.AttachmentRepository = (*MockAttachmentRepository)(nil)

func (m *MockAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) FindByAccount(ctx context.Context, accountID uuid.UUID) ([]crm.Attachment, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttachmentRepository) Save(ctx context.Context, attachment *crm.Attachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

func (m *MockAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSettingsRepository implements settings.Repository for testing
type MockSettingsRepository struct {
	mock.Mock
}

var _ settings.Repository = (*MockSettingsRepository)(nil)

func (m *MockSettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockObjectStorage implements crmapp.ObjectStorageService for testing
type MockObjectStorage struct {
	mock.Mock
}

var _ crmapp.ObjectStorageService = (*MockObjectStorage)(nil)

func (m *MockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

// MockAgentClient implements enrichment.AgentClient for testing
type MockAgentClient struct {
	mock.Mock
}

var _ enrichment.AgentClient = (*MockAgentClient)(nil)

func (m *MockAgentClient) Run(ctx context.Context, req enrichment.AgentRunRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockIdempotencyStore implements shared.IdempotencyStore for testing
type MockIdempotencyStore struct {
	mock.Mock
}

var _ shared.IdempotencyStore = (*MockIdempotencyStore)(nil)

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, deliveryID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, deliveryID string) (bool, error) {
	args := m.Called(ctx, deliveryID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockTokenIssuer implements settingsapp.TokenIssuer for testing
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken() (string, time.Time, error) {
	args := m.Called()
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockEventPublisher implements shared.EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

var _ shared.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
