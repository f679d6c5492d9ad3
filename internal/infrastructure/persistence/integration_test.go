package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/settings"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anycrm/backend/internal/infrastructure/persistence/models"
)

// newIntegrationDB spins up a PostgreSQL container and migrates the schema.
// Skipped under -short so the unit suite stays Docker-free.
func newIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("crm_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(terminateCtx)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to connect to database")

	require.NoError(t, db.AutoMigrate(
		&models.AccountModel{},
		&models.ContactModel{},
		&models.AttachmentModel{},
		&models.SettingsModel{},
	))

	return db
}

func TestIntegration_AccountRoundTrip(t *testing.T) {
	db := newIntegrationDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()

	account, err := crm.NewAccount("Acme Corp")
	require.NoError(t, err)
	require.NoError(t, account.UpdateIndustry(crm.IndustryTechnology))
	require.NoError(t, account.UpdateAnnualRevenue(decimalPtr("1250000.50")))

	require.NoError(t, repo.Save(ctx, account))

	loaded, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", loaded.Name)
	assert.Equal(t, crm.IndustryTechnology, loaded.Industry)
	require.NotNil(t, loaded.AnnualRevenue)
	assert.True(t, loaded.AnnualRevenue.Equal(decimal.RequireFromString("1250000.50")))
	assert.Equal(t, crm.EnrichmentStateReady, loaded.EnrichmentState)

	accounts, err := repo.FindAll(ctx, shared.Filter{Search: "acme"})
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestIntegration_EnrichmentStateTransition(t *testing.T) {
	db := newIntegrationDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()

	account, err := crm.NewAccount("Transition Corp")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, account))

	won, err := repo.CompareAndSetEnrichmentState(ctx, account.ID,
		crm.EnrichmentStateReady, crm.EnrichmentStateEnriching)
	require.NoError(t, err)
	assert.True(t, won)

	// Second claim must lose: the row is already enriching.
	won, err = repo.CompareAndSetEnrichmentState(ctx, account.ID,
		crm.EnrichmentStateReady, crm.EnrichmentStateEnriching)
	require.NoError(t, err)
	assert.False(t, won)

	loaded, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsEnriching())
	assert.NotNil(t, loaded.EnrichmentRequestedAt)

	stale, err := repo.FindStaleEnriching(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	won, err = repo.CompareAndSetEnrichmentState(ctx, account.ID,
		crm.EnrichmentStateEnriching, crm.EnrichmentStateReady)
	require.NoError(t, err)
	assert.True(t, won)

	loaded, err = repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsEnriching())
	assert.Nil(t, loaded.EnrichmentRequestedAt)
}

func TestIntegration_ContactUnlinkOnAccountDelete(t *testing.T) {
	db := newIntegrationDB(t)
	accountRepo := NewGormAccountRepository(db)
	contactRepo := NewGormContactRepository(db)
	ctx := context.Background()

	account, err := crm.NewAccount("Linked Corp")
	require.NoError(t, err)
	require.NoError(t, accountRepo.Save(ctx, account))

	contact, err := crm.NewContact("Ada", "Lovelace", &account.ID)
	require.NoError(t, err)
	require.NoError(t, contactRepo.Save(ctx, contact))

	count, err := contactRepo.CountByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, contactRepo.ClearAccountReference(ctx, account.ID))
	require.NoError(t, accountRepo.Delete(ctx, account.ID))

	loaded, err := contactRepo.FindByID(ctx, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.AccountID)
}

func TestIntegration_SettingsSingleton(t *testing.T) {
	db := newIntegrationDB(t)
	repo := NewGormSettingsRepository(db)
	ctx := context.Background()

	// First access creates the row.
	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.SingletonID, s.ID)
	assert.Empty(t, s.APIToken)

	s.UpdateAPIToken("secret-token")
	require.NoError(t, s.UpdateAgent("https://agent.example.com", "agent-key"))
	require.NoError(t, repo.Save(ctx, s))

	reloaded, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", reloaded.APIToken)
	assert.Equal(t, "https://agent.example.com", reloaded.AgentURL)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
