package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockAccountRepository creates a GormAccountRepository with a mocked SQL connection
func newMockAccountRepository(t *testing.T) (*GormAccountRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormAccountRepository(gormDB), mock, mockDB
}

func TestNewGormAccountRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormAccountRepository_FindByID(t *testing.T) {
	t.Run("finds existing account", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "name", "industry", "website", "enrichment_state"}).
			AddRow(accountID, "Acme Corp", "technology", "https://acme.example.com", "ready")

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(accountID, 1).
			WillReturnRows(rows)

		account, err := repo.FindByID(context.Background(), accountID)

		assert.NoError(t, err)
		assert.NotNil(t, account)
		assert.Equal(t, accountID, account.ID)
		assert.Equal(t, "Acme Corp", account.Name)
		assert.Equal(t, crm.EnrichmentStateReady, account.EnrichmentState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent account", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(accountID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		account, err := repo.FindByID(context.Background(), accountID)

		assert.Error(t, err)
		assert.Nil(t, account)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_FindStaleEnriching(t *testing.T) {
	t.Run("finds accounts stuck before the cutoff", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()
		requestedAt := time.Now().Add(-time.Hour)
		cutoff := time.Now().Add(-10 * time.Minute)

		rows := sqlmock.NewRows([]string{"id", "name", "enrichment_state", "enrichment_requested_at"}).
			AddRow(accountID, "Stuck Corp", "enriching", requestedAt)

		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE enrichment_state = \$1 AND enrichment_requested_at < \$2`).
			WithArgs(crm.EnrichmentStateEnriching, cutoff).
			WillReturnRows(rows)

		accounts, err := repo.FindStaleEnriching(context.Background(), cutoff)

		assert.NoError(t, err)
		assert.Len(t, accounts, 1)
		assert.True(t, accounts[0].IsEnriching())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_Save(t *testing.T) {
	t.Run("saves account", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		account, _ := crm.NewAccount("Acme Corp")

		mock.ExpectExec(`UPDATE "accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), account)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_CompareAndSetEnrichmentState(t *testing.T) {
	t.Run("wins the transition when state matches", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectExec(`UPDATE "accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		won, err := repo.CompareAndSetEnrichmentState(context.Background(), accountID,
			crm.EnrichmentStateReady, crm.EnrichmentStateEnriching)

		assert.NoError(t, err)
		assert.True(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses the transition when another request got there first", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectExec(`UPDATE "accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		won, err := repo.CompareAndSetEnrichmentState(context.Background(), accountID,
			crm.EnrichmentStateReady, crm.EnrichmentStateEnriching)

		assert.NoError(t, err)
		assert.False(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_Delete(t *testing.T) {
	t.Run("deletes existing account", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectExec(`DELETE FROM "accounts" WHERE id = \$1`).
			WithArgs(accountID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), accountID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent account", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectExec(`DELETE FROM "accounts" WHERE id = \$1`).
			WithArgs(accountID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), accountID)

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_Count(t *testing.T) {
	t.Run("counts accounts", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.Count(context.Background(), shared.Filter{})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_ExistsByID(t *testing.T) {
	t.Run("returns true when account exists", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE id = \$1`).
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByID(context.Background(), accountID)

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns false when account does not exist", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE id = \$1`).
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByID(context.Background(), accountID)

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements AccountRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		var _ crm.AccountRepository = repo
	})
}
