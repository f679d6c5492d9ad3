package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anycrm/backend/internal/domain/crm"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockContactRepository(t *testing.T) (*GormContactRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormContactRepository(gormDB), mock, mockDB
}

func TestGormContactRepository_FindByID(t *testing.T) {
	t.Run("finds existing contact", func(t *testing.T) {
		repo, mock, mockDB := newMockContactRepository(t)
		defer mockDB.Close()

		contactID := uuid.New()
		accountID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "account_id", "first_name", "last_name", "email"}).
			AddRow(contactID, accountID, "Ada", "Lovelace", "ada@example.com")

		mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(contactID, 1).
			WillReturnRows(rows)

		contact, err := repo.FindByID(context.Background(), contactID)

		assert.NoError(t, err)
		assert.NotNil(t, contact)
		assert.Equal(t, "Ada Lovelace", contact.FullName())
		require.NotNil(t, contact.AccountID)
		assert.Equal(t, accountID, *contact.AccountID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent contact", func(t *testing.T) {
		repo, mock, mockDB := newMockContactRepository(t)
		defer mockDB.Close()

		contactID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(contactID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		contact, err := repo.FindByID(context.Background(), contactID)

		assert.Error(t, err)
		assert.Nil(t, contact)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_FindByAccount(t *testing.T) {
	t.Run("finds contacts linked to account", func(t *testing.T) {
		repo, mock, mockDB := newMockContactRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "account_id", "first_name", "last_name"}).
			AddRow(uuid.New(), accountID, "Ada", "Lovelace").
			AddRow(uuid.New(), accountID, "Alan", "Turing")

		mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE account_id = \$1`).
			WithArgs(accountID).
			WillReturnRows(rows)

		contacts, err := repo.FindByAccount(context.Background(), accountID, shared.Filter{})

		assert.NoError(t, err)
		assert.Len(t, contacts, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_ClearAccountReference(t *testing.T) {
	t.Run("unlinks all contacts for the account", func(t *testing.T) {
		repo, mock, mockDB := newMockContactRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectExec(`UPDATE "contacts" SET "account_id"=\$1`).
			WillReturnResult(sqlmock.NewResult(0, 3))

		err := repo.ClearAccountReference(context.Background(), accountID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_Save(t *testing.T) {
	t.Run("saves contact", func(t *testing.T) {
		repo, mock, mockDB := newMockContactRepository(t)
		defer mockDB.Close()

		contact, _ := crm.NewContact("Ada", "Lovelace", nil)

		mock.ExpectExec(`UPDATE "contacts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), contact)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_Delete(t *testing.T) {
	t.Run("returns error for non-existent contact", func(t *testing.T) {
		repo, mock, mockDB := newMockContactRepository(t)
		defer mockDB.Close()

		contactID := uuid.New()

		mock.ExpectExec(`DELETE FROM "contacts" WHERE id = \$1`).
			WithArgs(contactID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), contactID)

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_CountByAccount(t *testing.T) {
	t.Run("counts contacts for account", func(t *testing.T) {
		repo, mock, mockDB := newMockContactRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "contacts" WHERE account_id = \$1`).
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		count, err := repo.CountByAccount(context.Background(), accountID)

		assert.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContactRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements ContactRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockContactRepository(t)
		defer mockDB.Close()

		var _ crm.ContactRepository = repo
	})
}
