package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anycrm/backend/internal/domain/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockSettingsRepository(t *testing.T) (*GormSettingsRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormSettingsRepository(gormDB), mock, mockDB
}

func TestGormSettingsRepository_Get(t *testing.T) {
	t.Run("returns existing settings row", func(t *testing.T) {
		repo, mock, mockDB := newMockSettingsRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "api_token", "agent_url", "base_url"}).
			AddRow(settings.SingletonID, "secret-token", "https://agent.example.com", "https://crm.example.com")

		mock.ExpectQuery(`SELECT \* FROM "settings" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(settings.SingletonID, 1).
			WillReturnRows(rows)

		s, err := repo.Get(context.Background())

		assert.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, settings.SingletonID, s.ID)
		assert.Equal(t, "secret-token", s.APIToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates empty row on first access", func(t *testing.T) {
		repo, mock, mockDB := newMockSettingsRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "settings" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(settings.SingletonID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		mock.ExpectExec(`UPDATE "settings" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s, err := repo.Get(context.Background())

		assert.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, settings.SingletonID, s.ID)
		assert.Empty(t, s.APIToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSettingsRepository_Save(t *testing.T) {
	t.Run("persists settings", func(t *testing.T) {
		repo, mock, mockDB := newMockSettingsRepository(t)
		defer mockDB.Close()

		s := settings.NewSettings()
		require.NoError(t, s.UpdateAgent("https://agent.example.com", "agent-key"))

		mock.ExpectExec(`UPDATE "settings" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), s)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
