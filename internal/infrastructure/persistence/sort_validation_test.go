package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anycrm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns ASC", "", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"DESC uppercase returns DESC", "DESC", "DESC"},
		{"desc lowercase returns DESC", "desc", "DESC"},
		{"whitespace around desc returns DESC", "  desc  ", "DESC"},
		{"invalid value returns ASC", "sideways", "ASC"},
		{"sql injection attempt returns ASC", "ASC; DROP TABLE accounts;--", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		allowed      map[string]bool
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", AccountSortFields, "name", "name"},
		{"whitelisted field passes through", "annual_revenue", AccountSortFields, "name", "annual_revenue"},
		{"whitespace around field is trimmed", "  created_at  ", AccountSortFields, "name", "created_at"},
		{"unknown column returns default", "secret_column", AccountSortFields, "name", "name"},
		{"case sensitive - uppercase rejected", "NAME", AccountSortFields, "name", "name"},
		{"sql injection attempt returns default", "name; DROP TABLE accounts;--", AccountSortFields, "name", "name"},
		{"subquery injection returns default", "(SELECT 1)", ContactSortFields, "last_name", "last_name"},
		{"contact column passes through", "email", ContactSortFields, "last_name", "email"},
		{"empty default with unknown field", "nope", ContactSortFields, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, tt.defaultField))
		})
	}
}

func TestGormAccountRepository_FindAll_HostileOrderBy(t *testing.T) {
	repo, mock, mockDB := newMockAccountRepository(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"id", "name"})
	mock.ExpectQuery(`SELECT \* FROM "accounts" ORDER BY name ASC`).WillReturnRows(rows)

	_, err := repo.FindAll(context.Background(), shared.Filter{
		OrderBy:  `name; DROP TABLE accounts;--`,
		OrderDir: "asc",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormContactRepository_FindAll_HostileOrderBy(t *testing.T) {
	repo, mock, mockDB := newMockContactRepository(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name"})
	mock.ExpectQuery(`SELECT \* FROM "contacts" ORDER BY last_name ASC, first_name ASC`).WillReturnRows(rows)

	_, err := repo.FindAll(context.Background(), shared.Filter{
		OrderBy: `last_name) UNION SELECT password FROM users --`,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
