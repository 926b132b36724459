package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicstock/backend/internal/auth/repository"
	"github.com/clinicstock/backend/pkg/errors"
	"github.com/clinicstock/backend/pkg/testutil"
)

const selectUser = `
		SELECT id, username, password_hash, role, is_active, created_at
		FROM users
		WHERE username = $1
	`

func TestGetByUsername(t *testing.T) {
	s := testutil.NewUnitTestSuite(t)
	defer s.Cleanup()
	mockDB := s.MockDB
	repo := repository.NewUserRepository(mockDB.Wrapped())

	fixture := s.Fixtures.User(testutil.WithUsername("nurse.kim"))
	id := fixture.ID
	created := time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery(selectUser).
		WithArgs("nurse.kim").
		WillReturnRows(testutil.MockRows("id", "username", "password_hash", "role", "is_active", "created_at").
			AddRow(id.String(), fixture.Username, fixture.PasswordHash, fixture.Role, fixture.IsActive, created))

	u, err := repo.GetByUsername(context.Background(), "nurse.kim")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "staff", u.Role)
	assert.True(t, u.IsActive)
	assert.Equal(t, created, u.CreatedAt)
}

func TestGetByUsernameMissing(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewUserRepository(mockDB.Wrapped())

	mockDB.ExpectQuery(selectUser).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	mockDB.ExpectationsWereMet(t)
}

func TestCreateUser(t *testing.T) {
	insert := `
		INSERT INTO users (id, username, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	u := &repository.User{
		ID:           uuid.New(),
		Username:     "admin",
		PasswordHash: "$2a$hash",
		Role:         "admin",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	t.Run("stores the row", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectExec(insert).
			WithArgs(testutil.AnyUUID{}, "admin", "$2a$hash", "admin", true, testutil.AnyTime{}).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repository.NewUserRepository(mockDB.Wrapped()).Create(context.Background(), u))
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("taken username", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()

		mockDB.ExpectExec(insert).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		err := repository.NewUserRepository(mockDB.Wrapped()).Create(context.Background(), u)
		assert.ErrorIs(t, err, errors.ErrConflict)
		mockDB.ExpectationsWereMet(t)
	})
}
