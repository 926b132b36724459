// Package repository stores the accounts allowed to sign in.
package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/pkg/database"
	"github.com/clinicstock/backend/pkg/errors"
)

// User is a clinic staff account.
type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserRepository handles user persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	query := `
		SELECT id, username, password_hash, role, is_active, created_at
		FROM users
		WHERE username = $1
	`

	if err := r.db.GetContext(ctx, &u, query, username); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}

	return &u, nil
}

// Create stores a user. A taken username is a conflict.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "users_username_key") {
			return errors.Conflict("username " + u.Username + " is taken")
		}
		return err
	}

	return nil
}
