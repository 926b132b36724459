// Package service signs staff in and seeds the first administrator.
package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicstock/backend/internal/auth/jwt"
	"github.com/clinicstock/backend/internal/auth/repository"
	"github.com/clinicstock/backend/pkg/errors"
	"github.com/clinicstock/backend/pkg/logger"
)

// Roles an account may hold.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*repository.User, error)
	Create(ctx context.Context, u *repository.User) error
}

// AuthService handles authentication logic
type AuthService struct {
	users      UserStore
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtManager: jwtManager,
		logger:     log.WithComponent("auth"),
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6"`
}

// UserInfo represents user information
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	*jwt.Token
	User *UserInfo `json:"user"`
}

// Login checks the credentials and returns an access token. Unknown users,
// inactive users and wrong passwords all fail the same way.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if !user.IsActive {
		s.logger.Warn().Str("username", user.Username).Msg("login attempt for inactive user")
		return nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	info := &UserInfo{ID: user.ID.String(), Username: user.Username, Role: user.Role}
	token, err := s.jwtManager.Issue(&jwt.UserInfo{ID: info.ID, Username: info.Username, Role: info.Role})
	if err != nil {
		return nil, errors.Internal("failed to issue token")
	}

	s.logger.Info().Str("username", user.Username).Msg("user logged in")
	return &LoginResponse{Token: token, User: info}, nil
}

// EnsureUser creates an account unless the username already exists. It
// reports whether a user was created.
func (s *AuthService) EnsureUser(ctx context.Context, username, password, role string) (bool, error) {
	if role != RoleAdmin && role != RoleStaff {
		return false, errors.Validation(map[string]string{"role": "must be one of: admin staff"})
	}
	if len(password) < 6 {
		return false, errors.Validation(map[string]string{"password": "must be at least 6"})
	}

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !stderrors.Is(err, errors.ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	if err := s.users.Create(ctx, &repository.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		if stderrors.Is(err, errors.ErrConflict) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info().Str("username", username).Str("role", role).Msg("user created")
	return true, nil
}
