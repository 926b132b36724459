package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicstock/backend/internal/auth/handler"
	"github.com/clinicstock/backend/internal/auth/jwt"
	"github.com/clinicstock/backend/internal/auth/repository"
	"github.com/clinicstock/backend/internal/auth/service"
	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/config"
	"github.com/clinicstock/backend/pkg/errors"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
	"github.com/clinicstock/backend/pkg/testutil"
)

type singleUser struct {
	user repository.User
}

func (s singleUser) GetByUsername(_ context.Context, username string) (*repository.User, error) {
	if username != s.user.Username {
		return nil, errors.NotFound("user")
	}
	u := s.user
	return &u, nil
}

func (s singleUser) Create(context.Context, *repository.User) error {
	return errors.Conflict("read only")
}

func newRouter(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()
	fixture := testutil.NewFixtureFactory().User(testutil.WithUsername("pharm.lee"), testutil.WithRole("admin"))
	store := singleUser{user: repository.User{
		ID:           fixture.ID,
		Username:     fixture.Username,
		PasswordHash: fixture.PasswordHash,
		Role:         fixture.Role,
		IsActive:     true,
	}}

	manager := jwt.NewManager(&config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour, Issuer: "clinicstock"})
	h := handler.NewAuthHandler(service.NewAuthService(store, manager, logger.Nop()), logger.Nop())

	r := chi.NewRouter()
	r.Post("/auth/login", h.Login)
	r.With(handler.RequireAuth(manager)).Get("/auth/me", h.Me)
	return r, manager
}

type tokenEnvelope struct {
	Data  service.LoginResponse `json:"data"`
	Error *httputil.ErrorBody   `json:"error"`
}

func TestLoginThenMe(t *testing.T) {
	r, _ := newRouter(t)

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/auth/login", map[string]string{
		"username": "pharm.lee",
		"password": testutil.DefaultPassword,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var login tokenEnvelope
	testutil.ParseJSONBody(t, rr, &login)
	require.NotNil(t, login.Data.Token)
	require.NotEmpty(t, login.Data.AccessToken)
	assert.Equal(t, "admin", login.Data.User.Role)

	req := testutil.WithBearer(testutil.NewHTTPRequest(http.MethodGet, "/auth/me", nil), login.Data.AccessToken)
	rr = testutil.ExecuteRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var me struct {
		Data actor.Actor `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &me)
	assert.Equal(t, "pharm.lee", me.Data.Username)
	assert.Equal(t, "admin", me.Data.Role)
}

func TestLoginRejected(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"wrong password", map[string]string{"username": "pharm.lee", "password": "not-it-at-all"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"missing password", map[string]string{"username": "pharm.lee"}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/auth/login", tt.body))
			testutil.AssertStatus(t, rr, tt.status)
			var env tokenEnvelope
			testutil.ParseJSONBody(t, rr, &env)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	r, manager := newRouter(t)
	foreign := jwt.NewManager(&config.JWTConfig{Secret: "someone-else", AccessExpiry: time.Hour, Issuer: "clinicstock"})
	forged, err := foreign.Issue(&jwt.UserInfo{ID: "x", Username: "mallory", Role: "admin"})
	require.NoError(t, err)
	valid, err := manager.Issue(&jwt.UserInfo{ID: "y", Username: "nurse.kim", Role: "staff"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid.AccessToken, http.StatusUnauthorized},
		{"forged token", "Bearer " + forged.AccessToken, http.StatusUnauthorized},
		{"valid token", "Bearer " + valid.AccessToken, http.StatusOK},
		{"lowercase scheme", "bearer " + valid.AccessToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewHTTPRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			testutil.AssertStatus(t, testutil.ExecuteRequest(r, req), tt.status)
		})
	}
}
