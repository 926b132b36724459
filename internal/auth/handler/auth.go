package handler

import (
	"net/http"

	"github.com/clinicstock/backend/internal/auth/service"
	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/errors"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service *service.AuthService
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		logger:  log,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, response)
}

// Me returns the authenticated actor
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())
	if a == nil {
		httputil.Error(w, errors.Unauthorized("not authenticated"))
		return
	}

	httputil.JSON(w, http.StatusOK, a)
}
