package http

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/service"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/validator"
)

// UserHandler handles registration, login and self-service account routes.
type UserHandler struct {
	users  *service.UserService
	ew     *httputil.ErrorWriter
	logger *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(users *service.UserService, ew *httputil.ErrorWriter, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		ew:     ew,
		logger: logger,
	}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration. Password rules
// come from the stored password policy, not from tags.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdatePreferencesRequest is the JSON request body for preference changes.
type UpdatePreferencesRequest struct {
	DefaultSort     *string          `json:"defaultSort"`
	DefaultCategory *string          `json:"defaultCategory" validate:"omitempty,max=100"`
	Theme           *string          `json:"theme"`
	MinBudget       *decimal.Decimal `json:"minBudget"`
	MaxBudget       *decimal.Decimal `json:"maxBudget"`
}

// ChangePasswordRequest is the JSON request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
}

// --- Handlers ---

// Register handles POST /api/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	result, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, result)
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	result, err := h.users.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, CurrentUser(r.Context()))
}

// UpdatePreferences handles PATCH /api/users/preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req UpdatePreferencesRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	user, err := h.users.UpdatePreferences(r.Context(), CurrentUser(r.Context()).ID, service.UpdatePreferencesInput{
		DefaultSort:     req.DefaultSort,
		DefaultCategory: req.DefaultCategory,
		Theme:           req.Theme,
		MinBudget:       req.MinBudget,
		MaxBudget:       req.MaxBudget,
	})
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, user)
}

// ChangePassword handles PATCH /api/users/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	err := h.users.ChangePassword(r.Context(), CurrentUser(r.Context()).ID, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"message": "password updated"})
}
