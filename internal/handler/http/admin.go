package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Marcholio/product-review-catalog-sub000/internal/service"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/validator"
)

// AdminHandler handles user management, password policy and stats routes.
type AdminHandler struct {
	admin    *service.AdminService
	policies *service.PasswordPolicyService
	ew       *httputil.ErrorWriter
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(admin *service.AdminService, policies *service.PasswordPolicyService, ew *httputil.ErrorWriter, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		policies: policies,
		ew:       ew,
		logger:   logger,
	}
}

// AdminUpdateUserRequest is the JSON request body for changing a user.
type AdminUpdateUserRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	IsAdmin *bool   `json:"isAdmin"`
}

// UpdatePasswordPolicyRequest is the JSON request body for a policy change.
type UpdatePasswordPolicyRequest struct {
	MinLength           *int  `json:"minLength" validate:"omitempty,min=1,max=128"`
	RequireUppercase    *bool `json:"requireUppercase"`
	RequireLowercase    *bool `json:"requireLowercase"`
	RequireNumbers      *bool `json:"requireNumbers"`
	RequireSpecialChars *bool `json:"requireSpecialChars"`
	ExpiryDays          *int  `json:"expiryDays" validate:"omitempty,min=0"`
	PreventReuseCount   *int  `json:"preventReuseCount" validate:"omitempty,min=0"`
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.admin.ListUsers(r.Context(), r.URL.Query().Get("search"), pagination.FromRequest(r))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

// UpdateUser handles PATCH /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID("user", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	var req AdminUpdateUserRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	user, err := h.admin.UpdateUser(r.Context(), CurrentUser(r.Context()).ID, id, service.AdminUpdateUserInput{
		Name:    req.Name,
		IsAdmin: req.IsAdmin,
	})
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID("user", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	if err := h.admin.DeleteUser(r.Context(), CurrentUser(r.Context()).ID, id); err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"id": id})
}

// GetPasswordPolicy handles GET /api/admin/password-policy
func (h *AdminHandler) GetPasswordPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policies.Get(r.Context())
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, policy)
}

// UpdatePasswordPolicy handles PUT /api/admin/password-policy
func (h *AdminHandler) UpdatePasswordPolicy(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordPolicyRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	policy, err := h.policies.Update(r.Context(), service.UpdatePasswordPolicyInput{
		MinLength:           req.MinLength,
		RequireUppercase:    req.RequireUppercase,
		RequireLowercase:    req.RequireLowercase,
		RequireNumbers:      req.RequireNumbers,
		RequireSpecialChars: req.RequireSpecialChars,
		ExpiryDays:          req.ExpiryDays,
		PreventReuseCount:   req.PreventReuseCount,
	})
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, policy)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, stats)
}
