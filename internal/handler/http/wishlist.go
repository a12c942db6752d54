package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Marcholio/product-review-catalog-sub000/internal/service"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// WishlistHandler handles wishlist endpoints. All routes require a user.
type WishlistHandler struct {
	wishlist *service.WishlistService
	ew       *httputil.ErrorWriter
	logger   *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(wishlist *service.WishlistService, ew *httputil.ErrorWriter, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlist: wishlist,
		ew:       ew,
		logger:   logger,
	}
}

// List handles GET /api/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	result, err := h.wishlist.List(r.Context(), user.ID, pagination.FromRequest(r))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

// Check handles GET /api/wishlist/product/{id}
func (h *WishlistHandler) Check(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	ok, err := h.wishlist.Contains(r.Context(), CurrentUser(r.Context()).ID, productID)
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]bool{"inWishlist": ok})
}

// Add handles POST /api/wishlist/product/{id}
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	item, err := h.wishlist.Add(r.Context(), CurrentUser(r.Context()).ID, productID)
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, item)
}

// Remove handles DELETE /api/wishlist/product/{id}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	if err := h.wishlist.Remove(r.Context(), CurrentUser(r.Context()).ID, productID); err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"productId": productID})
}
