package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/service"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/validator"
)

// ReviewHandler handles review submission, listing and moderation.
type ReviewHandler struct {
	reviews *service.ReviewService
	ew      *httputil.ErrorWriter
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, ew *httputil.ErrorWriter, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		ew:      ew,
		logger:  logger,
	}
}

// CreateReviewRequest is the JSON request body for submitting a review.
type CreateReviewRequest struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment" validate:"max=2000"`
	UserName string `json:"userName" validate:"max=100"`
}

// UpdateReviewStatusRequest is the JSON request body for moderating a review.
type UpdateReviewStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// CreateReview handles POST /api/reviews/product/{id}
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), productID, service.CreateReviewInput{
		Rating:   req.Rating,
		Comment:  req.Comment,
		UserName: req.UserName,
	}, CurrentUser(r.Context()))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, review)
}

// ListProductReviews handles GET /api/reviews/product/{id}
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	result, err := h.reviews.ListProductReviews(r.Context(), productID, pagination.FromRequest(r))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

// AdminListReviews handles GET /api/admin/reviews
func (h *ReviewHandler) AdminListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.AdminReviewFilter{
		Status: domain.ReviewStatus(strings.TrimSpace(q.Get("status"))),
	}
	if v := strings.TrimSpace(q.Get("productId")); v != "" {
		id, err := httputil.ParseID("product", v)
		if err != nil {
			h.ew.Write(w, r, err)
			return
		}
		filter.ProductID = id
	}

	result, err := h.reviews.ListReviews(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

// AdminUpdateReviewStatus handles PATCH /api/admin/reviews/{id}
func (h *ReviewHandler) AdminUpdateReviewStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID("review", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	var req UpdateReviewStatusRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	review, err := h.reviews.UpdateReviewStatus(r.Context(), id, domain.ReviewStatus(req.Status))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, review)
}

// AdminDeleteReview handles DELETE /api/admin/reviews/{id}
func (h *ReviewHandler) AdminDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID("review", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	if err := h.reviews.DeleteReview(r.Context(), id); err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"id": id})
}
