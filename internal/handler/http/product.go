package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/service"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/validator"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	products *service.ProductService
	ratings  *service.RatingService
	ew       *httputil.ErrorWriter
	logger   *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(products *service.ProductService, ratings *service.RatingService, ew *httputil.ErrorWriter, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		ratings:  ratings,
		ew:       ew,
		logger:   logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"required,dgte=0"`
	ImageURL    string           `json:"imageUrl" validate:"omitempty,url,max=2048"`
	Category    string           `json:"category" validate:"max=100"`
}

// UpdateProductRequest is the JSON request body for updating a product.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,dgte=0"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,max=2048"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
}

// --- Handlers ---

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	opts := parseListOptions(r)

	var prefs *domain.Preferences
	if user := CurrentUser(r.Context()); user != nil {
		prefs = &user.Preferences
	}

	result, err := h.products.ListProducts(r.Context(), opts, prefs)
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, result)
}

// ListCategories handles GET /api/products/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.ListCategories(r.Context())
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, categories)
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
	})
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		h.ew.Write(w, r, err)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
	})
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID("product", chi.URLParam(r, "id"))
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, map[string]string{"id": id})
}

// RecalculateRatings handles POST /api/products/admin/recalculate-ratings
func (h *ProductHandler) RecalculateRatings(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ratings.RecomputeAllRatings(r.Context())
	if err != nil {
		h.ew.Write(w, r, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, summary)
}
