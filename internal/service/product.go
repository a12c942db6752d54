package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// ProductService implements catalog browsing and admin product management.
type ProductService struct {
	repo   repository.ProductRepository
	events Events
	cache  CacheInvalidator
	logger *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, events Events, cache CacheInvalidator, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
		cache:  cache,
		logger: logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
}

// UpdateProductInput holds the parameters for a partial product update.
// Nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	Category    *string
}

// ListProducts returns one page of the catalog. When prefs is non-nil the
// caller's stored preferences fill in parameters the request left unset.
func (s *ProductService) ListProducts(ctx context.Context, opts domain.ProductListOptions, prefs *domain.Preferences) (pagination.Result[domain.Product], error) {
	if prefs != nil {
		opts = opts.WithPreferences(*prefs)
	}
	opts = opts.Normalize()
	params := opts.Pagination()

	total, err := s.repo.Count(ctx, opts)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("count products: %w", err)
	}

	var items []domain.Product
	if params.Offset < total {
		items, err = s.repo.List(ctx, opts)
		if err != nil {
			return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
		}
	}

	return pagination.NewResult(items, total, params), nil
}

// GetProduct retrieves a product with its live review statistics.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListCategories returns the distinct categories in alphabetical order.
func (s *ProductService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// CreateProduct adds a product to the catalog.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("request validation failed", map[string]string{"name": "is required"})
	}
	if input.Price.IsNegative() {
		return nil, apperrors.Validation("request validation failed", map[string]string{"price": "must not be negative"})
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		ImageURL:    input.ImageURL,
		Category:    strings.TrimSpace(input.Category),
		Rating:      decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	invalidate(ctx, s.logger, s.cache)
	logPublishError(ctx, s.logger, "product.created", product.ID, s.events.ProductCreated(ctx, product))

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("category", product.Category),
	)
	return product, nil
}

// UpdateProduct applies a partial update and returns the product as stored.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("request validation failed", map[string]string{"name": "must not be empty"})
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, apperrors.Validation("request validation failed", map[string]string{"price": "must not be negative"})
		}
		product.Price = input.Price.Round(2)
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	invalidate(ctx, s.logger, s.cache)
	logPublishError(ctx, s.logger, "product.updated", product.ID, s.events.ProductUpdated(ctx, product))

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes a product together with its reviews and wishlist entries.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	invalidate(ctx, s.logger, s.cache)
	logPublishError(ctx, s.logger, "product.deleted", id, s.events.ProductDeleted(ctx, id))

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}
