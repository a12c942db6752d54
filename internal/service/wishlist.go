package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// WishlistService manages the products a user has saved.
type WishlistService struct {
	wishlist repository.WishlistRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(wishlist repository.WishlistRepository, products repository.ProductRepository, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		wishlist: wishlist,
		products: products,
		logger:   logger,
	}
}

// List returns one page of the user's wishlist with product details.
func (s *WishlistService) List(ctx context.Context, userID string, params pagination.Params) (pagination.Result[domain.WishlistItem], error) {
	items, total, err := s.wishlist.List(ctx, userID, params.Page, params.Limit)
	if err != nil {
		return pagination.Result[domain.WishlistItem]{}, fmt.Errorf("list wishlist: %w", err)
	}
	return pagination.NewResult(items, total, params), nil
}

// Add saves a product. NotFound if the product does not exist, Conflict if
// it is already saved.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) (*domain.WishlistItem, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	now := time.Now().UTC()
	item := &domain.WishlistItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Product:   product,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.wishlist.Add(ctx, item); err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}

	s.logger.InfoContext(ctx, "wishlist item added",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)
	return item, nil
}

// Remove deletes a saved product. NotFound if it was not saved.
func (s *WishlistService) Remove(ctx context.Context, userID, productID string) error {
	if err := s.wishlist.Remove(ctx, userID, productID); err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	s.logger.InfoContext(ctx, "wishlist item removed",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)
	return nil
}

// Contains reports whether the product is on the user's wishlist.
func (s *WishlistService) Contains(ctx context.Context, userID, productID string) (bool, error) {
	ok, err := s.wishlist.Exists(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}
	return ok, nil
}
