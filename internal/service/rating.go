package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
)

// RatingService maintains the cached product rating outside of review writes.
type RatingService struct {
	products repository.ProductRepository
	ratings  repository.RatingRepository
	events   Events
	cache    CacheInvalidator
	logger   *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(
	products repository.ProductRepository,
	ratings repository.RatingRepository,
	events Events,
	cache CacheInvalidator,
	logger *slog.Logger,
) *RatingService {
	return &RatingService{
		products: products,
		ratings:  ratings,
		events:   events,
		cache:    cache,
		logger:   logger,
	}
}

// RecomputeProductRating refreshes one product's cached rating and returns it.
func (s *RatingService) RecomputeProductRating(ctx context.Context, productID string) (decimal.Decimal, error) {
	avg, err := s.ratings.Recompute(ctx, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("recompute rating: %w", err)
	}
	logPublishError(ctx, s.logger, "rating.recomputed", productID, s.events.RatingRecomputed(ctx, productID, avg))
	return avg, nil
}

// RecomputeAllRatings refreshes every product in turn, one transaction each.
// The sweep is not atomic: it stops at the first failure and products
// already processed keep their new rating.
func (s *RatingService) RecomputeAllRatings(ctx context.Context) (domain.RecomputeSummary, error) {
	var summary domain.RecomputeSummary

	ids, err := s.products.ListIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("list product ids: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, err := s.RecomputeProductRating(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "rating sweep aborted",
				slog.String("product_id", id),
				slog.Int("products_updated", summary.ProductsUpdated),
				slog.String("error", err.Error()),
			)
			return summary, err
		}
		summary.ProductsUpdated++
	}

	if summary.ProductsUpdated > 0 {
		invalidate(ctx, s.logger, s.cache)
	}
	s.logger.InfoContext(ctx, "ratings recomputed", slog.Int("products_updated", summary.ProductsUpdated))
	return summary, nil
}
