package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
)

// Events is the set of domain notifications emitted after successful
// writes. Delivery is best effort; failures are logged, never returned.
type Events interface {
	ProductCreated(ctx context.Context, product *domain.Product) error
	ProductUpdated(ctx context.Context, product *domain.Product) error
	ProductDeleted(ctx context.Context, productID string) error
	RatingRecomputed(ctx context.Context, productID string, rating decimal.Decimal) error
	ReviewCreated(ctx context.Context, review *domain.Review) error
	ReviewModerated(ctx context.Context, review *domain.Review) error
	ReviewDeleted(ctx context.Context, review *domain.Review) error
	UserRegistered(ctx context.Context, user *domain.User) error
	UserDeleted(ctx context.Context, userID string) error
}

// CacheInvalidator drops cached catalog responses after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID, email string, isAdmin bool) (string, error)
}

func logPublishError(ctx context.Context, l *slog.Logger, event, id string, err error) {
	if err == nil {
		return
	}
	l.ErrorContext(ctx, "failed to publish "+event+" event",
		slog.String("aggregate_id", id),
		slog.String("error", err.Error()),
	)
}

func invalidate(ctx context.Context, l *slog.Logger, c CacheInvalidator) {
	if err := c.Invalidate(ctx); err != nil {
		l.WarnContext(ctx, "failed to invalidate response cache", slog.String("error", err.Error()))
	}
}
