package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/database"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
)

// RatingRepository implements repository.RatingRepository using PostgreSQL.
type RatingRepository struct {
	db database.DBTX
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(db database.DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

// Recompute refreshes one product's cached rating in its own transaction.
func (r *RatingRepository) Recompute(ctx context.Context, productID string) (decimal.Decimal, error) {
	var avg decimal.Decimal
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		avg, err = recomputeRating(ctx, tx, productID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return avg, nil
}

// recomputeRating averages the approved reviews of a product and stores the
// result on the product row. It runs on q so callers can include it in the
// transaction of the review mutation that triggered it.
//
// The product row is locked before the ratings are read. Concurrent
// recomputes for the same product serialize on that lock, and under READ
// COMMITTED the ratings query that follows sees every review committed by
// the previous holder. NO KEY UPDATE does not conflict with the KEY SHARE
// lock taken by the reviews foreign key check.
func recomputeRating(ctx context.Context, q database.DBTX, productID string) (decimal.Decimal, error) {
	var locked int
	err := q.QueryRow(ctx, `SELECT 1 FROM products WHERE id = $1 FOR NO KEY UPDATE`, productID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperrors.NotFound("product", productID)
		}
		return decimal.Zero, fmt.Errorf("lock product: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT rating
		FROM reviews
		WHERE product_id = $1 AND status = 'approved'`, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load approved ratings: %w", err)
	}

	ratings, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return decimal.Zero, fmt.Errorf("scan approved ratings: %w", err)
	}

	avg := domain.AverageRating(ratings)

	if _, err := q.Exec(ctx, `UPDATE products SET rating = $1 WHERE id = $2`, avg, productID); err != nil {
		return decimal.Zero, fmt.Errorf("store product rating: %w", err)
	}
	return avg, nil
}
