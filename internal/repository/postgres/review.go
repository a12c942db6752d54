package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/database"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

const reviewColumns = `id, product_id, rating, comment, user_name, status, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review and, when it is approved, refreshes the product's
// cached rating in the same transaction.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO reviews (`+reviewColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rv.ID,
			rv.ProductID,
			rv.Rating,
			rv.Comment,
			rv.UserName,
			rv.Status,
			rv.CreatedAt,
			rv.UpdatedAt,
		)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperrors.NotFound("product", rv.ProductID)
			}
			return fmt.Errorf("insert review: %w", err)
		}

		if rv.Status != domain.ReviewStatusApproved {
			return nil
		}
		_, err = recomputeRating(ctx, tx, rv.ProductID)
		return err
	})
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	rv, err := scanReview(r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, err
	}
	return rv, nil
}

// List returns a page of reviews newest first with the total match count.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.ProductID != "" {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argIndex))
		args = append(args, filter.ProductID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	page := pagination.New(filter.Page, filter.Limit)
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		reviewColumns, whereClause, argIndex, argIndex+1,
	)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    = []domain.Review{}
		totalCount int
	)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.Rating,
			&rv.Comment,
			&rv.UserName,
			&rv.Status,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(reviews) == 0 && page.Offset > 0 {
		countQuery := "SELECT COUNT(*) FROM reviews " + whereClause
		if err := r.db.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&totalCount); err != nil {
			return nil, 0, fmt.Errorf("count reviews: %w", err)
		}
	}

	return reviews, totalCount, nil
}

// UpdateStatus sets the moderation state and refreshes the product rating in
// the same transaction.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	var updated *domain.Review
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rv, err := scanReview(tx.QueryRow(ctx, `
			UPDATE reviews SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+reviewColumns,
			status, time.Now().UTC(), id,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("review", id)
			}
			return err
		}
		if _, err := recomputeRating(ctx, tx, rv.ProductID); err != nil {
			return err
		}
		updated = rv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a review and refreshes the product rating in the same
// transaction.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (*domain.Review, error) {
	var deleted *domain.Review
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rv, err := scanReview(tx.QueryRow(ctx, `DELETE FROM reviews WHERE id = $1 RETURNING `+reviewColumns, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("review", id)
			}
			return err
		}
		if _, err := recomputeRating(ctx, tx, rv.ProductID); err != nil {
			return err
		}
		deleted = rv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// CountByStatus tallies reviews per moderation state.
func (r *ReviewRepository) CountByStatus(ctx context.Context) (domain.ReviewStats, error) {
	var stats domain.ReviewStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'rejected'),
		       COUNT(*)
		FROM reviews`).Scan(&stats.Pending, &stats.Approved, &stats.Rejected, &stats.Total)
	if err != nil {
		return domain.ReviewStats{}, fmt.Errorf("count reviews by status: %w", err)
	}
	return stats, nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.Rating,
		&rv.Comment,
		&rv.UserName,
		&rv.Status,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &rv, nil
}
