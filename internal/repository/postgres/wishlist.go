package postgres

import (
	"context"
	"fmt"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/database"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	db database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Add inserts the entry unless it already exists. The unique constraint on
// (user_id, product_id) decides concurrent duplicates.
func (r *WishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	ct, err := r.db.Exec(ctx, `
		INSERT INTO wishlists (id, product_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		item.ID, item.ProductID, item.UserID, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("product", item.ProductID)
		}
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.Conflict("product is already in the wishlist")
	}
	return nil
}

// Remove deletes the entry for the pair.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist item", productID)
	}
	return nil
}

// Exists reports whether the user saved the product.
func (r *WishlistRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM wishlists WHERE user_id = $1 AND product_id = $2)`,
		userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check wishlist item: %w", err)
	}
	return exists, nil
}

// List returns a page of the user's wishlist joined with live product data.
func (r *WishlistRepository) List(ctx context.Context, userID string, page, limit int) ([]domain.WishlistItem, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wishlists WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wishlist items: %w", err)
	}

	params := pagination.New(page, limit)
	rows, err := r.db.Query(ctx, `
		SELECT w.id, w.user_id, w.product_id, w.created_at, w.updated_at,
		       p.id, p.name, p.description, p.price, p.image_url, p.category,
		       COALESCE(s.avg_rating, 0), COALESCE(s.review_count, 0),
		       p.created_at, p.updated_at
		FROM wishlists w
		JOIN products p ON p.id = w.product_id
		LEFT JOIN LATERAL (
			SELECT ROUND(AVG(r.rating)::numeric, 2) AS avg_rating, COUNT(*)::int AS review_count
			FROM reviews r
			WHERE r.product_id = p.id AND r.status = 'approved'
		) s ON true
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $2 OFFSET $3`,
		userID, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	items := []domain.WishlistItem{}
	for rows.Next() {
		var (
			it domain.WishlistItem
			p  domain.Product
		)
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.ProductID, &it.CreatedAt, &it.UpdatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category,
			&p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan wishlist row: %w", err)
		}
		it.Product = &p
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wishlist rows: %w", err)
	}
	return items, total, nil
}
