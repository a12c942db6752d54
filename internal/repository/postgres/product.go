package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/database"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
)

// productSelect reads products with rating and review count aggregated live
// from approved reviews. Postgres ROUND on numeric rounds half away from
// zero, matching domain.AverageRating.
const productSelect = `
		SELECT p.id, p.name, p.description, p.price, p.image_url, p.category,
		       COALESCE(s.avg_rating, 0) AS rating,
		       COALESCE(s.review_count, 0) AS review_count,
		       p.created_at, p.updated_at
		FROM products p
		LEFT JOIN LATERAL (
			SELECT ROUND(AVG(r.rating)::numeric, 2) AS avg_rating, COUNT(*)::int AS review_count
			FROM reviews r
			WHERE r.product_id = p.id AND r.status = 'approved'
		) s ON true`

var productOrderBy = map[domain.ProductSort]string{
	domain.SortCreatedAt:  "p.created_at DESC, p.id DESC",
	domain.SortPrice:      "p.price ASC, p.id ASC",
	domain.SortRating:     "COALESCE(s.avg_rating, 0) DESC, p.id ASC",
	domain.SortPopularity: "COALESCE(s.review_count, 0) DESC, p.id ASC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// productWhere builds the AND-combined filter clause. Args are numbered from 1.
func productWhere(opts domain.ProductListOptions) (string, []any) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if opts.Category != "" {
		conditions = append(conditions, fmt.Sprintf("p.category = $%d", argIndex))
		args = append(args, opts.Category)
		argIndex++
	}

	if opts.MinBudget != nil {
		conditions = append(conditions, fmt.Sprintf("p.price >= $%d", argIndex))
		args = append(args, *opts.MinBudget)
		argIndex++
	}

	if opts.MaxBudget != nil {
		conditions = append(conditions, fmt.Sprintf("p.price <= $%d", argIndex))
		args = append(args, *opts.MaxBudget)
		argIndex++
	}

	if opts.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+likeEscaper.Replace(opts.Search)+"%")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of products ordered by opts.Sort.
func (r *ProductRepository) List(ctx context.Context, opts domain.ProductListOptions) ([]domain.Product, error) {
	where, args := productWhere(opts)

	orderBy, ok := productOrderBy[opts.Sort]
	if !ok {
		orderBy = productOrderBy[domain.SortCreatedAt]
	}

	page := opts.Pagination()
	query := fmt.Sprintf("%s\n\t\t%s\n\t\tORDER BY %s\n\t\tLIMIT $%d OFFSET $%d",
		productSelect, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// Count returns the number of products matching the filters of opts.
func (r *ProductRepository) Count(ctx context.Context, opts domain.ProductListOptions) (int, error) {
	where, args := productWhere(opts)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM products p "+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// GetByID retrieves a product with live review statistics.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, productSelect+"\n\t\tWHERE p.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a new product. The rating cache starts at zero.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, image_url, category, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.ImageURL,
		p.Category,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update writes the editable product fields. The rating cache is left alone.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, image_url = $4, category = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.ImageURL,
		p.Category,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product. Reviews and wishlist entries cascade.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// Categories returns the distinct non-empty categories alphabetically.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT category
		FROM products
		WHERE category <> ''
		ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// ListIDs returns every product id in creation order.
func (r *ProductRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM products ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list product ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan product ids: %w", err)
	}
	return ids, nil
}

// CountAll returns the total number of products.
func (r *ProductRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count all products: %w", err)
	}
	return n, nil
}

// scanProduct reads one row produced by productSelect.
func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.ImageURL,
		&p.Category,
		&p.Rating,
		&p.ReviewCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}
