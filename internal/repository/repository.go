package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
)

// ProductRepository defines the interface for product persistence operations.
// Every read returns live rating and review count from approved reviews.
type ProductRepository interface {
	// List returns one page of products matching opts. opts must be normalized.
	List(ctx context.Context, opts domain.ProductListOptions) ([]domain.Product, error)

	// Count returns the number of products matching the filters of opts,
	// ignoring paging.
	Count(ctx context.Context, opts domain.ProductListOptions) (int, error)

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error

	// Categories returns the distinct non-empty categories in name order.
	Categories(ctx context.Context) ([]string, error)

	// ListIDs returns every product id, oldest first.
	ListIDs(ctx context.Context) ([]string, error)

	// CountAll returns the size of the catalog.
	CountAll(ctx context.Context) (int, error)
}

// RatingRepository maintains the cached rating column on products.
type RatingRepository interface {
	// Recompute averages the product's approved reviews, stores the result
	// and returns it. Returns NotFound if the product does not exist.
	Recompute(ctx context.Context, productID string) (decimal.Decimal, error)
}

// ReviewFilter narrows a review listing. Empty fields are not applied.
type ReviewFilter struct {
	ProductID string
	Status    domain.ReviewStatus
	Page      int
	Limit     int
}

// ReviewRepository persists reviews. Mutations that can change the set of
// approved reviews update the product's cached rating in the same transaction.
type ReviewRepository interface {
	// Create inserts a review. Returns NotFound if the product does not exist.
	Create(ctx context.Context, review *domain.Review) error

	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns one page of reviews matching filter, newest first, and
	// the total match count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// UpdateStatus changes the moderation state and returns the updated review.
	UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error)

	// Delete removes a review and returns what was removed.
	Delete(ctx context.Context, id string) (*domain.Review, error)

	// CountByStatus tallies reviews per moderation state.
	CountByStatus(ctx context.Context) (domain.ReviewStats, error)
}

// UserFilter narrows a user listing.
type UserFilter struct {
	Search string
	Page   int
	Limit  int
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a user and records its first password in the history.
	// Returns AlreadyExists if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)

	// Update writes name, admin flag and preferences.
	Update(ctx context.Context, user *domain.User) error

	// UpdatePassword stores a new hash and appends it to the history in one
	// transaction.
	UpdatePassword(ctx context.Context, userID, hash string, changedAt time.Time) error

	// RecentPasswordHashes returns up to n most recent hashes, newest first.
	RecentPasswordHashes(ctx context.Context, userID string, n int) ([]string, error)

	Delete(ctx context.Context, id string) error
	CountAll(ctx context.Context) (int, error)
}

// WishlistRepository defines the interface for wishlist persistence operations.
type WishlistRepository interface {
	// Add saves a product for a user. Returns Conflict if it is already
	// saved and NotFound if the product does not exist.
	Add(ctx context.Context, item *domain.WishlistItem) error

	// Remove deletes the entry. Returns NotFound if it was not saved.
	Remove(ctx context.Context, userID, productID string) error

	Exists(ctx context.Context, userID, productID string) (bool, error)

	// List returns one page of the user's wishlist with product details,
	// most recent first, and the total count.
	List(ctx context.Context, userID string, page, limit int) ([]domain.WishlistItem, int, error)
}

// PasswordPolicyRepository stores the single password policy row.
type PasswordPolicyRepository interface {
	// GetOrCreate returns the stored policy, inserting defaults first if the
	// row does not exist yet.
	GetOrCreate(ctx context.Context, defaults domain.PasswordPolicy) (*domain.PasswordPolicy, error)

	// Save overwrites the policy.
	Save(ctx context.Context, policy *domain.PasswordPolicy) error
}
