package http

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// memStore is an in-memory stand-in for the Postgres repositories. Product
// reads aggregate approved reviews the same way the SQL does.
type memStore struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	reviews   map[string]*domain.Review
	users     map[string]*domain.User
	passwords map[string][]string
	wishlist  []*domain.WishlistItem
	policy    *domain.PasswordPolicy
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[string]*domain.Product),
		reviews:   make(map[string]*domain.Review),
		users:     make(map[string]*domain.User),
		passwords: make(map[string][]string),
	}
}

func (s *memStore) liveProduct(p *domain.Product) domain.Product {
	var ratings []int
	for _, r := range s.reviews {
		if r.ProductID == p.ID && r.Status == domain.ReviewStatusApproved {
			ratings = append(ratings, r.Rating)
		}
	}
	out := *p
	out.Rating = domain.AverageRating(ratings)
	out.ReviewCount = len(ratings)
	return out
}

func pageOf[T any](items []T, page, limit int) []T {
	p := pagination.New(page, limit)
	if p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end]
}

// --- products ---

type memProducts struct{ *memStore }

func (s memProducts) matching(opts domain.ProductListOptions) []domain.Product {
	search := strings.ToLower(opts.Search)
	var out []domain.Product
	for _, p := range s.products {
		if opts.Category != "" && p.Category != opts.Category {
			continue
		}
		if opts.MinBudget != nil && p.Price.LessThan(*opts.MinBudget) {
			continue
		}
		if opts.MaxBudget != nil && p.Price.GreaterThan(*opts.MaxBudget) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, s.liveProduct(p))
	}
	return out
}

func (s memProducts) List(_ context.Context, opts domain.ProductListOptions) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.matching(opts)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch opts.Sort {
		case domain.SortPrice:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case domain.SortRating:
			if !a.Rating.Equal(b.Rating) {
				return a.Rating.GreaterThan(b.Rating)
			}
		case domain.SortPopularity:
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
	return pageOf(items, opts.Page, opts.Limit), nil
}

func (s memProducts) Count(_ context.Context, opts domain.ProductListOptions) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matching(opts)), nil
}

func (s memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	out := s.liveProduct(p)
	return &out, nil
}

func (s memProducts) Create(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s memProducts) Update(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s memProducts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(s.products, id)
	for rid, r := range s.reviews {
		if r.ProductID == id {
			delete(s.reviews, rid)
		}
	}
	kept := s.wishlist[:0]
	for _, w := range s.wishlist {
		if w.ProductID != id {
			kept = append(kept, w)
		}
	}
	s.wishlist = kept
	return nil
}

func (s memProducts) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range s.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s memProducts) ListIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id := range s.products {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s memProducts) CountAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products), nil
}

// --- ratings ---

type memRatings struct{ *memStore }

func (s memRatings) Recompute(_ context.Context, productID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return decimal.Zero, apperrors.NotFound("product", productID)
	}
	p.Rating = s.liveProduct(p).Rating
	return p.Rating, nil
}

// --- reviews ---

type memReviews struct{ *memStore }

func (s memReviews) Create(_ context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[r.ProductID]; !ok {
		return apperrors.NotFound("product", r.ProductID)
	}
	cp := *r
	s.reviews[r.ID] = &cp
	return nil
}

func (s memReviews) GetByID(_ context.Context, id string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	cp := *r
	return &cp, nil
}

func (s memReviews) List(_ context.Context, f repository.ReviewFilter) ([]domain.Review, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Review
	for _, r := range s.reviews {
		if f.ProductID != "" && r.ProductID != f.ProductID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return pageOf(out, f.Page, f.Limit), len(out), nil
}

func (s memReviews) UpdateStatus(_ context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	return &cp, nil
}

func (s memReviews) Delete(_ context.Context, id string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	delete(s.reviews, id)
	return r, nil
}

func (s memReviews) CountByStatus(_ context.Context) (domain.ReviewStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st domain.ReviewStats
	for _, r := range s.reviews {
		switch r.Status {
		case domain.ReviewStatusPending:
			st.Pending++
		case domain.ReviewStatusApproved:
			st.Approved++
		case domain.ReviewStatusRejected:
			st.Rejected++
		}
		st.Total++
	}
	return st, nil
}

// --- users ---

type memUsers struct{ *memStore }

func (s memUsers) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	s.passwords[u.ID] = []string{u.PasswordHash}
	return nil
}

func (s memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

func (s memUsers) List(_ context.Context, f repository.UserFilter) ([]domain.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(f.Search)
	var out []domain.User
	for _, u := range s.users {
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return pageOf(out, f.Page, f.Limit), len(out), nil
}

func (s memUsers) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return apperrors.NotFound("user", u.ID)
	}
	cur.Name = u.Name
	cur.IsAdmin = u.IsAdmin
	cur.Preferences = u.Preferences
	return nil
}

func (s memUsers) UpdatePassword(_ context.Context, userID, hash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apperrors.NotFound("user", userID)
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = changedAt
	s.passwords[userID] = append([]string{hash}, s.passwords[userID]...)
	return nil
}

func (s memUsers) RecentPasswordHashes(_ context.Context, userID string, n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.passwords[userID]
	return h[:min(n, len(h))], nil
}

func (s memUsers) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperrors.NotFound("user", id)
	}
	delete(s.users, id)
	return nil
}

func (s memUsers) CountAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

// --- wishlist ---

type memWishlist struct{ *memStore }

func (s memWishlist) Add(_ context.Context, item *domain.WishlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[item.ProductID]; !ok {
		return apperrors.NotFound("product", item.ProductID)
	}
	for _, w := range s.wishlist {
		if w.UserID == item.UserID && w.ProductID == item.ProductID {
			return apperrors.Conflict("product is already in the wishlist")
		}
	}
	cp := *item
	cp.Product = nil
	s.wishlist = append(s.wishlist, &cp)
	return nil
}

func (s memWishlist) Remove(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.wishlist {
		if w.UserID == userID && w.ProductID == productID {
			s.wishlist = append(s.wishlist[:i], s.wishlist[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("wishlist item", productID)
}

func (s memWishlist) Exists(_ context.Context, userID, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wishlist {
		if w.UserID == userID && w.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (s memWishlist) List(_ context.Context, userID string, page, limit int) ([]domain.WishlistItem, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.WishlistItem
	for i := len(s.wishlist) - 1; i >= 0; i-- {
		w := s.wishlist[i]
		if w.UserID != userID {
			continue
		}
		item := *w
		p := s.liveProduct(s.products[w.ProductID])
		item.Product = &p
		out = append(out, item)
	}
	return pageOf(out, page, limit), len(out), nil
}

// --- password policy ---

type memPolicies struct{ *memStore }

func (s memPolicies) GetOrCreate(_ context.Context, defaults domain.PasswordPolicy) (*domain.PasswordPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == nil {
		p := defaults
		s.policy = &p
	}
	cp := *s.policy
	return &cp, nil
}

func (s memPolicies) Save(_ context.Context, p *domain.PasswordPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.policy = &cp
	return nil
}

var (
	_ repository.ProductRepository        = memProducts{}
	_ repository.RatingRepository         = memRatings{}
	_ repository.ReviewRepository         = memReviews{}
	_ repository.UserRepository           = memUsers{}
	_ repository.WishlistRepository       = memWishlist{}
	_ repository.PasswordPolicyRepository = memPolicies{}
)
