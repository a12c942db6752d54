package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// ReviewService implements review submission, public listing and moderation.
// Every write that can change a product's set of approved reviews also
// refreshes its cached rating in the same transaction (see the repository).
type ReviewService struct {
	reviews     repository.ReviewRepository
	products    repository.ProductRepository
	events      Events
	cache       CacheInvalidator
	autoApprove bool
	logger      *slog.Logger
}

// NewReviewService creates a new review service. New reviews are published
// immediately when autoApprove is set and wait for moderation otherwise.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	events Events,
	cache CacheInvalidator,
	autoApprove bool,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:     reviews,
		products:    products,
		events:      events,
		cache:       cache,
		autoApprove: autoApprove,
		logger:      logger,
	}
}

// CreateReviewInput holds the parameters for submitting a review.
type CreateReviewInput struct {
	Rating   int
	Comment  string
	UserName string
}

// CreateReview stores a review for productID. author, when non-nil, is the
// signed-in user and supplies the display name if the input has none.
func (s *ReviewService) CreateReview(ctx context.Context, productID string, input CreateReviewInput, author *domain.User) (*domain.Review, error) {
	fields := map[string]string{}
	if !domain.IsValidRating(input.Rating) {
		fields["rating"] = fmt.Sprintf("must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	userName := strings.TrimSpace(input.UserName)
	if userName == "" && author != nil {
		userName = author.Name
	}
	if userName == "" {
		fields["userName"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("request validation failed", fields)
	}

	status := domain.ReviewStatusPending
	if s.autoApprove {
		status = domain.ReviewStatusApproved
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		UserName:  userName,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if review.Status == domain.ReviewStatusApproved {
		invalidate(ctx, s.logger, s.cache)
	}
	logPublishError(ctx, s.logger, "review.created", review.ID, s.events.ReviewCreated(ctx, review))

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", productID),
		slog.String("status", string(review.Status)),
	)
	return review, nil
}

// ListProductReviews returns the approved reviews of a product, newest first.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, params pagination.Params) (pagination.Result[domain.Review], error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return pagination.Result[domain.Review]{}, fmt.Errorf("get product by id: %w", err)
	}
	return s.list(ctx, repository.ReviewFilter{
		ProductID: productID,
		Status:    domain.ReviewStatusApproved,
	}, params)
}

// AdminReviewFilter narrows the moderation queue.
type AdminReviewFilter struct {
	ProductID string
	Status    domain.ReviewStatus
}

// ListReviews returns reviews in any state for moderation.
func (s *ReviewService) ListReviews(ctx context.Context, filter AdminReviewFilter, params pagination.Params) (pagination.Result[domain.Review], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return pagination.Result[domain.Review]{}, apperrors.InvalidInput("status must be one of: pending, approved, rejected")
	}
	return s.list(ctx, repository.ReviewFilter{
		ProductID: filter.ProductID,
		Status:    filter.Status,
	}, params)
}

func (s *ReviewService) list(ctx context.Context, filter repository.ReviewFilter, params pagination.Params) (pagination.Result[domain.Review], error) {
	filter.Page, filter.Limit = params.Page, params.Limit
	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return pagination.Result[domain.Review]{}, fmt.Errorf("list reviews: %w", err)
	}
	return pagination.NewResult(reviews, total, params), nil
}

// UpdateReviewStatus moves a review through moderation.
func (s *ReviewService) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) (*domain.Review, error) {
	if !status.IsValid() {
		return nil, apperrors.Validation("request validation failed", map[string]string{
			"status": "must be one of: pending, approved, rejected",
		})
	}

	review, err := s.reviews.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}

	invalidate(ctx, s.logger, s.cache)
	logPublishError(ctx, s.logger, "review.moderated", review.ID, s.events.ReviewModerated(ctx, review))

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("status", string(review.Status)),
	)
	return review, nil
}

// DeleteReview removes a review.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	review, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	invalidate(ctx, s.logger, s.cache)
	logPublishError(ctx, s.logger, "review.deleted", review.ID, s.events.ReviewDeleted(ctx, review))

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
	)
	return nil
}
