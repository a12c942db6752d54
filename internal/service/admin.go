package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// AdminService implements user management and the dashboard summary.
type AdminService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	events   Events
	logger   *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	users repository.UserRepository,
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	events Events,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:    users,
		products: products,
		reviews:  reviews,
		events:   events,
		logger:   logger,
	}
}

// AdminUpdateUserInput holds the fields an administrator may change.
type AdminUpdateUserInput struct {
	Name    *string
	IsAdmin *bool
}

// ListUsers returns one page of users, optionally matching search against
// name or email.
func (s *AdminService) ListUsers(ctx context.Context, search string, params pagination.Params) (pagination.Result[domain.User], error) {
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Search: strings.TrimSpace(search),
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		return pagination.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewResult(users, total, params), nil
}

// UpdateUser changes another user's name or admin flag. Administrators
// cannot revoke their own admin rights.
func (s *AdminService) UpdateUser(ctx context.Context, actorID, id string, input AdminUpdateUserInput) (*domain.User, error) {
	if actorID == id && input.IsAdmin != nil && !*input.IsAdmin {
		return nil, apperrors.InvalidInput("you cannot remove your own admin rights")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("request validation failed", map[string]string{"name": "must not be empty"})
		}
		user.Name = name
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated by admin",
		slog.String("user_id", user.ID),
		slog.String("admin_id", actorID),
		slog.Bool("is_admin", user.IsAdmin),
	)
	return user, nil
}

// DeleteUser removes another user's account and their wishlist.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperrors.InvalidInput("you cannot delete your own account")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	logPublishError(ctx, s.logger, "user.deleted", id, s.events.UserDeleted(ctx, id))

	s.logger.InfoContext(ctx, "user deleted by admin",
		slog.String("user_id", id),
		slog.String("admin_id", actorID),
	)
	return nil
}

// Stats returns catalog, user and moderation counts.
func (s *AdminService) Stats(ctx context.Context) (*domain.Stats, error) {
	products, err := s.products.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	users, err := s.users.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	reviews, err := s.reviews.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	return &domain.Stats{Products: products, Users: users, Reviews: reviews}, nil
}
