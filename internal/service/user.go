package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

const invalidCredentials = "invalid email or password"

// UserService implements registration, login and self-service account
// operations.
type UserService struct {
	users    repository.UserRepository
	policies *PasswordPolicyService
	tokens   TokenIssuer
	events   Events
	logger   *slog.Logger

	hashCost int
	now      func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	policies *PasswordPolicyService,
	tokens TokenIssuer,
	events Events,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		policies: policies,
		tokens:   tokens,
		events:   events,
		logger:   logger,
		hashCost: bcryptCost,
		now:      time.Now,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdatePreferencesInput holds a preferences change. Nil fields keep their
// stored value; an empty string clears a text preference.
type UpdatePreferencesInput struct {
	DefaultSort     *string
	DefaultCategory *string
	Theme           *string
	MinBudget       *decimal.Decimal
	MaxBudget       *decimal.Decimal
}

// ChangePasswordInput holds the parameters for a password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// Register creates an account and signs the user in.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.AuthResult, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)

	fields := map[string]string{}
	if name == "" {
		fields["name"] = "is required"
	}
	if email == "" {
		fields["email"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("request validation failed", fields)
	}

	policy, err := s.policies.Get(ctx)
	if err != nil {
		return nil, err
	}
	if violations := policy.Violations(input.Password); violations != nil {
		return nil, apperrors.Validation("password does not satisfy the password policy", violations)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:                uuid.New().String(),
		Email:             email,
		PasswordHash:      string(hash),
		Name:              name,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	logPublishError(ctx, s.logger, "user.registered", user.ID, s.events.UserRegistered(ctx, user))

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return &domain.AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords yield the same error.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	policy, err := s.policies.Get(ctx)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	expired := policy.IsExpired(user.PasswordChangedAt, s.now())
	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.Bool("password_expired", expired),
	)
	return &domain.AuthResult{User: user, Token: token, PasswordExpired: expired}, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// UpdatePreferences validates and stores the user's browsing defaults.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, input UpdatePreferencesInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	prefs := user.Preferences
	if input.DefaultSort != nil {
		prefs.DefaultSort = domain.ProductSort(strings.TrimSpace(*input.DefaultSort))
	}
	if input.DefaultCategory != nil {
		prefs.DefaultCategory = strings.TrimSpace(*input.DefaultCategory)
	}
	if input.Theme != nil {
		prefs.Theme = strings.TrimSpace(*input.Theme)
	}
	if input.MinBudget != nil {
		v := *input.MinBudget
		prefs.MinBudget = &v
	}
	if input.MaxBudget != nil {
		v := *input.MaxBudget
		prefs.MaxBudget = &v
	}

	if fields := validatePreferences(prefs); len(fields) > 0 {
		return nil, apperrors.Validation("request validation failed", fields)
	}

	user.Preferences = prefs
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "preferences updated", slog.String("user_id", user.ID))
	return user, nil
}

func validatePreferences(p domain.Preferences) map[string]string {
	fields := map[string]string{}
	if p.DefaultSort != "" {
		if _, ok := domain.ParseProductSort(string(p.DefaultSort)); !ok {
			fields["defaultSort"] = "must be one of: createdAt, price, rating, popularity"
		}
	}
	if p.Theme != "" && !domain.IsValidTheme(p.Theme) {
		fields["theme"] = "must be one of: light, dark, system"
	}
	if p.MinBudget != nil && p.MinBudget.IsNegative() {
		fields["minBudget"] = "must not be negative"
	}
	if p.MaxBudget != nil && p.MaxBudget.IsNegative() {
		fields["maxBudget"] = "must not be negative"
	}
	if p.MinBudget != nil && p.MaxBudget != nil && p.MinBudget.GreaterThan(*p.MaxBudget) {
		fields["minBudget"] = "must not be greater than maxBudget"
	}
	return fields
}

// ChangePassword replaces the user's password after checking the current
// one, the policy rules and the reuse history.
func (s *UserService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user by id: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return apperrors.Validation("request validation failed", map[string]string{
			"currentPassword": "is incorrect",
		})
	}

	policy, err := s.policies.Get(ctx)
	if err != nil {
		return err
	}
	if violations := policy.Violations(input.NewPassword); violations != nil {
		return apperrors.Validation("password does not satisfy the password policy", violations)
	}

	if policy.PreventReuseCount > 0 {
		recent, err := s.users.RecentPasswordHashes(ctx, userID, policy.PreventReuseCount)
		if err != nil {
			return fmt.Errorf("load password history: %w", err)
		}
		for _, h := range recent {
			if bcrypt.CompareHashAndPassword([]byte(h), []byte(input.NewPassword)) == nil {
				return apperrors.Validation("password was used recently", map[string]string{
					"newPassword": fmt.Sprintf("must differ from your last %d passwords", policy.PreventReuseCount),
				})
			}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash), s.now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", userID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
