package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
)

// Password policy limits accepted from administrators.
const (
	maxPolicyMinLength    = 128
	maxPolicyReuseCount   = 24
	maxPolicyExpiryInDays = 3650
)

// PasswordPolicyService reads and updates the single password policy. The
// row is created from defaults the first time it is needed.
type PasswordPolicyService struct {
	repo     repository.PasswordPolicyRepository
	defaults domain.PasswordPolicy
	logger   *slog.Logger
}

// NewPasswordPolicyService creates a new password policy service.
func NewPasswordPolicyService(repo repository.PasswordPolicyRepository, defaults domain.PasswordPolicy, logger *slog.Logger) *PasswordPolicyService {
	return &PasswordPolicyService{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}
}

// UpdatePasswordPolicyInput holds a partial policy update. Nil fields keep
// their current value.
type UpdatePasswordPolicyInput struct {
	MinLength           *int
	RequireUppercase    *bool
	RequireLowercase    *bool
	RequireNumbers      *bool
	RequireSpecialChars *bool
	ExpiryDays          *int
	PreventReuseCount   *int
}

// Get returns the current policy.
func (s *PasswordPolicyService) Get(ctx context.Context) (*domain.PasswordPolicy, error) {
	policy, err := s.repo.GetOrCreate(ctx, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("get password policy: %w", err)
	}
	return policy, nil
}

// Update validates and stores a policy change.
func (s *PasswordPolicyService) Update(ctx context.Context, input UpdatePasswordPolicyInput) (*domain.PasswordPolicy, error) {
	policy, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.MinLength != nil {
		policy.MinLength = *input.MinLength
	}
	if input.RequireUppercase != nil {
		policy.RequireUppercase = *input.RequireUppercase
	}
	if input.RequireLowercase != nil {
		policy.RequireLowercase = *input.RequireLowercase
	}
	if input.RequireNumbers != nil {
		policy.RequireNumbers = *input.RequireNumbers
	}
	if input.RequireSpecialChars != nil {
		policy.RequireSpecialChars = *input.RequireSpecialChars
	}
	if input.ExpiryDays != nil {
		policy.ExpiryDays = *input.ExpiryDays
	}
	if input.PreventReuseCount != nil {
		policy.PreventReuseCount = *input.PreventReuseCount
	}

	if fields := validatePolicy(policy); len(fields) > 0 {
		return nil, apperrors.Validation("request validation failed", fields)
	}

	if err := s.repo.Save(ctx, policy); err != nil {
		return nil, fmt.Errorf("save password policy: %w", err)
	}

	s.logger.InfoContext(ctx, "password policy updated",
		slog.Int("min_length", policy.MinLength),
		slog.Int("expiry_days", policy.ExpiryDays),
		slog.Int("prevent_reuse_count", policy.PreventReuseCount),
	)
	return policy, nil
}

func validatePolicy(p *domain.PasswordPolicy) map[string]string {
	fields := map[string]string{}
	if p.MinLength < 1 || p.MinLength > maxPolicyMinLength {
		fields["minLength"] = fmt.Sprintf("must be between 1 and %d", maxPolicyMinLength)
	}
	if p.ExpiryDays < 0 || p.ExpiryDays > maxPolicyExpiryInDays {
		fields["expiryDays"] = fmt.Sprintf("must be between 0 and %d", maxPolicyExpiryInDays)
	}
	if p.PreventReuseCount < 0 || p.PreventReuseCount > maxPolicyReuseCount {
		fields["preventReuseCount"] = fmt.Sprintf("must be between 0 and %d", maxPolicyReuseCount)
	}
	return fields
}
