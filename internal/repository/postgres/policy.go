package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/database"
)

// PasswordPolicyRepository implements repository.PasswordPolicyRepository.
type PasswordPolicyRepository struct {
	db database.DBTX
}

// NewPasswordPolicyRepository creates a new PostgreSQL-backed policy repository.
func NewPasswordPolicyRepository(db database.DBTX) *PasswordPolicyRepository {
	return &PasswordPolicyRepository{db: db}
}

// GetOrCreate inserts defaults if the row is missing, then reads it back.
// Concurrent first calls race on the primary key and all read the winner.
func (r *PasswordPolicyRepository) GetOrCreate(ctx context.Context, defaults domain.PasswordPolicy) (*domain.PasswordPolicy, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO password_policies (id, min_length, require_uppercase, require_lowercase,
		    require_numbers, require_special_chars, expiry_days, prevent_reuse_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		domain.PasswordPolicyID,
		defaults.MinLength,
		defaults.RequireUppercase,
		defaults.RequireLowercase,
		defaults.RequireNumbers,
		defaults.RequireSpecialChars,
		defaults.ExpiryDays,
		defaults.PreventReuseCount,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("seed password policy: %w", err)
	}

	var p domain.PasswordPolicy
	err = r.db.QueryRow(ctx, `
		SELECT min_length, require_uppercase, require_lowercase, require_numbers,
		       require_special_chars, expiry_days, prevent_reuse_count, updated_at
		FROM password_policies
		WHERE id = $1`, domain.PasswordPolicyID,
	).Scan(
		&p.MinLength,
		&p.RequireUppercase,
		&p.RequireLowercase,
		&p.RequireNumbers,
		&p.RequireSpecialChars,
		&p.ExpiryDays,
		&p.PreventReuseCount,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get password policy: %w", err)
	}
	return &p, nil
}

// Save upserts the policy row.
func (r *PasswordPolicyRepository) Save(ctx context.Context, p *domain.PasswordPolicy) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx, `
		INSERT INTO password_policies (id, min_length, require_uppercase, require_lowercase,
		    require_numbers, require_special_chars, expiry_days, prevent_reuse_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
		    min_length = EXCLUDED.min_length,
		    require_uppercase = EXCLUDED.require_uppercase,
		    require_lowercase = EXCLUDED.require_lowercase,
		    require_numbers = EXCLUDED.require_numbers,
		    require_special_chars = EXCLUDED.require_special_chars,
		    expiry_days = EXCLUDED.expiry_days,
		    prevent_reuse_count = EXCLUDED.prevent_reuse_count,
		    updated_at = EXCLUDED.updated_at`,
		domain.PasswordPolicyID,
		p.MinLength,
		p.RequireUppercase,
		p.RequireLowercase,
		p.RequireNumbers,
		p.RequireSpecialChars,
		p.ExpiryDays,
		p.PreventReuseCount,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save password policy: %w", err)
	}
	return nil
}
