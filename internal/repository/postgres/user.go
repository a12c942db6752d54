package postgres

import (
	"context"
	"encoding/json"
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

const userColumns = `id, email, password, name, is_admin, preferences, password_changed_at, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and seeds the password history with its hash.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID,
			u.Email,
			u.PasswordHash,
			u.Name,
			u.IsAdmin,
			prefs,
			u.PasswordChangedAt,
			u.CreatedAt,
			u.UpdatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.AlreadyExists("user", "email", u.Email)
			}
			return fmt.Errorf("insert user: %w", err)
		}

		if err := insertPasswordHistory(ctx, tx, u.ID, u.PasswordHash, u.PasswordChangedAt); err != nil {
			return err
		}
		return nil
	})
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves a user by lower-cased email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", email)
		}
		return nil, err
	}
	return u, nil
}

// List returns a page of users, newest first, optionally filtered by a
// case-insensitive match on name or email.
func (r *UserRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	var (
		where string
		args  []any
	)
	if filter.Search != "" {
		where = "WHERE (name ILIKE $1 OR email ILIKE $1)"
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	page := pagination.New(filter.Page, filter.Limit)
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, total, nil
}

// Update writes name, admin flag and preferences.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	u.UpdatedAt = time.Now().UTC()

	ct, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, is_admin = $2, preferences = $3, updated_at = $4
		WHERE id = $5`,
		u.Name, u.IsAdmin, prefs, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}
	return nil
}

// UpdatePassword stores a new hash and records it in the history.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, hash string, changedAt time.Time) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE users
			SET password = $1, password_changed_at = $2, updated_at = $2
			WHERE id = $3`,
			hash, changedAt, userID,
		)
		if err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("user", userID)
		}
		return insertPasswordHistory(ctx, tx, userID, hash, changedAt)
	})
}

// RecentPasswordHashes returns up to n hashes, newest first.
func (r *UserRepository) RecentPasswordHashes(ctx context.Context, userID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT password
		FROM password_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("list password history: %w", err)
	}

	hashes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan password history: %w", err)
	}
	return hashes, nil
}

// Delete removes a user. Wishlist entries and password history cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// CountAll returns the number of registered users.
func (r *UserRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count all users: %w", err)
	}
	return n, nil
}

func insertPasswordHistory(ctx context.Context, q database.DBTX, userID, hash string, at time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO password_history (user_id, password, created_at)
		VALUES ($1, $2, $3)`, userID, hash, at)
	if err != nil {
		return fmt.Errorf("record password history: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u     domain.User
		prefs []byte
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.IsAdmin,
		&prefs,
		&u.PasswordChangedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.PasswordHash = strings.TrimSpace(u.PasswordHash)
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
			return nil, fmt.Errorf("unmarshal preferences: %w", err)
		}
	}
	return &u, nil
}
