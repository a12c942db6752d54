package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/logger"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/middleware"
)

type userKeyType struct{}

var userKey userKeyType

// UserLoader resolves the account behind a verified token.
type UserLoader interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Authenticator verifies bearer tokens and attaches the current user to the
// request context. Tokens are only trusted for identity; admin rights are
// read from the stored user so revocations apply immediately.
type Authenticator struct {
	validate middleware.TokenValidator
	users    UserLoader
	ew       *httputil.ErrorWriter
	logger   *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(validate middleware.TokenValidator, users UserLoader, ew *httputil.ErrorWriter, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		validate: validate,
		users:    users,
		ew:       ew,
		logger:   logger,
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

func withUser(r *http.Request, u *domain.User) *http.Request {
	ctx := context.WithValue(r.Context(), userKey, u)
	ctx = middleware.WithUserID(ctx, u.ID)
	ctx = logger.WithUserID(ctx, u.ID)
	ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", u.ID)))
	return r.WithContext(ctx)
}

func (a *Authenticator) resolve(r *http.Request) (*domain.User, error) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := a.validate(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	user, err := a.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate rejects requests without a valid token for an existing user.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.resolve(r)
		if err != nil {
			a.ew.Write(w, r, err)
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

// OptionalAuthenticate attaches the user when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Authenticator) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.resolve(r)
		if err != nil {
			a.logger.DebugContext(r.Context(), "ignoring invalid credentials on optional route",
				slog.String("error", err.Error()),
			)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}

// RequireAdmin must run after Authenticate.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil {
			a.ew.Write(w, r, apperrors.Unauthorized("authentication required"))
			return
		}
		if !user.IsAdmin {
			a.ew.Write(w, r, apperrors.Forbidden("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
