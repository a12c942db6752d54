package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Marcholio/product-review-catalog-sub000/internal/service"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/health"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/middleware"
)

var (
	errRouteNotFound = &apperrors.AppError{
		Code:    apperrors.KindNotFound,
		Message: "route not found",
		Status:  http.StatusNotFound,
		Err:     apperrors.ErrNotFound,
	}
	errMethodNotAllowed = &apperrors.AppError{
		Code:    "MethodNotAllowed",
		Message: "method not allowed",
		Status:  http.StatusMethodNotAllowed,
		Err:     apperrors.ErrInvalidInput,
	}
)

// ResponseCache serves and stores anonymous catalog reads.
type ResponseCache interface {
	Handler(next http.Handler) http.Handler
}

// Services bundles the business services the routes dispatch to.
type Services struct {
	Products *service.ProductService
	Ratings  *service.RatingService
	Reviews  *service.ReviewService
	Wishlist *service.WishlistService
	Users    *service.UserService
	Admin    *service.AdminService
	Policies *service.PasswordPolicyService
}

// RouterConfig holds the cross-cutting pieces of the HTTP stack.
type RouterConfig struct {
	ServiceName     string
	CORS            middleware.CORSConfig
	PprofCIDRs      []string
	TokenValidator  middleware.TokenValidator
	AuthRateLimiter *middleware.RateLimiter
	Cache           ResponseCache
	CacheMaxAge     time.Duration
	Health          *health.Handler
	ErrorWriter     *httputil.ErrorWriter
}

// NewRouter creates a chi router with every catalog route registered.
func NewRouter(svc Services, cfg RouterConfig, logger *slog.Logger) http.Handler {
	ew := cfg.ErrorWriter
	authn := NewAuthenticator(cfg.TokenValidator, svc.Users, ew, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger, ew))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ew.Write(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ew.Write(w, r, errMethodNotAllowed)
	})

	// Health and metrics endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	products := NewProductHandler(svc.Products, svc.Ratings, ew, logger)
	reviews := NewReviewHandler(svc.Reviews, ew, logger)
	wishlist := NewWishlistHandler(svc.Wishlist, ew, logger)
	users := NewUserHandler(svc.Users, ew, logger)
	admin := NewAdminHandler(svc.Admin, svc.Policies, ew, logger)

	cached := []func(http.Handler) http.Handler{cfg.Cache.Handler}
	if cfg.CacheMaxAge > 0 {
		cached = append([]func(http.Handler) http.Handler{middleware.CacheControl(cfg.CacheMaxAge)}, cached...)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.With(cached...).With(authn.OptionalAuthenticate).Get("/", products.ListProducts)
			r.With(cached...).Get("/categories", products.ListCategories)
			r.Get("/{id}", products.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(authn.Authenticate, authn.RequireAdmin)
				r.Post("/", products.CreateProduct)
				r.Put("/{id}", products.UpdateProduct)
				r.Delete("/{id}", products.DeleteProduct)
				r.Post("/admin/recalculate-ratings", products.RecalculateRatings)
			})
		})

		r.Route("/reviews/product/{id}", func(r chi.Router) {
			r.With(authn.OptionalAuthenticate).Post("/", reviews.CreateReview)
			r.Get("/", reviews.ListProductReviews)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.Get("/", wishlist.List)
			r.Get("/product/{id}", wishlist.Check)
			r.Post("/product/{id}", wishlist.Add)
			r.Delete("/product/{id}", wishlist.Remove)
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthRateLimiter != nil {
					r.Use(cfg.AuthRateLimiter.Handler)
				}
				r.Post("/register", users.Register)
				r.Post("/login", users.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(authn.Authenticate)
				r.Get("/me", users.Me)
				r.Patch("/preferences", users.UpdatePreferences)
				r.Patch("/password", users.ChangePassword)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn.Authenticate, authn.RequireAdmin)

			r.Get("/users", admin.ListUsers)
			r.Patch("/users/{id}", admin.UpdateUser)
			r.Delete("/users/{id}", admin.DeleteUser)

			r.Get("/reviews", reviews.AdminListReviews)
			r.Patch("/reviews/{id}", reviews.AdminUpdateReviewStatus)
			r.Delete("/reviews/{id}", reviews.AdminDeleteReview)

			r.Get("/password-policy", admin.GetPasswordPolicy)
			r.Put("/password-policy", admin.UpdatePasswordPolicy)

			r.Get("/stats", admin.Stats)
		})
	})

	return r
}
