package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Store.Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Response cache outcome header and values.
const (
	HeaderCache = "X-Cache"
	Hit         = "HIT"
	Miss        = "MISS"
)

var lookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_response_cache_lookups_total",
		Help: "Response cache lookups by result",
	},
	[]string{"result"},
)

// Store is the key/value surface the response cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

// ResponseCache caches successful anonymous GET responses. Entries are keyed
// by a namespace version, so Invalidate drops every entry at once by bumping
// the version instead of scanning keys.
type ResponseCache struct {
	store     Store
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// New creates a ResponseCache storing entries under namespace for ttl.
func New(store Store, namespace string, ttl time.Duration, logger *slog.Logger) *ResponseCache {
	return &ResponseCache{
		store:     store,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
	}
}

func (c *ResponseCache) versionKey() string {
	return c.namespace + ":version"
}

func (c *ResponseCache) version(ctx context.Context) (string, error) {
	v, err := c.store.Get(ctx, c.versionKey())
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Key returns the cache key for a request URI under the given version.
func (c *ResponseCache) Key(version, requestURI string) string {
	sum := sha256.Sum256([]byte(version + "|" + requestURI))
	return c.namespace + ":v" + version + ":" + hex.EncodeToString(sum[:])
}

// Invalidate makes every cached response stale.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	v, err := c.store.Incr(ctx, c.versionKey())
	if err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "response cache invalidated", slog.Int64("version", v))
	return nil
}

// Handler serves cached responses and stores fresh 200 responses. Requests
// carrying an Authorization header may be personalized and bypass the cache.
// Cache failures degrade to serving uncached.
func (c *ResponseCache) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		version, err := c.version(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "response cache unavailable", slog.String("error", err.Error()))
			lookupsTotal.WithLabelValues("error").Inc()
			next.ServeHTTP(w, r)
			return
		}
		key := c.Key(version, r.URL.RequestURI())

		body, err := c.store.Get(ctx, key)
		if err == nil {
			lookupsTotal.WithLabelValues("hit").Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(HeaderCache, Hit)
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}
		if !errors.Is(err, ErrMiss) {
			c.logger.WarnContext(ctx, "response cache read failed", slog.String("error", err.Error()))
		}
		lookupsTotal.WithLabelValues("miss").Inc()

		w.Header().Set(HeaderCache, Miss)
		rec := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status != http.StatusOK {
			return
		}
		if err := c.store.Set(ctx, key, rec.body.Bytes(), c.ttl); err != nil {
			c.logger.WarnContext(ctx, "response cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	})
}

// bodyRecorder tees the response body so it can be stored after the
// handler returns.
type bodyRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (rw *bodyRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *bodyRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (rw *bodyRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Disabled is used when Redis is not configured. It never caches.
type Disabled struct{}

func (Disabled) Handler(next http.Handler) http.Handler { return next }

func (Disabled) Invalidate(context.Context) error { return nil }
