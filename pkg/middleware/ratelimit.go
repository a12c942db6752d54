package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorStore keeps one token bucket per client IP and forgets idle clients.
type visitorStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

func newVisitorStore(rps float64, burst int, ttl time.Duration) *visitorStore {
	return &visitorStore{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *visitorStore) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (s *visitorStore) evictIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for ip, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.ttl {
			delete(s.visitors, ip)
		}
	}
}

// RateLimiter enforces a per-IP token bucket. Close stops the eviction loop.
type RateLimiter struct {
	store   *visitorStore
	trusted []*net.IPNet
	logger  *slog.Logger
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter allows rps requests per second per client IP with the given
// burst. Forwarding headers are honored only from peers inside trustedProxies.
func NewRateLimiter(rps float64, burst int, trustedProxies []string, logger *slog.Logger) *RateLimiter {
	const idleTTL = 3 * time.Minute

	rl := &RateLimiter{
		store:   newVisitorStore(rps, burst, idleTTL),
		trusted: parseCIDRs(trustedProxies, logger),
		logger:  logger,
		stop:    make(chan struct{}),
	}
	go rl.evictLoop(idleTTL)
	return rl
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.store.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

// Close stops the background eviction goroutine.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Handler returns middleware responding 429 once a client exhausts its bucket.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, rl.trusted)
		if !rl.store.allow(ip) {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			limited := apperrors.TooManyRequests("too many requests, try again later")
			w.Header().Set("Retry-After", "1")
			httputil.WriteJSON(w, limited.Status, httputil.ErrorResponse{
				Error:   limited.Code,
				Message: limited.Message,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP resolves the address a request should be attributed to. The
// connection's remote address wins unless it belongs to a trusted proxy, in
// which case X-Forwarded-For is walked right to left and the first hop outside
// the trusted ranges is returned. X-Real-IP is the fallback for a trusted peer
// that sent no usable chain.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	remote := remoteHost(r)
	if !containsIP(trusted, net.ParseIP(remote)) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		leftmost := ""
		for i := len(parts) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(parts[i]))
			if ip == nil {
				continue
			}
			if !containsIP(trusted, ip) {
				return ip.String()
			}
			leftmost = ip.String()
		}
		if leftmost != "" {
			return leftmost
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}

	return remote
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
