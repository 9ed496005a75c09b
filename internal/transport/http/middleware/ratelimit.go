package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"perfeval/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateLimiter)

// RateStore counts hits per key inside a fixed window and reports how long
// until the window resets.
type RateStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
}

type rateBucket struct {
	count int
	reset time.Time
}

// MemoryRateStore keeps buckets in process. Expired buckets are replaced on
// the next hit.
type MemoryRateStore struct {
	mu      sync.Mutex
	clients map[string]*rateBucket
	now     func() time.Time
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{clients: map[string]*rateBucket{}, now: time.Now}
}

func (m *MemoryRateStore) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.clients[key]
	if !ok || now.After(bucket.reset) {
		bucket = &rateBucket{reset: now.Add(window)}
		m.clients[key] = bucket
	}
	bucket.count++
	return bucket.count, bucket.reset.Sub(now), nil
}

// RedisRateStore shares buckets between replicas.
type RedisRateStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisRateStore(client redis.Cmdable, prefix string) *RedisRateStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateStore{client: client, prefix: prefix}
}

func (s *RedisRateStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	fullKey := s.prefix + ":" + key
	count, err := s.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, 0, err
		}
		return 1, window, nil
	}
	ttl, err := s.client.TTL(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// A key without expiry would never reset.
		if err := s.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return int(count), ttl, nil
}

type rateLimiter struct {
	name   string
	limit  int
	window time.Duration
	keyFn  RateLimitKeyFunc
	store  RateStore
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *rateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

func WithStore(store RateStore) RateLimitOption {
	return func(rl *rateLimiter) {
		if store != nil {
			rl.store = store
		}
	}
}

func WithName(name string) RateLimitOption {
	return func(rl *rateLimiter) {
		if name != "" {
			rl.name = name
		}
	}
}

func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := newRateLimiter("global", limit, window, actorOrIPKey)
	for _, opt := range opts {
		opt(rl)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveMutationRateLimit applies tighter limits to login, MFA and
// state-changing review routes. store may be nil for in-process buckets.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration, store RateStore) func(http.Handler) http.Handler {
	authLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)
	authByIP := newRateLimiter("auth-ip", authLimit, window, clientIPKey)
	authByEmail := newRateLimiter("auth-email", authLimit, window, AuthEmailOrIPKey("email"))
	sensitiveByActor := newRateLimiter("mutation", mutationLimit, window, actorOrIPKey)
	for _, rl := range []*rateLimiter{authByIP, authByEmail, sensitiveByActor} {
		WithStore(store)(rl)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !authByIP.enforce(w, r) {
					return
				}
				if !authByEmail.enforce(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !sensitiveByActor.enforce(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	normalizedField := strings.TrimSpace(field)
	if normalizedField == "" {
		normalizedField = "email"
	}
	return func(r *http.Request) string {
		email := extractJSONField(r, normalizedField)
		if email == "" {
			return clientIPKey(r)
		}
		return "email:" + strings.ToLower(email)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

func newRateLimiter(name string, limit int, window time.Duration, keyFn RateLimitKeyFunc) *rateLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	return &rateLimiter{
		name:   name,
		limit:  limit,
		window: window,
		keyFn:  keyFn,
		store:  NewMemoryRateStore(),
	}
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit <= 0 {
		return true
	}

	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	count, resetAfter, err := rl.store.Hit(r.Context(), rl.name+":"+key, rl.window)
	if err != nil {
		slog.Warn("rate limit store failed", "limiter", rl.name, "err", err)
		return true
	}
	remaining := rl.limit - count
	resetIn := durationSeconds(resetAfter)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetIn))

	if count > rl.limit {
		w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
		slog.Warn("rate limit exceeded",
			"limiter", rl.name,
			"key", key,
			"path", r.URL.Path,
			"method", r.Method,
			"limit", rl.limit,
			"windowSec", int(rl.window.Seconds()),
		)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}

func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	seconds := int(d.Seconds())
	if seconds <= 0 {
		return 1
	}
	return seconds
}

func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	contentType := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if !strings.Contains(contentType, "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return ""
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

func sensitiveRateScope(r *http.Request) sensitiveScope {
	if r == nil {
		return sensitiveScopeNone
	}
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
		return sensitiveScopeNone
	}

	path := normalizedAPIPath(r.URL.Path)
	switch path {
	case "/auth/login",
		"/auth/mfa/setup",
		"/auth/mfa/enable":
		return sensitiveScopeAuth
	case "/evaluations":
		return sensitiveScopeActor
	}
	for _, prefix := range []string{"/cycles", "/users", "/departments"} {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return sensitiveScopeActor
		}
	}
	return sensitiveScopeNone
}

func normalizedAPIPath(path string) string {
	cleaned := strings.TrimSpace(path)
	cleaned = strings.TrimPrefix(cleaned, "/api/v1")
	if cleaned == "" {
		return "/"
	}
	if !strings.HasPrefix(cleaned, "/") {
		return "/" + cleaned
	}
	return cleaned
}
