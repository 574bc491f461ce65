package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	logpkg "github.com/benvon/origin-guard/internal/logger"
	"github.com/benvon/origin-guard/internal/models"
	"github.com/benvon/origin-guard/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RedisClient wraps the Redis connection shared by the rate limiter and health checks.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Ping checks if Redis is reachable
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewLimiterStore returns a Redis-backed store when rc is non-nil so limits are
// shared between instances, and an in-process store otherwise.
func NewLimiterStore(rc *RedisClient) (limiter.Store, error) {
	if rc == nil {
		return memory.NewStore(), nil
	}
	store, err := redisstore.NewStore(rc.client)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimit limits requests per client IP using a ulule/limiter formatted rate
// such as "100-M". Over-limit requests get 429 {"detail": "Too Many Requests"}.
func RateLimit(rate string, store limiter.Store, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeDetail(w, http.StatusTooManyRequests, models.DetailTooManyRequests, logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limiter_store_error",
				zap.String("error", logpkg.SanitizeError(err)),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			)
			writeDetail(w, http.StatusInternalServerError, models.DetailInternalServerError, logger)
		}),
	)
	return mw.Handler, nil
}
