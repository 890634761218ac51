package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// defaultRoute names the budget of requests that match no RouteLimit
const defaultRoute = "api"

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
	Routes            []RouteLimit  // Routes counted apart from the rest of the API
}

// RouteLimit gives the requests under PathPrefix their own counter and
// limit. Hybrid shop search hydrates every index hit, so it gets a tighter
// budget than plain listing.
type RouteLimit struct {
	Name              string
	PathPrefix        string
	RequestsPerWindow int
}

// route returns the budget r is counted against. The longest matching
// prefix wins.
func (c RateLimitConfig) route(r *http.Request) (string, int) {
	name, limit, matched := defaultRoute, c.RequestsPerWindow, 0
	for _, route := range c.Routes {
		if len(route.PathPrefix) > matched && strings.HasPrefix(r.URL.Path, route.PathPrefix) {
			name, limit, matched = route.Name, route.RequestsPerWindow, len(route.PathPrefix)
		}
	}
	return name, limit
}

// RateLimitMiddleware implements a fixed window rate limit per client IP and
// route using Redis counters. Requests pass through when Redis is unavailable.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientIP(r)
			route, limit := config.route(r)
			key := fmt.Sprintf("%s:%s:%s", config.KeyPrefix, route, clientID)

			ctx := r.Context()

			count, err := redisClient.Incr(ctx, key).Result()
			if err != nil {
				logger.Error("Failed to increment rate limit counter",
					zap.Error(err),
					zap.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				redisClient.Expire(ctx, key, config.Window)
			}

			w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(limit))

			if count > int64(limit) {
				ttl, err := redisClient.TTL(ctx, key).Result()
				if err != nil || ttl < 0 {
					ttl = config.Window
				}

				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.String("route", route),
					zap.Int64("count", count),
					zap.Int("limit", limit),
				)

				w.Header().Set(HeaderRateLimitRemaining, "0")
				w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))

				RespondWithErrorCode(w, http.StatusTooManyRequests, CodeRateLimited, route+" rate limit exceeded")
				return
			}

			w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(limit-int(count)))

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr, which chi's RealIP may already
// have replaced with a bare address
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
