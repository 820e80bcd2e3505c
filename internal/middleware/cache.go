// Package middleware holds the echo middleware of the API: a Redis
// response cache, a Redis token bucket, Idempotency-Key replay and the
// request logger.  The Redis-backed ones pass requests straight through
// when Redis is unavailable.
package middleware

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/racecraft/internal/config"
)

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// cacheKeyFrom builds a stable key from the concrete request path and,
// for the route_query strategy, the raw query.
func cacheKeyFrom(cfg config.CacheConfig, r *http.Request) string {
	parts := []string{"path", r.URL.Path}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
	case "method_route":
		parts = append([]string{"method", r.Method}, parts...)
	default: // route_query
		parts = append(parts, "q", r.URL.RawQuery)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// NewRedisCache caches 200 responses of the configured methods with
// their headers, so a hit is byte-identical to the original.  Responses
// carry X-Cache: HIT or MISS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c.Request())

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					hdr.Set("X-Cache", "HIT")
					replay(c.Response(), status, hdr, body)
					return nil
				}
			}

			cw := newCaptureWriter(c.Response().Writer, cfg.MaxBodyBytes)
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || !cw.complete() {
				return nil
			}
			hdr := snapshot(c.Response().Header())
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderXRequestID)
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				_ = rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err()
			}
			return nil
		}
	}
}
