package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/racecraft/internal/config"
)

// HeaderIdempotencyKey is the request header clients set to make a POST
// safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay marks a response served from the store.
const HeaderIdempotentReplay = "Idempotent-Replay"

var pendingMarker = []byte("pending")

func idempotencyKey(cfg config.IdempotencyConfig, r *http.Request, key string) string {
	sum := sha1.Sum([]byte(r.Method + " " + r.URL.Path + ":" + key))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// NewIdempotency replays the first 2xx response for a repeated
// Idempotency-Key.  A duplicate that arrives while the first request is
// still running gets 409.  Non-2xx outcomes release the key so the
// client can retry.  Requests without the header pass through.
func NewIdempotency(cfg config.IdempotencyConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
			if raw == "" {
				return next(c)
			}
			ctx := c.Request().Context()
			key := idempotencyKey(cfg, c.Request(), raw)

			claimed, err := rdb.SetNX(ctx, key, pendingMarker, cfg.LockTTL).Result()
			if err != nil {
				log.Warn().Err(err).Msg("idempotency: redis error")
				return next(c)
			}
			if !claimed {
				bs, err := rdb.Get(ctx, key).Bytes()
				if err != nil && !errors.Is(err, redis.Nil) {
					log.Warn().Err(err).Msg("idempotency: redis error")
					return next(c)
				}
				if status, hdr, body, ok := decodePayload(bs); ok && !bytes.Equal(bs, pendingMarker) {
					hdr.Set(HeaderIdempotentReplay, "true")
					replay(c.Response(), status, hdr, body)
					return nil
				}
				return c.JSON(http.StatusConflict, echo.Map{"error": "request in progress"})
			}

			bg := context.WithoutCancel(ctx)
			cw := newCaptureWriter(c.Response().Writer, cfg.MaxBodyBytes)
			c.Response().Writer = cw
			if err := next(c); err != nil {
				_ = rdb.Del(bg, key).Err()
				return err
			}
			if cw.status < 200 || cw.status > 299 || !cw.complete() {
				_ = rdb.Del(bg, key).Err()
				return nil
			}
			hdr := snapshot(c.Response().Header())
			hdr.Del(echo.HeaderXRequestID)
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err == nil {
				err = rdb.Set(bg, key, payload, cfg.TTL).Err()
			}
			if err != nil {
				log.Warn().Err(err).Msg("idempotency: failed to store response")
				_ = rdb.Del(bg, key).Err()
			}
			return nil
		}
	}
}
