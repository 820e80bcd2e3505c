package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/racecraft/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}, "X-Multi": {"a", "b"}}
	body := []byte(`{"ok":true}`)

	bs, err := encodePayload(http.StatusCreated, hdr, body)
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(bs)
	if !ok || status != http.StatusCreated || !bytes.Equal(gotBody, body) {
		t.Fatalf("decodePayload = %d %q ok=%v", status, gotBody, ok)
	}
	if gotHdr.Get("Content-Type") != "application/json" || len(gotHdr.Values("X-Multi")) != 2 {
		t.Errorf("headers = %v", gotHdr)
	}

	for _, bad := range [][]byte{nil, []byte("pending"), {0, 0, 0, 200, 0, 0, 1, 0}} {
		if _, _, _, ok := decodePayload(bad); ok {
			t.Errorf("decodePayload(%v) ok", bad)
		}
	}
}

func TestCaptureWriterLimit(t *testing.T) {
	rr := httptest.NewRecorder()
	cw := newCaptureWriter(rr, 4)
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))

	if rr.Body.String() != "abcdef" {
		t.Errorf("client body = %q", rr.Body.String())
	}
	if cw.buf.String() != "abcd" || cw.complete() {
		t.Errorf("captured %q complete=%v", cw.buf.String(), cw.complete())
	}
}

func TestCacheKeyDistinguishesPathAndQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "c", KeyStrategy: "route_query"}
	a := cacheKeyFrom(cfg, httptest.NewRequest(http.MethodGet, "/v1/events/a", nil))
	b := cacheKeyFrom(cfg, httptest.NewRequest(http.MethodGet, "/v1/events/b", nil))
	q := cacheKeyFrom(cfg, httptest.NewRequest(http.MethodGet, "/v1/events/a?x=1", nil))
	if a == b || a == q {
		t.Errorf("keys collide: %s %s %s", a, b, q)
	}

	cfg.KeyStrategy = "route"
	if cacheKeyFrom(cfg, httptest.NewRequest(http.MethodGet, "/v1/events/a?x=1", nil)) !=
		cacheKeyFrom(cfg, httptest.NewRequest(http.MethodGet, "/v1/events/a?x=2", nil)) {
		t.Error("route strategy should ignore the query")
	}
}

func TestRedisMiddlewarePassThroughWithoutClient(t *testing.T) {
	mws := map[string]echo.MiddlewareFunc{
		"cache":       NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Second}, nil),
		"ratelimit":   NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, zerolog.Nop()),
		"idempotency": NewIdempotency(config.IdempotencyConfig{Enabled: true, TTL: time.Hour}, nil, zerolog.Nop()),
	}
	for name, mw := range mws {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			calls := 0
			e.POST("/x", func(c echo.Context) error {
				calls++
				return c.JSON(http.StatusCreated, echo.Map{"n": calls})
			}, mw)

			for i := 0; i < 3; i++ {
				req := httptest.NewRequest(http.MethodPost, "/x", nil)
				req.Header.Set(HeaderIdempotencyKey, "same")
				rr := httptest.NewRecorder()
				e.ServeHTTP(rr, req)
				if rr.Code != http.StatusCreated || rr.Header().Get(HeaderIdempotentReplay) != "" {
					t.Fatalf("request %d: %d %v", i, rr.Code, rr.Header())
				}
			}
			if calls != 3 {
				t.Errorf("handler calls = %d, want 3", calls)
			}
		})
	}
}

func TestIdempotencyKeyScopedToPath(t *testing.T) {
	cfg := config.IdempotencyConfig{Prefix: "i"}
	a := idempotencyKey(cfg, httptest.NewRequest(http.MethodPost, "/v1/races/a/entries", nil), "k")
	b := idempotencyKey(cfg, httptest.NewRequest(http.MethodPost, "/v1/races/b/entries", nil), "k")
	if a == b {
		t.Error("same key on different races collides")
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func post(e *echo.Echo, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.IdempotencyConfig{Enabled: true, TTL: time.Hour, LockTTL: time.Minute, Prefix: "i"}
	e := echo.New()
	calls := 0
	e.POST("/entries", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusCreated, echo.Map{"n": calls})
	}, NewIdempotency(cfg, rdb, zerolog.Nop()))

	first := post(e, "/entries", "k1")
	second := post(e, "/entries", "k1")
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("status = %d then %d", first.Code, second.Code)
	}
	if first.Header().Get(HeaderIdempotentReplay) != "" {
		t.Error("first response marked as replay")
	}
	if second.Header().Get(HeaderIdempotentReplay) != "true" {
		t.Errorf("second %s = %q", HeaderIdempotentReplay, second.Header().Get(HeaderIdempotentReplay))
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("bodies differ: %q vs %q", first.Body.String(), second.Body.String())
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}

	if rr := post(e, "/entries", "k2"); rr.Code != http.StatusCreated || calls != 2 {
		t.Errorf("new key: %d calls=%d", rr.Code, calls)
	}
	if rr := post(e, "/entries", ""); rr.Code != http.StatusCreated || calls != 3 {
		t.Errorf("no key: %d calls=%d", rr.Code, calls)
	}
}

func TestIdempotencyInFlightConflict(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.IdempotencyConfig{Enabled: true, TTL: time.Hour, LockTTL: time.Minute, Prefix: "i"}
	e := echo.New()
	calls := 0
	e.POST("/entries", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusCreated)
	}, NewIdempotency(cfg, rdb, zerolog.Nop()))

	key := idempotencyKey(cfg, httptest.NewRequest(http.MethodPost, "/entries", nil), "busy")
	if err := mr.Set(key, string(pendingMarker)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rr := post(e, "/entries", "busy")
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("request in progress")) {
		t.Errorf("body = %s", rr.Body.String())
	}
	if calls != 0 {
		t.Errorf("handler ran %d times", calls)
	}
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.IdempotencyConfig{Enabled: true, TTL: time.Hour, LockTTL: time.Minute, Prefix: "i"}
	e := echo.New()
	calls := 0
	e.POST("/entries", func(c echo.Context) error {
		calls++
		if calls == 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Race is full"})
		}
		return c.NoContent(http.StatusCreated)
	}, NewIdempotency(cfg, rdb, zerolog.Nop()))

	if rr := post(e, "/entries", "retry"); rr.Code != http.StatusBadRequest {
		t.Fatalf("first status = %d", rr.Code)
	}
	key := idempotencyKey(cfg, httptest.NewRequest(http.MethodPost, "/entries", nil), "retry")
	if mr.Exists(key) {
		t.Fatal("key kept after a 400")
	}
	rr := post(e, "/entries", "retry")
	if rr.Code != http.StatusCreated || rr.Header().Get(HeaderIdempotentReplay) != "" {
		t.Errorf("retry: %d %v", rr.Code, rr.Header())
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestRedisCacheHit(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, KeyStrategy: "route_query", Prefix: "c"}
	e := echo.New()
	calls := 0
	e.GET("/events/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "n": calls})
	}, NewRedisCache(cfg, rdb))

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	first := get("/events/a")
	second := get("/events/a")
	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("X-Cache = %q then %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if first.Body.String() != second.Body.String() || second.Header().Get(echo.HeaderContentType) == "" {
		t.Errorf("hit differs: %q %v", second.Body.String(), second.Header())
	}
	if other := get("/events/b"); other.Header().Get("X-Cache") != "MISS" {
		t.Error("different id served from cache")
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "c"}
	e := echo.New()
	e.GET("/events/:id", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Event not found"})
	}, NewRedisCache(cfg, rdb))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events/x", nil))
		if rr.Code != http.StatusNotFound || rr.Header().Get("X-Cache") != "MISS" {
			t.Errorf("request %d: %d X-Cache=%q", i, rr.Code, rr.Header().Get("X-Cache"))
		}
	}
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		Prefix:         "rl",
	}
	e := echo.New()
	e.POST("/entries", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, NewTokenBucket(cfg, rdb, zerolog.Nop()))

	first := post(e, "/entries", "")
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" || first.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("limit headers = %v", first.Header())
	}

	second := post(e, "/entries", "")
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if ra := second.Header().Get("Retry-After"); ra == "" || ra == "0" {
		t.Errorf("Retry-After = %q", ra)
	}
	if !bytes.Contains(second.Body.Bytes(), []byte("Too many requests")) {
		t.Errorf("body = %s", second.Body.String())
	}
}
