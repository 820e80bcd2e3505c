// Package router builds the echo application: one explicit route table,
// the shared middleware stack and the CORS wrapper.
package router

import (
	"errors"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/iliyamo/racecraft/internal/config"
	"github.com/iliyamo/racecraft/internal/handler"
	"github.com/iliyamo/racecraft/internal/middleware"
	"github.com/iliyamo/racecraft/internal/service"
	"github.com/iliyamo/racecraft/internal/web"
)

// Deps carries everything the routes need.  Redis may be nil.
type Deps struct {
	Catalog     *service.Catalog
	Entries     *service.Entries
	Clock       clockwork.Clock
	Log         zerolog.Logger
	Redis       *redis.Client
	Cache       config.CacheConfig
	RateLimit   config.RateLimitConfig
	Idempotency config.IdempotencyConfig
}

// Route is one row of the route table.
type Route struct {
	Method     string
	Path       string
	Handler    echo.HandlerFunc
	Middleware []echo.MiddlewareFunc
}

// Routes returns the full route table of the app.
func Routes(d Deps) []Route {
	catalog := &handler.CatalogHandler{Catalog: d.Catalog, Log: d.Log}
	entries := &handler.EntryHandler{Entries: d.Entries, Log: d.Log}
	pages := &handler.PageHandler{Catalog: d.Catalog, Log: d.Log}
	health := &handler.HealthHandler{Clock: d.Clock}

	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	idem := middleware.NewIdempotency(d.Idempotency, d.Redis, d.Log)

	return []Route{
		{http.MethodGet, "/v1/health", health.Health, nil},

		{http.MethodGet, "/v1/events/upcoming", catalog.UpcomingEvents, []echo.MiddlewareFunc{cache}},
		{http.MethodGet, "/v1/events/:id", catalog.Event, []echo.MiddlewareFunc{cache}},
		{http.MethodGet, "/v1/events/:id/races", catalog.Races, []echo.MiddlewareFunc{cache}},
		{http.MethodGet, "/v1/races/:raceId/availability", entries.Availability, nil},
		{http.MethodPost, "/v1/races/:raceId/entries", entries.CreateEntry, []echo.MiddlewareFunc{limit, idem}},
		{http.MethodPost, "/v1/payments/simulate", entries.SimulatePayment, []echo.MiddlewareFunc{limit}},

		{http.MethodGet, "/", pages.Home, nil},
		{http.MethodGet, "/events/:id", pages.Event, nil},
		{http.MethodGet, "/races/:raceId/enter", pages.Enter, nil},
	}
}

// New builds the echo app with every route registered.
func New(d Deps) (*echo.Echo, error) {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())

	for _, r := range Routes(d) {
		e.Add(r.Method, r.Path, r.Handler, r.Middleware...)
	}
	e.StaticFS("/static", web.Static())
	return e, nil
}

// errorHandler writes echo errors in the API's {"error": msg} shape.
func errorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		}
		if code >= 500 {
			log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to write error response")
		}
	}
}

// WithCORS wraps h so browsers on origins may call the API with
// credentials and the Idempotency-Key header.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.HeaderIdempotencyKey},
		AllowCredentials: true,
	}).Handler(h)
}
