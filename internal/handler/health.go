package handler

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

// HealthHandler answers liveness checks.
type HealthHandler struct {
	Clock clockwork.Clock
}

// Health handles GET /v1/health with {"status":"ok","timestamp":...}.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"timestamp": h.Clock.Now().UTC().Format(time.RFC3339Nano),
	})
}
