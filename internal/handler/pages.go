package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/racecraft/internal/service"
	"github.com/iliyamo/racecraft/internal/web"
)

// PageHandler renders the HTML pages.  It reads through the same
// services as the JSON API.
type PageHandler struct {
	Catalog *service.Catalog
	Log     zerolog.Logger
}

// Home handles GET /.
func (h *PageHandler) Home(c echo.Context) error {
	events, err := h.Catalog.ListUpcomingEvents(c.Request().Context())
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(http.StatusOK, web.PageHome, echo.Map{"Events": events})
}

// Event handles GET /events/:id.
func (h *PageHandler) Event(c echo.Context) error {
	detail, err := h.Catalog.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(http.StatusOK, web.PageEvent, echo.Map{"Event": detail})
}

// Enter handles GET /races/:raceId/enter.
func (h *PageHandler) Enter(c echo.Context) error {
	race, err := h.Catalog.GetRace(c.Request().Context(), c.Param("raceId"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(http.StatusOK, web.PageEnter, echo.Map{"Race": race})
}

func (h *PageHandler) renderError(c echo.Context, err error) error {
	if service.KindOf(err) == service.KindNotFound {
		var se *service.Error
		errors.As(err, &se)
		return c.Render(http.StatusNotFound, web.PageNotFound, echo.Map{"Message": se.Msg})
	}
	h.Log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("page render failed")
	return echo.NewHTTPError(http.StatusInternalServerError)
}
