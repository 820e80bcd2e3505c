package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/racecraft/internal/service"
)

// CatalogHandler serves the read-only event API.
type CatalogHandler struct {
	Catalog *service.Catalog
	Log     zerolog.Logger
}

// UpcomingEvents handles GET /v1/events/upcoming.
func (h *CatalogHandler) UpcomingEvents(c echo.Context) error {
	events, err := h.Catalog.ListUpcomingEvents(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := make([]EventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	return c.JSON(http.StatusOK, out)
}

// Event handles GET /v1/events/:id.
func (h *CatalogHandler) Event(c echo.Context) error {
	detail, err := h.Catalog.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, EventDetailDTO{
		EventDTO: toEventDTO(detail.EventWithOrganiser),
		Races:    toRaceDTOs(detail.Races),
	})
}

// Races handles GET /v1/events/:id/races.  An unknown event yields [].
func (h *CatalogHandler) Races(c echo.Context) error {
	races, err := h.Catalog.ListRacesForEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toRaceDTOs(races))
}
