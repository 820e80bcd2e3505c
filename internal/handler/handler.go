// Package handler holds the echo handlers of the JSON API and the HTML
// pages.  Handlers decode input, call the services and shape their
// results into camelCase DTOs; they hold no business rules.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/racecraft/internal/repository"
	"github.com/iliyamo/racecraft/internal/service"
)

// writeError maps a service error onto its status code and the
// {"error": msg} body.  Unexpected errors are logged and answered with a
// generic message.
func writeError(c echo.Context, log zerolog.Logger, err error) error {
	var se *service.Error
	msg := "Internal server error"
	if errors.As(err, &se) {
		msg = se.Msg
	}
	switch service.KindOf(err) {
	case service.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": msg})
	case service.KindValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	default:
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}

// OrganiserDTO is the public form of an organiser.
type OrganiserDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventDTO is an event with its organiser.  Venue is null when unset.
type EventDTO struct {
	ID          string       `json:"id"`
	OrganiserID string       `json:"organiserId"`
	Name        string       `json:"name"`
	Venue       *string      `json:"venue"`
	Date        time.Time    `json:"date"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	Organiser   OrganiserDTO `json:"organiser"`
}

// CategoriesDTO groups category labels by gender.
type CategoriesDTO struct {
	Open  []string `json:"open"`
	Women []string `json:"women"`
}

// RaceDTO is a race with grouped categories.  Optional fields are
// omitted when unset.
type RaceDTO struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Discipline string        `json:"discipline"`
	StartTime  *string       `json:"startTime,omitempty"`
	Laps       *int          `json:"laps,omitempty"`
	Capacity   *int          `json:"capacity,omitempty"`
	Categories CategoriesDTO `json:"categories"`
}

// EventDetailDTO is an event with its races.
type EventDetailDTO struct {
	EventDTO
	Races []RaceDTO `json:"races"`
}

func toEventDTO(e repository.EventWithOrganiser) EventDTO {
	return EventDTO{
		ID:          e.ID,
		OrganiserID: e.OrganiserID,
		Name:        e.Name,
		Venue:       e.Venue,
		Date:        e.Date.UTC(),
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt.UTC(),
		Organiser: OrganiserDTO{
			ID:        e.Organiser.ID,
			Name:      e.Organiser.Name,
			Slug:      e.Organiser.Slug,
			CreatedAt: e.Organiser.CreatedAt.UTC(),
		},
	}
}

func toRaceDTOs(races []service.RaceSummary) []RaceDTO {
	out := make([]RaceDTO, 0, len(races))
	for _, r := range races {
		out = append(out, RaceDTO{
			ID:         r.ID,
			Name:       r.Name,
			Discipline: r.Discipline,
			StartTime:  r.StartTime,
			Laps:       r.Laps,
			Capacity:   r.Capacity,
			Categories: CategoriesDTO{Open: r.Open, Women: r.Women},
		})
	}
	return out
}
