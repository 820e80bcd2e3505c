package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/racecraft/internal/service"
)

// EntryHandler serves availability, entry creation and the payment
// simulation.
type EntryHandler struct {
	Entries *service.Entries
	Log     zerolog.Logger
}

// AvailabilityDTO is the place count of a race.  Capacity and remaining
// are null when the race is uncapped.
type AvailabilityDTO struct {
	Capacity  *int `json:"capacity"`
	Taken     int  `json:"taken"`
	Remaining *int `json:"remaining"`
}

// EntryReceiptDTO is the 201 body of a created entry.
type EntryReceiptDTO struct {
	EntryID string `json:"entryId"`
	Race    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"race"`
	Event struct {
		ID   string    `json:"id"`
		Name string    `json:"name"`
		Date time.Time `json:"date"`
	} `json:"event"`
	Payment struct {
		Provider     string `json:"provider"`
		ClientSecret string `json:"clientSecret"`
	} `json:"payment"`
}

// Availability handles GET /v1/races/:raceId/availability.
func (h *EntryHandler) Availability(c echo.Context) error {
	a, err := h.Entries.Availability(c.Request().Context(), c.Param("raceId"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, AvailabilityDTO{Capacity: a.Capacity, Taken: a.Taken, Remaining: a.Remaining})
}

// CreateEntry handles POST /v1/races/:raceId/entries.
func (h *EntryHandler) CreateEntry(c echo.Context) error {
	var body service.EntryInput
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rec, err := h.Entries.Create(c.Request().Context(), c.Param("raceId"), body)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	var out EntryReceiptDTO
	out.EntryID = rec.EntryID
	out.Race.ID, out.Race.Name = rec.Race.ID, rec.Race.Name
	out.Event.ID, out.Event.Name, out.Event.Date = rec.Event.ID, rec.Event.Name, rec.Event.Date.UTC()
	out.Payment.Provider, out.Payment.ClientSecret = rec.Payment.Provider, rec.Payment.ClientSecret
	return c.JSON(http.StatusCreated, out)
}

// SimulatePayment handles POST /v1/payments/simulate.
func (h *EntryHandler) SimulatePayment(c echo.Context) error {
	var body service.PaymentInput
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status, err := h.Entries.SimulatePayment(c.Request().Context(), body)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status})
}
