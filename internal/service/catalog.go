// Package service implements the read and entry operations on top of
// the repositories.  Every operation returns *Error for failures the
// caller should see.
package service

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"

	"github.com/iliyamo/racecraft/internal/database"
	"github.com/iliyamo/racecraft/internal/model"
	"github.com/iliyamo/racecraft/internal/repository"
)

// RaceSummary is a race with its category labels split by gender.
type RaceSummary struct {
	model.Race
	Open  []string
	Women []string
}

// EventDetail is an event with its organiser and races.
type EventDetail struct {
	repository.EventWithOrganiser
	Races []RaceSummary
}

// Catalog serves the read side: upcoming events, event detail and the
// races of an event.
type Catalog struct {
	events     *repository.EventRepo
	races      *repository.RaceRepo
	categories *repository.CategoryRepo
	clock      clockwork.Clock
}

// NewCatalog wires a Catalog to db.  A nil clock uses the real clock.
func NewCatalog(db *database.DB, clock clockwork.Clock) *Catalog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Catalog{
		events:     repository.NewEventRepo(db),
		races:      repository.NewRaceRepo(db),
		categories: repository.NewCategoryRepo(db),
		clock:      clock,
	}
}

// ListUpcomingEvents returns published events dated now or later,
// earliest first.
func (s *Catalog) ListUpcomingEvents(ctx context.Context) ([]repository.EventWithOrganiser, error) {
	events, err := s.events.ListUpcoming(ctx, s.clock.Now())
	if err != nil {
		return nil, unexpected("failed to load events", err)
	}
	return events, nil
}

// GetEvent returns one event with its organiser and races.
func (s *Catalog) GetEvent(ctx context.Context, id string) (*EventDetail, error) {
	ev, err := s.events.GetByID(ctx, id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return nil, notFound("Event not found")
	}
	if err != nil {
		return nil, unexpected("failed to load event", err)
	}
	races, err := s.ListRacesForEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EventDetail{EventWithOrganiser: *ev, Races: races}, nil
}

// GetRace returns a single race.
func (s *Catalog) GetRace(ctx context.Context, id string) (*model.Race, error) {
	race, err := s.races.GetByID(ctx, id)
	if errors.Is(err, repository.ErrRaceNotFound) {
		return nil, notFound("Race not found")
	}
	if err != nil {
		return nil, unexpected("failed to load race", err)
	}
	return race, nil
}

// ListRacesForEvent returns the races of an event ordered by start time.
// An unknown event yields an empty list.
func (s *Catalog) ListRacesForEvent(ctx context.Context, eventID string) ([]RaceSummary, error) {
	races, err := s.races.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, unexpected("failed to load races", err)
	}
	cats, err := s.categories.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, unexpected("failed to load categories", err)
	}
	return groupCategories(races, cats), nil
}

// groupCategories attaches each category label to its race, split into
// open and women lists.  Labels with any other gender are dropped.
func groupCategories(races []model.Race, cats []model.RaceCategory) []RaceSummary {
	out := make([]RaceSummary, len(races))
	idx := make(map[string]int, len(races))
	for i, r := range races {
		out[i] = RaceSummary{Race: r, Open: []string{}, Women: []string{}}
		idx[r.ID] = i
	}
	for _, c := range cats {
		i, ok := idx[c.RaceID]
		if !ok {
			continue
		}
		switch c.Gender {
		case model.GenderOpen:
			out[i].Open = append(out[i].Open, c.Label)
		case model.GenderWomen:
			out[i].Women = append(out[i].Women, c.Label)
		}
	}
	return out
}
