// Package seed loads the demo organiser, events, races and categories.
// Running it again creates nothing new.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/racecraft/internal/database"
	"github.com/iliyamo/racecraft/internal/model"
	"github.com/iliyamo/racecraft/internal/repository"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Fixtures is the shape of fixtures.yaml.  Event dates are offsets in
// days from the time the seed runs.
type Fixtures struct {
	Organiser struct {
		Name string `yaml:"name"`
		Slug string `yaml:"slug"`
	} `yaml:"organiser"`
	Events []struct {
		Name       string `yaml:"name"`
		Venue      string `yaml:"venue"`
		OffsetDays int    `yaml:"offset_days"`
	} `yaml:"events"`
	Races struct {
		Event string `yaml:"event"`
		Items []struct {
			Name       string `yaml:"name"`
			Discipline string `yaml:"discipline"`
			StartTime  string `yaml:"start_time"`
			Laps       int    `yaml:"laps"`
			Capacity   int    `yaml:"capacity"`
			Categories struct {
				Open  []string `yaml:"open"`
				Women []string `yaml:"women"`
			} `yaml:"categories"`
		} `yaml:"items"`
	} `yaml:"races"`
}

// Summary counts the rows written and skipped by Run.
type Summary struct {
	OrganiserCreated  bool
	EventsCreated     int
	EventsSkipped     int
	RacesCreated      int
	RacesSkipped      int
	CategoriesCreated int
	CategoriesSkipped int
}

// LoadFixtures parses the embedded fixtures.
func LoadFixtures() (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(fixturesYAML, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Run applies the embedded fixtures to db.
func Run(ctx context.Context, db *database.DB, clock clockwork.Clock) (Summary, error) {
	f, err := LoadFixtures()
	if err != nil {
		return Summary{}, err
	}
	return Apply(ctx, db, clock, f)
}

// Apply writes f to db, skipping rows that already exist.
func Apply(ctx context.Context, db *database.DB, clock clockwork.Clock, f *Fixtures) (Summary, error) {
	var sum Summary
	now := clock.Now().UTC()

	org, created, err := repository.NewOrganiserRepo(db).Upsert(ctx, f.Organiser.Name, f.Organiser.Slug, now)
	if err != nil {
		return sum, fmt.Errorf("upsert organiser: %w", err)
	}
	sum.OrganiserCreated = created

	events := repository.NewEventRepo(db)
	for _, fe := range f.Events {
		ev := &model.Event{
			OrganiserID: org.ID,
			Name:        fe.Name,
			Venue:       database.OptionalString(&fe.Venue),
			Date:        now.AddDate(0, 0, fe.OffsetDays),
			Status:      model.EventPublished,
		}
		ok, err := events.InsertIgnore(ctx, ev, now)
		if err != nil {
			return sum, fmt.Errorf("insert event %q: %w", fe.Name, err)
		}
		if ok {
			sum.EventsCreated++
		} else {
			sum.EventsSkipped++
		}
	}

	host, err := events.GetByName(ctx, f.Races.Event)
	if err != nil {
		return sum, fmt.Errorf("find event %q: %w", f.Races.Event, err)
	}

	races := repository.NewRaceRepo(db)
	cats := repository.NewCategoryRepo(db)
	for _, fr := range f.Races.Items {
		race, err := races.GetByEventAndName(ctx, host.ID, fr.Name)
		switch {
		case errors.Is(err, repository.ErrRaceNotFound):
			start, laps, capacity := fr.StartTime, fr.Laps, fr.Capacity
			race = &model.Race{
				EventID:    host.ID,
				Name:       fr.Name,
				Discipline: fr.Discipline,
				StartTime:  database.OptionalString(&start),
				Laps:       positive(laps),
				Capacity:   positive(capacity),
			}
			if err := races.Create(ctx, race, now); err != nil {
				return sum, fmt.Errorf("create race %q: %w", fr.Name, err)
			}
			sum.RacesCreated++
		case err != nil:
			return sum, fmt.Errorf("find race %q: %w", fr.Name, err)
		default:
			sum.RacesSkipped++
		}

		for _, group := range []struct {
			gender model.Gender
			labels []string
		}{
			{model.GenderOpen, fr.Categories.Open},
			{model.GenderWomen, fr.Categories.Women},
		} {
			for _, label := range group.labels {
				ok, err := cats.InsertIgnore(ctx, &model.RaceCategory{RaceID: race.ID, Gender: group.gender, Label: label})
				if err != nil {
					return sum, fmt.Errorf("insert category %q on %q: %w", label, fr.Name, err)
				}
				if ok {
					sum.CategoriesCreated++
				} else {
					sum.CategoriesSkipped++
				}
			}
		}
	}
	return sum, nil
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
