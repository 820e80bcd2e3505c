package seed

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/iliyamo/racecraft/internal/service"
	"github.com/iliyamo/racecraft/internal/testutil"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestRunIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	clock := clockwork.NewFakeClockAt(now)
	ctx := context.Background()

	first, err := Run(ctx, db, clock)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	want := Summary{OrganiserCreated: true, EventsCreated: 3, RacesCreated: 2, CategoriesCreated: 6}
	if first != want {
		t.Errorf("first Run = %+v, want %+v", first, want)
	}

	clock.Advance(24 * time.Hour)
	second, err := Run(ctx, db, clock)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	want = Summary{EventsSkipped: 3, RacesSkipped: 2, CategoriesSkipped: 6}
	if second != want {
		t.Errorf("second Run = %+v, want %+v", second, want)
	}
}

func TestSeededCatalog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	clock := clockwork.NewFakeClockAt(now)
	ctx := context.Background()
	if _, err := Run(ctx, db, clock); err != nil {
		t.Fatalf("Run: %v", err)
	}

	catalog := service.NewCatalog(db, clock)
	events, err := catalog.ListUpcomingEvents(ctx)
	if err != nil {
		t.Fatalf("ListUpcomingEvents: %v", err)
	}
	var names []string
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	if strings.Join(names, ",") != "Circuit Summer R4,Darley Moor GP" {
		t.Fatalf("upcoming = %v", names)
	}

	races, err := catalog.ListRacesForEvent(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("ListRacesForEvent: %v", err)
	}
	if len(races) != 2 || races[0].Name != "E/1/2/3" || *races[0].Capacity != 80 || *races[1].Laps != 35 {
		t.Fatalf("races = %+v", races)
	}

	f, err := LoadFixtures()
	if err != nil {
		t.Fatalf("LoadFixtures: %v", err)
	}
	for i, fr := range f.Races.Items {
		got := append(append([]string{}, races[i].Open...), races[i].Women...)
		want := append(append([]string{}, fr.Categories.Open...), fr.Categories.Women...)
		sort.Strings(got)
		sort.Strings(want)
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("%s categories = %v, want %v", fr.Name, got, want)
		}
		if len(races[i].Open) != len(fr.Categories.Open) || len(races[i].Women) != len(fr.Categories.Women) {
			t.Errorf("%s partition = %v / %v", fr.Name, races[i].Open, races[i].Women)
		}
	}
}

func TestLoadFixtures(t *testing.T) {
	f, err := LoadFixtures()
	if err != nil {
		t.Fatalf("LoadFixtures: %v", err)
	}
	if f.Organiser.Slug != "yorkshire-cc" || len(f.Events) != 3 || f.Races.Event != "Circuit Summer R4" {
		t.Errorf("fixtures = %+v", f)
	}
}
