package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/iliyamo/racecraft/internal/database"
	"github.com/iliyamo/racecraft/internal/model"
	"github.com/iliyamo/racecraft/internal/payment"
	"github.com/iliyamo/racecraft/internal/queue"
	"github.com/iliyamo/racecraft/internal/repository"
	"github.com/iliyamo/racecraft/internal/validator"
)

// Payment simulation outcomes.
const (
	StatusPaid        = "paid"
	StatusAlreadyPaid = "already_paid"
)

// Availability is the advisory place count for a race.  Capacity and
// Remaining are nil when the race has no capacity.
type Availability struct {
	Capacity  *int
	Taken     int
	Remaining *int
}

// EntryInput is the rider's submission.  Length limits live in the
// validate tags; presence is checked by validateEntry.
type EntryInput struct {
	RiderName      string `json:"riderName" validate:"max=200"`
	Email          string `json:"email" validate:"max=254"`
	Club           string `json:"club" validate:"max=200"`
	BCID           string `json:"bcId" validate:"max=50"`
	EmergencyName  string `json:"emergencyName" validate:"max=200"`
	EmergencyPhone string `json:"emergencyPhone" validate:"max=50"`
}

// RaceRef names the race an entry was made for.
type RaceRef struct {
	ID   string
	Name string
}

// EntryReceipt is returned once an entry is stored.
type EntryReceipt struct {
	EntryID string
	Race    RaceRef
	Event   repository.EventSummary
	Payment payment.Intent
}

// PaymentInput identifies the entry to pay for.  ClientSecret is
// optional; when present it must have been issued for EntryID.
type PaymentInput struct {
	EntryID      string `json:"entryId"`
	ClientSecret string `json:"clientSecret"`
}

// Entries implements availability, entry creation and the payment
// simulation.
type Entries struct {
	db      *database.DB
	events  *repository.EventRepo
	races   *repository.RaceRepo
	entries *repository.EntryRepo
	pay     payment.Provider
	pub     queue.Publisher
	clock   clockwork.Clock
	log     zerolog.Logger
}

// NewEntries wires the entry service.  A nil publisher drops events and
// a nil clock uses the real clock.
func NewEntries(db *database.DB, pay payment.Provider, pub queue.Publisher, clock clockwork.Clock, log zerolog.Logger) *Entries {
	if db == nil || pay == nil {
		panic("nil dependency passed to NewEntries")
	}
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Entries{
		db:      db,
		events:  repository.NewEventRepo(db),
		races:   repository.NewRaceRepo(db),
		entries: repository.NewEntryRepo(db),
		pay:     pay,
		pub:     pub,
		clock:   clock,
		log:     log,
	}
}

// Availability counts the entries of a race without locking.
func (s *Entries) Availability(ctx context.Context, raceID string) (*Availability, error) {
	race, err := s.races.GetByID(ctx, raceID)
	if errors.Is(err, repository.ErrRaceNotFound) {
		return nil, notFound("Race not found")
	}
	if err != nil {
		return nil, unexpected("failed to load race", err)
	}
	taken, err := s.entries.CountByRace(ctx, raceID)
	if err != nil {
		return nil, unexpected("failed to count entries", err)
	}
	out := &Availability{Capacity: race.Capacity, Taken: taken}
	if race.Capacity != nil {
		remaining := max(0, *race.Capacity-taken)
		out.Remaining = &remaining
	}
	return out, nil
}

// Create stores an unpaid entry for raceID.  The race row is locked
// for the duration of the count and insert so a race never takes more
// entries than its capacity.
func (s *Entries) Create(ctx context.Context, raceID string, in EntryInput) (*EntryReceipt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unexpected("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	race, err := s.races.GetForUpdateTx(ctx, tx, raceID)
	if errors.Is(err, repository.ErrRaceNotFound) {
		return nil, notFound("Race not found")
	}
	if err != nil {
		return nil, unexpected("failed to load race", err)
	}
	if race.Capacity != nil {
		taken, err := s.entries.CountByRaceTx(ctx, tx, raceID)
		if err != nil {
			return nil, unexpected("failed to count entries", err)
		}
		if taken >= *race.Capacity {
			return nil, invalid("Race is full")
		}
	}
	if err := validateEntry(ctx, &in); err != nil {
		return nil, err
	}
	ev, err := s.races.EventSummaryTx(ctx, tx, race.EventID)
	if err != nil {
		return nil, unexpected("failed to load event", err)
	}

	entry := &model.Entry{
		RaceID:         race.ID,
		RiderName:      in.RiderName,
		Email:          optional(in.Email),
		Club:           optional(in.Club),
		BCID:           optional(in.BCID),
		EmergencyName:  in.EmergencyName,
		EmergencyPhone: in.EmergencyPhone,
	}
	if err := s.entries.CreateTx(ctx, tx, entry, s.clock.Now()); err != nil {
		return nil, unexpected("failed to create entry", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unexpected("failed to commit entry", err)
	}
	committed = true

	intent, err := s.pay.NewIntent(entry.ID)
	if err != nil {
		return nil, unexpected("failed to create payment intent", err)
	}

	s.publish(ctx, queue.EntryEvent{
		Type:      queue.EntryCreated,
		EntryID:   entry.ID,
		RaceID:    race.ID,
		RaceName:  race.Name,
		EventID:   ev.ID,
		EventName: ev.Name,
		RiderName: entry.RiderName,
		Paid:      false,
	})

	return &EntryReceipt{
		EntryID: entry.ID,
		Race:    RaceRef{ID: race.ID, Name: race.Name},
		Event:   *ev,
		Payment: intent,
	}, nil
}

// SimulatePayment marks an entry paid.  Repeating the call is safe and
// reports StatusAlreadyPaid.
func (s *Entries) SimulatePayment(ctx context.Context, in PaymentInput) (string, error) {
	entryID, err := requireEntryID(in.EntryID)
	if err != nil {
		return "", err
	}
	if secret := strings.TrimSpace(in.ClientSecret); secret != "" {
		sub, err := s.pay.Verify(secret)
		if err != nil || sub != entryID {
			return "", invalid("Invalid clientSecret")
		}
	}

	entry, err := s.entries.GetByID(ctx, entryID)
	if errors.Is(err, repository.ErrEntryNotFound) {
		return "", notFound("Entry not found")
	}
	if err != nil {
		return "", unexpected("failed to load entry", err)
	}
	if entry.Paid {
		return StatusAlreadyPaid, nil
	}

	ok, err := s.entries.MarkPaid(ctx, entryID, s.clock.Now())
	if err != nil {
		return "", unexpected("failed to mark entry paid", err)
	}
	if !ok {
		return StatusAlreadyPaid, nil
	}

	ev := queue.EntryEvent{
		Type:      queue.EntryPaid,
		EntryID:   entry.ID,
		RaceID:    entry.RaceID,
		RiderName: entry.RiderName,
		Paid:      true,
	}
	if race, err := s.races.GetByID(ctx, entry.RaceID); err == nil {
		ev.RaceName = race.Name
		ev.EventID = race.EventID
		if event, err := s.events.GetByID(ctx, race.EventID); err == nil {
			ev.EventName = event.Name
		}
	}
	s.publish(ctx, ev)
	return StatusPaid, nil
}

// publish is best effort; the entry is already stored.
func (s *Entries) publish(ctx context.Context, ev queue.EntryEvent) {
	ev.OccurredAt = s.clock.Now().UTC().Format(time.RFC3339)
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("type", ev.Type).Str("entry_id", ev.EntryID).Msg("entry event publish failed")
	}
}

// validateEntry trims every field in place and checks presence, then
// length.
func validateEntry(ctx context.Context, in *EntryInput) error {
	in.RiderName = strings.TrimSpace(in.RiderName)
	in.Email = strings.TrimSpace(in.Email)
	in.Club = strings.TrimSpace(in.Club)
	in.BCID = strings.TrimSpace(in.BCID)
	in.EmergencyName = strings.TrimSpace(in.EmergencyName)
	in.EmergencyPhone = strings.TrimSpace(in.EmergencyPhone)

	if in.RiderName == "" {
		return invalid("riderName required")
	}
	if in.EmergencyName == "" || in.EmergencyPhone == "" {
		return invalid("Emergency contact required")
	}
	if err := validator.Validate(ctx, in); err != nil {
		return invalid(err.Error())
	}
	return nil
}

func requireEntryID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid("entryId required")
	}
	return id, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
