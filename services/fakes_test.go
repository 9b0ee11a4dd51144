package services

import (
	"context"
	"sync"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

func init() {
	utils.SilenceLoggers()
}

func strPtr(s string) *string { return &s }

// fakeBackend serves reservations per date and applies accepted status
// changes to its own copy, like the real backend would.
type fakeBackend struct {
	mu sync.Mutex

	reservations map[string][]models.Reservation
	areas        []models.Area
	audit        []models.AuditLogEntry

	listErr   error
	updateErr error
	createErr error

	listCalls    int
	updateCalls  int
	createCalls  int
	lastActor    models.Actor
	lastWalkIn   WalkInRequest
	lastPhone    PhoneReservationRequest
	lastAuditLim int

	// block, when set, is waited on inside ListReservations.
	block chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{reservations: map[string][]models.Reservation{}}
}

func (f *fakeBackend) set(date string, rs ...models.Reservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations[date] = rs
}

func (f *fakeBackend) calls() (list, update, create int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.updateCalls, f.createCalls
}

func (f *fakeBackend) ListReservations(ctx context.Context, date string) ([]models.Reservation, error) {
	f.mu.Lock()
	f.listCalls++
	block := f.block
	err := f.listErr
	out := append([]models.Reservation(nil), f.reservations[date]...)
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeBackend) ListAreas(context.Context) ([]models.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.areas, nil
}

func (f *fakeBackend) UpdateStatus(_ context.Context, actor models.Actor, id models.ReservationID, status models.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastActor = actor
	if f.updateErr != nil {
		return f.updateErr
	}
	for date, rs := range f.reservations {
		for i := range rs {
			if rs[i].ID == id {
				f.reservations[date][i].Status = status
			}
		}
	}
	return nil
}

func (f *fakeBackend) CreateWalkIn(_ context.Context, actor models.Actor, req WalkInRequest) (models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastActor = actor
	f.lastWalkIn = req
	if f.createErr != nil {
		return models.Reservation{}, f.createErr
	}
	r := models.Reservation{
		ID: "w1", Date: req.Date, Time: req.Time, PartySize: req.PartySize,
		GuestName: req.GuestName, Status: models.StatusArrived, Source: models.SourceWalkIn,
	}
	f.reservations[req.Date] = append(f.reservations[req.Date], r)
	return r, nil
}

func (f *fakeBackend) CreatePhoneReservation(_ context.Context, actor models.Actor, req PhoneReservationRequest) (models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastActor = actor
	f.lastPhone = req
	if f.createErr != nil {
		return models.Reservation{}, f.createErr
	}
	r := models.Reservation{
		ID: "p1", Date: req.Date, Time: req.Time, PartySize: req.PartySize,
		GuestName: req.GuestName, Phone: req.Phone, Status: models.StatusConfirmed, Source: models.SourceTelefon,
	}
	f.reservations[req.Date] = append(f.reservations[req.Date], r)
	return r, nil
}

func (f *fakeBackend) CreateWaitlistEntry(_ context.Context, actor models.Actor, req WaitlistRequest) (models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastActor = actor
	if f.createErr != nil {
		return models.WaitlistEntry{}, f.createErr
	}
	return models.WaitlistEntry{ID: "wl1", GuestName: req.GuestName, Phone: req.Phone, PartySize: req.PartySize}, nil
}

func (f *fakeBackend) AuditLog(_ context.Context, _ models.ReservationID, limit int) ([]models.AuditLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuditLim = limit
	return f.audit, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []StatusChangedEvent
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, e StatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}
