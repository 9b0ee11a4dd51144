package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-floor/apperrors"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
)

type dispatcherFixture struct {
	backend   *fakeBackend
	store     *store.ReservationStore
	engine    *SyncEngine
	publisher *recordingPublisher
	d         *Dispatcher
}

func newDispatcherFixture(t *testing.T, rs ...models.Reservation) *dispatcherFixture {
	t.Helper()
	backend := newFakeBackend()
	backend.set(day, rs...)

	s := store.New()
	engine := NewSyncEngine(backend, s, time.Hour)
	t.Cleanup(engine.Stop)
	require.NoError(t, engine.Activate(context.Background(), day))

	pub := &recordingPublisher{}
	d := NewDispatcher(backend, s, engine, pub)
	d.now = func() time.Time { return time.Date(2024, 5, 1, 18, 45, 0, 0, time.UTC) }

	return &dispatcherFixture{backend: backend, store: s, engine: engine, publisher: pub, d: d}
}

var staff = models.Actor{ID: 3, Name: "Mia", Role: "staff", Token: "tok"}

func TestDispatcher_ChangeStatusAppliesAfterRefresh(t *testing.T) {
	f := newDispatcherFixture(t, reservation("1", models.StatusConfirmed))

	updated, err := f.d.ChangeStatus(context.Background(), staff, "1", models.StatusArrived)
	require.NoError(t, err)
	assert.Equal(t, models.StatusArrived, updated.Status)

	r, ok := f.store.Get("1")
	require.True(t, ok)
	assert.Equal(t, models.StatusArrived, r.Status)
	assert.Equal(t, staff, f.backend.lastActor)

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, models.StatusConfirmed, ev.From)
	assert.Equal(t, models.StatusArrived, ev.To)
	assert.Equal(t, uint(3), ev.ActorID)
}

func TestDispatcher_InvalidTransitionNeverReachesBackend(t *testing.T) {
	f := newDispatcherFixture(t, reservation("1", models.StatusCompleted))
	version := f.store.Version()
	list, _, _ := f.backend.calls()

	_, err := f.d.ChangeStatus(context.Background(), staff, "1", models.StatusNew)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	listAfter, update, _ := f.backend.calls()
	assert.Equal(t, 0, update)
	assert.Equal(t, list, listAfter)
	assert.Equal(t, version, f.store.Version())
	assert.Empty(t, f.publisher.events)
}

func TestDispatcher_UnknownReservation(t *testing.T) {
	f := newDispatcherFixture(t)

	_, err := f.d.ChangeStatus(context.Background(), staff, "404", models.StatusConfirmed)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, update, _ := f.backend.calls()
	assert.Equal(t, 0, update)
}

func TestDispatcher_RejectionStillRefreshes(t *testing.T) {
	f := newDispatcherFixture(t, reservation("1", models.StatusConfirmed))

	// someone else already seated the guest
	f.backend.set(day, reservation("1", models.StatusArrived))
	f.backend.updateErr = &apperrors.RejectionError{Op: "update status", StatusCode: 409, Message: "already changed"}

	_, err := f.d.ChangeStatus(context.Background(), staff, "1", models.StatusNoShow)
	require.Error(t, err)
	assert.True(t, apperrors.IsRejection(err))

	r, _ := f.store.Get("1")
	assert.Equal(t, models.StatusArrived, r.Status)
	assert.Empty(t, f.publisher.events)
}

func TestDispatcher_TransientFailureLeavesStore(t *testing.T) {
	f := newDispatcherFixture(t, reservation("1", models.StatusConfirmed))
	f.backend.updateErr = &apperrors.TransientError{Op: "update status", Err: errors.New("timeout")}
	version := f.store.Version()
	list, _, _ := f.backend.calls()

	_, err := f.d.ChangeStatus(context.Background(), staff, "1", models.StatusArrived)
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))

	listAfter, update, _ := f.backend.calls()
	assert.Equal(t, 1, update)
	assert.Equal(t, list, listAfter)
	assert.Equal(t, version, f.store.Version())
	r, _ := f.store.Get("1")
	assert.Equal(t, models.StatusConfirmed, r.Status)
}

func TestDispatcher_CreateWalkInDefaultsAndRefreshes(t *testing.T) {
	f := newDispatcherFixture(t)

	created, err := f.d.CreateWalkIn(context.Background(), staff, WalkInRequest{GuestName: " Laufkundschaft ", PartySize: 2})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationID("w1"), created.ID)
	assert.Equal(t, day, f.backend.lastWalkIn.Date)
	assert.Equal(t, "18:45", f.backend.lastWalkIn.Time)
	assert.Equal(t, "Laufkundschaft", f.backend.lastWalkIn.GuestName)

	_, ok := f.store.Get("w1")
	assert.True(t, ok)
}

func TestDispatcher_CreatePhoneReservationRefreshes(t *testing.T) {
	f := newDispatcherFixture(t)

	_, err := f.d.CreatePhoneReservation(context.Background(), staff,
		PhoneReservationRequest{GuestName: "Herr Huber", Phone: "+49 89 123456", PartySize: 4, Time: "20:00"})
	require.NoError(t, err)
	assert.Equal(t, day, f.backend.lastPhone.Date)

	r, ok := f.store.Get("p1")
	require.True(t, ok)
	assert.Equal(t, models.SourceTelefon, r.Source)
}

func TestDispatcher_CreateValidation(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{"walk-in without name", func() error {
			_, err := f.d.CreateWalkIn(ctx, staff, WalkInRequest{PartySize: 2})
			return err
		}, "guest_name"},
		{"walk-in with blank name", func() error {
			_, err := f.d.CreateWalkIn(ctx, staff, WalkInRequest{GuestName: "   ", PartySize: 2})
			return err
		}, "guest_name"},
		{"phone with blank name", func() error {
			_, err := f.d.CreatePhoneReservation(ctx, staff, PhoneReservationRequest{GuestName: "\t ", Phone: "0171 1234", PartySize: 2})
			return err
		}, "guest_name"},
		{"waitlist with blank name", func() error {
			_, err := f.d.CreateWaitlistEntry(ctx, staff, WaitlistRequest{GuestName: "  ", Phone: "0176 555", PartySize: 2})
			return err
		}, "guest_name"},
		{"walk-in without party", func() error {
			_, err := f.d.CreateWalkIn(ctx, staff, WalkInRequest{GuestName: "A"})
			return err
		}, "party_size"},
		{"phone without phone", func() error {
			_, err := f.d.CreatePhoneReservation(ctx, staff, PhoneReservationRequest{GuestName: "A", PartySize: 2})
			return err
		}, "phone"},
		{"phone with bad time", func() error {
			_, err := f.d.CreatePhoneReservation(ctx, staff, PhoneReservationRequest{GuestName: "A", Phone: "0171 1234", PartySize: 2, Time: "8pm"})
			return err
		}, "time"},
		{"waitlist without phone", func() error {
			_, err := f.d.CreateWaitlistEntry(ctx, staff, WaitlistRequest{GuestName: "A", PartySize: 2})
			return err
		}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			var v *apperrors.ValidationError
			require.True(t, errors.As(err, &v))
			assert.Equal(t, tt.field, v.Field)
		})
	}

	_, _, create := f.backend.calls()
	assert.Equal(t, 0, create)
}

func TestDispatcher_WaitlistDoesNotRefresh(t *testing.T) {
	f := newDispatcherFixture(t)
	list, _, _ := f.backend.calls()

	entry, err := f.d.CreateWaitlistEntry(context.Background(), staff, WaitlistRequest{GuestName: "Eva", Phone: "0176 555", PartySize: 3})
	require.NoError(t, err)
	assert.Equal(t, "Eva", entry.GuestName)

	listAfter, _, _ := f.backend.calls()
	assert.Equal(t, list, listAfter)
}

func TestDispatcher_AuditLogLimit(t *testing.T) {
	f := newDispatcherFixture(t)

	entries, err := f.d.AuditLog(context.Background(), "1", 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Equal(t, DefaultAuditLimit, f.backend.lastAuditLim)

	_, err = f.d.AuditLog(context.Background(), "1", 500)
	require.NoError(t, err)
	assert.Equal(t, MaxAuditLimit, f.backend.lastAuditLim)

	_, err = f.d.AuditLog(context.Background(), "", 10)
	assert.True(t, apperrors.IsValidation(err))
}
