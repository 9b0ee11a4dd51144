package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-floor/apperrors"
	"github.com/yeremiapane/restaurant-floor/lifecycle"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

const (
	DefaultAuditLimit = 20
	MaxAuditLimit     = 100
)

// Dispatcher sends staff actions to the backend. The store is never edited
// optimistically: after an accepted action it asks the sync engine for a
// fresh copy instead.
type Dispatcher struct {
	backend   Backend
	store     *store.ReservationStore
	refresher Refresher
	publisher EventPublisher
	now       func() time.Time
}

func NewDispatcher(backend Backend, s *store.ReservationStore, refresher Refresher, publisher EventPublisher) *Dispatcher {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Dispatcher{
		backend:   backend,
		store:     s,
		refresher: refresher,
		publisher: publisher,
		now:       time.Now,
	}
}

// ChangeStatus validates the transition locally, then asks the backend.
// A rejected request still triggers a refresh so the board shows what the
// backend actually holds. Transient failures leave the store untouched.
func (d *Dispatcher) ChangeStatus(ctx context.Context, actor models.Actor, id models.ReservationID, target models.Status) (models.Reservation, error) {
	current, ok := d.store.Get(id)
	if !ok {
		return models.Reservation{}, apperrors.NewValidation("id", "reservation "+string(id)+" is not on the board", apperrors.ErrNotFound)
	}
	if err := lifecycle.RequestTransition(current, target); err != nil {
		return current, err
	}

	log := utils.ActionLog().WithFields(logrus.Fields{
		"reservation_id": id,
		"from":           current.Status,
		"to":             target,
		"actor_id":       actor.ID,
	})

	if err := d.backend.UpdateStatus(ctx, actor, id, target); err != nil {
		if apperrors.IsRejection(err) {
			log.Warnf("Status change rejected: %v", err)
			d.refresh(ctx)
		} else {
			utils.ErrorLogger.WithField("reservation_id", id).Errorf("Status change failed: %v", err)
		}
		return current, err
	}

	log.Info("Status changed")
	d.refresh(ctx)

	event := StatusChangedEvent{
		ReservationID: id,
		Date:          current.Date,
		Time:          current.Time,
		GuestName:     current.GuestName,
		PartySize:     current.PartySize,
		TableNumber:   current.TableNumber,
		From:          current.Status,
		To:            target,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		ChangedAt:     d.now(),
	}
	if err := d.publisher.PublishStatusChanged(ctx, event); err != nil {
		utils.ErrorLogger.WithField("reservation_id", id).Errorf("Error publishing status change: %v", err)
	}

	if updated, ok := d.store.Get(id); ok {
		return updated, nil
	}
	current.Status = target
	return current, nil
}

// CreateWalkIn books a guest standing at the door. Date and time default to
// the active service date and the current clock.
func (d *Dispatcher) CreateWalkIn(ctx context.Context, actor models.Actor, req WalkInRequest) (models.Reservation, error) {
	req.GuestName = strings.TrimSpace(req.GuestName)
	if req.Date == "" {
		req.Date = d.store.Date()
	}
	if req.Time == "" {
		req.Time = d.now().Format("15:04")
	}
	if err := toValidationError(req.Validate()); err != nil {
		return models.Reservation{}, err
	}

	created, err := d.backend.CreateWalkIn(ctx, actor, req)
	if err != nil {
		return d.createFailed(ctx, "walk-in", err)
	}
	utils.ActionLog().WithFields(logrus.Fields{
		"reservation_id": created.ID,
		"party_size":     req.PartySize,
	}).Info("Walk-in created")
	d.refresh(ctx)
	return created, nil
}

func (d *Dispatcher) CreatePhoneReservation(ctx context.Context, actor models.Actor, req PhoneReservationRequest) (models.Reservation, error) {
	req.GuestName = strings.TrimSpace(req.GuestName)
	if req.Date == "" {
		req.Date = d.store.Date()
	}
	if err := toValidationError(req.Validate()); err != nil {
		return models.Reservation{}, err
	}

	created, err := d.backend.CreatePhoneReservation(ctx, actor, req)
	if err != nil {
		return d.createFailed(ctx, "phone reservation", err)
	}
	utils.ActionLog().WithFields(logrus.Fields{
		"reservation_id": created.ID,
		"date":           req.Date,
	}).Info("Phone reservation created")
	d.refresh(ctx)
	return created, nil
}

// CreateWaitlistEntry does not refresh: waitlist entries are not
// reservations and never appear on the board.
func (d *Dispatcher) CreateWaitlistEntry(ctx context.Context, actor models.Actor, req WaitlistRequest) (models.WaitlistEntry, error) {
	req.GuestName = strings.TrimSpace(req.GuestName)
	if err := toValidationError(req.Validate()); err != nil {
		return models.WaitlistEntry{}, err
	}

	entry, err := d.backend.CreateWaitlistEntry(ctx, actor, req)
	if err != nil {
		utils.ErrorLogger.Errorf("Error creating waitlist entry: %v", err)
		return models.WaitlistEntry{}, err
	}
	utils.ActionLog().WithField("waitlist_id", entry.ID).Info("Waitlist entry created")
	return entry, nil
}

// AuditLog reads the change history of a reservation straight from the
// backend. Nothing is cached.
func (d *Dispatcher) AuditLog(ctx context.Context, id models.ReservationID, limit int) ([]models.AuditLogEntry, error) {
	if id == "" {
		return nil, apperrors.NewValidation("id", "reservation id is required", apperrors.ErrRequiredField)
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}

	entries, err := d.backend.AuditLog(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	return entries, nil
}

func (d *Dispatcher) createFailed(ctx context.Context, what string, err error) (models.Reservation, error) {
	if apperrors.IsRejection(err) {
		utils.ActionLog().Warnf("Create %s rejected: %v", what, err)
		d.refresh(ctx)
	} else {
		utils.ErrorLogger.Errorf("Error creating %s: %v", what, err)
	}
	return models.Reservation{}, err
}

func (d *Dispatcher) refresh(ctx context.Context) {
	if d.refresher == nil {
		return
	}
	if err := d.refresher.Refresh(ctx, ReasonPostAction); err != nil {
		utils.ErrorLogger.WithField("component", "dispatch").Errorf("Refresh after action failed: %v", err)
	}
}
