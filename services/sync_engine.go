package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type RefreshReason string

const (
	ReasonActivate   RefreshReason = "activate"
	ReasonInterval   RefreshReason = "interval"
	ReasonManual     RefreshReason = "manual"
	ReasonPostAction RefreshReason = "post-action"
)

var ErrNoActiveDate = errors.New("no service date selected")

// ReservationSource is the read side of the backend the sync loop needs.
type ReservationSource interface {
	ListReservations(ctx context.Context, date string) ([]models.Reservation, error)
	ListAreas(ctx context.Context) ([]models.Area, error)
}

// Refresher triggers an immediate reconciliation.
type Refresher interface {
	Refresh(ctx context.Context, reason RefreshReason) error
}

// SyncStatus is what GET /board/stats reports about the polling loop.
type SyncStatus struct {
	Date        string        `json:"date"`
	Interval    time.Duration `json:"interval_ns"`
	Running     bool          `json:"running"`
	InFlight    bool          `json:"in_flight"`
	LastReason  RefreshReason `json:"last_reason,omitempty"`
	LastSuccess time.Time     `json:"last_success"`
	LastError   string        `json:"last_error,omitempty"`
	LastErrorAt time.Time     `json:"last_error_at"`
	Fetches     int64         `json:"fetches"`
	Failures    int64         `json:"failures"`
	Skipped     int64         `json:"skipped"`
	Dropped     int64         `json:"dropped"`
	Invalid     int64         `json:"invalid_records"`
}

// SyncEngine keeps the store reconciled with the backend for the active
// service date. It polls on Interval and refreshes on demand.
type SyncEngine struct {
	source   ReservationSource
	store    *store.ReservationStore
	Interval time.Duration

	// OnFailure, when set, is called after every failed fetch.
	OnFailure func(reason RefreshReason, err error)

	seq      atomic.Uint64
	inFlight atomic.Int32

	// activateMu serialises Activate and Stop; loopMu guards cancel.
	activateMu sync.Mutex
	loopMu     sync.Mutex
	cancel     context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	status SyncStatus
}

func NewSyncEngine(source ReservationSource, s *store.ReservationStore, interval time.Duration) *SyncEngine {
	if interval <= 0 {
		interval = 20 * time.Second
	}
	return &SyncEngine{
		source:   source,
		store:    s,
		Interval: interval,
	}
}

// Activate switches the board to date: the store is cleared, areas and
// reservations are fetched once and the interval timer is (re)armed. The
// timer runs even when the first fetch fails.
func (e *SyncEngine) Activate(ctx context.Context, date string) error {
	if date == "" {
		return ErrNoActiveDate
	}

	e.activateMu.Lock()
	defer e.activateMu.Unlock()

	e.stopLoop()
	e.store.Reset(date)
	e.loadAreas(ctx)

	err := e.Refresh(ctx, ReasonActivate)
	e.startLoop()

	utils.SyncLog().WithFields(logrus.Fields{
		"date":     date,
		"interval": e.Interval.String(),
	}).Info("Sync activated")
	return err
}

// SetDate re-activates when the date differs from the active one and
// otherwise behaves like a manual refresh.
func (e *SyncEngine) SetDate(ctx context.Context, date string) error {
	if date == e.store.Date() && e.running() {
		return e.Refresh(ctx, ReasonManual)
	}
	return e.Activate(ctx, date)
}

// Stop cancels the timer. An interval fetch in flight is cancelled as well.
func (e *SyncEngine) Stop() {
	e.activateMu.Lock()
	defer e.activateMu.Unlock()

	e.stopLoop()
	utils.SyncLog().Info("Sync stopped")
}

// Refresh fetches the active date and replaces the store contents. Interval
// ticks are skipped while another fetch is in flight; manual and post-action
// refreshes always run. A response that is older than one already applied,
// or that belongs to a date no longer active, is discarded by the store.
func (e *SyncEngine) Refresh(ctx context.Context, reason RefreshReason) error {
	if reason == ReasonInterval {
		if !e.inFlight.CompareAndSwap(0, 1) {
			e.mu.Lock()
			e.status.Skipped++
			e.mu.Unlock()
			utils.SyncLog().Debug("Tick skipped, fetch in flight")
			return nil
		}
	} else {
		e.inFlight.Add(1)
	}
	defer e.inFlight.Add(-1)

	date := e.store.Date()
	if date == "" {
		return ErrNoActiveDate
	}
	if reason == ReasonManual {
		e.loadAreas(ctx)
	}

	seq := e.seq.Add(1)
	records, err := e.source.ListReservations(ctx, date)
	if err != nil {
		e.recordFailure(reason, err)
		return err
	}

	valid := e.sanitize(date, records)
	applied := e.store.ReplaceAll(date, seq, valid)

	e.mu.Lock()
	e.status.Fetches++
	e.status.LastReason = reason
	e.status.LastSuccess = time.Now()
	e.status.LastError = ""
	if !applied {
		e.status.Dropped++
	}
	e.mu.Unlock()

	entry := utils.SyncLog().WithFields(logrus.Fields{
		"date":   date,
		"reason": reason,
		"seq":    seq,
		"count":  len(valid),
	})
	if !applied {
		entry.Debug("Stale response dropped")
	} else {
		entry.Debug("Reservations reconciled")
	}
	return nil
}

// Status returns a copy of the loop metrics.
func (e *SyncEngine) Status() SyncStatus {
	e.mu.Lock()
	st := e.status
	e.mu.Unlock()

	st.Date = e.store.Date()
	st.Interval = e.Interval
	st.Running = e.running()
	st.InFlight = e.inFlight.Load() > 0
	return st
}

func (e *SyncEngine) sanitize(date string, records []models.Reservation) []models.Reservation {
	valid := make([]models.Reservation, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			e.countInvalid(r.ID, err)
			continue
		}
		if r.Date != "" && r.Date != date {
			e.countInvalid(r.ID, errors.New("date does not match active date"))
			continue
		}
		valid = append(valid, r)
	}
	return valid
}

func (e *SyncEngine) countInvalid(id models.ReservationID, err error) {
	e.mu.Lock()
	e.status.Invalid++
	e.mu.Unlock()
	utils.ErrorLogger.WithFields(logrus.Fields{
		"component":      "sync",
		"reservation_id": id,
	}).Warnf("Dropping reservation from backend: %v", err)
}

func (e *SyncEngine) recordFailure(reason RefreshReason, err error) {
	if errors.Is(err, context.Canceled) {
		utils.SyncLog().WithField("reason", reason).Debug("Fetch cancelled")
		return
	}

	e.mu.Lock()
	e.status.Failures++
	e.status.LastReason = reason
	e.status.LastError = err.Error()
	e.status.LastErrorAt = time.Now()
	e.mu.Unlock()

	utils.ErrorLogger.WithFields(logrus.Fields{
		"component": "sync",
		"reason":    reason,
	}).Errorf("Error fetching reservations: %v", err)
	if e.OnFailure != nil {
		e.OnFailure(reason, err)
	}
}

func (e *SyncEngine) loadAreas(ctx context.Context) {
	areas, err := e.source.ListAreas(ctx)
	if err != nil {
		utils.ErrorLogger.WithField("component", "sync").Errorf("Error fetching areas: %v", err)
		return
	}
	e.store.SetAreas(areas)
}

func (e *SyncEngine) startLoop() {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				// errors are recorded in Status; the loop keeps going
				_ = e.Refresh(ctx, ReasonInterval)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (e *SyncEngine) stopLoop() {
	e.loopMu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.loopMu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
}

func (e *SyncEngine) running() bool {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()
	return e.cancel != nil
}
