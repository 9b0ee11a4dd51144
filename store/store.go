// Package store keeps the in-memory reservation snapshot for the active
// service date. It has no update-in-place API: every change comes back from
// the backend through ReplaceAll.
package store

import (
	"sync"
	"time"

	"github.com/yeremiapane/restaurant-floor/models"
)

// Snapshot is an immutable view handed to readers and listeners.
type Snapshot struct {
	Date         string
	Version      uint64
	Reservations []models.Reservation
	Areas        []models.Area
	SyncedAt     time.Time
}

// AreaName resolves an area id to its label, falling back to the id.
func (s Snapshot) AreaName(id *string) string {
	if id == nil {
		return ""
	}
	for _, a := range s.Areas {
		if a.ID == *id {
			return a.Name
		}
	}
	return *id
}

// Listener is notified after every applied replace or reset.
type Listener func(Snapshot)

type ReservationStore struct {
	mu       sync.RWMutex
	date     string
	records  map[models.ReservationID]models.Reservation
	areas    []models.Area
	version  uint64
	lastSeq  uint64
	syncedAt time.Time

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

func New() *ReservationStore {
	return &ReservationStore{
		records:   make(map[models.ReservationID]models.Reservation),
		listeners: make(map[int]Listener),
	}
}

// Reset discards the collection and makes date the active partition.
// Responses for other dates arriving later are dropped by ReplaceAll.
func (s *ReservationStore) Reset(date string) {
	s.mu.Lock()
	s.date = date
	s.records = make(map[models.ReservationID]models.Reservation)
	s.version++
	s.lastSeq = 0
	s.syncedAt = time.Time{}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// ReplaceAll atomically swaps the collection for date. seq is the fetch
// sequence number; a response older than the last applied one, or for a date
// that is no longer active, is dropped. It reports whether the set was applied.
func (s *ReservationStore) ReplaceAll(date string, seq uint64, records []models.Reservation) bool {
	next := make(map[models.ReservationID]models.Reservation, len(records))
	for _, r := range records {
		next[r.ID] = r
	}

	s.mu.Lock()
	if date != s.date || seq < s.lastSeq {
		s.mu.Unlock()
		return false
	}
	s.records = next
	s.lastSeq = seq
	s.version++
	s.syncedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

func (s *ReservationStore) SetAreas(areas []models.Area) {
	cp := make([]models.Area, len(areas))
	copy(cp, areas)

	s.mu.Lock()
	s.areas = cp
	s.mu.Unlock()
}

func (s *ReservationStore) Get(id models.ReservationID) (models.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

// All returns a copy of every record; order is unspecified.
func (s *ReservationStore) All() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsLocked()
}

func (s *ReservationStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *ReservationStore) Date() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.date
}

func (s *ReservationStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *ReservationStore) LastSyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncedAt
}

// Subscribe registers l and returns a func that removes it again.
func (s *ReservationStore) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *ReservationStore) notify(snap Snapshot) {
	s.listenersMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.listenersMu.Unlock()

	for _, l := range ls {
		l(snap)
	}
}

func (s *ReservationStore) recordsLocked() []models.Reservation {
	out := make([]models.Reservation, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

func (s *ReservationStore) snapshotLocked() Snapshot {
	areas := make([]models.Area, len(s.areas))
	copy(areas, s.areas)
	return Snapshot{
		Date:         s.date,
		Version:      s.version,
		Reservations: s.recordsLocked(),
		Areas:        areas,
		SyncedAt:     s.syncedAt,
	}
}
