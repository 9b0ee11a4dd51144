// Package board derives the operator's floor view from a store snapshot and
// a filter selection. Everything here is pure and synchronous.
package board

import (
	"sort"
	"strconv"
	"strings"

	"github.com/yeremiapane/restaurant-floor/models"
)

// TimeBucket maps an HH:MM (or HH:MM:SS) time to its slot. Times outside
// every configured range, including unparseable ones, land in the open-ended
// evening bucket.
func TimeBucket(t string) Slot {
	minute, ok := minuteOfDay(t)
	if !ok {
		return SlotEvening
	}
	for _, b := range slotBounds {
		if minute >= b.start && minute < b.end {
			return b.slot
		}
	}
	return SlotEvening
}

func minuteOfDay(t string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(t), ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Match reports whether r passes every active filter.
func Match(r models.Reservation, f Filters) bool {
	if !isAll(f.AreaID) {
		if r.AreaID == nil || *r.AreaID != f.AreaID {
			return false
		}
	}
	if !isAll(string(f.Slot)) && TimeBucket(r.Time) != f.Slot {
		return false
	}
	if !isAll(f.Status) && string(r.Status) != f.Status {
		return false
	}
	if f.PaymentRequiredOnly && !r.PaymentRequired {
		return false
	}
	if f.FlaggedOnly && !r.Flagged() {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		name := strings.ToLower(r.GuestName)
		phone := strings.ToLower(r.Phone)
		if !strings.Contains(name, q) && !strings.Contains(phone, q) {
			return false
		}
	}
	return true
}

// VisibleSet returns the records passing all filters, sorted by time with
// empty times first. HH:MM is fixed width, so string order is time order.
func VisibleSet(records []models.Reservation, f Filters) []models.Reservation {
	out := make([]models.Reservation, 0, len(records))
	for _, r := range records {
		if Match(r, f) {
			out = append(out, r)
		}
	}
	SortByTime(out)
	return out
}

// SortByTime orders in place; ties fall back to guest name then id so the
// board does not reshuffle between refreshes.
func SortByTime(rs []models.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Time != rs[j].Time {
			return rs[i].Time < rs[j].Time
		}
		if rs[i].GuestName != rs[j].GuestName {
			return rs[i].GuestName < rs[j].GuestName
		}
		return rs[i].ID < rs[j].ID
	})
}

// Stats summarise the whole service date, independent of any filter.
type Stats struct {
	Total        int                   `json:"total"`
	ByStatus     map[models.Status]int `json:"by_status"`
	Covers       int                   `json:"covers"`
	OpenPayments int                   `json:"open_payments"`
	Flagged      int                   `json:"flagged"`
}

func (s Stats) Count(status models.Status) int {
	return s.ByStatus[status]
}

// Aggregate must be given the unfiltered set for the date.
func Aggregate(records []models.Reservation) Stats {
	stats := Stats{ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, st := range models.Statuses {
		stats.ByStatus[st] = 0
	}
	for _, r := range records {
		stats.Total++
		stats.ByStatus[r.Status]++
		stats.Covers += r.PartySize
		if r.OpenPayment() {
			stats.OpenPayments++
		}
		if r.Flagged() {
			stats.Flagged++
		}
	}
	return stats
}
