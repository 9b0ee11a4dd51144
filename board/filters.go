package board

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yeremiapane/restaurant-floor/apperrors"
	"github.com/yeremiapane/restaurant-floor/models"
)

// All disables a filter dimension.
const All = "all"

type Slot string

const (
	SlotAll       Slot = All
	SlotLunch     Slot = "mittag"
	SlotAfternoon Slot = "nachmittag"
	SlotEvening   Slot = "abend"
)

// slotBounds are half-open minute-of-day ranges. The last bucket is open
// ended and also catches anything outside the configured ranges.
var slotBounds = []struct {
	slot       Slot
	start, end int
}{
	{SlotLunch, 11*60 + 30, 14 * 60},
	{SlotAfternoon, 14 * 60, 17 * 60},
	{SlotEvening, 17 * 60, 24 * 60},
}

// Slots lists the selectable buckets in day order.
func Slots() []Slot {
	return []Slot{SlotLunch, SlotAfternoon, SlotEvening}
}

func (s Slot) Valid() bool {
	switch s {
	case SlotAll, SlotLunch, SlotAfternoon, SlotEvening:
		return true
	}
	return false
}

// Filters is the operator's current selection. Empty strings behave like All.
type Filters struct {
	AreaID              string `json:"area"`
	Slot                Slot   `json:"slot"`
	Status              string `json:"status"`
	Search              string `json:"q"`
	PaymentRequiredOnly bool   `json:"payment_required"`
	FlaggedOnly         bool   `json:"flagged"`
}

// DefaultFilters shows everything.
func DefaultFilters() Filters {
	return Filters{AreaID: All, Slot: SlotAll, Status: All}
}

// ParseFilters reads the board query parameters. Missing keys keep their
// default; unknown slot or status values are rejected.
func ParseFilters(q url.Values) (Filters, error) {
	f := DefaultFilters()

	if v := strings.TrimSpace(q.Get("area")); v != "" {
		f.AreaID = v
	}
	if v := strings.TrimSpace(q.Get("slot")); v != "" {
		f.Slot = Slot(strings.ToLower(v))
		if !f.Slot.Valid() {
			return Filters{}, apperrors.NewValidation("slot", fmt.Sprintf("unknown time slot %q", v), nil)
		}
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		f.Status = strings.ToLower(v)
		if f.Status != All && !models.Status(f.Status).Valid() {
			return Filters{}, apperrors.NewValidation("status", fmt.Sprintf("unknown status %q", v), nil)
		}
	}
	f.Search = strings.TrimSpace(q.Get("q"))

	var err error
	if f.PaymentRequiredOnly, err = parseToggle(q, "payment_required"); err != nil {
		return Filters{}, err
	}
	if f.FlaggedOnly, err = parseToggle(q, "flagged"); err != nil {
		return Filters{}, err
	}
	return f, nil
}

// HasArea and HasSlot report whether the query named the dimension at all,
// which decides between restoring and persisting the operator preference.
func HasArea(q url.Values) bool { return strings.TrimSpace(q.Get("area")) != "" }
func HasSlot(q url.Values) bool { return strings.TrimSpace(q.Get("slot")) != "" }

func parseToggle(q url.Values, key string) (bool, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.NewValidation(key, fmt.Sprintf("expected boolean, got %q", v), err)
	}
	return b, nil
}

func isAll(v string) bool {
	return v == "" || v == All
}
