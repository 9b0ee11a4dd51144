// Package lifecycle holds the reservation status table. It is a pure lookup:
// the client-side check is advisory, the backend re-validates every change.
package lifecycle

import (
	"fmt"

	"github.com/yeremiapane/restaurant-floor/apperrors"
	"github.com/yeremiapane/restaurant-floor/models"
)

// transitions lists the reachable states per status. The first entry is the
// primary action shown as the default button.
var transitions = map[models.Status][]models.Status{
	models.StatusNew:       {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusArrived, models.StatusNoShow, models.StatusCancelled},
	models.StatusArrived:   {models.StatusCompleted, models.StatusNoShow},
	models.StatusCompleted: nil,
	models.StatusNoShow:    nil,
	models.StatusCancelled: nil,
}

var labels = map[models.Status]string{
	models.StatusNew:       "Neu",
	models.StatusConfirmed: "Bestätigt",
	models.StatusArrived:   "Angekommen",
	models.StatusCompleted: "Abgeschlossen",
	models.StatusNoShow:    "No-Show",
	models.StatusCancelled: "Storniert",
}

var actionLabels = map[models.Status]string{
	models.StatusConfirmed: "Bestätigen",
	models.StatusArrived:   "Gast angekommen",
	models.StatusCompleted: "Abschließen",
	models.StatusNoShow:    "No-Show",
	models.StatusCancelled: "Stornieren",
}

// AvailableActions returns the ordered target states reachable from status.
// The returned slice is a copy.
func AvailableActions(status models.Status) []models.Status {
	next := transitions[status]
	out := make([]models.Status, len(next))
	copy(out, next)
	return out
}

func IsTerminal(status models.Status) bool {
	next, known := transitions[status]
	return known && len(next) == 0
}

// PrimaryAction is the default button for a row; false for terminal states.
func PrimaryAction(status models.Status) (models.Status, bool) {
	next := transitions[status]
	if len(next) == 0 {
		return "", false
	}
	return next[0], true
}

// SecondaryActions are the menu actions behind the primary one.
func SecondaryActions(status models.Status) []models.Status {
	next := transitions[status]
	if len(next) < 2 {
		return nil
	}
	out := make([]models.Status, len(next)-1)
	copy(out, next[1:])
	return out
}

func CanTransition(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition fails with a validation error wrapping
// apperrors.ErrInvalidTransition when to is not reachable from from.
func ValidateTransition(from, to models.Status) error {
	if !to.Valid() {
		return apperrors.NewValidation("status", fmt.Sprintf("unknown status %q", to), apperrors.ErrInvalidTransition)
	}
	if !CanTransition(from, to) {
		return apperrors.NewValidation("status", fmt.Sprintf("cannot change %s to %s", from, to), apperrors.ErrInvalidTransition)
	}
	return nil
}

// RequestTransition validates a change for a concrete reservation.
func RequestTransition(r models.Reservation, target models.Status) error {
	if err := ValidateTransition(r.Status, target); err != nil {
		return fmt.Errorf("reservation %s: %w", r.ID, err)
	}
	return nil
}

func Label(status models.Status) string {
	if l, ok := labels[status]; ok {
		return l
	}
	return string(status)
}

// ActionLabel is the button text for moving a reservation into target.
func ActionLabel(target models.Status) string {
	if l, ok := actionLabels[target]; ok {
		return l
	}
	return Label(target)
}
