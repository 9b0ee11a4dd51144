package models

import "time"

// WaitlistEntry is a guest waiting for a table. It lives outside the
// reservation list and has no lifecycle status.
type WaitlistEntry struct {
	ID        ReservationID `json:"id"`
	GuestName string        `json:"guest_name"`
	Phone     string        `json:"phone"`
	PartySize int           `json:"party_size"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
