package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusNew       Status = "neu"
	StatusConfirmed Status = "bestaetigt"
	StatusArrived   Status = "angekommen"
	StatusCompleted Status = "abgeschlossen"
	StatusNoShow    Status = "no_show"
	StatusCancelled Status = "storniert"
)

// Statuses lists every lifecycle status in display order.
var Statuses = []Status{
	StatusNew,
	StatusConfirmed,
	StatusArrived,
	StatusCompleted,
	StatusNoShow,
	StatusCancelled,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type Source string

const (
	SourceOnline  Source = "online"
	SourceTelefon Source = "telefon"
	SourceWalkIn  Source = "walk_in"
)

type GuestFlag string

const (
	GuestFlagNone      GuestFlag = "none"
	GuestFlagGreylist  GuestFlag = "greylist"
	GuestFlagBlacklist GuestFlag = "blacklist"
)

// Flagged reports whether the guest carries a grey- or blacklist warning.
func (f GuestFlag) Flagged() bool {
	return f == GuestFlagGreylist || f == GuestFlagBlacklist
}

// ReservationID is the opaque server-assigned identity. The backend may send
// it as a JSON string or a number; both decode to the same string form.
type ReservationID string

func (id *ReservationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ReservationID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reservation id: %w", err)
	}
	*id = ReservationID(n.String())
	return nil
}

type Reservation struct {
	ID               ReservationID  `json:"id"`
	Date             string         `json:"date"`
	Time             string         `json:"time"`
	PartySize        int            `json:"party_size"`
	AreaID           *string        `json:"area_id,omitempty"`
	TableNumber      *string        `json:"table_number,omitempty"`
	GuestName        string         `json:"guest_name"`
	Phone            string         `json:"phone,omitempty"`
	GuestFlag        GuestFlag      `json:"guest_flag,omitempty"`
	Status           Status         `json:"status"`
	Source           Source         `json:"source"`
	Notes            string         `json:"notes,omitempty"`
	ExtendedDuration bool           `json:"extended_duration"`
	PaymentRequired  bool           `json:"payment_required"`
	PaymentStatus    *PaymentStatus `json:"payment_status,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
}

// Validate checks the record invariants every stored reservation must hold.
func (r Reservation) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("reservation without id")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("reservation %s: unknown status %q", r.ID, r.Status)
	}
	if strings.TrimSpace(r.GuestName) == "" {
		return fmt.Errorf("reservation %s: guest name missing", r.ID)
	}
	if r.PartySize < 1 {
		return fmt.Errorf("reservation %s: party size %d below 1", r.ID, r.PartySize)
	}
	if r.PaymentRequired && r.PaymentStatus == nil {
		return fmt.Errorf("reservation %s: payment required without payment status", r.ID)
	}
	if r.PaymentStatus != nil && !r.PaymentStatus.Valid() {
		return fmt.Errorf("reservation %s: unknown payment status %q", r.ID, *r.PaymentStatus)
	}
	return nil
}

// OpenPayment reports a required payment that has not been settled yet.
func (r Reservation) OpenPayment() bool {
	if !r.PaymentRequired {
		return false
	}
	return r.PaymentStatus == nil || *r.PaymentStatus != PaymentStatusPaid
}

// Flagged reports a grey- or blacklisted guest.
func (r Reservation) Flagged() bool {
	return r.GuestFlag.Flagged()
}
