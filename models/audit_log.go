package models

import "time"

// AuditLogEntry is one recorded action on a reservation, written by the
// backend and fetched on demand for the detail view.
type AuditLogEntry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
