package board

import (
	"time"

	"github.com/yeremiapane/restaurant-floor/lifecycle"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
)

type Action struct {
	Status models.Status `json:"status"`
	Label  string        `json:"label"`
}

type Row struct {
	models.Reservation
	AreaName         string   `json:"area_name,omitempty"`
	Slot             Slot     `json:"slot"`
	StatusLabel      string   `json:"status_label"`
	Hints            []Hint   `json:"hints,omitempty"`
	PrimaryAction    *Action  `json:"primary_action,omitempty"`
	SecondaryActions []Action `json:"secondary_actions"`
	Terminal         bool     `json:"terminal"`
}

// View is what a floor screen renders: the filtered rows next to the
// unfiltered day statistics.
type View struct {
	Date     string        `json:"date"`
	Version  uint64        `json:"version"`
	SyncedAt time.Time     `json:"synced_at"`
	Filters  Filters       `json:"filters"`
	Visible  int           `json:"visible"`
	Rows     []Row         `json:"rows"`
	Stats    Stats         `json:"stats"`
	Areas    []models.Area `json:"areas"`
}

func BuildRow(snap store.Snapshot, r models.Reservation, classifier Classifier) Row {
	row := Row{
		Reservation:      r,
		AreaName:         snap.AreaName(r.AreaID),
		Slot:             TimeBucket(r.Time),
		StatusLabel:      lifecycle.Label(r.Status),
		Terminal:         lifecycle.IsTerminal(r.Status),
		SecondaryActions: []Action{},
	}
	if classifier != nil {
		row.Hints = classifier.Classify(r.Notes)
	}
	if primary, ok := lifecycle.PrimaryAction(r.Status); ok {
		row.PrimaryAction = &Action{Status: primary, Label: lifecycle.ActionLabel(primary)}
	}
	for _, s := range lifecycle.SecondaryActions(r.Status) {
		row.SecondaryActions = append(row.SecondaryActions, Action{Status: s, Label: lifecycle.ActionLabel(s)})
	}
	return row
}

func BuildView(snap store.Snapshot, f Filters, classifier Classifier) View {
	visible := VisibleSet(snap.Reservations, f)
	rows := make([]Row, 0, len(visible))
	for _, r := range visible {
		rows = append(rows, BuildRow(snap, r, classifier))
	}

	return View{
		Date:     snap.Date,
		Version:  snap.Version,
		SyncedAt: snap.SyncedAt,
		Filters:  f,
		Visible:  len(rows),
		Rows:     rows,
		Stats:    Aggregate(snap.Reservations),
		Areas:    snap.Areas,
	}
}
