package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-floor/board"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
)

func strPtr(s string) *string { return &s }

func TestRunSheetRendersPDF(t *testing.T) {
	snap := store.Snapshot{
		Date: "2024-05-01",
		Reservations: []models.Reservation{
			{ID: "1", Time: "19:00", PartySize: 4, GuestName: "Jürgen Müller", Status: models.StatusConfirmed,
				AreaID: strPtr("t"), TableNumber: strPtr("12"), Notes: "Geburtstag, Nussallergie"},
			{ID: "2", Time: "12:30", PartySize: 2, GuestName: "Anna", Status: models.StatusArrived, GuestFlag: models.GuestFlagGreylist},
		},
		Areas: []models.Area{{ID: "t", Name: "Terrasse"}},
	}
	view := board.BuildView(snap, board.Filters{AreaID: board.All, Slot: board.SlotAll, Status: board.All, Search: "ü"}, board.DefaultClassifier())

	var buf bytes.Buffer
	require.NoError(t, RunSheet(&buf, view, time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestRunSheetEmptyDay(t *testing.T) {
	view := board.BuildView(store.Snapshot{Date: "2024-05-01"}, board.DefaultFilters(), nil)

	var buf bytes.Buffer
	require.NoError(t, RunSheet(&buf, view, time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "01.05.2024", displayDate("2024-05-01"))
	assert.Equal(t, "garbage", displayDate("garbage"))
	assert.Equal(t, "", filterLine(board.DefaultFilters()))
	assert.Equal(t, "Filter: Bereich: saal, nur markierte Gäste", filterLine(board.Filters{AreaID: "saal", FlaggedOnly: true}))
	assert.Equal(t, "abc", truncate("abc", 20))
	assert.Equal(t, "abcd.", truncate("abcdefghij", 10))
}
