// Package report renders the printable run sheet for a service date.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/yeremiapane/restaurant-floor/board"
	"github.com/yeremiapane/restaurant-floor/lifecycle"
	"github.com/yeremiapane/restaurant-floor/models"
)

var hintLabels = map[board.Hint]string{
	board.HintBirthday:       "Geburtstag",
	board.HintAllergy:        "Allergie",
	board.HintDecoration:     "Deko",
	board.HintPreorderedMenu: "Menü vorbestellt",
	board.HintNote:           "Notiz",
}

type column struct {
	title string
	width float64
	align string
}

var columns = []column{
	{"Zeit", 16, "C"},
	{"Gast", 48, "L"},
	{"Pers.", 12, "C"},
	{"Bereich", 28, "L"},
	{"Tisch", 14, "C"},
	{"Status", 26, "L"},
	{"Hinweise", 46, "L"},
}

// RunSheet writes a PDF with the visible rows of view and, when the day has
// any reservations, a bar chart of the status distribution.
func RunSheet(w io.Writer, view board.View, printedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Reservierungen "+view.Date, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Gedruckt %s  |  Seite %d", printedAt.Format("02.01.2006 15:04"), pdf.PageNo())), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Reservierungen "+displayDate(view.Date)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(summary(view.Stats)), "", 1, "L", false, 0, "")
	if f := filterLine(view.Filters); f != "" {
		pdf.CellFormat(0, 6, tr(f), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	writeHeader(pdf, tr)
	pdf.SetFont("Helvetica", "", 9)
	for i, row := range view.Rows {
		fill := i%2 == 1
		pdf.SetFillColor(242, 242, 242)
		cells := []string{
			row.Time,
			row.GuestName,
			fmt.Sprintf("%d", row.PartySize),
			row.AreaName,
			deref(row.TableNumber),
			row.StatusLabel,
			hintText(row),
		}
		for j, col := range columns {
			pdf.CellFormat(col.width, 6, tr(truncate(cells[j], col.width)), "1", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(view.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 8, tr("Keine Reservierungen für die gewählten Filter."), "", 1, "L", false, 0, "")
	}

	if view.Stats.Total > 0 {
		png, err := statusChart(view.Stats)
		if err != nil {
			return fmt.Errorf("render status chart: %w", err)
		}
		pdf.Ln(6)
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("status-chart", opts, bytes.NewReader(png))
		pdf.ImageOptions("status-chart", pdf.GetX(), pdf.GetY(), 150, 0, true, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func writeHeader(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, tr(col.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func statusChart(stats board.Stats) ([]byte, error) {
	bars := make([]chart.Value, 0, len(models.Statuses))
	highest := 0
	for _, st := range models.Statuses {
		n := stats.Count(st)
		if n > highest {
			highest = n
		}
		bars = append(bars, chart.Value{Label: lifecycle.Label(st), Value: float64(n)})
	}

	graph := chart.BarChart{
		Title:      "Status",
		Height:     320,
		Width:      900,
		BarWidth:   60,
		BarSpacing: 40,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(highest + 1)},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func summary(s board.Stats) string {
	return fmt.Sprintf("%d Reservierungen, %d Personen, %d offene Zahlungen, %d markierte Gäste",
		s.Total, s.Covers, s.OpenPayments, s.Flagged)
}

func filterLine(f board.Filters) string {
	var parts []string
	if f.AreaID != "" && f.AreaID != board.All {
		parts = append(parts, "Bereich: "+f.AreaID)
	}
	if f.Slot != "" && f.Slot != board.SlotAll {
		parts = append(parts, "Zeitfenster: "+string(f.Slot))
	}
	if f.Status != "" && f.Status != board.All {
		parts = append(parts, "Status: "+lifecycle.Label(models.Status(f.Status)))
	}
	if f.Search != "" {
		parts = append(parts, "Suche: "+f.Search)
	}
	if f.PaymentRequiredOnly {
		parts = append(parts, "nur Zahlung erforderlich")
	}
	if f.FlaggedOnly {
		parts = append(parts, "nur markierte Gäste")
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filter: " + strings.Join(parts, ", ")
}

func hintText(row board.Row) string {
	labels := make([]string, 0, len(row.Hints)+2)
	if row.Flagged() {
		labels = append(labels, "Achtung: "+string(row.GuestFlag))
	}
	if row.OpenPayment() {
		labels = append(labels, "Zahlung offen")
	}
	for _, h := range row.Hints {
		labels = append(labels, hintLabels[h])
	}
	return strings.Join(labels, ", ")
}

func displayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02.01.2006")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncate keeps text inside a cell of width mm at 9pt.
func truncate(s string, width float64) string {
	n := int(width / 1.9)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n < 2 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "."
}
