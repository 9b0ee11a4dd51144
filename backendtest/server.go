// Package backendtest runs an in-memory reservation backend for tests.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/models"
)

// Server mimics the reservation REST API the floor service consumes. Status
// changes are checked against the same transition rules as the real
// backend so tests can provoke conflicts.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	reservations map[string][]models.Reservation
	areas        []models.Area
	audit        map[models.ReservationID][]models.AuditLogEntry
	waitlist     []models.WaitlistEntry
	nextID       int
	failStatus   int
	requests     map[string]int
	lastHeaders  map[string]http.Header
}

var allowed = map[models.Status][]models.Status{
	models.StatusNew:       {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusArrived, models.StatusNoShow, models.StatusCancelled},
	models.StatusArrived:   {models.StatusCompleted, models.StatusNoShow},
}

func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		reservations: map[string][]models.Reservation{},
		audit:        map[models.ReservationID][]models.AuditLogEntry{},
		requests:     map[string]int{},
		lastHeaders:  map[string]http.Header{},
		nextID:       1000,
	}

	r := gin.New()
	r.Use(s.track)
	r.GET("/reservations", s.listReservations)
	r.POST("/reservations", s.createReservation)
	r.PATCH("/reservations/:id/status", s.updateStatus)
	r.GET("/areas", s.listAreas)
	r.POST("/walk-ins", s.createWalkIn)
	r.POST("/waitlist", s.createWaitlist)
	r.GET("/audit-logs", s.auditLogs)

	s.Server = httptest.NewServer(r)
	return s
}

// Seed replaces the reservations for date.
func (s *Server) Seed(date string, rs ...models.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range rs {
		if rs[i].Date == "" {
			rs[i].Date = date
		}
	}
	s.reservations[date] = rs
}

func (s *Server) SetAreas(areas ...models.Area) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areas = areas
}

// SetStatus changes a reservation behind the floor service's back.
func (s *Server) SetStatus(id models.ReservationID, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.find(id); r != nil {
		r.Status = status
	}
}

// FailWith makes every request answer with code until reset with 0.
func (s *Server) FailWith(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = code
}

// Requests counts calls per "METHOD path".
func (s *Server) Requests(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[key]
}

// LastHeader returns a header of the most recent request to key, which has
// the same "METHOD path" form as Requests.
func (s *Server) LastHeader(key, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lastHeaders[key]
	if !ok {
		return ""
	}
	return h.Get(name)
}

func (s *Server) Waitlist() []models.WaitlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.WaitlistEntry(nil), s.waitlist...)
}

func (s *Server) track(c *gin.Context) {
	s.mu.Lock()
	key := c.Request.Method + " " + c.FullPath()
	s.requests[key]++
	s.lastHeaders[key] = c.Request.Header.Clone()
	fail := s.failStatus
	s.mu.Unlock()

	if fail != 0 {
		c.AbortWithStatusJSON(fail, gin.H{"detail": "simulated failure"})
		return
	}
	c.Next()
}

func (s *Server) find(id models.ReservationID) *models.Reservation {
	for date := range s.reservations {
		for i := range s.reservations[date] {
			if s.reservations[date][i].ID == id {
				return &s.reservations[date][i]
			}
		}
	}
	return nil
}

func (s *Server) listReservations(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.reservations[c.Query("date")]
	if out == nil {
		out = []models.Reservation{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listAreas(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"data": s.areas})
}

func (s *Server) updateStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := models.ReservationID(c.Param("id"))
	target := models.Status(c.Query("new_status"))
	r := s.find(id)
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "reservation not found"})
		return
	}

	ok := false
	for _, next := range allowed[r.Status] {
		if next == target {
			ok = true
		}
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"detail": fmt.Sprintf("cannot change %s to %s", r.Status, target)})
		return
	}

	s.audit[id] = append(s.audit[id], models.AuditLogEntry{
		ID:        int64(len(s.audit[id]) + 1),
		Actor:     c.GetHeader("X-Staff-Name"),
		Action:    "status_changed",
		Details:   fmt.Sprintf("%s -> %s", r.Status, target),
		Timestamp: time.Now().UTC(),
	})
	r.Status = target
	c.JSON(http.StatusOK, r)
}

type createBody struct {
	GuestName   string        `json:"guest_name"`
	Phone       string        `json:"phone"`
	PartySize   int           `json:"party_size"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	AreaID      *string       `json:"area_id"`
	TableNumber *string       `json:"table_number"`
	Notes       string        `json:"notes"`
	Source      models.Source `json:"source"`
}

func (s *Server) create(c *gin.Context, source models.Source, status models.Status) {
	var body createBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r := models.Reservation{
		ID:          models.ReservationID(strconv.Itoa(s.nextID)),
		Date:        body.Date,
		Time:        body.Time,
		PartySize:   body.PartySize,
		AreaID:      body.AreaID,
		TableNumber: body.TableNumber,
		GuestName:   body.GuestName,
		Phone:       body.Phone,
		Status:      status,
		Source:      source,
		Notes:       body.Notes,
	}
	s.reservations[body.Date] = append(s.reservations[body.Date], r)
	c.JSON(http.StatusCreated, r)
}

func (s *Server) createReservation(c *gin.Context) {
	s.create(c, models.SourceTelefon, models.StatusConfirmed)
}

func (s *Server) createWalkIn(c *gin.Context) {
	s.create(c, models.SourceWalkIn, models.StatusArrived)
}

func (s *Server) createWaitlist(c *gin.Context) {
	var body createBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry := models.WaitlistEntry{
		ID:        models.ReservationID(strconv.Itoa(s.nextID)),
		GuestName: body.GuestName,
		Phone:     body.Phone,
		PartySize: body.PartySize,
		Notes:     body.Notes,
		CreatedAt: time.Now().UTC(),
	}
	s.waitlist = append(s.waitlist, entry)
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) auditLogs(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.audit[models.ReservationID(c.Query("entity_id"))]
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
