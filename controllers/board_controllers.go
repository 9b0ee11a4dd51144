package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/apperrors"
	"github.com/yeremiapane/restaurant-floor/board"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/report"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type BoardController struct {
	Store      *store.ReservationStore
	Engine     *services.SyncEngine
	Dispatcher *services.Dispatcher
	Prefs      *services.PreferenceService
	Classifier board.Classifier
	Now        func() time.Time
}

func NewBoardController(s *store.ReservationStore, engine *services.SyncEngine, d *services.Dispatcher, prefs *services.PreferenceService) *BoardController {
	return &BoardController{
		Store:      s,
		Engine:     engine,
		Dispatcher: d,
		Prefs:      prefs,
		Classifier: board.DefaultClassifier(),
		Now:        time.Now,
	}
}

type statsResponse struct {
	Date  string              `json:"date"`
	Stats board.Stats         `json:"stats"`
	Sync  services.SyncStatus `json:"sync"`
}

// GetBoard -> filtered rows plus the unfiltered day statistics
func (bc *BoardController) GetBoard(c *gin.Context) {
	view, ok := bc.currentView(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Board", view)
}

// GetStats -> day statistics and sync loop health
func (bc *BoardController) GetStats(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Board statistics", bc.stats())
}

// Refresh -> manual reconciliation with the backend
func (bc *BoardController) Refresh(c *gin.Context) {
	if err := bc.Engine.Refresh(c.Request.Context(), services.ReasonManual); err != nil {
		bc.respondSyncError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Board refreshed", bc.stats())
}

// SetDate -> switch the active service date
func (bc *BoardController) SetDate(c *gin.Context) {
	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		utils.RespondAppError(c, apperrors.NewValidation("date", "expected YYYY-MM-DD", err))
		return
	}

	if err := bc.Engine.SetDate(c.Request.Context(), req.Date); err != nil {
		bc.respondSyncError(c, err)
		return
	}
	utils.InfoLogger.WithField("date", req.Date).Info("Service date changed")
	utils.RespondJSON(c, http.StatusOK, "Service date set", bc.stats())
}

// GetReservation -> one row with its available actions
func (bc *BoardController) GetReservation(c *gin.Context) {
	id := models.ReservationID(c.Param("id"))
	r, ok := bc.Store.Get(id)
	if !ok {
		utils.RespondAppError(c, apperrors.NewValidation("id", fmt.Sprintf("reservation %s is not on the board", id), apperrors.ErrNotFound))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation", board.BuildRow(bc.Store.Snapshot(), r, bc.Classifier))
}

// ChangeStatus -> request a lifecycle transition
func (bc *BoardController) ChangeStatus(c *gin.Context) {
	actor, ok := middlewares.ActorFromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondAppError(c, apperrors.NewValidation("status", "status is required", apperrors.ErrRequiredField))
		return
	}

	updated, err := bc.Dispatcher.ChangeStatus(c.Request.Context(), actor, models.ReservationID(c.Param("id")), models.Status(req.Status))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Status updated", board.BuildRow(bc.Store.Snapshot(), updated, bc.Classifier))
}

// GetAuditLog -> change history, read through to the backend
func (bc *BoardController) GetAuditLog(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondAppError(c, apperrors.NewValidation("limit", "expected a number", err))
			return
		}
		limit = n
	}

	entries, err := bc.Dispatcher.AuditLog(c.Request.Context(), models.ReservationID(c.Param("id")), limit)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Audit log", entries)
}

func (bc *BoardController) CreateWalkIn(c *gin.Context) {
	actor, _ := middlewares.ActorFromContext(c)
	var req services.WalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	created, err := bc.Dispatcher.CreateWalkIn(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Walk-in created", created)
}

func (bc *BoardController) CreatePhoneReservation(c *gin.Context) {
	actor, _ := middlewares.ActorFromContext(c)
	var req services.PhoneReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	created, err := bc.Dispatcher.CreatePhoneReservation(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", created)
}

func (bc *BoardController) CreateWaitlistEntry(c *gin.Context) {
	actor, _ := middlewares.ActorFromContext(c)
	var req services.WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := bc.Dispatcher.CreateWaitlistEntry(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Added to waitlist", entry)
}

func (bc *BoardController) GetPreferences(c *gin.Context) {
	pref, err := bc.Prefs.Get(c.Request.Context(), operatorKey(c))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Filter preferences", pref)
}

func (bc *BoardController) UpdatePreferences(c *gin.Context) {
	var req struct {
		Area string `json:"area"`
		Slot string `json:"slot"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	pref, err := bc.Prefs.Update(c.Request.Context(), operatorKey(c), req.Area, board.Slot(req.Slot))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Filter preferences saved", pref)
}

// PrintRunSheet -> PDF of the current filtered board
func (bc *BoardController) PrintRunSheet(c *gin.Context) {
	view, ok := bc.currentView(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.RunSheet(&buf, view, bc.Now()); err != nil {
		utils.ErrorLogger.Errorf("Error rendering run sheet: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("reservierungen-%s.pdf", view.Date)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (bc *BoardController) currentView(c *gin.Context) (board.View, bool) {
	q := c.Request.URL.Query()
	f, err := board.ParseFilters(q)
	if err != nil {
		utils.RespondAppError(c, err)
		return board.View{}, false
	}
	if bc.Prefs != nil {
		f = bc.Prefs.Apply(c.Request.Context(), operatorKey(c), q, f)
	}
	return board.BuildView(bc.Store.Snapshot(), f, bc.Classifier), true
}

func (bc *BoardController) stats() statsResponse {
	snap := bc.Store.Snapshot()
	return statsResponse{
		Date:  snap.Date,
		Stats: board.Aggregate(snap.Reservations),
		Sync:  bc.Engine.Status(),
	}
}

func (bc *BoardController) respondSyncError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNoActiveDate) {
		utils.RespondError(c, http.StatusConflict, err)
		return
	}
	utils.RespondAppError(c, err)
}

// operatorKey identifies whose filter preference to use.
func operatorKey(c *gin.Context) string {
	actor, ok := middlewares.ActorFromContext(c)
	if !ok {
		return "anonymous"
	}
	return "staff:" + strconv.FormatUint(uint64(actor.ID), 10)
}
