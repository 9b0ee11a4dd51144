package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-floor/hub"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type WSController struct {
	Hub      *hub.Hub
	Store    *store.ReservationStore
	upgrader websocket.Upgrader
}

// NewWSController accepts upgrades from the given origins, or from any
// origin when the list is empty.
func NewWSController(h *hub.Hub, s *store.ReservationStore, origins []string) *WSController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &WSController{
		Hub:   h,
		Store: s,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// BoardSocket -> live board events for floor screens
func (wc *WSController) BoardSocket(c *gin.Context) {
	actor, ok := middlewares.ActorFromContext(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Warnf("Websocket upgrade failed: %v", err)
		return
	}

	wc.Hub.Register(ws, actor.Role)
	// the client renders immediately instead of waiting for the next sync
	if err := wc.Hub.Send(ws, hub.Message{Event: hub.EventBoardUpdate, Data: hub.NewBoardUpdate(wc.Store.Snapshot())}); err != nil {
		wc.Hub.Unregister(ws)
		return
	}

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	wc.Hub.Unregister(ws)
}
