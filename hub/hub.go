// Package hub pushes live board events to connected floor screens over
// websockets.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-floor/board"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// Event types
const (
	EventBoardUpdate   = "board_update"
	EventStatusChanged = "status_changed"
	EventSyncError     = "sync_error"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// BoardUpdate tells clients a new snapshot is available. Clients re-fetch
// GET /board with their own filters.
type BoardUpdate struct {
	Date     string      `json:"date"`
	Version  uint64      `json:"version"`
	SyncedAt time.Time   `json:"synced_at"`
	Stats    board.Stats `json:"stats"`
}

type SyncError struct {
	Reason    string `json:"reason"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// Hub holds every connected client together with the role from its token.
type Hub struct {
	clients map[*websocket.Conn]string
	mutex   sync.Mutex
}

func New() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
	utils.InfoLogger.WithField("role", role).Debugf("Websocket client registered (%d connected)", len(h.clients))
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Watch subscribes the hub to store changes and returns the unsubscribe func.
func (h *Hub) Watch(s *store.ReservationStore) func() {
	return s.Subscribe(func(snap store.Snapshot) {
		h.Broadcast(Message{Event: EventBoardUpdate, Data: NewBoardUpdate(snap)})
	})
}

func NewBoardUpdate(snap store.Snapshot) BoardUpdate {
	return BoardUpdate{
		Date:     snap.Date,
		Version:  snap.Version,
		SyncedAt: snap.SyncedAt,
		Stats:    board.Aggregate(snap.Reservations),
	}
}

// SyncFailed is meant for SyncEngine.OnFailure.
func (h *Hub) SyncFailed(reason services.RefreshReason, err error) {
	h.Broadcast(Message{
		Event: EventSyncError,
		Data: SyncError{
			Reason:    string(reason),
			Error:     err.Error(),
			Retryable: true,
		},
	})
}

// PublishStatusChanged lets the hub act as a services.EventPublisher.
func (h *Hub) PublishStatusChanged(_ context.Context, event services.StatusChangedEvent) error {
	h.Broadcast(Message{Event: EventStatusChanged, Data: event})
	return nil
}

// Send writes one message to a single client.
func (h *Hub) Send(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return write(conn, data)
}

// Broadcast sends msg to every client. Clients that fail a write are
// dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, role := range h.clients {
		if err := write(conn, data); err != nil {
			utils.ErrorLogger.WithField("role", role).Warnf("Error sending message to client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
	utils.InfoLogger.WithField("event", msg.Event).Debugf("Broadcast to %d clients", len(h.clients))
}

func write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
