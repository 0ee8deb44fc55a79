package server

import (
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tripline/internal/domain"
)

// LiveMessage is pushed to every connected timeline client when an
// activity window changes, so open views can re-render without polling.
type LiveMessage struct {
	Type     string          `json:"type"`
	Activity domain.Activity `json:"activity"`
	TS       time.Time       `json:"ts"`
}

// Hub fans activity updates out to websocket subscribers. Each subscriber
// watches one trip and only receives that trip's updates.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]subscriber
	logger  *zap.Logger
}

type subscriber struct {
	ch     chan LiveMessage
	tripID string
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]subscriber),
		logger:  logger,
	}
}

// Broadcast queues a window change for the subscribers of its trip. Slow
// clients drop messages instead of blocking the caller.
func (h *Hub) Broadcast(msg LiveMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, sub := range h.clients {
		if sub.tripID != msg.Activity.TripID {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			h.logger.Warn("live client lagging, dropping update", zap.String("remote", conn.RemoteAddr().String()))
		}
	}
}

// NotifyWindowChange adapts the hub to the engine's window change hook.
func (h *Hub) NotifyWindowChange(a domain.Activity) {
	h.Broadcast(LiveMessage{Type: "activity.window", Activity: a, TS: time.Now().UTC()})
}

func (h *Hub) add(conn *websocket.Conn, tripID string) chan LiveMessage {
	ch := make(chan LiveMessage, 16)
	h.mu.Lock()
	h.clients[conn] = subscriber{ch: ch, tripID: tripID}
	h.mu.Unlock()
	return ch
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if sub, ok := h.clients[conn]; ok {
		close(sub.ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	conn.Close()
}

// ClientCount reports current subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func registerLive(r chi.Router, basePath string, hub *Hub) {
	r.Get(path.Join(basePath, "trips/{trip_id}/timeline/live"), func(w http.ResponseWriter, req *http.Request) {
		tripID := chi.URLParam(req, "trip_id")
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			hub.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		ch := hub.add(conn, tripID)
		go writeLoop(conn, ch, hub)
		go readLoop(conn, hub)
	})
}

func writeLoop(conn *websocket.Conn, ch chan LiveMessage, hub *Hub) {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				hub.remove(conn)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				hub.remove(conn)
				return
			}
		}
	}
}

// readLoop drains client frames so pings and close frames are handled.
func readLoop(conn *websocket.Conn, hub *Hub) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.remove(conn)
			return
		}
	}
}
