package ws

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
	"github.com/LeNguyen02/AuctionProduct/internal/notifier"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// frame is the wire form of an event: {"type": ..., "data": ...}.
type frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// wireType maps internal event kinds to the names clients listen for.
func wireType(kind models.EventKind) string {
	if kind == models.EventWindowChanged {
		return "auctionTimeUpdated"
	}
	return string(kind)
}

// Handler upgrades viewers to WebSocket and streams hub events to them. The
// hub hands every new subscriber the current auction window first, so a
// late-joining viewer renders the countdown immediately.
type Handler struct {
	hub *notifier.Hub
}

func NewHandler(hub *notifier.Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeWS handles GET /ws.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 256),
	}

	hello, err := json.Marshal(frame{Type: "connected", Data: map[string]string{"client_id": client.id}})
	if err == nil {
		client.send <- hello
	}

	sub := h.hub.Subscribe()
	log.WithField("client", client.id).Info("viewer connected")

	go client.writePump()
	go func() {
		for ev := range sub.C() {
			payload, err := json.Marshal(frame{Type: wireType(ev.Kind), Data: ev.Payload})
			if err != nil {
				log.WithError(err).Warn("failed to encode event")
				continue
			}
			select {
			case client.send <- payload:
			default:
				// writer stalled; the read pump notices the dead
				// connection and cleans up
			}
		}
		close(client.send)
	}()

	client.readPump()
	h.hub.Unsubscribe(sub)
	log.WithField("client", client.id).Info("viewer disconnected")
}
