package bridge

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/notifier"
)

// subjectPrefix is the NATS namespace external consumers subscribe to,
// e.g. auction.events.newBid.
const subjectPrefix = "auction.events."

// envelope wraps a board event for external consumers.
type envelope struct {
	EventID   string      `json:"event_id"`
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Bridge mirrors hub events onto NATS subjects so external systems can
// follow the board without speaking WebSocket. Delivery is best-effort: a
// NATS outage never blocks or fails a bid.
type Bridge struct {
	conn *nats.Conn
	hub  *notifier.Hub
	sub  *notifier.Subscriber
	done chan struct{}
}

func New(natsURL string, hub *notifier.Hub) (*Bridge, error) {
	conn, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect to NATS")
	}

	b := &Bridge{
		conn: conn,
		hub:  hub,
		sub:  hub.Subscribe(),
		done: make(chan struct{}),
	}
	go b.run()
	return b, nil
}

func (b *Bridge) run() {
	defer close(b.done)
	for ev := range b.sub.C() {
		msg := envelope{
			EventID:   uuid.New().String(),
			Kind:      string(ev.Kind),
			Timestamp: time.Now().UTC(),
			Data:      ev.Payload,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			log.WithError(err).Warn("failed to marshal event for NATS")
			continue
		}
		if err := b.conn.Publish(subjectPrefix+string(ev.Kind), data); err != nil {
			log.WithError(err).WithField("kind", ev.Kind).Warn("failed to publish event to NATS")
		}
	}
}

// Close detaches from the hub and drains the connection.
func (b *Bridge) Close() {
	b.hub.Unsubscribe(b.sub)
	<-b.done
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}
