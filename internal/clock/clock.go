package clock

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
)

// ErrInvalidWindow is returned by Set when a bound is missing or the start
// does not precede the end.
var ErrInvalidWindow = errors.New("auction window start must precede end")

// Publisher is the event sink for window changes.
type Publisher interface {
	Publish(models.Event)
}

// Clock owns the process-wide auction window. The window is deliberately not
// persisted: a restart returns the board to "not configured" until an admin
// sets it again.
type Clock struct {
	mu     sync.RWMutex
	window models.AuctionWindow
	pub    Publisher
}

func New(pub Publisher) *Clock {
	return &Clock{pub: pub}
}

// Get returns the current window.
func (c *Clock) Get() models.AuctionWindow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window
}

// Set replaces the window and notifies observers.
func (c *Clock) Set(start, end time.Time) (models.AuctionWindow, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return models.AuctionWindow{}, ErrInvalidWindow
	}

	c.mu.Lock()
	c.window = models.AuctionWindow{Start: &start, End: &end}
	window := c.window
	c.mu.Unlock()

	log.WithFields(log.Fields{"start": start, "end": end}).Info("auction window set")
	c.pub.Publish(models.Event{Kind: models.EventWindowChanged, Payload: window})
	return window, nil
}

// Reset clears both bounds unconditionally and notifies observers.
func (c *Clock) Reset() {
	c.mu.Lock()
	c.window = models.AuctionWindow{}
	c.mu.Unlock()

	log.Info("auction window reset")
	c.pub.Publish(models.Event{Kind: models.EventWindowChanged, Payload: models.AuctionWindow{}})
}

// IsOpenAt reports whether t falls inside a configured window.
func (c *Clock) IsOpenAt(t time.Time) bool {
	return c.Get().Contains(t)
}
