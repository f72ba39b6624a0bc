package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind identifies a board state change pushed to observers.
type EventKind string

const (
	EventProductsChanged EventKind = "productsChanged"
	EventNewBid          EventKind = "newBid"
	EventWindowChanged   EventKind = "windowChanged"
)

// Event is one state-change notification. Payload is nil for
// productsChanged, a NewBidPayload for newBid and an AuctionWindow for
// windowChanged.
type Event struct {
	Kind    EventKind
	Payload interface{}
}

// NewBidPayload carries an accepted bid to observers.
type NewBidPayload struct {
	ProductID  int64           `json:"product_id"`
	BidderName string          `json:"bidder_name"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}
