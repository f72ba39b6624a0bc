package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
	"github.com/LeNguyen02/AuctionProduct/internal/store"
)

var (
	// ErrAuctionClosed rejects bids outside a configured auction window.
	ErrAuctionClosed = errors.New("auction is not open for bidding")
	// ErrInvalidInput rejects malformed bid requests before they reach the store.
	ErrInvalidInput = errors.New("bidder name and a positive amount are required")
)

// WindowGate answers whether bidding is time-gated. Satisfied by clock.Clock.
type WindowGate interface {
	Get() models.AuctionWindow
}

// Publisher is the event sink for accepted bids.
type Publisher interface {
	Publish(models.Event)
}

// Engine applies bids against the product ledger. Every price and leader
// mutation on the bidding path flows through PlaceBid.
type Engine struct {
	store store.Store
	gate  WindowGate
	pub   Publisher
	now   func() time.Time
}

func New(st store.Store, gate WindowGate, pub Publisher) *Engine {
	return &Engine{store: st, gate: gate, pub: pub, now: time.Now}
}

// PlaceBid validates and applies one bid. An unconfigured window leaves
// bidding unrestricted; a configured one rejects bids both before the start
// and after the end. The floor comparison, the history append and the
// price/leader update happen as a single atomic store operation, so two
// racing bids on one product serialize: the loser re-reads the raised floor
// and is rejected.
func (e *Engine) PlaceBid(ctx context.Context, productID int64, bidderName string, amount decimal.Decimal) (*models.BidRecord, error) {
	now := e.now().Truncate(time.Second)

	if window := e.gate.Get(); window.Configured() && !window.Contains(now) {
		return nil, ErrAuctionClosed
	}

	bidderName = strings.TrimSpace(bidderName)
	if bidderName == "" || !amount.IsPositive() {
		return nil, ErrInvalidInput
	}

	record, err := e.store.ApplyWinningBid(ctx, productID, bidderName, amount, now)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"product": productID,
		"bidder":  bidderName,
		"amount":  amount.String(),
	}).Info("bid accepted")

	e.pub.Publish(models.Event{
		Kind: models.EventNewBid,
		Payload: models.NewBidPayload{
			ProductID:  productID,
			BidderName: bidderName,
			Amount:     amount,
			CreatedAt:  record.CreatedAt,
		},
	})
	return record, nil
}

// BidDetail returns the product together with its bid history, newest first.
func (e *Engine) BidDetail(ctx context.Context, productID int64) (*models.Product, []models.BidRecord, error) {
	product, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	bids, err := e.store.ListBids(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	return product, bids, nil
}
