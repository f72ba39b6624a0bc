package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
)

// ErrNotFound is returned when a product id does not exist.
var ErrNotFound = errors.New("product not found")

// bidNote annotates every record written through the bidding path, as opposed
// to rows an operator might insert by hand.
const bidNote = "bid"

// BidTooLowError rejects a bid that does not strictly exceed the floor.
type BidTooLowError struct {
	Floor decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be greater than %s", e.Floor)
}

// Store is the durable home of products and their bid history.
type Store interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts returns every product in ascending id order.
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	// DeleteProduct removes the product and every bid record referencing it.
	DeleteProduct(ctx context.Context, id int64) error

	// ApplyWinningBid atomically checks amount against the product's floor,
	// appends a bid record and installs the new price and leader. No reader
	// observes the record without the price or the price without the record.
	// Returns ErrNotFound or *BidTooLowError on rejection, in which case
	// nothing is written. Only the bid acceptance engine calls this.
	ApplyWinningBid(ctx context.Context, productID int64, bidderName string, amount decimal.Decimal, at time.Time) (*models.BidRecord, error)

	// ListBids returns the product's bid history, newest first.
	ListBids(ctx context.Context, productID int64) ([]models.BidRecord, error)

	Close() error
}
