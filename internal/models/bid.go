package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidRecord is one accepted bid. Records are append-only and are removed only
// when their product is deleted.
type BidRecord struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	BidderName string          `json:"bidder_name"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BidRequest is the body of POST /api/bid.
type BidRequest struct {
	ProductID  int64           `json:"product_id"`
	BidderName string          `json:"bidder_name"`
	Amount     decimal.Decimal `json:"amount"`
}

// BidResponse reports the outcome of a bid attempt. Rejections are expected
// and common, so they travel as success=false with a reason rather than as
// transport errors.
type BidResponse struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message,omitempty"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
}
