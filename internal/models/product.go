package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one lot on the auction board. CurrentPrice and CurrentLeader are
// set together once the first bid is accepted and never revert to unset
// except through the admin correction path.
type Product struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	StartingPrice decimal.Decimal  `json:"starting_price"`
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"`
	CurrentLeader *string          `json:"current_leader,omitempty"`
	Images        []string         `json:"images"`
	Description   string           `json:"description,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Floor is the amount a new bid must strictly exceed: the current price once
// a bid exists, the starting price before that.
func (p *Product) Floor() decimal.Decimal {
	if p.CurrentPrice != nil {
		return *p.CurrentPrice
	}
	return p.StartingPrice
}

// HasLeader reports whether the product has received at least one bid.
func (p *Product) HasLeader() bool {
	return p.CurrentLeader != nil
}
