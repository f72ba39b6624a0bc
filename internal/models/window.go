package models

import "time"

// WindowStatus is the derived state of the auction window at some instant.
type WindowStatus string

const (
	WindowNotConfigured WindowStatus = "not_configured"
	WindowUpcoming      WindowStatus = "upcoming"
	WindowActive        WindowStatus = "active"
	WindowEnded         WindowStatus = "ended"
)

// AuctionWindow is the board-wide interval during which bidding is allowed.
// Both bounds are set or both are unset.
type AuctionWindow struct {
	Start *time.Time `json:"start_time,omitempty"`
	End   *time.Time `json:"end_time,omitempty"`
}

// Configured reports whether an admin has set the window.
func (w AuctionWindow) Configured() bool {
	return w.Start != nil && w.End != nil
}

// Contains reports whether t falls inside the configured window, bounds
// inclusive. An unconfigured window contains nothing.
func (w AuctionWindow) Contains(t time.Time) bool {
	if !w.Configured() {
		return false
	}
	return !t.Before(*w.Start) && !t.After(*w.End)
}

// StatusAt derives the display status of the window at t.
func (w AuctionWindow) StatusAt(t time.Time) WindowStatus {
	switch {
	case !w.Configured():
		return WindowNotConfigured
	case t.Before(*w.Start):
		return WindowUpcoming
	case t.After(*w.End):
		return WindowEnded
	default:
		return WindowActive
	}
}
