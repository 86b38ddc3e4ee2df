// Package auctionclock owns the bidding window math. Every auction runs for
// the same fixed window starting at the moment the load was received. The
// close instant is stamped onto the auction row at creation; status and
// time-left always derive from that stored instant and now.
package auctionclock

import "time"

// Window is the bidding window applied to every auction.
const Window = 25 * time.Minute

// Status describes where an auction sits in its lifecycle relative to now.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// ExpiresAt returns the instant the bidding window closes for a load
// received at the given time.
func ExpiresAt(receivedAt time.Time) time.Time {
	return receivedAt.Add(Window)
}

// StatusAt reports whether the window is still open at the given instant.
// The close instant itself counts as expired.
func StatusAt(expiresAt, now time.Time) Status {
	if now.Before(expiresAt) {
		return StatusActive
	}
	return StatusExpired
}

// TimeLeft returns the remaining window, floored at zero once expired.
func TimeLeft(expiresAt, now time.Time) time.Duration {
	left := expiresAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// TimeLeftSeconds is TimeLeft in whole seconds for API payloads.
func TimeLeftSeconds(expiresAt, now time.Time) int64 {
	return int64(TimeLeft(expiresAt, now) / time.Second)
}
