package model

import "time"

// Session is the signed-in state kept in the local cache.
type Session struct {
	ID     string    `json:"id"`
	UserID int       `json:"userId"`
	Expiry time.Time `json:"expiry"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.Expiry)
}

// EndOfDay returns the last instant of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Nanosecond)
}
