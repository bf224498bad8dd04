package utils

import "time"

// SessionData is the subset of a session row that middleware and the
// per-package fetchers pass around, so packages don't import auth directly.
type SessionData struct {
	UserID    string
	ExpiresAt time.Time
}
