package domain

import "time"

// Session is the authenticated identity issued by the auth provider.
// It is read-only for everything in this service.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Valid reports whether the session identifies a user.
func (s Session) Valid() bool {
	return s.UserID != ""
}
