package model

import "time"

// Session is a local login. Token is the cookie value; Bearer is the
// upstream token after unsealing and is never persisted in clear.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"`
	Bearer    string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
