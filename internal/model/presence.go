package model

import "time"

type Presence struct {
	UserID          string    `db:"user_id" json:"user_id"`
	IsOnline        bool      `db:"is_online" json:"is_online"`
	LastSeenAt      time.Time `db:"last_seen_at" json:"last_seen_at"`
	ConnectionCount int       `db:"connection_count" json:"-"`
	StatusMessage   *string   `db:"status_message" json:"status_message,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"-"`
}
