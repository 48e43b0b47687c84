package model

import "time"

type Participant struct {
	ID          string     `db:"id" json:"id"`
	RoomID      string     `db:"room_id" json:"room_id"`
	UserID      *string    `db:"user_id" json:"user_id,omitempty"`
	Username    string     `db:"username" json:"username"`
	IsConnected bool       `db:"is_connected" json:"is_connected"`
	IsHost      bool       `db:"is_host" json:"is_host"`
	JoinedAt    time.Time  `db:"joined_at" json:"joined_at"`
	LeftAt      *time.Time `db:"left_at" json:"left_at,omitempty"`
}

type CreateParticipantParams struct {
	ID       string
	RoomID   string
	UserID   *string
	Username string
	IsHost   bool
	JoinedAt time.Time
}
