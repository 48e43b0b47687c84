package model

import "time"

type Room struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	WorkDurationSec  int        `db:"work_duration_sec" json:"work_duration"`
	BreakDurationSec int        `db:"break_duration_sec" json:"break_duration"`
	AutoStartBreak   bool       `db:"auto_start_break" json:"auto_start_break"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	HostID           *string    `db:"host_id" json:"host_id,omitempty"`
	RemoveOnLeave    bool       `db:"remove_on_leave" json:"remove_on_leave"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at" json:"-"`
}

type CreateRoomParams struct {
	ID               string
	Name             string
	WorkDurationSec  int
	BreakDurationSec int
	AutoStartBreak   bool
	RemoveOnLeave    bool
}

type UpdateRoomParams struct {
	Name             *string
	WorkDurationSec  *int
	BreakDurationSec *int
	AutoStartBreak   *bool
	RemoveOnLeave    *bool
}
