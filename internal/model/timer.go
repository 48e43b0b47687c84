package model

import "time"

type TimerStatus string

const (
	TimerStatusIdle      TimerStatus = "idle"
	TimerStatusRunning   TimerStatus = "running"
	TimerStatusPaused    TimerStatus = "paused"
	TimerStatusCompleted TimerStatus = "completed"
)

type TimerPhase string

const (
	TimerPhaseWork  TimerPhase = "work"
	TimerPhaseBreak TimerPhase = "break"
)

// Timer is the persisted timer row. RemainingSec is the budget as of the
// last transition out of running; the live value is derived from
// StartedAt at read time and never written back while the timer ticks.
type Timer struct {
	ID           string      `db:"id" json:"id"`
	RoomID       string      `db:"room_id" json:"room_id"`
	Status       TimerStatus `db:"status" json:"status"`
	Phase        TimerPhase  `db:"phase" json:"phase"`
	DurationSec  int         `db:"duration_sec" json:"duration"`
	RemainingSec int         `db:"remaining_sec" json:"-"`
	StartedAt    *time.Time  `db:"started_at" json:"started_at"`
	PausedAt     *time.Time  `db:"paused_at" json:"paused_at"`
	CompletedAt  *time.Time  `db:"completed_at" json:"-"`
	IsAutoStart  bool        `db:"is_auto_start" json:"is_auto_start"`
	CreatedAt    time.Time   `db:"created_at" json:"-"`
	UpdatedAt    time.Time   `db:"updated_at" json:"-"`
}

// TimerSnapshot is the read-side view of a timer with the derived
// remaining seconds. It is the shape served over REST and broadcast
// over WebSocket.
type TimerSnapshot struct {
	ID               string      `json:"id"`
	RoomID           string      `json:"room_id"`
	Status           TimerStatus `json:"status"`
	Phase            TimerPhase  `json:"phase"`
	DurationSec      int         `json:"duration"`
	RemainingSeconds int         `json:"remaining_seconds"`
	StartedAt        *time.Time  `json:"started_at"`
	PausedAt         *time.Time  `json:"paused_at"`
	IsAutoStart      bool        `json:"is_auto_start"`
}
