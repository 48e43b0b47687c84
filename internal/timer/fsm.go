// Package timer holds the pure state machine for a room's Pomodoro
// timer. Functions here take a timer row and an instant and return the
// mutated row; they never touch the database or the clock themselves.
// All durations are whole seconds, elapsed time truncates toward zero.
package timer

import (
	"fmt"
	"time"

	apperrors "github.com/junexi0828/focusmate-sub001/internal/errors"
	"github.com/junexi0828/focusmate-sub001/internal/model"
)

// RoomSettings is the slice of the room row the state machine needs.
type RoomSettings struct {
	WorkDurationSec  int
	BreakDurationSec int
	AutoStartBreak   bool
}

// CompleteResult describes a phase flip for the phase_completed event.
type CompleteResult struct {
	OutgoingPhase model.TimerPhase
	IncomingPhase model.TimerPhase
	AutoStarted   bool
}

// New builds the initial timer row for a room: idle, work phase, full
// budget.
func New(id, roomID string, settings RoomSettings) model.Timer {
	return model.Timer{
		ID:           id,
		RoomID:       roomID,
		Status:       model.TimerStatusIdle,
		Phase:        model.TimerPhaseWork,
		DurationSec:  settings.WorkDurationSec,
		RemainingSec: settings.WorkDurationSec,
	}
}

// RemainingAt derives the live remaining seconds at instant now. For a
// running timer the stored remainder is the budget as of started_at;
// everything else reports the stored value directly.
func RemainingAt(t model.Timer, now time.Time) int {
	if t.Status != model.TimerStatusRunning || t.StartedAt == nil {
		return t.RemainingSec
	}
	elapsed := int(now.Sub(*t.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := t.RemainingSec - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot produces the read-side view. A running timer whose budget has
// run out is surfaced as running with remaining zero; the next complete
// command materializes the transition.
func Snapshot(t model.Timer, now time.Time) model.TimerSnapshot {
	return model.TimerSnapshot{
		ID:               t.ID,
		RoomID:           t.RoomID,
		Status:           t.Status,
		Phase:            t.Phase,
		DurationSec:      t.DurationSec,
		RemainingSeconds: RemainingAt(t, now),
		StartedAt:        t.StartedAt,
		PausedAt:         t.PausedAt,
		IsAutoStart:      t.IsAutoStart,
	}
}

// Start begins or resumes the current leg. The stored remainder is the
// budget to burn and is left untouched.
func Start(t model.Timer, now time.Time) (model.Timer, error) {
	if t.Status != model.TimerStatusIdle && t.Status != model.TimerStatusPaused {
		return t, apperrors.InvalidTimerState(fmt.Sprintf("cannot start timer in state %q", t.Status))
	}
	startedAt := now
	t.Status = model.TimerStatusRunning
	t.StartedAt = &startedAt
	t.PausedAt = nil
	return t, nil
}

// Pause folds the elapsed leg into the stored remainder.
func Pause(t model.Timer, now time.Time) (model.Timer, error) {
	if t.Status != model.TimerStatusRunning {
		return t, apperrors.InvalidTimerState(fmt.Sprintf("cannot pause timer in state %q", t.Status))
	}
	pausedAt := now
	t.RemainingSec = RemainingAt(t, now)
	t.Status = model.TimerStatusPaused
	t.PausedAt = &pausedAt
	t.StartedAt = nil
	return t, nil
}

// Resume restarts a paused leg.
func Resume(t model.Timer, now time.Time) (model.Timer, error) {
	if t.Status != model.TimerStatusPaused {
		return t, apperrors.InvalidTimerState(fmt.Sprintf("cannot resume timer in state %q", t.Status))
	}
	return Start(t, now)
}

// Reset returns the timer to an idle work phase with a full budget.
// Valid from any state and idempotent.
func Reset(t model.Timer, settings RoomSettings) model.Timer {
	t.Status = model.TimerStatusIdle
	t.Phase = model.TimerPhaseWork
	t.DurationSec = settings.WorkDurationSec
	t.RemainingSec = settings.WorkDurationSec
	t.StartedAt = nil
	t.PausedAt = nil
	t.CompletedAt = nil
	t.IsAutoStart = false
	return t
}

// Complete flips the phase. A running work leg may be completed early
// (skip to break); any leg whose budget has run out may be completed
// regardless of status, so a timer paused after expiry still closes its
// leg. When the room auto-starts breaks and the outgoing phase was
// work, the break leg starts running immediately.
//
// Completion of a leg that still has budget and is not a running work
// leg fails with InvalidTimerState. This is what makes completion races
// safe: the loser observes either an idle timer with a fresh budget or
// an auto-started break with full remaining, and is rejected.
func Complete(t model.Timer, settings RoomSettings, now time.Time) (model.Timer, CompleteResult, error) {
	allowed := t.Status == model.TimerStatusCompleted ||
		(t.Status == model.TimerStatusRunning && t.Phase == model.TimerPhaseWork) ||
		RemainingAt(t, now) == 0
	if !allowed {
		return t, CompleteResult{}, apperrors.InvalidTimerState(
			fmt.Sprintf("cannot complete %s phase in state %q with time remaining", t.Phase, t.Status))
	}

	result := CompleteResult{OutgoingPhase: t.Phase}

	if t.Phase == model.TimerPhaseWork {
		t.Phase = model.TimerPhaseBreak
		t.DurationSec = settings.BreakDurationSec
	} else {
		t.Phase = model.TimerPhaseWork
		t.DurationSec = settings.WorkDurationSec
	}
	t.RemainingSec = t.DurationSec
	result.IncomingPhase = t.Phase

	completedAt := now
	t.CompletedAt = &completedAt

	if settings.AutoStartBreak && result.OutgoingPhase == model.TimerPhaseWork {
		startedAt := now
		t.Status = model.TimerStatusRunning
		t.StartedAt = &startedAt
		t.IsAutoStart = true
		result.AutoStarted = true
	} else {
		t.Status = model.TimerStatusIdle
		t.StartedAt = nil
		t.IsAutoStart = false
	}
	t.PausedAt = nil

	return t, result, nil
}
