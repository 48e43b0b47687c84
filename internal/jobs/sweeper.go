package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PresenceCleaner is the slice of the presence service the sweeper
// needs.
type PresenceCleaner interface {
	CleanupStale(ctx context.Context, thresholdMinutes int) (int64, error)
}

// PresenceSweeper periodically forces offline any presence row whose
// last update is older than the threshold. It is the safety net for
// clients that died without a disconnect.
type PresenceSweeper struct {
	presence         PresenceCleaner
	interval         time.Duration
	thresholdMinutes int
	done             chan struct{}
}

func NewPresenceSweeper(presence PresenceCleaner, interval time.Duration, thresholdMinutes int) *PresenceSweeper {
	return &PresenceSweeper{
		presence:         presence,
		interval:         interval,
		thresholdMinutes: thresholdMinutes,
		done:             make(chan struct{}),
	}
}

func (s *PresenceSweeper) Start() {
	go s.run()
	log.Info().
		Dur("interval", s.interval).
		Int("thresholdMin", s.thresholdMinutes).
		Msg("presence sweeper started")
}

func (s *PresenceSweeper) Stop() {
	close(s.done)
	log.Info().Msg("presence sweeper stopped")
}

func (s *PresenceSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *PresenceSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.presence.CleanupStale(ctx, s.thresholdMinutes)
	if err != nil {
		log.Error().Err(err).Msg("failed to sweep stale presences")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("swept stale presences")
	}
}
