package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunReaper calls ExpireStale every interval until ctx is done. Failures are logged and
// retried on the next tick.
func (s *Service) RunReaper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		n, err := s.ExpireStale(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Error().Err(err).Msg("reaper: expire stale transfers")
		case n > 0:
			log.Info().Int64("expired", n).Msg("reaper: stale transfers expired")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
