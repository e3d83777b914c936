// Package sweep runs the proactive timeout sweep. Purely an operational
// complement to the lazy read-side resolution: every write it triggers is
// conditional, so running it next to live traffic changes nothing
// observable.
package sweep

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/metrics"
	"github.com/shrimpsizemoose/semla/internal/pairing"
	"github.com/shrimpsizemoose/semla/internal/rounds"
)

type Sweeper struct {
	pairs     *pairing.Service
	scheduler *gocron.Scheduler
	interval  time.Duration
}

func New(pairs *pairing.Service, interval time.Duration) *Sweeper {
	return &Sweeper{
		pairs:    pairs,
		interval: interval,
	}
}

func (s *Sweeper) Start() error {
	s.scheduler = gocron.NewScheduler(time.UTC)

	_, err := s.scheduler.Every(s.interval).Do(func() {
		resolved, err := s.pairs.SweepExpired(rounds.PairRound)
		if err != nil {
			logger.Error.Printf("Timeout sweep failed: %v", err)
			return
		}
		if resolved > 0 {
			metrics.SweepResolutionsTotal.Add(float64(resolved))
			logger.Info.Printf("Timeout sweep resolved %d pairings", resolved)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
