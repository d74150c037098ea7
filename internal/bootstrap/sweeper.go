package bootstrap

import (
	"context"
	"time"

	"leadflow/core/service/outcome"
	"leadflow/pkg/logger"
)

// sweepInterval is how often stale EMAIL_SENT leads are checked. The window
// itself is measured in days, so hourly checks are more than enough.
const sweepInterval = 1 * time.Hour

// Sweeper periodically moves leads with no reply past the configured window
// into NO_RESPONSE.
type Sweeper struct {
	machine *outcome.Machine
	window  time.Duration
	cancel  context.CancelFunc
	done    chan struct{}
	log     *logger.Logger
}

func NewSweeper(machine *outcome.Machine, noResponseDays int) *Sweeper {
	if noResponseDays <= 0 {
		noResponseDays = 14
	}
	return &Sweeper{
		machine: machine,
		window:  time.Duration(noResponseDays) * 24 * time.Hour,
		done:    make(chan struct{}),
		log:     logger.WithField("component", "sweeper"),
	}
}

// Start launches the sweep loop. The first sweep runs after one interval, not
// immediately, so restarts don't stampede the database.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	s.log.Info("No-response sweeper started (window: %s)", s.window)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info("No-response sweeper stopped")
}

func (s *Sweeper) sweep(ctx context.Context) {
	moved, err := s.machine.CheckNoResponse(ctx, s.window)
	if err != nil {
		s.log.WithError(err).Warn("No-response sweep failed")
		return
	}
	if len(moved) > 0 {
		s.log.Info("No-response sweep moved %d leads", len(moved))
	}
}
