package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/logging"
)

// GroupSweeper is what Sweeper needs from GroupService.
type GroupSweeper interface {
	Sweep(ctx context.Context) ([]string, error)
}

// Sweeper periodically removes empty groups whose grace period has passed,
// so groups emptied too early to be deleted on leave do not linger.
// It follows the ticker + done channel pattern: Run blocks until the
// context is cancelled or Stop is called.
type Sweeper struct {
	groups   GroupSweeper
	interval time.Duration
	logger   logging.Logger
	onSweep  func(deleted int)

	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// NewSweeper builds a Sweeper. onSweep, if not nil, is told how many groups
// each cycle deleted.
func NewSweeper(groups GroupSweeper, interval time.Duration, logger logging.Logger, onSweep func(deleted int)) *Sweeper {
	return &Sweeper{
		groups:   groups,
		interval: interval,
		logger:   logger,
		onSweep:  onSweep,
		done:     make(chan struct{}),
	}
}

// Run sweeps every interval until ctx is done or Stop is called.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "group sweeper started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "group sweeper stopped (context cancelled)")
			return
		case <-s.done:
			s.logger.Info(ctx, "group sweeper stopped (stop requested)")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns how many groups it deleted.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ids, err := s.groups.Sweep(ctx)
	if err != nil {
		s.logger.Error(ctx, "group sweep failed", "error", err)
		return 0
	}
	if len(ids) > 0 {
		s.logger.Info(ctx, "empty groups deleted", "count", len(ids), "ids", ids)
	}
	if s.onSweep != nil {
		s.onSweep(len(ids))
	}
	return len(ids)
}

// Stop ends Run. It is safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
}
