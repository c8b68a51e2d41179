package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper expires time-bound records in a bounded context
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// ExpirySweeperConfig holds configuration for the expiry sweeper
type ExpirySweeperConfig struct {
	Interval time.Duration
}

// DefaultExpirySweeperConfig returns default configuration
func DefaultExpirySweeperConfig() ExpirySweeperConfig {
	return ExpirySweeperConfig{
		Interval: 10 * time.Minute,
	}
}

// ExpirySweeper periodically expires stale refund authorizations and
// pending cash transfers whose deadlines have passed. Each sweep round
// runs every registered sweeper; one failing sweeper does not stop the
// others.
type ExpirySweeper struct {
	sweepers map[string]Sweeper
	config   ExpirySweeperConfig
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExpirySweeper creates a new expiry sweeper
func NewExpirySweeper(config ExpirySweeperConfig, logger *zap.Logger) *ExpirySweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultExpirySweeperConfig().Interval
	}
	return &ExpirySweeper{
		sweepers: make(map[string]Sweeper),
		config:   config,
		logger:   logger,
	}
}

// Register adds a named sweeper to the rotation
func (s *ExpirySweeper) Register(name string, sweeper Sweeper) {
	s.sweepers[name] = sweeper
}

// Start starts the background sweep loop
func (s *ExpirySweeper) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.sweepLoop(ctx)

	s.logger.Info("expiry sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("sweepers", len(s.sweepers)),
	)

	return nil
}

// Stop gracefully stops the sweeper
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("expiry sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExpirySweeper) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run one round immediately so restarts do not delay expiry
	s.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *ExpirySweeper) sweepOnce(ctx context.Context) {
	for name, sweeper := range s.sweepers {
		count, err := sweeper.SweepExpired(ctx)
		if err != nil {
			s.logger.Error("sweep round failed",
				zap.String("sweeper", name),
				zap.Error(err),
			)
			continue
		}
		if count > 0 {
			s.logger.Info("expired records swept",
				zap.String("sweeper", name),
				zap.Int("count", count),
			)
		}
	}
}
