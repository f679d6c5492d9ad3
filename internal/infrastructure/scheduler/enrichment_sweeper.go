package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StaleSweeper reclaims enrichment runs whose webhook never arrived.
// Implemented by the enrichment application service.
type StaleSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// EnrichmentSweeperConfig holds configuration for the enrichment sweeper
type EnrichmentSweeperConfig struct {
	// Enabled determines if the sweeper is active
	Enabled bool

	// Interval is how often the sweep runs
	Interval time.Duration

	// SweepTimeout is the maximum time for a single sweep
	SweepTimeout time.Duration
}

// DefaultEnrichmentSweeperConfig returns default configuration
func DefaultEnrichmentSweeperConfig() EnrichmentSweeperConfig {
	return EnrichmentSweeperConfig{
		Enabled:      true,
		Interval:     time.Minute,
		SweepTimeout: 30 * time.Second,
	}
}

// EnrichmentSweeper periodically returns accounts stuck in the enriching
// state to ready
type EnrichmentSweeper struct {
	sweeper   StaleSweeper
	logger    *zap.Logger
	config    EnrichmentSweeperConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewEnrichmentSweeper creates a new enrichment sweeper
func NewEnrichmentSweeper(
	sweeper StaleSweeper,
	logger *zap.Logger,
	config EnrichmentSweeperConfig,
) *EnrichmentSweeper {
	return &EnrichmentSweeper{
		sweeper: sweeper,
		logger:  logger,
		config:  config,
	}
}

// Start starts the sweep loop
func (s *EnrichmentSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Enrichment sweeper is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Enrichment sweeper started",
		zap.Duration("interval", s.config.Interval),
	)

	return nil
}

// Stop gracefully stops the sweeper
func (s *EnrichmentSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

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
		s.logger.Info("Enrichment sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Enrichment sweeper stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the sweep loop is active
func (s *EnrichmentSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *EnrichmentSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Enrichment sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

func (s *EnrichmentSweeper) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	swept, err := s.sweeper.SweepStale(sweepCtx)
	if err != nil {
		s.logger.Error("Enrichment sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		s.logger.Info("Enrichment sweep reclaimed stale runs",
			zap.Int("reclaimed", swept),
		)
	}
}
