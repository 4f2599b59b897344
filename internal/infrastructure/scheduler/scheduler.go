package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SyncRunner executes one receipt sync pass against the storefront.
type SyncRunner interface {
	Run(ctx context.Context) error
}

// Config holds configuration for the receipt sync trigger
type Config struct {
	// Enabled indicates if periodic syncing is enabled
	Enabled bool
	// Interval is how often a sync pass runs
	Interval time.Duration
	// RunTimeout is the maximum time a single sync pass can take
	RunTimeout time.Duration
}

// DefaultConfig returns default trigger configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Interval:   5 * time.Minute,
		RunTimeout: 10 * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ReceiptSyncTrigger runs the receipt sync on a fixed interval. Only one
// sync pass is in flight at a time; a tick that fires while a pass is
// still running is skipped.
type ReceiptSyncTrigger struct {
	config Config
	runner SyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool
}

// NewReceiptSyncTrigger creates a new receipt sync trigger
func NewReceiptSyncTrigger(config Config, runner SyncRunner, logger *zap.Logger) (*ReceiptSyncTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ReceiptSyncTrigger{
		config: config,
		runner: runner,
		logger: logger,
	}, nil
}

// Start starts the trigger loop
func (t *ReceiptSyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Receipt sync trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.Duration("run_timeout", t.config.RunTimeout),
	)

	return nil
}

// Stop gracefully stops the trigger
func (t *ReceiptSyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Receipt sync trigger stopped gracefully")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Receipt sync trigger stop timed out")
		return ctx.Err()
	}
}

// TriggerNow runs a sync pass immediately, outside the interval schedule.
// Returns ErrSyncInProgress when a pass is already running.
func (t *ReceiptSyncTrigger) TriggerNow(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return ErrTriggerNotRunning
	}
	if t.inFlight {
		t.mu.Unlock()
		return ErrSyncInProgress
	}
	t.inFlight = true
	t.mu.Unlock()

	defer t.clearInFlight()
	return t.runOnce(ctx)
}

// runLoop fires a sync pass on every interval tick
func (t *ReceiptSyncTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// tick runs a sync pass unless one is already in flight
func (t *ReceiptSyncTrigger) tick(ctx context.Context) {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		t.logger.Debug("Skipping sync tick, previous pass still running")
		return
	}
	t.inFlight = true
	t.mu.Unlock()

	defer t.clearInFlight()

	if err := t.runOnce(ctx); err != nil {
		t.logger.Error("Receipt sync pass failed", zap.Error(err))
	}
}

// runOnce executes a single bounded sync pass
func (t *ReceiptSyncTrigger) runOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, t.config.RunTimeout)
	defer cancel()

	start := time.Now()
	err := t.runner.Run(runCtx)
	elapsed := time.Since(start)

	if err != nil {
		return err
	}

	t.logger.Debug("Receipt sync pass completed", zap.Duration("elapsed", elapsed))
	return nil
}

func (t *ReceiptSyncTrigger) clearInFlight() {
	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()
}
