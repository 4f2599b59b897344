package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	runs  atomic.Int32
	block chan struct{} // when non-nil, Run waits on it
	err   error
}

func (r *countingRunner) Run(ctx context.Context) error {
	r.runs.Add(1)
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

func newTestTrigger(t *testing.T, runner SyncRunner, interval time.Duration) *ReceiptSyncTrigger {
	t.Helper()
	trigger, err := NewReceiptSyncTrigger(Config{
		Enabled:    true,
		Interval:   interval,
		RunTimeout: time.Second,
	}, runner, zap.NewNop())
	require.NoError(t, err)
	return trigger
}

func TestReceiptSyncTrigger_RunsOnInterval(t *testing.T) {
	runner := &countingRunner{}
	trigger := newTestTrigger(t, runner, 20*time.Millisecond)

	require.NoError(t, trigger.Start(context.Background()))
	defer trigger.Stop(context.Background())

	assert.Eventually(t, func() bool {
		return runner.runs.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestReceiptSyncTrigger_StopHaltsTicks(t *testing.T) {
	runner := &countingRunner{}
	trigger := newTestTrigger(t, runner, 20*time.Millisecond)

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Stop(context.Background()))

	before := runner.runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, before, runner.runs.Load())
}

func TestReceiptSyncTrigger_SkipsTickWhileRunning(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	trigger := newTestTrigger(t, runner, 15*time.Millisecond)

	require.NoError(t, trigger.Start(context.Background()))
	defer trigger.Stop(context.Background())

	// First tick starts a pass that blocks; later ticks must not stack up
	assert.Eventually(t, func() bool {
		return runner.runs.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), runner.runs.Load())

	close(runner.block)
}

func TestReceiptSyncTrigger_TriggerNow(t *testing.T) {
	runner := &countingRunner{}
	trigger := newTestTrigger(t, runner, time.Hour)

	require.NoError(t, trigger.Start(context.Background()))
	defer trigger.Stop(context.Background())

	require.NoError(t, trigger.TriggerNow(context.Background()))
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestReceiptSyncTrigger_TriggerNowWhenStopped(t *testing.T) {
	runner := &countingRunner{}
	trigger := newTestTrigger(t, runner, time.Hour)

	err := trigger.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrTriggerNotRunning)
}

func TestReceiptSyncTrigger_TriggerNowWhileInFlight(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	trigger := newTestTrigger(t, runner, 10*time.Millisecond)

	require.NoError(t, trigger.Start(context.Background()))
	defer trigger.Stop(context.Background())

	assert.Eventually(t, func() bool {
		return runner.runs.Load() == 1
	}, time.Second, 5*time.Millisecond)

	err := trigger.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(runner.block)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Interval: time.Minute, RunTimeout: time.Minute}, false},
		{"zero interval", Config{Interval: 0, RunTimeout: time.Minute}, true},
		{"zero timeout", Config{Interval: time.Minute, RunTimeout: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
