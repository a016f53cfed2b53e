package command

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T, options ...gpu.HeadlessBuilderOption) gpu.HeadlessDevice {
	t.Helper()
	adapters := gpu.NewHeadlessInstance(options...).EnumerateAdapters()
	require.NotEmpty(t, adapters)
	d, err := adapters[0].CreateDevice(gpu.FeatureLevel12_0, "test")
	require.NoError(t, err)
	return d.(gpu.HeadlessDevice)
}

func TestFenceWaitBlocksUntilSignalledValue(t *testing.T) {
	device := newTestDevice(t, gpu.WithCompletionLatency(30*time.Millisecond))
	f := NewFence(device)
	q := NewQueue(device)

	require.NoError(t, q.Signal(f, 5))
	assert.Less(t, f.Completed(), uint64(5))
	assert.Equal(t, uint64(5), f.Submitted())

	start := time.Now()
	require.NoError(t, f.Wait(context.Background(), 5))
	assert.GreaterOrEqual(t, f.Completed(), uint64(5))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestFenceWaitCompletesThroughPoll(t *testing.T) {
	device := newTestDevice(t)
	f := NewFence(device)
	q := NewQueue(device)

	require.NoError(t, q.Signal(f, 1))
	assert.Equal(t, uint64(0), f.Completed(), "completion before the device was polled")

	require.NoError(t, f.Wait(context.Background(), 1))
	assert.Equal(t, uint64(1), f.Completed())
}

func TestFenceWaitOnReachedValueReturnsImmediately(t *testing.T) {
	f := NewFence(nil, WithTimeout(time.Nanosecond))
	f.Signal(5)

	require.NoError(t, f.Wait(context.Background(), 5))
	require.NoError(t, f.Wait(context.Background(), 3))
	require.NoError(t, f.Wait(context.Background(), 0))
}

func TestFenceCPUSignal(t *testing.T) {
	f := NewFence(nil)
	go func() {
		time.Sleep(5 * time.Millisecond)
		f.Signal(3)
		time.Sleep(5 * time.Millisecond)
		f.Signal(5)
	}()

	require.NoError(t, f.Wait(context.Background(), 5))
	assert.Equal(t, uint64(5), f.Completed())

	f.Signal(2)
	assert.Equal(t, uint64(5), f.Completed(), "fence went backwards")
}

func TestFenceWaitTimeout(t *testing.T) {
	f := NewFence(newTestDevice(t), WithTimeout(20*time.Millisecond))

	err := f.Wait(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFenceTimeout)
}

func TestFenceWaitCancelled(t *testing.T) {
	f := NewFence(nil, WithTimeout(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Wait(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueueSignalMustIncrease(t *testing.T) {
	device := newTestDevice(t)
	f := NewFence(device, WithInitialValue(4))
	q := NewQueue(device)

	assert.True(t, errors.HasAssertionFailure(q.Signal(f, 4)))
	require.NoError(t, q.Signal(f, 5))
	assert.True(t, errors.HasAssertionFailure(q.Signal(f, 5)))
}
