package command

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

type fence struct {
	device       gpu.Device
	completed    atomic.Uint64
	timeout      time.Duration
	pollInterval time.Duration

	// submitted is the highest value handed to Queue.Signal; only the frame loop thread touches it
	submitted uint64

	mu      *sync.Mutex
	changed chan struct{}
}

// Fence is a monotonically increasing 64-bit counter the GPU advances as submitted work completes.
// The CPU waits on it before reusing resources of a frame slot.
type Fence interface {
	// Completed returns the highest value the GPU has reached.
	//
	// Returns:
	//   - uint64: the completed value
	Completed() uint64

	// Submitted returns the highest value queued with Queue.Signal.
	//
	// Returns:
	//   - uint64: the last submitted value
	Submitted() uint64

	// Signal sets the completed value from the CPU side. Values below the current completed value are ignored.
	//
	// Parameters:
	//   - value: the value reached
	Signal(value uint64)

	// Wait blocks until Completed() >= value, polling the device for completions. It returns at once if the value
	// was already reached.
	//
	// Parameters:
	//   - ctx: cancels the wait
	//   - value: the value to wait for
	//
	// Returns:
	//   - error: ErrFenceTimeout if the configured timeout passes first, or the context error
	Wait(ctx context.Context, value uint64) error
}

var _ Fence = &fence{}

// NewFence creates a fence at value 0 for work submitted to device's queue.
//
// Parameters:
//   - device: the device polled while waiting
//   - options: functional options for timeout, poll interval and initial value
//
// Returns:
//   - Fence: the new fence
func NewFence(device gpu.Device, options ...FenceBuilderOption) Fence {
	f := &fence{
		device:       device,
		timeout:      5 * time.Second,
		pollInterval: time.Millisecond,
		mu:           &sync.Mutex{},
		changed:      make(chan struct{}),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *fence) Completed() uint64 {
	return f.completed.Load()
}

func (f *fence) Submitted() uint64 {
	return f.submitted
}

func (f *fence) Signal(value uint64) {
	for {
		cur := f.completed.Load()
		if value <= cur {
			return
		}
		if f.completed.CompareAndSwap(cur, value) {
			break
		}
	}
	f.mu.Lock()
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()
}

func (f *fence) Wait(ctx context.Context, value uint64) error {
	if f.Completed() >= value {
		return nil
	}

	var deadline <-chan time.Time
	if f.timeout > 0 {
		timer := time.NewTimer(f.timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		f.mu.Lock()
		changed := f.changed
		f.mu.Unlock()

		if f.device != nil {
			f.device.Poll(false)
		}
		if f.Completed() >= value {
			return nil
		}

		select {
		case <-changed:
		case <-ticker.C:
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "wait for fence value %d", value)
		case <-deadline:
			return common.MarkError(nil, common.ErrFenceTimeout,
				"fence value %d not reached after %s, completed %d", value, f.timeout, f.Completed())
		}
	}
}
