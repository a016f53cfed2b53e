package command

import (
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

type queue struct {
	queue gpu.Queue
}

// Queue submits closed command lists in order and signals fences behind them.
type Queue interface {
	// Execute submits closed lists in order.
	//
	// Parameters:
	//   - lists: closed lists, each closed after a recording
	//
	// Returns:
	//   - error: an assertion failure for a list that is not ready, or the submission error
	Execute(lists ...List) error

	// Signal makes fence reach value once every previously submitted command has completed.
	//
	// Parameters:
	//   - f: the fence
	//   - value: a value above every value previously signalled on f
	//
	// Returns:
	//   - error: an assertion failure if value does not increase
	Signal(f Fence, value uint64) error
}

var _ Queue = &queue{}

// NewQueue wraps the device's queue.
//
// Parameters:
//   - device: the device
//
// Returns:
//   - Queue: the command queue
func NewQueue(device gpu.Device) Queue {
	return &queue{queue: device.Queue()}
}

func (q *queue) Execute(lists ...List) error {
	buffers := make([]gpu.CommandBuffer, 0, len(lists))
	release := func() {
		for _, cb := range buffers {
			cb.Release()
		}
	}
	for _, l := range lists {
		cb, err := l.takeFinished()
		if err != nil {
			release()
			return err
		}
		buffers = append(buffers, cb)
	}
	defer release()
	if err := q.queue.Submit(buffers...); err != nil {
		return errors.Wrap(err, "execute command lists")
	}
	return nil
}

func (q *queue) Signal(f Fence, value uint64) error {
	impl, ok := f.(*fence)
	if !ok {
		return errors.AssertionFailedf("foreign fence %T", f)
	}
	if value <= impl.submitted {
		return errors.AssertionFailedf("fence signal %d does not exceed last signalled value %d", value, impl.submitted)
	}
	impl.submitted = value
	q.queue.OnSubmittedWorkDone(func() {
		impl.Signal(value)
	})
	return nil
}
