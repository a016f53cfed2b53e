package command

import (
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

type allocator struct {
	device     gpu.Device
	label      string
	encoder    gpu.CommandEncoder
	fenceValue uint64
	taken      bool
}

// Allocator owns the command memory of one frame slot. It must not be reset while work recorded from it
// may still be executing, which is the case until the fence reaches the value recorded by MarkSubmitted.
type Allocator interface {
	// Reset discards the previous recording and prepares a fresh encoder.
	//
	// Parameters:
	//   - completed: the fence's completed value
	//
	// Returns:
	//   - error: an assertion failure if completed is below the allocator's fence value
	Reset(completed uint64) error

	// MarkSubmitted records the fence value signalled after the allocator's work was submitted.
	//
	// Parameters:
	//   - value: the signalled fence value
	MarkSubmitted(value uint64)

	// FenceValue returns the fence value recorded by the last MarkSubmitted.
	FenceValue() uint64

	// Label returns the debug label.
	Label() string

	// Release frees the encoder held by the allocator.
	Release()

	take() (gpu.CommandEncoder, error)
}

var _ Allocator = &allocator{}

// NewAllocator creates an allocator for one frame slot. It starts with no recording; Reset must be
// called before a list can record from it.
//
// Parameters:
//   - device: the device encoders are created on
//   - label: the debug label
//
// Returns:
//   - Allocator: the new allocator
func NewAllocator(device gpu.Device, label string) Allocator {
	return &allocator{device: device, label: label}
}

func (a *allocator) Reset(completed uint64) error {
	if completed < a.fenceValue {
		return errors.AssertionFailedf("reset of allocator %q while GPU work is in flight: fence %d, completed %d",
			a.label, a.fenceValue, completed)
	}
	if a.encoder != nil {
		a.encoder.Release()
		a.encoder = nil
	}
	encoder, err := a.device.CreateCommandEncoder(a.label)
	if err != nil {
		return errors.Wrapf(err, "reset allocator %q", a.label)
	}
	a.encoder = encoder
	a.taken = false
	return nil
}

func (a *allocator) MarkSubmitted(value uint64) {
	a.fenceValue = value
}

func (a *allocator) FenceValue() uint64 {
	return a.fenceValue
}

func (a *allocator) Label() string {
	return a.label
}

func (a *allocator) Release() {
	if a.encoder != nil {
		a.encoder.Release()
		a.encoder = nil
	}
}

// take hands the fresh encoder to a list; each reset yields exactly one recording.
func (a *allocator) take() (gpu.CommandEncoder, error) {
	if a.encoder == nil || a.taken {
		return nil, errors.AssertionFailedf("allocator %q was not reset since its last recording", a.label)
	}
	a.taken = true
	return a.encoder, nil
}
