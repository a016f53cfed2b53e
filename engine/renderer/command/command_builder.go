package command

import "time"

// FenceBuilderOption is a functional option used to configure a Fence during construction.
type FenceBuilderOption func(*fence)

// WithTimeout bounds every Wait on the fence. Zero waits without a bound.
//
// Parameters:
//   - d: the longest a single Wait may block (default 5s)
//
// Returns:
//   - FenceBuilderOption: a function that sets the wait bound
func WithTimeout(d time.Duration) FenceBuilderOption {
	return func(f *fence) {
		f.timeout = d
	}
}

// WithPollInterval sets how often a blocked Wait polls the device for completed work.
//
// Parameters:
//   - d: the poll interval (default 1ms)
//
// Returns:
//   - FenceBuilderOption: a function that sets the poll interval
func WithPollInterval(d time.Duration) FenceBuilderOption {
	return func(f *fence) {
		f.pollInterval = d
	}
}

// WithInitialValue sets the completed value the fence starts at.
//
// Parameters:
//   - v: the initial completed value
//
// Returns:
//   - FenceBuilderOption: a function that sets the initial value
func WithInitialValue(v uint64) FenceBuilderOption {
	return func(f *fence) {
		f.completed.Store(v)
		f.submitted = v
	}
}

// ListBuilderOption is a functional option used to configure a List during construction.
type ListBuilderOption func(*list)

// WithListLabel sets the debug label of the list.
func WithListLabel(label string) ListBuilderOption {
	return func(l *list) {
		l.label = label
	}
}
