package common

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds surfaced by creation and frame operations. Callers test for them with errors.Is;
// concrete errors carry one of these as a mark alongside their own message and stack.
var (
	// ErrAdapterNotFound is returned when the instance enumerates no usable adapters.
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrFeatureLevelUnsupported is returned when no hardware adapter passes the minimum feature level probe.
	ErrFeatureLevelUnsupported = errors.New("feature level unsupported")

	// ErrDeviceCreationFailed is returned when the logical device cannot be created on the selected adapter.
	ErrDeviceCreationFailed = errors.New("device creation failed")

	// ErrDescriptorExhausted is returned when a descriptor heap has no free slots left.
	ErrDescriptorExhausted = errors.New("descriptor heap exhausted")

	// ErrShaderCompileFailed is returned when the shader source cannot be read, compiled or lacks an entry point.
	ErrShaderCompileFailed = errors.New("shader compile failed")

	// ErrResourceMapFailed is returned when a GPU buffer cannot be created or mapped for writing.
	ErrResourceMapFailed = errors.New("resource map failed")

	// ErrNotInitialized is returned by accessors called on a resource that was never created or was released.
	ErrNotInitialized = errors.New("not initialized")

	// ErrHeapExists is returned when a descriptor heap of the same type is created twice in one container.
	ErrHeapExists = errors.New("descriptor heap already exists")

	// ErrFenceTimeout is returned when a fence wait exceeds its configured bound.
	ErrFenceTimeout = errors.New("fence wait timed out")

	// ErrDeviceLost is returned when the GPU device or its surface becomes unusable mid-run.
	ErrDeviceLost = errors.New("device lost")
)

// MarkError wraps cause with a formatted message and tags it with kind so errors.Is(err, kind) holds
// for both the standard library and cockroachdb/errors. A nil cause produces a fresh error carrying
// the message. The cause stays in the unwrap chain.
//
// Parameters:
//   - cause: the underlying error, may be nil
//   - kind: one of the Err* sentinels in this package
//   - format: message format
//   - args: format arguments
//
// Returns:
//   - error: the marked error
func MarkError(cause error, kind error, format string, args ...any) error {
	var err error
	if cause == nil {
		err = errors.NewWithDepthf(1, format, args...)
	} else {
		err = errors.WrapWithDepthf(1, cause, format, args...)
	}
	return &kindError{cause: errors.Mark(err, kind), kind: kind}
}

// kindError exposes an error kind to the standard library errors.Is, which does not see
// cockroachdb/errors marks.
type kindError struct {
	cause error
	kind  error
}

func (e *kindError) Error() string { return e.cause.Error() }

func (e *kindError) Unwrap() error { return e.cause }

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

func (e *kindError) FormatError(p errors.Printer) error { return e.cause }

// IsFatal reports whether err must stop the frame loop. Per-object resource failures are
// reported and skipped; everything else, including contract violations, ends the run.
//
// Parameters:
//   - err: the error to classify
//
// Returns:
//   - bool: true if the run must stop
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.HasAssertionFailure(err) {
		return true
	}
	return !errors.Is(err, ErrResourceMapFailed)
}
