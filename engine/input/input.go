package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-lite/common"
)

type input struct {
	mu *sync.Mutex

	// raw is fed by the window callbacks; tapped remembers presses released before the next Update
	raw    [common.MaxKeyCode]bool
	tapped [common.MaxKeyCode]bool

	current  [common.MaxKeyCode]bool
	previous [common.MaxKeyCode]bool
}

// Input is the keyboard state seen by game objects. Window key callbacks feed KeyDown and KeyUp at any
// time; Update latches that state once per frame so every object sees the same keys during a frame.
type Input interface {
	// KeyDown records a key press. Safe to call from the window's event callbacks.
	//
	// Parameters:
	//   - code: the key code
	KeyDown(code uint32)

	// KeyUp records a key release. Safe to call from the window's event callbacks.
	//
	// Parameters:
	//   - code: the key code
	KeyUp(code uint32)

	// Update latches the current key state for the frame.
	Update()

	// Key reports whether code is held this frame.
	//
	// Parameters:
	//   - code: the key code
	//
	// Returns:
	//   - bool: true if held
	Key(code uint32) bool

	// Trigger reports whether code went down this frame.
	//
	// Parameters:
	//   - code: the key code
	//
	// Returns:
	//   - bool: true on the first frame the key is held
	Trigger(code uint32) bool
}

var _ Input = &input{}

// NewInput creates an Input with no keys held.
//
// Returns:
//   - Input: the input state
func NewInput() Input {
	return &input{mu: &sync.Mutex{}}
}

func (in *input) KeyDown(code uint32) {
	if code >= common.MaxKeyCode {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.raw[code] = true
	in.tapped[code] = true
}

func (in *input) KeyUp(code uint32) {
	if code >= common.MaxKeyCode {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.raw[code] = false
}

func (in *input) Update() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.previous = in.current
	for i := range in.current {
		in.current[i] = in.raw[i] || in.tapped[i]
		in.tapped[i] = false
	}
}

func (in *input) Key(code uint32) bool {
	if code >= common.MaxKeyCode {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current[code]
}

func (in *input) Trigger(code uint32) bool {
	if code >= common.MaxKeyCode {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current[code] && !in.previous[code]
}
