package reclaim

// entry pairs a queued item with the frame at which it may be reclaimed.
type entry[T any] struct {
	readyAt uint64
	item    T
}

// delayQueue is the implementation of the DelayQueue interface.
type delayQueue[T any] struct {
	delay   uint64
	entries []entry[T]
}

// DelayQueue holds items that must outlive the frame in which they were retired.
// An item pushed at frame f becomes reclaimable at frame f+delay and is handed back
// exactly once, in push order relative to other items that become ready together.
// DelayQueue is not safe for concurrent use; it is driven by the frame loop thread.
type DelayQueue[T any] interface {
	// Push queues item for reclamation once the frame counter reaches frame+delay.
	//
	// Parameters:
	//   - frame: the frame the item was retired in
	//   - item: the item to hold
	Push(frame uint64, item T)

	// Reclaim hands every item whose ready frame is <= frame to fn and drops it from the queue.
	//
	// Parameters:
	//   - frame: the current frame
	//   - fn: called once per reclaimed item
	//
	// Returns:
	//   - int: the number of items reclaimed
	Reclaim(frame uint64, fn func(T)) int

	// Drain hands every queued item to fn regardless of readiness and empties the queue.
	//
	// Parameters:
	//   - fn: called once per item
	Drain(fn func(T))

	// Len returns the number of items still held.
	//
	// Returns:
	//   - int: the queued item count
	Len() int

	// Delay returns the number of frames an item is held for.
	//
	// Returns:
	//   - uint64: the configured delay
	Delay() uint64
}

var _ DelayQueue[int] = &delayQueue[int]{}

// NewDelayQueue creates an empty DelayQueue holding items for delay frames.
// A delay of zero makes an item reclaimable at the next Reclaim for the same frame.
//
// Parameters:
//   - delay: frames between Push and reclamation
//
// Returns:
//   - DelayQueue[T]: the new queue
func NewDelayQueue[T any](delay uint64) DelayQueue[T] {
	return &delayQueue[T]{delay: delay}
}

func (q *delayQueue[T]) Push(frame uint64, item T) {
	q.entries = append(q.entries, entry[T]{readyAt: frame + q.delay, item: item})
}

func (q *delayQueue[T]) Reclaim(frame uint64, fn func(T)) int {
	if len(q.entries) == 0 {
		return 0
	}
	kept := q.entries[:0]
	reclaimed := 0
	for _, e := range q.entries {
		if e.readyAt > frame {
			kept = append(kept, e)
			continue
		}
		reclaimed++
		if fn != nil {
			fn(e.item)
		}
	}
	var zero entry[T]
	for i := len(kept); i < len(q.entries); i++ {
		q.entries[i] = zero
	}
	q.entries = kept
	return reclaimed
}

func (q *delayQueue[T]) Drain(fn func(T)) {
	for _, e := range q.entries {
		if fn != nil {
			fn(e.item)
		}
	}
	q.entries = nil
}

func (q *delayQueue[T]) Len() int {
	return len(q.entries)
}

func (q *delayQueue[T]) Delay() uint64 {
	return q.delay
}
