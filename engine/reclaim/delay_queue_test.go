package reclaim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayQueueHoldsItemsForDelayFrames(t *testing.T) {
	q := NewDelayQueue[string](10)
	q.Push(5, "bullet")

	for frame := uint64(5); frame < 15; frame++ {
		assert.Zero(t, q.Reclaim(frame, nil), "frame %d", frame)
	}

	var got []string
	n := q.Reclaim(15, func(s string) { got = append(got, s) })
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"bullet"}, got)
	assert.Zero(t, q.Len())
}

func TestDelayQueueZeroDelayReclaimsSameFrame(t *testing.T) {
	q := NewDelayQueue[int](0)
	q.Push(3, 7)

	var got []int
	q.Reclaim(3, func(i int) { got = append(got, i) })
	assert.Equal(t, []int{7}, got)
}

func TestDelayQueueKeepsPushOrderAndUnreadyItems(t *testing.T) {
	q := NewDelayQueue[int](2)
	q.Push(0, 1)
	q.Push(1, 2)
	q.Push(0, 3)
	q.Push(4, 4)

	var got []int
	n := q.Reclaim(3, func(i int) { got = append(got, i) })
	require.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 1, q.Len())

	got = nil
	q.Drain(func(i int) { got = append(got, i) })
	assert.Equal(t, []int{4}, got)
	assert.Zero(t, q.Len())
}

func TestDelayQueueReclaimEmptyIsNoop(t *testing.T) {
	q := NewDelayQueue[int](1)
	called := false
	assert.Zero(t, q.Reclaim(100, func(int) { called = true }))
	assert.False(t, called)
	assert.Equal(t, uint64(1), q.Delay())
}
