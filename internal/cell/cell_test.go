package cell

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flush waits until every mutation enqueued before it has been applied.
func flush[T any](t *testing.T, c *Cell[T]) {
	t.Helper()
	done := make(chan struct{})
	c.Update(func(*T) { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cell did not drain in time")
	}
}

func TestCell_AppliesMutationsInOrder(t *testing.T) {
	c := New([]int(nil), nil)
	defer c.Close()

	for i := 0; i < 100; i++ {
		i := i
		c.Update(func(s *[]int) { *s = append(*s, i) })
	}
	flush(t, c)

	got := c.Get()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestCell_NotifiesAfterEveryMutation(t *testing.T) {
	var notifies atomic.Int64
	c := New(0, func() { notifies.Add(1) })
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Update(func(s *int) { *s++ })
	}
	flush(t, c)

	// 10 mutations plus the flush sentinel, each notified exactly once.
	assert.Equal(t, int64(11), notifies.Load())
	assert.Equal(t, 10, c.Get())
}

func TestCell_NotifiesEvenWhenStateUnchanged(t *testing.T) {
	var notifies atomic.Int64
	c := New(0, func() { notifies.Add(1) })
	defer c.Close()

	c.Update(func(*int) {})
	flush(t, c)

	assert.Equal(t, int64(2), notifies.Load())
}

func TestCell_UpdateAfterCloseIsNoOp(t *testing.T) {
	var notifies atomic.Int64
	c := New(1, func() { notifies.Add(1) })

	c.Update(func(s *int) { *s = 2 })
	flush(t, c)
	c.Close()

	before := notifies.Load()
	c.Update(func(s *int) { *s = 3 })

	assert.Equal(t, 2, c.Get())
	assert.Equal(t, before, notifies.Load())
}

func TestCell_CloseIsIdempotent(t *testing.T) {
	c := New(0, nil)
	c.Close()
	assert.NotPanics(t, func() { c.Close() })
}

func TestCell_NilMutationIgnored(t *testing.T) {
	c := New(7, nil)
	defer c.Close()

	c.Update(nil)
	flush(t, c)
	assert.Equal(t, 7, c.Get())
}

func TestCell_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	type entry struct{ producer, seq int }
	c := New([]entry(nil), nil)
	defer c.Close()

	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				i := i
				c.Update(func(s *[]entry) { *s = append(*s, entry{p, i}) })
			}
		}()
	}
	wg.Wait()
	flush(t, c)

	got := c.Get()
	require.Len(t, got, producers*perProducer)

	// Arrival order is preserved, so each producer's entries appear in
	// its own send order.
	next := make([]int, producers)
	for _, e := range got {
		assert.Equal(t, next[e.producer], e.seq)
		next[e.producer]++
	}
}

func TestQueue_PushPopOrder(t *testing.T) {
	q := NewQueue[int]()
	defer q.Close()

	for i := 0; i < 5; i++ {
		assert.True(t, q.Push(i))
	}
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewQueue[string]()
	defer q.Close()

	got := make(chan string, 1)
	go func() {
		v, ok := q.Pop()
		if ok {
			got <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	require.True(t, q.Push("hello"))

	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(5 * time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestQueue_CloseUnblocksPop(t *testing.T) {
	q := NewQueue[int]()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("Pop did not return after Close")
	}
}

func TestQueue_PushAfterCloseFails(t *testing.T) {
	q := NewQueue[int]()
	q.Close()
	assert.False(t, q.Push(1))
}

func TestQueue_CloseDiscardsQueued(t *testing.T) {
	q := NewQueue[int]()
	q.Push(1)
	q.Push(2)
	q.Close()

	_, ok := q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}
