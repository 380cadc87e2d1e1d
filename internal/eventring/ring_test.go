package eventring

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyEvent(code int32) Event {
	return Event{Kind: KindKey, Code: code, Action: ActionDown}
}

func TestRing_FIFOWithinCapacity(t *testing.T) {
	r := New()
	for i := int32(0); i < 100; i++ {
		r.Enqueue(keyEvent(i))
	}

	buf := make([]Event, Capacity)
	n, more := r.Drain(buf)
	require.Equal(t, 100, n)
	assert.False(t, more)
	for i := 0; i < n; i++ {
		assert.Equal(t, int32(i), buf[i].Code)
		assert.Equal(t, int32(KindKey), buf[i].Kind)
		assert.Equal(t, int32(ActionDown), buf[i].Action)
	}
	assert.Zero(t, r.Overflow())
}

func TestRing_FieldsSurviveRoundtrip(t *testing.T) {
	r := New()
	ev := Event{Kind: KindMouse, Code: 2, Action: ActionUp, Mods: ModLControl | ModRAlt, X: 17, Y: -3}
	r.Enqueue(ev)
	r.Enqueue(Event{Kind: KindResize, W: 800.5, H: 600.25})

	buf := make([]Event, 4)
	n, more := r.Drain(buf)
	require.Equal(t, 2, n)
	assert.False(t, more)
	assert.Equal(t, ev, buf[0])
	assert.Equal(t, 800.5, buf[1].W)
	assert.Equal(t, 600.25, buf[1].H)
}

func TestRing_OverflowDropsOldest(t *testing.T) {
	r := New()
	const extra = 40
	for i := int32(0); i < Capacity+extra; i++ {
		r.Enqueue(keyEvent(i))
	}

	buf := make([]Event, Capacity+extra)
	n, more := r.Drain(buf)
	require.Equal(t, Capacity, n)
	assert.False(t, more)
	// The survivors are the most recent Capacity events.
	for i := 0; i < n; i++ {
		assert.Equal(t, int32(extra+i), buf[i].Code)
	}
	assert.GreaterOrEqual(t, r.Overflow(), int64(extra))
}

func TestRing_PartialDrainReportsMore(t *testing.T) {
	r := New()
	for i := int32(0); i < 10; i++ {
		r.Enqueue(keyEvent(i))
	}

	buf := make([]Event, 4)
	n, more := r.Drain(buf)
	require.Equal(t, 4, n)
	assert.True(t, more)

	n, more = r.Drain(buf)
	require.Equal(t, 4, n)
	assert.True(t, more)

	n, more = r.Drain(buf)
	require.Equal(t, 2, n)
	assert.False(t, more)
	assert.Equal(t, int32(8), buf[0].Code)
	assert.Equal(t, int32(9), buf[1].Code)
}

func TestRing_DrainEmpty(t *testing.T) {
	r := New()
	buf := make([]Event, 8)
	n, more := r.Drain(buf)
	assert.Zero(t, n)
	assert.False(t, more)
}

// A single producer and a single drainer running concurrently must never
// deliver an event out of order or duplicate one.
func TestRing_ConcurrentProduceDrain(t *testing.T) {
	r := New()
	const total = 10000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int32(0); i < total; i++ {
			// Stay below capacity so no event is dropped; overflow during a
			// concurrent drain is a documented lossy path, not FIFO.
			for r.Len() >= Capacity-1 {
				runtime.Gosched()
			}
			r.Enqueue(keyEvent(i))
		}
	}()

	var last int32 = -1
	buf := make([]Event, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for last != total-1 {
			n, _ := r.Drain(buf)
			if n == 0 {
				runtime.Gosched()
				continue
			}
			for i := 0; i < n; i++ {
				if buf[i].Code != last+1 {
					t.Errorf("gap or reorder: got %d after %d", buf[i].Code, last)
					return
				}
				last = buf[i].Code
			}
		}
	}()

	wg.Wait()
	<-done
	assert.Equal(t, int32(total-1), last)
	assert.Zero(t, r.Overflow())
}
