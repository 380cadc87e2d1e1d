// Package eventring implements the fixed-capacity event bridge between the
// UI thread and polling consumers. Exactly one goroutine (the UI thread) may
// enqueue; draining is safe against concurrent production via acquire/release
// pairing on the head and tail counters.
package eventring

import "sync/atomic"

// Event kinds. These values are part of the wire shape consumed by pollers.
const (
	KindKey     = 1
	KindMouse   = 2
	KindResize  = 3
	KindClosed  = 4
	KindCreated = 5
)

// Actions for key and mouse events.
const (
	ActionDown = 1
	ActionUp   = 2
)

// Side-specific modifier bits.
const (
	ModLShift   = 1
	ModRShift   = 2
	ModLControl = 4
	ModRControl = 8
	ModLAlt     = 16
	ModRAlt     = 32
	ModLWin     = 64
	ModRWin     = 128

	ModShift   = ModLShift | ModRShift
	ModControl = ModLControl | ModRControl
	ModAlt     = ModLAlt | ModRAlt
	ModWin     = ModLWin | ModRWin
)

// Event is a single UI-origin event. Unused fields are zero per kind:
// key sets Code (virtual key), Action and Mods; mouse additionally sets X/Y
// and Code is the button id; resize sets only W/H; closed/created set nothing.
type Event struct {
	Kind   int32
	Code   int32
	Action int32
	Mods   int32
	X      int32
	Y      int32
	W      float64
	H      float64
}

// Capacity is the fixed slot count of a Ring.
const Capacity = 256

// Ring is a single-producer circular event buffer. Head and tail are
// monotonically increasing counters; slot index is counter mod Capacity.
// When full, Enqueue drops the oldest unread event and bumps the overflow
// counter: consumers are expected to poll frequently and prefer fresh state
// over full history.
type Ring struct {
	slots    [Capacity]Event
	head     atomic.Uint64 // next write position
	tail     atomic.Uint64 // next read position
	overflow atomic.Int64
}

// New returns an empty ring.
func New() *Ring { return &Ring{} }

// Enqueue appends ev. Must only be called from the producing (UI) thread.
// Never blocks: a full ring loses its oldest entry instead.
func (r *Ring) Enqueue(ev Event) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail == Capacity { // full -> drop oldest
		r.overflow.Add(1)
		r.tail.Store(tail + 1)
	}
	r.slots[head%Capacity] = ev
	r.head.Store(head + 1)
}

// Drain copies up to len(buf) unread events into buf in FIFO order and
// advances the read position. It returns the number copied and whether
// unread events remained after the copy. Safe to call from one consumer
// while the producer keeps enqueuing; concurrent consumers must coordinate
// among themselves.
func (r *Ring) Drain(buf []Event) (n int, more bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	for tail != head && n < len(buf) {
		buf[n] = r.slots[tail%Capacity]
		n++
		tail++
	}
	r.tail.Store(tail)
	return n, tail != r.head.Load()
}

// Overflow reports how many events have been dropped since creation.
// Loss detection through this counter is best-effort: a slow poller can
// lose events between observations of the counter and the ring.
func (r *Ring) Overflow() int64 { return r.overflow.Load() }

// Len reports the number of unread events. Diagnostic only.
func (r *Ring) Len() int { return int(r.head.Load() - r.tail.Load()) }
