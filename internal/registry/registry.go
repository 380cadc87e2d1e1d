// Package registry maps opaque control handles to live backend elements.
//
// Handles are an index plus a generation counter packed into one uint64, so
// a handle kept across a release of its slot is detected as stale instead of
// silently resolving to an unrelated control.
package registry

import "sync"

// Handle identifies a registered control. The zero Handle is never valid.
type Handle uint64

// None is the invalid handle.
const None Handle = 0

const (
	indexBits = 32
	indexMask = (1 << indexBits) - 1
)

func makeHandle(index uint32, gen uint32) Handle {
	return Handle(uint64(gen)<<indexBits | uint64(index))
}

func (h Handle) index() uint32 { return uint32(uint64(h) & indexMask) }
func (h Handle) gen() uint32   { return uint32(uint64(h) >> indexBits) }

type slot struct {
	gen   uint32
	live  bool
	value any
	meta  Meta
}

// Meta carries layout bookkeeping attached to a control at registration
// time. Grid containers track the next auto-assigned row; attached children
// record the container holding them so release can detach them.
type Meta struct {
	// NextRow is the next auto-assigned grid row for grid containers.
	NextRow int
	// Parent is the container this control was attached to, or None.
	Parent Handle
}

// Arena is a generation-checked slot arena. All methods are safe for
// concurrent use; in practice mutation happens on the UI thread and reads
// may come from anywhere.
type Arena struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
	count int
}

// NewArena returns an empty arena.
func NewArena() *Arena { return &Arena{} }

// Register stores value and returns its handle. Generation starts at 1 so a
// freshly allocated slot never produces the zero handle.
func (a *Arena) Register(value any) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	s.live = true
	s.value = value
	s.meta = Meta{}
	a.count++
	return makeHandle(idx, s.gen)
}

func (a *Arena) resolve(h Handle) *slot {
	idx := h.index()
	if int(idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[idx]
	if !s.live || s.gen != h.gen() {
		return nil
	}
	return s
}

// Lookup returns the value registered under h, or (nil, false) when h is
// stale, released, or was never issued.
func (a *Arena) Lookup(h Handle) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.resolve(h)
	if s == nil {
		return nil, false
	}
	return s.value, true
}

// UpdateMeta applies fn to the metadata of h under the arena lock. Returns
// false for a stale handle.
func (a *Arena) UpdateMeta(h Handle, fn func(*Meta)) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.resolve(h)
	if s == nil {
		return false
	}
	fn(&s.meta)
	return true
}

// MetaOf returns a copy of the metadata attached to h. Returns false for a
// stale handle.
func (a *Arena) MetaOf(h Handle) (Meta, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.resolve(h)
	if s == nil {
		return Meta{}, false
	}
	return s.meta, true
}

// Release frees the slot behind h. Any handle previously issued for the slot
// becomes stale. Releasing an already-stale handle is a no-op returning false.
func (a *Arena) Release(h Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.resolve(h)
	if s == nil {
		return false
	}
	s.live = false
	s.value = nil
	a.free = append(a.free, h.index())
	a.count--
	return true
}

// Clear releases every slot, invalidating all outstanding handles. Used
// during teardown before the backend objects are destroyed.
func (a *Arena) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.slots {
		if a.slots[i].live {
			a.slots[i].live = false
			a.slots[i].value = nil
			a.free = append(a.free, uint32(i))
		}
	}
	a.count = 0
}

// Count returns the number of live registrations.
func (a *Arena) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}
