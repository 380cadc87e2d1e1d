package winui

import (
	"sync"

	"github.com/mmngadi/go-winui3/internal/eventring"
)

// Event is one window event drained from the ring.
type Event = eventring.Event

// Event kinds.
const (
	EventKey     = eventring.KindKey
	EventMouse   = eventring.KindMouse
	EventResize  = eventring.KindResize
	EventClosed  = eventring.KindClosed
	EventCreated = eventring.KindCreated
)

// Key and mouse actions.
const (
	ActionDown = eventring.ActionDown
	ActionUp   = eventring.ActionUp
)

// Side-specific modifier bits carried in Event.Mods.
const (
	ModLShift   = eventring.ModLShift
	ModRShift   = eventring.ModRShift
	ModLControl = eventring.ModLControl
	ModRControl = eventring.ModRControl
	ModLAlt     = eventring.ModLAlt
	ModRAlt     = eventring.ModRAlt
	ModLWin     = eventring.ModLWin
	ModRWin     = eventring.ModRWin

	ModShift   = eventring.ModShift
	ModControl = eventring.ModControl
	ModAlt     = eventring.ModAlt
	ModWin     = eventring.ModWin
)

// EventBufferSize is a good capacity for PollEvents buffers: one drain can
// return at most this many events.
const EventBufferSize = eventring.Capacity

// InputState folds key and mouse events into queryable pressed-state. Feed
// it every drained event; query it between frames. Held state persists
// across frames, while pressed/released/repeat transitions accumulate until
// ResetTransitions clears them for the next frame. Safe for concurrent use.
type InputState struct {
	mu          sync.Mutex
	keys        map[int32]bool
	pressed     map[int32]bool
	released    map[int32]bool
	repeats     map[int32]bool
	pressQueue  []int32
	buttons     map[int32]bool
	btnPressed  map[int32]bool
	btnReleased map[int32]bool
	mods        int32
	mouseX      int32
	mouseY      int32
	resized     bool
	width       float64
	height      float64
}

func NewInputState() *InputState {
	return &InputState{
		keys:        make(map[int32]bool),
		pressed:     make(map[int32]bool),
		released:    make(map[int32]bool),
		repeats:     make(map[int32]bool),
		buttons:     make(map[int32]bool),
		btnPressed:  make(map[int32]bool),
		btnReleased: make(map[int32]bool),
	}
}

// Feed folds one event into the state. Lifecycle events pass through
// untouched.
func (st *InputState) Feed(ev Event) {
	st.mu.Lock()
	defer st.mu.Unlock()
	switch ev.Kind {
	case EventKey:
		down := ev.Action == ActionDown
		if down {
			if st.keys[ev.Code] {
				st.repeats[ev.Code] = true
			} else {
				st.pressed[ev.Code] = true
				st.pressQueue = append(st.pressQueue, ev.Code)
			}
		} else if st.keys[ev.Code] {
			st.released[ev.Code] = true
		}
		st.keys[ev.Code] = down
		st.mods = ev.Mods
	case EventMouse:
		down := ev.Action == ActionDown
		if down && !st.buttons[ev.Code] {
			st.btnPressed[ev.Code] = true
		} else if !down && st.buttons[ev.Code] {
			st.btnReleased[ev.Code] = true
		}
		st.buttons[ev.Code] = down
		st.mouseX, st.mouseY = ev.X, ev.Y
	case EventResize:
		st.resized = true
		st.width, st.height = ev.W, ev.H
	}
}

// ResetTransitions clears the per-frame pressed, released, repeat, and
// resized records. Call it once per frame before feeding that frame's
// events; held state survives.
func (st *InputState) ResetTransitions() {
	st.mu.Lock()
	defer st.mu.Unlock()
	clear(st.pressed)
	clear(st.released)
	clear(st.repeats)
	clear(st.btnPressed)
	clear(st.btnReleased)
	st.pressQueue = st.pressQueue[:0]
	st.resized = false
}

// KeyDown reports whether the key is currently held.
func (st *InputState) KeyDown(code int32) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.keys[code]
}

// KeyPressed reports whether the key went down this frame.
func (st *InputState) KeyPressed(code int32) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pressed[code]
}

// KeyReleased reports whether the key went up this frame.
func (st *InputState) KeyReleased(code int32) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.released[code]
}

// KeyRepeated reports whether a held key repeated this frame.
func (st *InputState) KeyRepeated(code int32) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.repeats[code]
}

// PressedKeys returns the keys pressed this frame in press order.
func (st *InputState) PressedKeys() []int32 {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]int32, len(st.pressQueue))
	copy(out, st.pressQueue)
	return out
}

// ButtonDown reports whether the mouse button is currently held.
func (st *InputState) ButtonDown(button int32) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.buttons[button]
}

// Mods returns the modifier bits from the most recent key event.
func (st *InputState) Mods() int32 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.mods
}

// MousePos returns the window coordinates of the last mouse event.
func (st *InputState) MousePos() (x, y int32) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.mouseX, st.mouseY
}

// ButtonPressed reports whether the button went down this frame.
func (st *InputState) ButtonPressed(button int32) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.btnPressed[button]
}

// ButtonReleased reports whether the button went up this frame.
func (st *InputState) ButtonReleased(button int32) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.btnReleased[button]
}

// WasResized reports whether a resize arrived this frame, with the client
// size it carried.
func (st *InputState) WasResized() (resized bool, w, h float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.resized, st.width, st.height
}

// ShiftDown reports whether either shift key is held per the last mods.
func (st *InputState) ShiftDown() bool { return st.Mods()&ModShift != 0 }

// ControlDown reports whether either control key is held per the last mods.
func (st *InputState) ControlDown() bool { return st.Mods()&ModControl != 0 }

// AltDown reports whether either alt key is held per the last mods.
func (st *InputState) AltDown() bool { return st.Mods()&ModAlt != 0 }
