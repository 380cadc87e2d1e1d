package headless

import (
	"sync"

	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
)

// Window records the property writes a real toolkit window would apply, and
// exposes Inject* methods so tests and demos can synthesize user activity.
type Window struct {
	runtime *Runtime

	mu         sync.Mutex
	title      string
	width      float64
	height     float64
	bgA        uint8
	bgR        uint8
	bgG        uint8
	bgB        uint8
	minW, minH float64
	maxW, maxH float64
	content    backend.Element
	sink       backend.EventSink
	activated  bool
	closed     bool
	destroyed  bool
}

func (w *Window) SetTitle(_ dispatch.Token, title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
}

func (w *Window) Resize(_ dispatch.Token, width, height float64) {
	w.mu.Lock()
	w.width = width
	w.height = height
	sink := w.sink
	w.mu.Unlock()
	if sink != nil {
		sink.Resized(width, height)
	}
}

func (w *Window) SetBackground(_ dispatch.Token, a, r, g, b uint8) {
	w.mu.Lock()
	w.bgA, w.bgR, w.bgG, w.bgB = a, r, g, b
	w.mu.Unlock()
}

func (w *Window) SetContent(_ dispatch.Token, root backend.Element) error {
	w.mu.Lock()
	w.content = root
	w.mu.Unlock()
	return nil
}

func (w *Window) SetMinMax(_ dispatch.Token, minW, minH, maxW, maxH float64) {
	w.mu.Lock()
	w.minW, w.minH, w.maxW, w.maxH = minW, minH, maxW, maxH
	w.mu.Unlock()
}

func (w *Window) Activate(_ dispatch.Token) {
	w.mu.Lock()
	w.activated = true
	w.mu.Unlock()
}

func (w *Window) Sink(sink backend.EventSink) {
	w.mu.Lock()
	w.sink = sink
	w.mu.Unlock()
}

func (w *Window) Close(tok dispatch.Token) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	sink := w.sink
	w.mu.Unlock()
	if sink != nil {
		sink.Destroyed()
	}
}

func (w *Window) Destroy(tok dispatch.Token) {
	w.mu.Lock()
	already := w.destroyed
	w.destroyed = true
	w.mu.Unlock()
	if !already {
		w.Close(tok)
	}
}

// Snapshot returns the currently applied window properties.
func (w *Window) Snapshot() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WindowState{
		Title:     w.title,
		Width:     w.width,
		Height:    w.height,
		BgA:       w.bgA,
		BgR:       w.bgR,
		BgG:       w.bgG,
		BgB:       w.bgB,
		MinW:      w.minW,
		MinH:      w.minH,
		MaxW:      w.maxW,
		MaxH:      w.maxH,
		Content:   w.content,
		Activated: w.activated,
		Closed:    w.closed,
	}
}

// WindowState is a point-in-time copy of a window's applied properties.
type WindowState struct {
	Title              string
	Width, Height      float64
	BgA, BgR, BgG, BgB uint8
	MinW, MinH         float64
	MaxW, MaxH         float64
	Content            backend.Element
	Activated          bool
	Closed             bool
}

// InjectKey delivers a key transition to the installed sink.
func (w *Window) InjectKey(code int32, down bool, mods int32) {
	w.mu.Lock()
	sink := w.sink
	w.mu.Unlock()
	if sink != nil {
		sink.Key(code, down, mods)
	}
}

// InjectMouse delivers a mouse button transition to the installed sink.
func (w *Window) InjectMouse(button int32, down bool, x, y int32) {
	w.mu.Lock()
	sink := w.sink
	w.mu.Unlock()
	if sink != nil {
		sink.Mouse(button, down, x, y)
	}
}

// InjectClose simulates the user closing the window. The close proceeds only
// if the sink allows it, matching native close-request semantics.
func (w *Window) InjectClose(tok dispatch.Token) {
	w.mu.Lock()
	sink := w.sink
	w.mu.Unlock()
	if sink != nil && !sink.CloseRequested() {
		return
	}
	w.Close(tok)
}
