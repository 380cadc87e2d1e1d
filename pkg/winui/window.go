package winui

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// WindowContext is a typed grab bag the lifecycle hooks share. Hooks run
// sequentially on the loop goroutine, so reads see earlier writes.
type WindowContext struct {
	mu     sync.RWMutex
	values map[string]any
}

func newWindowContext() *WindowContext {
	return &WindowContext{values: make(map[string]any)}
}

// Set stores a value under key.
func (c *WindowContext) Set(key string, value any) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// Get returns the value under key, if present.
func (c *WindowContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Ctx is the typed accessor for WindowContext values. It returns the zero
// value when the key is absent or holds a different type.
func Ctx[T any](c *WindowContext, key string) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// MustCtx is Ctx that panics on a missing or mistyped key. For hook bodies
// where absence is a programming error.
func MustCtx[T any](c *WindowContext, key string) T {
	t, ok := Ctx[T](c, key)
	if !ok {
		panic(fmt.Sprintf("winui: window context key %q missing or wrong type", key))
	}
	return t
}

// Window is the high-level wrapper: it owns the window lifecycle, runs a
// paced event loop, and dispatches Android-style lifecycle hooks. All hooks
// run on the loop goroutine.
type Window struct {
	ui  *UI
	ctx *WindowContext

	targetFPS atomic.Int32

	clockMu   sync.Mutex
	started   time.Time
	frameTime time.Duration

	Title  string
	Width  float64
	Height float64

	// Lifecycle hooks. Any may be nil.
	OnCreate  func(ctx *WindowContext)
	OnStart   func(ctx *WindowContext)
	OnUpdate  func(ctx *WindowContext, input *InputState)
	OnPause   func(ctx *WindowContext)
	OnResume  func(ctx *WindowContext)
	OnStop    func(ctx *WindowContext)
	OnDestroy func(ctx *WindowContext)
	OnResized func(ctx *WindowContext, w, h float64)
}

// NewWindow wraps ui with a lifecycle-hook window.
func NewWindow(ui *UI, title string, width, height float64) *Window {
	return &Window{
		ui:     ui,
		ctx:    newWindowContext(),
		Title:  title,
		Width:  width,
		Height: height,
	}
}

// Context returns the shared hook context.
func (w *Window) Context() *WindowContext { return w.ctx }

// UI returns the underlying UI.
func (w *Window) UI() *UI { return w.ui }

// SetTargetFPS changes the update rate. Takes effect on the next frame when
// Run is already pacing.
func (w *Window) SetTargetFPS(fps int) {
	if fps > 0 {
		w.targetFPS.Store(int32(fps))
	}
}

// FrameTime returns the duration of the most recent frame, zero before the
// first one.
func (w *Window) FrameTime() time.Duration {
	w.clockMu.Lock()
	defer w.clockMu.Unlock()
	return w.frameTime
}

// FPS returns the measured rate over the most recent frame.
func (w *Window) FPS() float64 {
	ft := w.FrameTime()
	if ft <= 0 {
		return 0
	}
	return float64(time.Second) / float64(ft)
}

// Time returns the time elapsed since Run started.
func (w *Window) Time() time.Duration {
	w.clockMu.Lock()
	defer w.clockMu.Unlock()
	if w.started.IsZero() {
		return 0
	}
	return time.Since(w.started)
}

// Run creates the window and drives the paced loop until the window closes
// or shutdown begins. fps bounds the update rate; values of zero or less
// run at 60.
func (w *Window) Run(fps int) Result {
	if w.OnCreate != nil {
		w.OnCreate(w.ctx)
	}
	if r := w.ui.CreateWindowAndWait(w.Title, w.Width, w.Height, 0); !r.Succeeded() {
		return r
	}
	if w.OnStart != nil {
		w.OnStart(w.ctx)
	}

	if fps > 0 {
		w.targetFPS.Store(int32(fps))
	} else if w.targetFPS.Load() <= 0 {
		w.targetFPS.Store(60)
	}
	current := w.targetFPS.Load()
	ticker := time.NewTicker(time.Second / time.Duration(current))
	defer ticker.Stop()

	w.clockMu.Lock()
	w.started = time.Now()
	w.frameTime = 0
	w.clockMu.Unlock()
	lastTick := time.Now()

	input := NewInputState()
	buf := make([]Event, EventBufferSize)
	paused := false

	for range ticker.C {
		if w.ui.State() != StateReady {
			break
		}
		now := time.Now()
		w.clockMu.Lock()
		w.frameTime = now.Sub(lastTick)
		w.clockMu.Unlock()
		lastTick = now
		if t := w.targetFPS.Load(); t != current {
			current = t
			ticker.Reset(time.Second / time.Duration(current))
		}
		input.ResetTransitions()
		closed := false
		for {
			n, more := w.ui.PollEvents(buf)
			for _, ev := range buf[:n] {
				input.Feed(ev)
				switch ev.Kind {
				case EventResize:
					if w.OnResized != nil {
						w.OnResized(w.ctx, ev.W, ev.H)
					}
					// A zero-area client means minimized.
					if ev.W <= 0 || ev.H <= 0 {
						if !paused {
							paused = true
							if w.OnPause != nil {
								w.OnPause(w.ctx)
							}
						}
					} else if paused {
						paused = false
						if w.OnResume != nil {
							w.OnResume(w.ctx)
						}
					}
				case EventClosed:
					closed = true
				}
			}
			if !more {
				break
			}
		}
		if closed {
			break
		}
		if !paused && w.OnUpdate != nil {
			w.OnUpdate(w.ctx, input)
		}
	}

	if w.OnStop != nil {
		w.OnStop(w.ctx)
	}
	if w.OnDestroy != nil {
		w.OnDestroy(w.ctx)
	}
	return ResultOK
}
