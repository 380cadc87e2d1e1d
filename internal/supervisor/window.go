package supervisor

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmngadi/go-winui3/internal/diag"
	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/internal/eventring"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
)

// pendingProps buffers property writes issued before the window exists. The
// title takes a mutex; size and color ride atomics so setters stay
// non-blocking from any thread. Each slot holds only the latest value.
type pendingProps struct {
	mu       sync.Mutex
	title    string
	hasTitle bool

	width   atomic.Uint64 // math.Float64bits
	height  atomic.Uint64
	hasSize atomic.Bool

	color    atomic.Uint32 // packed ARGB
	hasColor atomic.Bool

	minW      atomic.Uint64
	minH      atomic.Uint64
	maxW      atomic.Uint64
	maxH      atomic.Uint64
	hasMinMax atomic.Bool
}

func (p *pendingProps) setTitle(t string) {
	p.mu.Lock()
	p.title = t
	p.hasTitle = true
	p.mu.Unlock()
}

func (p *pendingProps) takeTitle() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasTitle {
		return "", false
	}
	p.hasTitle = false
	return p.title, true
}

func (p *pendingProps) setSize(w, h float64) {
	p.width.Store(math.Float64bits(w))
	p.height.Store(math.Float64bits(h))
	p.hasSize.Store(true)
}

func (p *pendingProps) takeSize() (w, h float64, ok bool) {
	if !p.hasSize.Swap(false) {
		return 0, 0, false
	}
	return math.Float64frombits(p.width.Load()), math.Float64frombits(p.height.Load()), true
}

func (p *pendingProps) setColor(argb uint32) {
	p.color.Store(argb)
	p.hasColor.Store(true)
}

func (p *pendingProps) takeColor() (uint32, bool) {
	if !p.hasColor.Swap(false) {
		return 0, false
	}
	return p.color.Load(), true
}

func (p *pendingProps) setMinMax(minW, minH, maxW, maxH float64) {
	p.minW.Store(math.Float64bits(minW))
	p.minH.Store(math.Float64bits(minH))
	p.maxW.Store(math.Float64bits(maxW))
	p.maxH.Store(math.Float64bits(maxH))
	p.hasMinMax.Store(true)
}

func (p *pendingProps) takeMinMax() (minW, minH, maxW, maxH float64, ok bool) {
	if !p.hasMinMax.Swap(false) {
		return 0, 0, 0, 0, false
	}
	return math.Float64frombits(p.minW.Load()),
		math.Float64frombits(p.minH.Load()),
		math.Float64frombits(p.maxW.Load()),
		math.Float64frombits(p.maxH.Load()),
		true
}

func (p *pendingProps) reset() {
	p.mu.Lock()
	p.hasTitle = false
	p.title = ""
	p.mu.Unlock()
	p.hasSize.Store(false)
	p.hasColor.Store(false)
	p.hasMinMax.Store(false)
}

// CreateWindow creates the top-level window, retrying transient
// interface-not-ready failures with linear backoff. Calling it again while a
// window exists re-applies the title and size instead of creating a second
// window. Concurrent callers serialize; at most one window ever exists. The
// call returns once the outcome is known.
func (s *Supervisor) CreateWindow(title string, width, height float64) diag.Code {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	s.mu.Lock()
	if s.state != StateReady {
		st := s.state
		s.mu.Unlock()
		if st == StateShuttingDown {
			return s.fail(diag.CodeShuttingDown, "window creation skipped during shutdown")
		}
		return s.fail(diag.CodeNotReady, "runtime not initialized")
	}
	loop := s.loop
	rt := s.runtime
	existing := s.window
	s.mu.Unlock()

	if existing != nil {
		// Re-entrant create: the surviving window adopts the new title and
		// size. Empty or non-positive arguments leave it untouched rather
		// than clobber it with config defaults.
		if title != "" {
			s.SetTitle(title)
		}
		if width > 0 && height > 0 {
			s.SetSize(width, height)
		}
		return s.ok()
	}

	if title == "" {
		title = s.cfg.Window.Title
	}
	if width <= 0 {
		width = s.cfg.Window.Width
	}
	if height <= 0 {
		height = s.cfg.Window.Height
	}

	opts := backend.WindowOptions{Title: title, Width: width, Height: height}
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		win, err := dispatch.Invoke(loop, func(tok dispatch.Token) (backend.Window, error) {
			return rt.NewWindow(tok, opts)
		})
		if err == nil {
			s.mu.Lock()
			s.winW, s.winH = width, height
			s.mu.Unlock()
			s.adoptWindow(loop, win)
			return s.ok()
		}
		lastErr = err
		if !errors.Is(err, backend.ErrInterfaceNotReady) {
			return s.fail(diag.CodeCreateFailed, "window creation failed: "+err.Error())
		}
		s.log.Debug().Int("attempt", attempt+1).Msg("window interface not ready, backing off")
		time.Sleep(s.backoffBase * time.Duration(attempt+1))
	}
	return s.fail(diag.CodeGivingUp, "window creation giving up after retries: "+lastErr.Error())
}

// adoptWindow installs the created window, wires its event sink, applies any
// buffered properties, and signals window readiness.
func (s *Supervisor) adoptWindow(loop *dispatch.Loop, win backend.Window) {
	s.mu.Lock()
	s.window = win
	s.mu.Unlock()

	win.Sink(&windowSink{s: s})

	loop.Post(func(tok dispatch.Token) {
		if t, ok := s.pending.takeTitle(); ok {
			win.SetTitle(tok, t)
		}
		if w, h, ok := s.pending.takeSize(); ok {
			win.Resize(tok, w, h)
		}
		if argb, ok := s.pending.takeColor(); ok {
			win.SetBackground(tok,
				uint8(argb>>24), uint8(argb>>16), uint8(argb>>8), uint8(argb))
		}
		if minW, minH, maxW, maxH, ok := s.pending.takeMinMax(); ok {
			win.SetMinMax(tok, minW, minH, maxW, maxH)
		}
		win.Activate(tok)
	})

	s.diag.MarkWindowReady(true)
	s.ring.Enqueue(eventCreated())
	s.log.Info().Msg("window created")
}

// liveWindow returns the current window, or nil outside the ready state.
func (s *Supervisor) liveWindow() backend.Window {
	w, _ := s.liveParts()
	return w
}

// liveParts returns the window and coalescer for the ready state, or nils.
func (s *Supervisor) liveParts() (backend.Window, *dispatch.Coalescer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return nil, nil
	}
	return s.window, s.coalescer
}

// tearingDown reports whether a shutdown is in flight. Fire-and-forget
// setters are skipped during teardown instead of buffered.
func (s *Supervisor) tearingDown() bool {
	return s.diag.ShutdownRequested() && !s.diag.ShutdownFinished()
}

// SetTitle applies the window title, buffering it when no window exists yet.
// Bursts coalesce to the latest value.
func (s *Supervisor) SetTitle(title string) diag.Code {
	win, coalescer := s.liveParts()
	if win == nil {
		if s.tearingDown() {
			return diag.CodeShuttingDown
		}
		s.pending.setTitle(title)
		return s.ok()
	}
	coalescer.Post("window-title", func(tok dispatch.Token) {
		win.SetTitle(tok, title)
	})
	return s.ok()
}

// SetSize applies the client size, buffering when no window exists yet.
func (s *Supervisor) SetSize(width, height float64) diag.Code {
	if width <= 0 || height <= 0 {
		return s.fail(diag.CodeUnsupported, "window size must be positive")
	}
	win, coalescer := s.liveParts()
	if win == nil {
		if s.tearingDown() {
			return diag.CodeShuttingDown
		}
		s.pending.setSize(width, height)
		return s.ok()
	}
	coalescer.Post("window-size", func(tok dispatch.Token) {
		win.Resize(tok, width, height)
	})
	return s.ok()
}

// SetBackground applies the window background color, buffering when no
// window exists yet.
func (s *Supervisor) SetBackground(a, r, g, b uint8) diag.Code {
	argb := uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	win, coalescer := s.liveParts()
	if win == nil {
		if s.tearingDown() {
			return diag.CodeShuttingDown
		}
		s.pending.setColor(argb)
		return s.ok()
	}
	coalescer.Post("window-background", func(tok dispatch.Token) {
		win.SetBackground(tok, a, r, g, b)
	})
	return s.ok()
}

// SetMinMaxSize constrains the client size. Zero means unconstrained on
// that edge.
func (s *Supervisor) SetMinMaxSize(minW, minH, maxW, maxH float64) diag.Code {
	win, coalescer := s.liveParts()
	if win == nil {
		if s.tearingDown() {
			return diag.CodeShuttingDown
		}
		s.pending.setMinMax(minW, minH, maxW, maxH)
		return s.ok()
	}
	coalescer.Post("window-minmax", func(tok dispatch.Token) {
		win.SetMinMax(tok, minW, minH, maxW, maxH)
	})
	return s.ok()
}

// OnClose registers the close callback. It fires at most once per lifecycle,
// on the first window close. A later registration overwrites an earlier one.
func (s *Supervisor) OnClose(fn func()) {
	s.mu.Lock()
	s.onClose = fn
	s.mu.Unlock()
}

// OnResize registers the resize callback, replacing any earlier one. It is
// debounced: a drag that produces a burst of resize events fires the callback
// once, with the final size, after the burst settles. Use OnResizeImmediate
// for per-event delivery.
func (s *Supervisor) OnResize(fn func(w, h float64)) {
	s.mu.Lock()
	s.onResize = fn
	s.mu.Unlock()
}

// OnResizeImmediate registers a resize callback that fires on the UI thread
// for every resize event, with no debounce.
func (s *Supervisor) OnResizeImmediate(fn func(w, h float64)) {
	s.mu.Lock()
	s.onResizeNow = fn
	s.mu.Unlock()
}

// OnInput registers the key/mouse callback, replacing any earlier one. The
// callback runs on the UI thread alongside the ring enqueue.
func (s *Supervisor) OnInput(fn func(eventring.Event)) {
	s.mu.Lock()
	s.onInput = fn
	s.mu.Unlock()
}

// WindowExists reports whether a live window is installed.
func (s *Supervisor) WindowExists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window != nil
}

// WindowReady reports window readiness without blocking.
func (s *Supervisor) WindowReady() bool { return s.diag.WindowReady() }

// WindowSize returns the last known client size. It is seeded at creation
// and tracks resize events afterwards; zero before any window existed.
func (s *Supervisor) WindowSize() (w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winW, s.winH
}

// RequestClose marshals a close onto the UI thread. The backend decides
// whether the close proceeds; a completed close surfaces as a closed event
// and the close callback.
func (s *Supervisor) RequestClose() diag.Code {
	s.mu.Lock()
	if s.state != StateReady || s.window == nil {
		s.mu.Unlock()
		return s.fail(diag.CodeNotReady, "no window to close")
	}
	win := s.window
	loop := s.loop
	s.mu.Unlock()
	loop.Post(func(tok dispatch.Token) { win.Close(tok) })
	return s.ok()
}
