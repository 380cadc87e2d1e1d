// Package headless is an in-memory backend. It implements the full backend
// contract without a display server, tracks element trees and window
// properties, and lets callers inject events and failures. The demo binary
// runs on it off-Windows and the test suite drives the lifecycle core
// through it.
package headless

import (
	"sync"
	"sync/atomic"

	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
)

// Options configures failure injection. The zero value is a backend that
// always succeeds at the newest version.
type Options struct {
	// Accept filters bootstrap candidates. Nil accepts every version, so
	// the first candidate wins.
	Accept func(backend.Version) bool
	// TransientWindowFailures makes the first N NewWindow calls fail with
	// ErrInterfaceNotReady.
	TransientWindowFailures int32
	// WindowErr, when set, makes every NewWindow call fail terminally.
	WindowErr error
	// TeardownGate, when non-nil, blocks Teardown until the channel is
	// closed. Simulates a hung native deinit.
	TeardownGate chan struct{}
}

// Factory creates headless runtimes.
type Factory struct {
	opts Options
}

func NewFactory(opts Options) *Factory {
	return &Factory{opts: opts}
}

// Bootstrap accepts the version if the filter does, otherwise reports the
// runtime unavailable so the caller falls back to the next candidate.
func (f *Factory) Bootstrap(_ dispatch.Token, v backend.Version) (backend.Runtime, error) {
	if f.opts.Accept != nil && !f.opts.Accept(v) {
		return nil, backend.ErrRuntimeUnavailable
	}
	rt := &Runtime{version: v}
	rt.transientLeft.Store(f.opts.TransientWindowFailures)
	rt.windowErr = f.opts.WindowErr
	rt.teardownGate = f.opts.TeardownGate
	return rt, nil
}

// Runtime is an in-memory toolkit instance.
type Runtime struct {
	version       backend.Version
	transientLeft atomic.Int32
	attempts      atomic.Int32
	windowErr     error
	teardownGate  chan struct{}

	mu        sync.Mutex
	windows   []*Window
	tornDown  bool
	uninitRan bool
}

func (r *Runtime) Version() backend.Version { return r.version }

func (r *Runtime) NewWindow(_ dispatch.Token, opts backend.WindowOptions) (backend.Window, error) {
	r.attempts.Add(1)
	if r.windowErr != nil {
		return nil, r.windowErr
	}
	if r.transientLeft.Add(-1) >= 0 {
		return nil, backend.ErrInterfaceNotReady
	}
	w := &Window{
		runtime: r,
		title:   opts.Title,
		width:   opts.Width,
		height:  opts.Height,
	}
	r.mu.Lock()
	r.windows = append(r.windows, w)
	r.mu.Unlock()
	return w, nil
}

func (r *Runtime) NewElement(_ dispatch.Token, kind backend.ElementKind, text string) (backend.Element, error) {
	switch kind {
	case backend.KindButton, backend.KindTextBlock, backend.KindTextInput,
		backend.KindStackPanel, backend.KindGrid, backend.KindContentHost:
	default:
		return nil, backend.ErrUnsupportedElement
	}
	return &Element{kind: kind, text: text}, nil
}

func (r *Runtime) Teardown(uninit bool) {
	if r.teardownGate != nil {
		<-r.teardownGate
	}
	r.mu.Lock()
	r.tornDown = true
	r.uninitRan = uninit
	r.mu.Unlock()
}

// TornDown reports whether Teardown completed and whether it deinitialized.
func (r *Runtime) TornDown() (done, uninit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tornDown, r.uninitRan
}

// WindowAttempts reports how many NewWindow calls were made, including the
// ones that failed.
func (r *Runtime) WindowAttempts() int32 { return r.attempts.Load() }

// Windows returns the windows created on this runtime, in creation order.
func (r *Runtime) Windows() []*Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Window, len(r.windows))
	copy(out, r.windows)
	return out
}
