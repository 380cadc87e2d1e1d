// Package supervisor owns the UI thread lifecycle: bootstrapping the backend
// runtime, creating the window with retry, marshaling command-surface work,
// pumping window events into the ring, and running the ordered idempotent
// shutdown with its watchdog.
package supervisor

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mmngadi/go-winui3/internal/config"
	"github.com/mmngadi/go-winui3/internal/diag"
	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/internal/eventring"
	"github.com/mmngadi/go-winui3/internal/registry"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
)

// State tracks where the supervisor is in its init→shutdown cycle.
type State int32

const (
	StateIdle State = iota
	StateBooting
	StateReady
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBooting:
		return "booting"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	// createAttempts bounds window creation retries on transient
	// interface-not-ready failures.
	createAttempts = 8
	// createBackoffBase scales the linear retry backoff: attempt n sleeps
	// base*(n+1).
	createBackoffBase = 50 * time.Millisecond
	// watchdogTimeout bounds shutdown. A teardown that exceeds it forcibly
	// exits the process rather than hang the host.
	watchdogTimeout = 2000 * time.Millisecond
	// DefaultResizeDebounce is the trailing-edge settle delay for the
	// OnResize callback. OnResizeImmediate bypasses it.
	DefaultResizeDebounce = 200 * time.Millisecond
)

// Supervisor drives one backend runtime on a locked OS thread.
type Supervisor struct {
	factory backend.Factory
	cfg     *config.Config
	log     zerolog.Logger

	loop      *dispatch.Loop
	coalescer *dispatch.Coalescer
	ring      *eventring.Ring
	arena     *registry.Arena
	diag      *diag.Registry

	initGroup singleflight.Group

	// createMu serializes CreateWindow so concurrent callers cannot race
	// past each other and create two windows.
	createMu sync.Mutex

	mu           sync.Mutex
	state        State
	runtime      backend.Runtime
	version      backend.Version
	window       backend.Window
	onClose      func()
	onResize     func(w, h float64)
	onResizeNow  func(w, h float64)
	onInput      func(eventring.Event)
	closeOnce    *sync.Once
	resizeTimer  *time.Timer
	shutdownDone chan struct{}
	winW         float64
	winH         float64

	pending pendingProps

	// Test seams. Production values are set by New.
	exitFn         func(code int)
	watchdog       time.Duration
	backoffBase    time.Duration
	resizeDebounce time.Duration
}

// Option adjusts supervisor construction.
type Option func(*Supervisor)

// WithExitFunc replaces the process-exit call used by the shutdown watchdog.
func WithExitFunc(fn func(code int)) Option {
	return func(s *Supervisor) { s.exitFn = fn }
}

// WithWatchdogTimeout overrides the shutdown watchdog deadline.
func WithWatchdogTimeout(d time.Duration) Option {
	return func(s *Supervisor) { s.watchdog = d }
}

// WithBackoffBase overrides the creation retry backoff unit.
func WithBackoffBase(d time.Duration) Option {
	return func(s *Supervisor) { s.backoffBase = d }
}

// WithResizeDebounce overrides the OnResize settle delay.
func WithResizeDebounce(d time.Duration) Option {
	return func(s *Supervisor) { s.resizeDebounce = d }
}

// New builds a supervisor over the given backend factory.
func New(factory backend.Factory, cfg *config.Config, log zerolog.Logger, opts ...Option) *Supervisor {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Supervisor{
		factory:        factory,
		cfg:            cfg,
		log:            log.With().Str("component", "supervisor").Logger(),
		ring:           eventring.New(),
		arena:          registry.NewArena(),
		diag:           diag.NewRegistry(),
		exitFn:         os.Exit,
		watchdog:       watchdogTimeout,
		backoffBase:    createBackoffBase,
		resizeDebounce: DefaultResizeDebounce,
		closeOnce:      &sync.Once{},
		shutdownDone:   make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Diagnostics exposes the last-result registry.
func (s *Supervisor) Diagnostics() *diag.Registry { return s.diag }

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ring exposes the event ring for draining.
func (s *Supervisor) Ring() *eventring.Ring { return s.ring }

// Stats is a point-in-time diagnostic snapshot of the lifecycle.
type Stats struct {
	Ready        bool
	ShuttingDown bool
	Elements     int
}

// Snapshot reports whether the runtime is ready, whether shutdown has been
// requested, and how many elements are registered.
func (s *Supervisor) Snapshot() Stats {
	s.mu.Lock()
	ready := s.state == StateReady
	s.mu.Unlock()
	return Stats{
		Ready:        ready,
		ShuttingDown: s.diag.ShutdownRequested() && !s.diag.ShutdownFinished(),
		Elements:     s.arena.Count(),
	}
}

// Version reports the runtime version that bootstrap settled on. Zero until
// Init succeeds.
func (s *Supervisor) Version() backend.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Init bootstraps the runtime and blocks until the application is ready or
// bootstrap has failed every version candidate. Concurrent callers coalesce
// onto one bootstrap; all observe the same result. Init after a completed
// shutdown starts a fresh cycle.
func (s *Supervisor) Init() diag.Code {
	v, _, _ := s.initGroup.Do("init", func() (any, error) {
		return s.initOnce(), nil
	})
	return v.(diag.Code)
}

func (s *Supervisor) initOnce() diag.Code {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return diag.CodeOK
	case StateBooting, StateShuttingDown:
		// Booting is impossible here (initGroup serializes); a shutdown in
		// flight refuses new init until it completes.
		s.mu.Unlock()
		return diag.CodeShuttingDown
	case StateStopped:
		// Fresh cycle after a completed shutdown.
		s.resetLocked()
	}
	s.state = StateBooting
	loop := dispatch.NewLoop()
	s.loop = loop
	s.coalescer = dispatch.NewCoalescer(func(fn func(dispatch.Token)) { loop.Post(fn) })
	s.mu.Unlock()

	loop.OnPanic(func(r any) {
		msg := fmt.Sprint(r)
		s.diag.SetLastPanic(msg)
		s.diag.SetLast(diag.CodeInternal, msg)
		ev := s.log.Error().Str("panic", msg)
		if !s.cfg.DisableSymbols {
			ev = ev.Bytes("stack", debug.Stack())
		}
		ev.Msg("fault on ui thread")
	})
	go loop.Run()

	rt, ver, err := s.bootstrap(loop)
	if err != nil {
		s.log.Error().Err(err).Msg("bootstrap failed for all version candidates")
		s.diag.SetLast(diag.CodeBootstrapFailed, err.Error())
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		loop.Quit()
		// Waiters must not hang on a failed bootstrap.
		s.diag.MarkAppReady()
		return diag.CodeBootstrapFailed
	}

	s.mu.Lock()
	s.runtime = rt
	s.version = ver
	s.state = StateReady
	s.mu.Unlock()

	s.log.Info().Str("version", ver.String()).Msg("runtime ready")
	s.diag.SetLast(diag.CodeOK, "")
	s.diag.MarkAppReady()
	return diag.CodeOK
}

// bootstrap walks the version candidates newest first on the UI thread.
func (s *Supervisor) bootstrap(loop *dispatch.Loop) (backend.Runtime, backend.Version, error) {
	type boot struct {
		rt  backend.Runtime
		ver backend.Version
	}
	out, err := dispatch.Invoke(loop, func(tok dispatch.Token) (boot, error) {
		var lastErr error
		for _, v := range backend.BootstrapOrder {
			rt, err := s.factory.Bootstrap(tok, v)
			if err == nil {
				return boot{rt: rt, ver: v}, nil
			}
			lastErr = err
			if !errors.Is(err, backend.ErrRuntimeUnavailable) {
				break
			}
			s.log.Debug().Str("version", v.String()).Msg("runtime version unavailable")
		}
		return boot{}, lastErr
	})
	if err != nil {
		return nil, backend.Version{}, err
	}
	return out.rt, out.ver, nil
}

// resetLocked clears per-cycle state so a fresh Init can run. Caller holds
// s.mu.
func (s *Supervisor) resetLocked() {
	s.runtime = nil
	s.window = nil
	s.onClose = nil
	s.onResize = nil
	s.onResizeNow = nil
	s.onInput = nil
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
		s.resizeTimer = nil
	}
	s.winW, s.winH = 0, 0
	s.closeOnce = &sync.Once{}
	s.shutdownDone = make(chan struct{})
	s.pending.reset()
	s.arena.Clear()
	s.diag.ResetForRestart()
	s.state = StateIdle
}

// WaitAppReady blocks until Init completes, successfully or not.
func (s *Supervisor) WaitAppReady() { s.diag.WaitAppReady() }

// WaitWindowReady blocks until window content is up or timeout passes.
func (s *Supervisor) WaitWindowReady(timeout time.Duration) bool {
	return s.diag.WaitWindowReady(timeout)
}

// fail records a failed result and logs it once at the boundary.
func (s *Supervisor) fail(code diag.Code, msg string) diag.Code {
	s.diag.SetLast(code, msg)
	s.log.Warn().Str("result", code.String()).Msg(msg)
	return code
}

func (s *Supervisor) ok() diag.Code {
	s.diag.SetLast(diag.CodeOK, "")
	return diag.CodeOK
}
