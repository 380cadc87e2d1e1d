// Package winui is the host-facing surface of the lifecycle core. A UI value
// owns one backend runtime, its UI thread, and its window; every method is
// safe to call from any goroutine. Failures surface as Result codes, never
// panics: faults in UI-thread work are caught at the marshaling boundary and
// reported as ResultInternal.
package winui

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mmngadi/go-winui3/internal/config"
	"github.com/mmngadi/go-winui3/internal/diag"
	"github.com/mmngadi/go-winui3/internal/logging"
	"github.com/mmngadi/go-winui3/internal/registry"
	"github.com/mmngadi/go-winui3/internal/supervisor"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
)

// Result classifies the outcome of an operation.
type Result = diag.Code

// Result values.
const (
	ResultOK              = diag.CodeOK
	ResultBootstrapFailed = diag.CodeBootstrapFailed
	ResultNotReady        = diag.CodeNotReady
	ResultCreateFailed    = diag.CodeCreateFailed
	ResultGivingUp        = diag.CodeGivingUp
	ResultUnsupported     = diag.CodeUnsupported
	ResultInvalidHandle   = diag.CodeInvalidHandle
	ResultShuttingDown    = diag.CodeShuttingDown
	ResultInternal        = diag.CodeInternal
)

// Handle identifies an element owned by a UI. Handles are generation
// checked: a released handle never aliases a newer element.
type Handle = registry.Handle

// NoHandle is the invalid element handle.
const NoHandle = registry.None

// ElementKind selects the element archetype to create.
type ElementKind = backend.ElementKind

// Element kinds.
const (
	Button      = backend.KindButton
	TextBlock   = backend.KindTextBlock
	TextInput   = backend.KindTextInput
	StackPanel  = backend.KindStackPanel
	Grid        = backend.KindGrid
	ContentHost = backend.KindContentHost
)

// RuntimeState mirrors the supervisor lifecycle for hosts that poll it.
type RuntimeState = supervisor.State

// Runtime states.
const (
	StateIdle         = supervisor.StateIdle
	StateBooting      = supervisor.StateBooting
	StateReady        = supervisor.StateReady
	StateShuttingDown = supervisor.StateShuttingDown
	StateStopped      = supervisor.StateStopped
)

// UI owns one runtime lifecycle. Create it with New, initialize it with
// Init, and end it with Shutdown. A UI may be initialized again after a
// completed shutdown.
type UI struct {
	sup *supervisor.Supervisor
	cfg *config.Config
}

// Options configures a UI.
type Options struct {
	// Factory supplies the backend. Required.
	Factory backend.Factory
	// Logger overrides the logger built from the configuration's logging
	// section.
	Logger *zerolog.Logger
	// Config overrides the loaded configuration. Nil loads file plus
	// environment.
	Config *config.Config
	// SupervisorOptions passes test seams through to the supervisor.
	SupervisorOptions []supervisor.Option
}

// New builds a UI over the given backend factory.
func New(opts Options) (*UI, error) {
	cfg := opts.Config
	if cfg == nil {
		mgr, err := config.NewManager()
		if err != nil {
			return nil, err
		}
		if err := mgr.Load(); err != nil {
			return nil, err
		}
		cfg = mgr.Get()
	}

	// The logging section of the configuration drives the default logger;
	// WINUI_LOG_* environment values flow in through the config layer.
	log := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Format)
	if opts.Logger != nil {
		log = *opts.Logger
	}

	sup := supervisor.New(opts.Factory, cfg, log, opts.SupervisorOptions...)
	return &UI{sup: sup, cfg: cfg}, nil
}

// Init bootstraps the runtime, walking version candidates newest first. It
// blocks until the application is ready or every candidate failed.
// Concurrent calls coalesce; any call after a completed shutdown starts a
// fresh lifecycle.
func (u *UI) Init() Result { return u.sup.Init() }

// CreateWindow creates the top-level window. Transient backend failures are
// retried with backoff; a second call while the window lives re-applies
// title and size instead.
func (u *UI) CreateWindow(title string, width, height float64) Result {
	return u.sup.CreateWindow(title, width, height)
}

// CreateWindowAndWait creates the window and blocks until its content is
// ready or the timeout passes. Timeouts of zero or less use a 5 second
// default.
func (u *UI) CreateWindowAndWait(title string, width, height float64, timeout time.Duration) Result {
	if r := u.sup.CreateWindow(title, width, height); !r.Succeeded() {
		return r
	}
	if !u.sup.WaitWindowReady(timeout) {
		return ResultNotReady
	}
	return ResultOK
}

// SetTitle sets the window title. Before the window exists the value is
// buffered and applied on creation; bursts collapse to the latest value.
func (u *UI) SetTitle(title string) Result { return u.sup.SetTitle(title) }

// SetSize sets the window client size.
func (u *UI) SetSize(width, height float64) Result { return u.sup.SetSize(width, height) }

// SetBackground sets the window background color.
func (u *UI) SetBackground(c Color) Result {
	return u.sup.SetBackground(c.A, c.R, c.G, c.B)
}

// SetMinMaxSize constrains the window client size. Zero disables the
// constraint on that edge.
func (u *UI) SetMinMaxSize(minW, minH, maxW, maxH float64) Result {
	return u.sup.SetMinMaxSize(minW, minH, maxW, maxH)
}

// OnClose registers the close callback. It fires at most once per
// lifecycle. Registering again replaces the callback.
func (u *UI) OnClose(fn func()) { u.sup.OnClose(fn) }

// OnResize registers the resize callback, replacing any earlier one. It is
// debounced: a resize drag fires it once with the final size after the burst
// settles.
func (u *UI) OnResize(fn func(w, h float64)) { u.sup.OnResize(fn) }

// OnResizeImmediate registers a resize callback that fires for every resize
// event, undebounced, on the UI thread.
func (u *UI) OnResizeImmediate(fn func(w, h float64)) { u.sup.OnResizeImmediate(fn) }

// OnInput registers the key/mouse callback, replacing any earlier one. The
// same events still flow through PollEvents.
func (u *UI) OnInput(fn func(Event)) { u.sup.OnInput(fn) }

// WindowExists reports whether a live window is installed.
func (u *UI) WindowExists() bool { return u.sup.WindowExists() }

// WindowReady reports window readiness without blocking.
func (u *UI) WindowReady() bool { return u.sup.WindowReady() }

// WindowSize returns the last known client size, zero before any window
// existed.
func (u *UI) WindowSize() (w, h float64) { return u.sup.WindowSize() }

// RequestClose asks the window to close, as if the user had. A completed
// close surfaces as an EventClosed and the OnClose callback.
func (u *UI) RequestClose() Result { return u.sup.RequestClose() }

// CreateElement creates a detached element. NoHandle signals failure; see
// LastResult for the reason.
func (u *UI) CreateElement(kind ElementKind, text string) Handle {
	return u.sup.CreateElement(kind, text)
}

// AddChild attaches child to parent. Grid parents place the child on the
// next free row.
func (u *UI) AddChild(parent, child Handle) Result { return u.sup.AddChild(parent, child) }

// SetText replaces an element's text, last write winning under bursts.
func (u *UI) SetText(h Handle, text string) Result { return u.sup.SetElementText(h, text) }

// Text reads an element's text.
func (u *UI) Text(h Handle) (string, Result) { return u.sup.ElementText(h) }

// OnAction installs an element's activation callback. One slot per element.
func (u *UI) OnAction(h Handle, fn func()) Result { return u.sup.OnElementAction(h, fn) }

// SetContent installs the element as the window content root.
func (u *UI) SetContent(h Handle) Result { return u.sup.SetContent(h) }

// ReleaseElement destroys an element and invalidates its handle.
func (u *UI) ReleaseElement(h Handle) Result { return u.sup.ReleaseElement(h) }

// PollEvents drains pending window events into buf, returning the count and
// whether more remain. It never blocks.
func (u *UI) PollEvents(buf []Event) (n int, more bool) {
	return u.sup.Ring().Drain(buf)
}

// DroppedEvents reports how many events overflow has discarded so far.
func (u *UI) DroppedEvents() int64 { return u.sup.Ring().Overflow() }

// State reports the lifecycle state.
func (u *UI) State() RuntimeState { return u.sup.State() }

// Stats mirrors supervisor.Stats for hosts that poll diagnostics.
type Stats = supervisor.Stats

// Snapshot reports whether the runtime is ready, whether a shutdown is in
// flight, and how many elements are registered.
func (u *UI) Snapshot() Stats { return u.sup.Snapshot() }

// RuntimeVersion reports the version candidate bootstrap settled on. Zero
// until Init succeeds.
func (u *UI) RuntimeVersion() backend.Version { return u.sup.Version() }

// WaitWindowReady blocks until window content is up or the timeout passes.
func (u *UI) WaitWindowReady(timeout time.Duration) bool {
	return u.sup.WaitWindowReady(timeout)
}

// LastResult returns the most recent operation result and message.
func (u *UI) LastResult() (Result, string) {
	return u.sup.Diagnostics().LastCode(), u.sup.Diagnostics().LastMessage()
}

// LastFault returns the message of the last fault caught on the UI thread,
// or "".
func (u *UI) LastFault() string { return u.sup.Diagnostics().LastPanic() }

// Shutdown ends the lifecycle. The first caller tears down window,
// elements, loop, and runtime in order and blocks until done; concurrent
// callers return promptly; later callers take a fast path. Shutdown is safe
// to call from any goroutine, any number of times. From code running on the
// UI thread (element callbacks), prefer BeginShutdownAsync, since Shutdown
// blocks on work the UI thread itself must run.
func (u *UI) Shutdown() Result { return u.sup.Shutdown() }

// BeginShutdownAsync starts Shutdown on its own goroutine and returns a
// channel that yields the result.
func (u *UI) BeginShutdownAsync() <-chan Result {
	ch := make(chan Result, 1)
	go func() { ch <- u.Shutdown() }()
	return ch
}
