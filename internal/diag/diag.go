// Package diag holds the per-lifecycle diagnostic state: the last operation
// result, readiness flags and their waiters, and the shutdown sequence
// counter used to causally order teardown log lines.
package diag

import (
	"sync"
	"sync/atomic"
	"time"
)

// Code classifies the outcome of the most recent operation. There are no
// exceptions across the command surface; failures surface through the
// last-result pair readable from any thread.
type Code int32

const (
	CodeOK Code = iota
	// CodeBootstrapFailed: the host GUI runtime could not be initialized by
	// any version candidate. App-ready is still signaled so waiters unblock.
	CodeBootstrapFailed
	// CodeNotReady: transient interface-not-ready failure; retried with
	// backoff by the window lifecycle manager.
	CodeNotReady
	// CodeCreateFailed: terminal window/control creation failure.
	CodeCreateFailed
	// CodeGivingUp: the creation retry budget was exhausted.
	CodeGivingUp
	// CodeUnsupported: operation not supported by the target (for example
	// attaching a child to a non-container parent). The operation is a no-op.
	CodeUnsupported
	// CodeInvalidHandle: a stale or unknown control handle was passed.
	CodeInvalidHandle
	// CodeShuttingDown: the operation was skipped because shutdown was
	// already requested.
	CodeShuttingDown
	// CodeInternal: an unexpected failure caught at a UI-thread boundary.
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeBootstrapFailed:
		return "bootstrap_failed"
	case CodeNotReady:
		return "not_ready"
	case CodeCreateFailed:
		return "create_failed"
	case CodeGivingUp:
		return "giving_up"
	case CodeUnsupported:
		return "unsupported"
	case CodeInvalidHandle:
		return "invalid_handle"
	case CodeShuttingDown:
		return "shutting_down"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the code represents a successful outcome.
func (c Code) Succeeded() bool { return c == CodeOK }

// Registry is the diagnostic and readiness state for one init→shutdown
// cycle. Single values use atomics to keep the hot event path lock-free;
// composite flags share one mutex. Readiness waits are channel-based so
// they compose with timeouts.
type Registry struct {
	lastCode atomic.Int32

	msgMu     sync.Mutex
	lastMsg   string
	lastPanic string

	shutdownSeq atomic.Int64

	mu                sync.Mutex
	appReadyCh        chan struct{}
	windowReadyCh     chan struct{}
	appReady          bool
	windowReady       bool
	shutdownRequested bool
	shutdownFinished  bool
}

// NewRegistry returns a Registry with all flags cleared.
func NewRegistry() *Registry {
	return &Registry{
		appReadyCh:    make(chan struct{}),
		windowReadyCh: make(chan struct{}),
	}
}

// SetLast records the last result code and message.
func (r *Registry) SetLast(code Code, msg string) {
	r.lastCode.Store(int32(code))
	r.msgMu.Lock()
	r.lastMsg = msg
	r.msgMu.Unlock()
}

// LastCode returns the most recently recorded result code.
func (r *Registry) LastCode() Code { return Code(r.lastCode.Load()) }

// LastMessage returns the most recently recorded human-readable message.
func (r *Registry) LastMessage() string {
	r.msgMu.Lock()
	defer r.msgMu.Unlock()
	return r.lastMsg
}

// SetLastPanic records the message of the last fault caught at a UI-thread
// boundary.
func (r *Registry) SetLastPanic(msg string) {
	r.msgMu.Lock()
	r.lastPanic = msg
	r.msgMu.Unlock()
}

// LastPanic returns the last recorded fault message, or "".
func (r *Registry) LastPanic() string {
	r.msgMu.Lock()
	defer r.msgMu.Unlock()
	return r.lastPanic
}

// NextSeq increments and returns the shutdown sequence counter. The counter
// only orders log lines; it carries no other semantics.
func (r *Registry) NextSeq() int64 { return r.shutdownSeq.Add(1) }

// MarkAppReady sets the app-ready flag and releases all Init waiters.
// Also called on total bootstrap failure so waiters never hang.
func (r *Registry) MarkAppReady() {
	r.mu.Lock()
	if !r.appReady {
		r.appReady = true
		close(r.appReadyCh)
	}
	r.mu.Unlock()
}

// WaitAppReady blocks until the app-ready flag is set.
func (r *Registry) WaitAppReady() {
	r.mu.Lock()
	ch := r.appReadyCh
	r.mu.Unlock()
	<-ch
}

// MarkWindowReady sets or clears window readiness, waking waiters when set.
func (r *Registry) MarkWindowReady(ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ready && !r.windowReady {
		r.windowReady = true
		close(r.windowReadyCh)
	} else if !ready && r.windowReady {
		r.windowReady = false
		r.windowReadyCh = make(chan struct{})
	}
}

// WindowReady reports whether the window has content attached.
func (r *Registry) WindowReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windowReady
}

// WaitWindowReady blocks until the window is ready or the timeout elapses,
// returning the readiness state at exit. Timeouts of zero or less use the
// 5 second default.
func (r *Registry) WaitWindowReady(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	r.mu.Lock()
	if r.windowReady {
		r.mu.Unlock()
		return true
	}
	ch := r.windowReadyCh
	r.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// RequestShutdown sets the shutdown-requested flag. It returns true only for
// the first caller, which is the one that performs teardown.
func (r *Registry) RequestShutdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shutdownRequested {
		return false
	}
	r.shutdownRequested = true
	return true
}

// ShutdownRequested reports whether shutdown was requested.
func (r *Registry) ShutdownRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdownRequested
}

// MarkShutdownFinished flips the finished flag for the fast idempotent path.
func (r *Registry) MarkShutdownFinished() {
	r.mu.Lock()
	r.shutdownFinished = true
	r.mu.Unlock()
}

// ShutdownFinished reports whether a full teardown completed.
func (r *Registry) ShutdownFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdownFinished
}

// ResetForRestart clears the lifecycle flags after a completed shutdown so a
// subsequent Init can run a fresh cycle. The last result is preserved.
func (r *Registry) ResetForRestart() {
	r.mu.Lock()
	if r.appReady {
		r.appReadyCh = make(chan struct{})
	}
	if r.windowReady {
		r.windowReadyCh = make(chan struct{})
	}
	r.appReady = false
	r.windowReady = false
	r.shutdownRequested = false
	r.shutdownFinished = false
	r.mu.Unlock()
}
