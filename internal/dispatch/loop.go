// Package dispatch owns the UI thread. A Loop pins one goroutine to an OS
// thread and executes posted work there in order. A Token is proof of
// running on the loop thread: operations that require UI-thread affinity
// take one, so the fast path (already on the thread) and the slow path
// (marshal and wait) are distinguished by the type system instead of by
// thread-id checks at runtime.
package dispatch

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned when work is submitted after the loop quit.
var ErrStopped = errors.New("dispatch: loop stopped")

// ErrPanicked is returned from Invoke when the invoked function panicked on
// the loop thread.
var ErrPanicked = errors.New("dispatch: invoked function panicked")

// Token proves the holder is executing on the loop thread. Only the loop
// itself mints tokens; code holding one may touch thread-affine state
// directly.
type Token struct {
	loop *Loop
}

// Loop runs posted functions on a single locked OS thread.
type Loop struct {
	work    chan func(Token)
	quit    chan struct{}
	done    chan struct{}
	quitFn  sync.Once
	onPanic atomic.Pointer[func(recovered any)]
}

// NewLoop returns a loop ready to Run. Work posted before Run starts is
// queued, bounded by the internal buffer.
func NewLoop() *Loop {
	return &Loop{
		work: make(chan func(Token), 256),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// OnPanic installs the hook invoked when posted work panics. The loop
// survives the panic; the hook observes it.
func (l *Loop) OnPanic(fn func(recovered any)) {
	l.onPanic.Store(&fn)
}

// Run executes posted work until Quit. It locks the calling goroutine to its
// OS thread for the duration, as required by thread-affine GUI backends.
// Run returns after the quit signal once the queue is drained.
func (l *Loop) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)

	tok := Token{loop: l}
	for {
		select {
		case fn := <-l.work:
			l.exec(tok, fn)
		case <-l.quit:
			// Drain what was accepted before the quit.
			for {
				select {
				case fn := <-l.work:
					l.exec(tok, fn)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) exec(tok Token, fn func(Token)) {
	defer func() {
		if r := recover(); r != nil {
			if h := l.onPanic.Load(); h != nil {
				(*h)(r)
			}
		}
	}()
	fn(tok)
}

// Post queues fn for execution on the loop thread, fire-and-forget. Returns
// false when the loop has quit.
func (l *Loop) Post(fn func(Token)) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.work <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Quit stops the loop. Idempotent; pending accepted work still runs.
func (l *Loop) Quit() {
	l.quitFn.Do(func() { close(l.quit) })
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Invoke runs fn on the loop thread and blocks until it completes, returning
// its results. A panic in fn is reported both to the OnPanic hook and to the
// caller as ErrPanicked.
func Invoke[T any](l *Loop, fn func(Token) (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	ok := l.Post(func(tok Token) {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				ch <- outcome{zero, fmt.Errorf("%w: %v", ErrPanicked, r)}
				panic(r)
			}
		}()
		v, err := fn(tok)
		ch <- outcome{v, err}
	})
	if !ok {
		var zero T
		return zero, ErrStopped
	}
	select {
	case out := <-ch:
		return out.v, out.err
	case <-l.done:
		// Loop exited before running the work.
		select {
		case out := <-ch:
			return out.v, out.err
		default:
			var zero T
			return zero, ErrStopped
		}
	}
}
