package supervisor

import (
	"time"

	"github.com/mmngadi/go-winui3/internal/eventring"
)

func eventCreated() eventring.Event {
	return eventring.Event{Kind: eventring.KindCreated}
}

// windowSink receives backend window events on the UI thread and forwards
// them into the ring and the registered callbacks. It never blocks.
type windowSink struct {
	s *Supervisor
}

func (k *windowSink) Key(code int32, down bool, mods int32) {
	action := int32(eventring.ActionUp)
	if down {
		action = eventring.ActionDown
	}
	k.forward(eventring.Event{
		Kind:   eventring.KindKey,
		Code:   code,
		Action: action,
		Mods:   mods,
	})
}

func (k *windowSink) Mouse(button int32, down bool, x, y int32) {
	action := int32(eventring.ActionUp)
	if down {
		action = eventring.ActionDown
	}
	k.forward(eventring.Event{
		Kind:   eventring.KindMouse,
		Code:   button,
		Action: action,
		X:      x,
		Y:      y,
	})
}

// forward enqueues the event and hands a copy to the input callback.
func (k *windowSink) forward(ev eventring.Event) {
	k.s.ring.Enqueue(ev)
	k.s.mu.Lock()
	fn := k.s.onInput
	k.s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (k *windowSink) Resized(w, h float64) {
	s := k.s
	s.ring.Enqueue(eventring.Event{
		Kind: eventring.KindResize,
		W:    w,
		H:    h,
	})
	s.mu.Lock()
	s.winW, s.winH = w, h
	now := s.onResizeNow
	if s.onResize != nil {
		// Trailing-edge debounce: every event pushes the fire out, so a
		// resize drag settles into a single callback with the final size.
		if s.resizeTimer == nil {
			s.resizeTimer = time.AfterFunc(s.resizeDebounce, s.fireResize)
		} else {
			s.resizeTimer.Reset(s.resizeDebounce)
		}
	}
	s.mu.Unlock()
	if now != nil {
		now(w, h)
	}
}

// fireResize delivers the debounced resize callback with the latest size. It
// runs on the timer goroutine, not the UI thread.
func (s *Supervisor) fireResize() {
	s.mu.Lock()
	fn := s.onResize
	w, h := s.winW, s.winH
	s.mu.Unlock()
	if fn != nil {
		fn(w, h)
	}
}

func (k *windowSink) CloseRequested() bool {
	// The host observes the close through the ring and the callback; it
	// cannot veto it.
	return true
}

func (k *windowSink) Destroyed() {
	s := k.s
	s.ring.Enqueue(eventring.Event{Kind: eventring.KindClosed})
	s.diag.MarkWindowReady(false)

	s.mu.Lock()
	fn := s.onClose
	once := s.closeOnce
	s.window = nil
	s.mu.Unlock()

	if fn != nil {
		once.Do(fn)
	}
	s.log.Debug().Msg("window destroyed")

	if !s.diag.ShutdownRequested() {
		// The window closing ends the lifecycle. Shutdown runs on its own
		// goroutine so the UI thread is never the one blocking on the join.
		go s.Shutdown()
	}
}
