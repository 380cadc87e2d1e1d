package supervisor

import (
	"time"

	"github.com/mmngadi/go-winui3/internal/diag"
	"github.com/mmngadi/go-winui3/internal/dispatch"
)

// Shutdown tears the lifecycle down in order: window, elements, loop,
// runtime. The first caller performs the teardown; concurrent callers
// re-nudge the loop and then block until that teardown completes, so every
// caller returns to a torn-down lifecycle. Callers after completion take the
// fast path. A watchdog bounds the teardown and forcibly exits the process
// if it hangs.
func (s *Supervisor) Shutdown() diag.Code {
	if !s.diag.RequestShutdown() {
		if s.diag.ShutdownFinished() {
			return s.ok()
		}
		// Teardown in flight elsewhere. Re-nudge the loop in case the first
		// caller's exit request was swallowed by the backend, then join.
		s.mu.Lock()
		loop := s.loop
		done := s.shutdownDone
		s.mu.Unlock()
		if loop != nil {
			loop.Quit()
		}
		<-done
		return s.ok()
	}

	s.teardown()
	return s.ok()
}

func (s *Supervisor) teardown() {
	s.log.Info().Int64("seq", s.diag.NextSeq()).Msg("shutdown requested")

	s.mu.Lock()
	s.state = StateShuttingDown
	loop := s.loop
	rt := s.runtime
	win := s.window
	coalescer := s.coalescer
	closeFn := s.onClose
	closeOnce := s.closeOnce
	joined := s.shutdownDone
	// Resize and input callbacks stop firing from this point on.
	s.onResize = nil
	s.onResizeNow = nil
	s.onInput = nil
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
		s.resizeTimer = nil
	}
	s.mu.Unlock()

	watchdog := time.AfterFunc(s.watchdog, func() {
		s.log.Error().Dur("timeout", s.watchdog).Msg("shutdown watchdog fired, exiting process")
		s.exitFn(0)
	})
	defer watchdog.Stop()

	if coalescer != nil {
		coalescer.Destroy()
	}

	if win != nil && loop != nil {
		done := make(chan struct{})
		posted := loop.Post(func(tok dispatch.Token) {
			win.Sink(nil)
			win.SetContent(tok, nil)
			win.Destroy(tok)
			close(done)
		})
		if posted {
			<-done
		}
		s.mu.Lock()
		s.window = nil
		s.mu.Unlock()
		s.diag.MarkWindowReady(false)
		s.log.Info().Int64("seq", s.diag.NextSeq()).Msg("window destroyed")
	}

	if n := s.arena.Count(); n > 0 {
		s.arena.Clear()
		s.log.Info().Int64("seq", s.diag.NextSeq()).Int("elements", n).Msg("element registry cleared")
	}

	if loop != nil {
		loop.Quit()
		<-loop.Done()
		s.log.Info().Int64("seq", s.diag.NextSeq()).Msg("ui loop stopped")
	}

	if rt != nil {
		uninit := s.cfg.EnableBootstrapShutdown && !s.cfg.SkipUninit
		rt.Teardown(uninit)
		s.log.Info().Int64("seq", s.diag.NextSeq()).Bool("uninit", uninit).Msg("runtime torn down")
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	s.diag.SetLast(diag.CodeOK, "shutdown complete")
	s.diag.MarkShutdownFinished()
	s.log.Info().Int64("seq", s.diag.NextSeq()).Msg("shutdown complete")

	// The close notification fires exactly once per lifecycle, whether the
	// window closed interactively or the host called Shutdown directly.
	if closeFn != nil {
		closeOnce.Do(closeFn)
	}

	// Release any concurrent Shutdown callers joined on this cycle.
	close(joined)
}
