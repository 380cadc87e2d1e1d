package supervisor

import (
	"errors"
	"strconv"

	"github.com/mmngadi/go-winui3/internal/diag"
	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/internal/registry"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
)

// CreateElement creates a detached element on the UI thread and registers it,
// returning its handle. The zero handle means failure; the result registry
// carries the reason.
func (s *Supervisor) CreateElement(kind backend.ElementKind, text string) registry.Handle {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		s.fail(diag.CodeNotReady, "runtime not initialized")
		return registry.None
	}
	loop := s.loop
	rt := s.runtime
	s.mu.Unlock()

	el, err := dispatch.Invoke(loop, func(tok dispatch.Token) (backend.Element, error) {
		return rt.NewElement(tok, kind, text)
	})
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrUnsupportedElement):
			s.fail(diag.CodeUnsupported, "element kind not supported: "+kind.String())
		case errors.Is(err, dispatch.ErrPanicked):
			s.fail(diag.CodeInternal, err.Error())
		default:
			s.fail(diag.CodeCreateFailed, "element creation failed: "+err.Error())
		}
		return registry.None
	}

	h := s.arena.Register(el)
	s.ok()
	return h
}

// lookupElement resolves a handle, recording InvalidHandle on failure.
func (s *Supervisor) lookupElement(h registry.Handle) (backend.Element, bool) {
	v, ok := s.arena.Lookup(h)
	if !ok {
		s.fail(diag.CodeInvalidHandle, "stale or unknown element handle")
		return nil, false
	}
	return v.(backend.Element), true
}

// AddChild attaches child to parent. Grid parents assign the child the next
// free row; other containers append. Non-container parents fail with
// Unsupported and leave both elements untouched.
func (s *Supervisor) AddChild(parent, child registry.Handle) diag.Code {
	p, ok := s.lookupElement(parent)
	if !ok {
		return diag.CodeInvalidHandle
	}
	c, ok := s.lookupElement(child)
	if !ok {
		return diag.CodeInvalidHandle
	}
	if !p.Kind().Container() {
		return s.fail(diag.CodeUnsupported, "parent cannot hold children: "+p.Kind().String())
	}

	row := 0
	if p.Kind() == backend.KindGrid {
		s.arena.UpdateMeta(parent, func(m *registry.Meta) {
			row = m.NextRow
			m.NextRow++
		})
	}

	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop == nil {
		return s.fail(diag.CodeNotReady, "runtime not initialized")
	}

	_, err := dispatch.Invoke(loop, func(tok dispatch.Token) (struct{}, error) {
		return struct{}{}, p.Attach(tok, c, row)
	})
	if err != nil {
		if errors.Is(err, backend.ErrUnsupportedParent) {
			return s.fail(diag.CodeUnsupported, "parent cannot hold children")
		}
		return s.fail(diag.CodeInternal, err.Error())
	}
	s.arena.UpdateMeta(child, func(m *registry.Meta) { m.Parent = parent })
	return s.ok()
}

// SetElementText updates an element's text, fire-and-forget with last write
// winning per element.
func (s *Supervisor) SetElementText(h registry.Handle, text string) diag.Code {
	el, ok := s.lookupElement(h)
	if !ok {
		return diag.CodeInvalidHandle
	}
	s.mu.Lock()
	coalescer := s.coalescer
	s.mu.Unlock()
	if coalescer == nil {
		return s.fail(diag.CodeNotReady, "runtime not initialized")
	}
	coalescer.Post("element-text-"+handleKey(h), func(tok dispatch.Token) {
		el.SetText(tok, text)
	})
	return s.ok()
}

// ElementText reads an element's text synchronously from the UI thread.
func (s *Supervisor) ElementText(h registry.Handle) (string, diag.Code) {
	el, ok := s.lookupElement(h)
	if !ok {
		return "", diag.CodeInvalidHandle
	}
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop == nil {
		return "", s.fail(diag.CodeNotReady, "runtime not initialized")
	}
	text, err := dispatch.Invoke(loop, func(tok dispatch.Token) (string, error) {
		return el.Text(tok), nil
	})
	if err != nil {
		return "", s.fail(diag.CodeInternal, err.Error())
	}
	return text, s.ok()
}

// OnElementAction installs the element's activation callback. One slot per
// element; a new registration replaces the old.
func (s *Supervisor) OnElementAction(h registry.Handle, fn func()) diag.Code {
	el, ok := s.lookupElement(h)
	if !ok {
		return diag.CodeInvalidHandle
	}
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop == nil {
		return s.fail(diag.CodeNotReady, "runtime not initialized")
	}
	loop.Post(func(tok dispatch.Token) {
		el.OnAction(tok, fn)
	})
	return s.ok()
}

// SetContent installs the element as the window's content root.
func (s *Supervisor) SetContent(h registry.Handle) diag.Code {
	el, ok := s.lookupElement(h)
	if !ok {
		return diag.CodeInvalidHandle
	}
	win := s.liveWindow()
	if win == nil {
		return s.fail(diag.CodeNotReady, "no window to attach content to")
	}
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	_, err := dispatch.Invoke(loop, func(tok dispatch.Token) (struct{}, error) {
		return struct{}{}, win.SetContent(tok, el)
	})
	if err != nil {
		return s.fail(diag.CodeInternal, err.Error())
	}
	return s.ok()
}

// ReleaseElement destroys the element and invalidates its handle. Further
// use of the handle reports InvalidHandle. A released element is first
// detached from whatever container holds it; during shutdown only the
// mapping is removed, since the whole tree is about to be torn down anyway.
func (s *Supervisor) ReleaseElement(h registry.Handle) diag.Code {
	el, ok := s.lookupElement(h)
	if !ok {
		return diag.CodeInvalidHandle
	}
	meta, _ := s.arena.MetaOf(h)
	s.arena.Release(h)

	if s.diag.ShutdownRequested() && !s.diag.ShutdownFinished() {
		return s.ok()
	}

	var parent backend.Element
	if meta.Parent != registry.None {
		if pv, ok := s.arena.Lookup(meta.Parent); ok {
			parent = pv.(backend.Element)
		}
	}
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop != nil {
		loop.Post(func(tok dispatch.Token) {
			if parent != nil {
				parent.Detach(tok, el)
			}
			el.Destroy(tok)
		})
	}
	return s.ok()
}

// ElementCount reports the number of live element handles.
func (s *Supervisor) ElementCount() int { return s.arena.Count() }

func handleKey(h registry.Handle) string {
	return strconv.FormatUint(uint64(h), 16)
}
