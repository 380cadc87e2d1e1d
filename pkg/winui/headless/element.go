package headless

import (
	"sync"

	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
)

// Element is an in-memory control. Containers keep their children in attach
// order; grids also record the row each child landed in.
type Element struct {
	kind backend.ElementKind

	mu        sync.Mutex
	text      string
	children  []childSlot
	onAction  func()
	destroyed bool
}

type childSlot struct {
	element backend.Element
	row     int
}

func (e *Element) Kind() backend.ElementKind { return e.kind }

func (e *Element) SetText(_ dispatch.Token, text string) {
	e.mu.Lock()
	e.text = text
	e.mu.Unlock()
}

func (e *Element) Text(_ dispatch.Token) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

func (e *Element) Attach(_ dispatch.Token, child backend.Element, row int) error {
	if !e.kind.Container() {
		return backend.ErrUnsupportedParent
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind == backend.KindContentHost {
		// Single-child host: new content replaces the old.
		e.children = e.children[:0]
	}
	e.children = append(e.children, childSlot{element: child, row: row})
	return nil
}

func (e *Element) Detach(_ dispatch.Token, child backend.Element) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.children {
		if c.element == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Element) OnAction(_ dispatch.Token, fn func()) {
	e.mu.Lock()
	e.onAction = fn
	e.mu.Unlock()
}

func (e *Element) Destroy(_ dispatch.Token) {
	e.mu.Lock()
	e.destroyed = true
	e.onAction = nil
	e.children = nil
	e.mu.Unlock()
}

// Fire invokes the element's action callback, as a click or commit would.
func (e *Element) Fire() {
	e.mu.Lock()
	fn := e.onAction
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Children returns the attached children in attach order.
func (e *Element) Children() []backend.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]backend.Element, len(e.children))
	for i, c := range e.children {
		out[i] = c.element
	}
	return out
}

// RowOf returns the grid row recorded for child, or -1 if child is not
// attached here.
func (e *Element) RowOf(child backend.Element) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.children {
		if c.element == child {
			return c.row
		}
	}
	return -1
}

// Destroyed reports whether Destroy ran.
func (e *Element) Destroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}
