// Package backend defines the contract between the lifecycle core and a
// concrete GUI toolkit. A backend supplies the application runtime, windows,
// and elements; the core supplies the UI thread, marshaling, retry, and
// shutdown discipline. All backend methods are called from the UI thread
// unless documented otherwise.
package backend

import (
	"errors"
	"strconv"

	"github.com/mmngadi/go-winui3/internal/dispatch"
)

// Sentinel errors a backend uses to classify failures. The core inspects
// these to choose between retry, fallback, and giving up.
var (
	// ErrRuntimeUnavailable: this runtime version candidate cannot be
	// bootstrapped on the host. Init falls back to the next candidate.
	ErrRuntimeUnavailable = errors.New("backend: runtime unavailable")
	// ErrInterfaceNotReady: the runtime interface is not ready yet. Window
	// creation treats this as transient and retries with backoff.
	ErrInterfaceNotReady = errors.New("backend: interface not ready")
	// ErrUnsupportedParent: the parent element cannot hold children.
	ErrUnsupportedParent = errors.New("backend: parent is not a container")
	// ErrUnsupportedElement: the element kind is not provided by this
	// backend.
	ErrUnsupportedElement = errors.New("backend: unsupported element kind")
)

// Version identifies a runtime version candidate, newest first in the
// bootstrap order.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// BootstrapOrder is the sequence of version candidates tried by Init,
// newest first.
var BootstrapOrder = []Version{{1, 8}, {1, 7}, {1, 6}, {1, 5}}

// ElementKind enumerates the element archetypes the core can create.
type ElementKind int

const (
	// KindButton is a plain leaf control with content text.
	KindButton ElementKind = iota
	// KindTextBlock is a read-only text leaf.
	KindTextBlock
	// KindTextInput is an editable text leaf.
	KindTextInput
	// KindStackPanel is a list container: children append in order.
	KindStackPanel
	// KindGrid is a cell container: children attach with row metadata.
	KindGrid
	// KindContentHost is a single-child container that replaces its content.
	KindContentHost
)

func (k ElementKind) String() string {
	switch k {
	case KindButton:
		return "button"
	case KindTextBlock:
		return "textblock"
	case KindTextInput:
		return "textinput"
	case KindStackPanel:
		return "stackpanel"
	case KindGrid:
		return "grid"
	case KindContentHost:
		return "contenthost"
	default:
		return "unknown"
	}
}

// Container reports whether elements of this kind accept children.
func (k ElementKind) Container() bool {
	switch k {
	case KindStackPanel, KindGrid, KindContentHost:
		return true
	default:
		return false
	}
}

// Factory bootstraps a Runtime for one version candidate. Bootstrap runs on
// the UI thread once the supervisor's loop is up.
type Factory interface {
	// Bootstrap attempts to initialize the toolkit at the given version.
	// ErrRuntimeUnavailable means try the next candidate.
	Bootstrap(tok dispatch.Token, v Version) (Runtime, error)
}

// Runtime is a bootstrapped toolkit instance. Bootstrap and Teardown
// bracket its life; everything in between happens on the UI thread.
type Runtime interface {
	// NewWindow creates a top-level window. ErrInterfaceNotReady is
	// transient and retried by the caller.
	NewWindow(tok dispatch.Token, opts WindowOptions) (Window, error)
	// NewElement creates a detached element of the given kind.
	NewElement(tok dispatch.Token, kind ElementKind, text string) (Element, error)
	// Teardown releases bootstrap state after the loop stops. Uninit selects
	// full deinitialization; configuration may skip it.
	Teardown(uninit bool)
	// Version reports the candidate that bootstrapped this runtime.
	Version() Version
}

// WindowOptions configures window creation.
type WindowOptions struct {
	Title  string
	Width  float64
	Height float64
}

// Window is a created top-level window.
type Window interface {
	SetTitle(tok dispatch.Token, title string)
	// Resize sets the client area size. The backend adds frame insets.
	Resize(tok dispatch.Token, w, h float64)
	SetBackground(tok dispatch.Token, a, r, g, b uint8)
	// SetContent installs root as the window content, replacing any prior
	// content.
	SetContent(tok dispatch.Token, root Element) error
	// SetMinMax constrains the client size. Zero means unconstrained.
	SetMinMax(tok dispatch.Token, minW, minH, maxW, maxH float64)
	Activate(tok dispatch.Token)
	// Sink installs the event observer. Pass nil to detach.
	Sink(sink EventSink)
	Close(tok dispatch.Token)
	Destroy(tok dispatch.Token)
}

// Element is a created control.
type Element interface {
	Kind() ElementKind
	SetText(tok dispatch.Token, text string)
	Text(tok dispatch.Token) string
	// Attach adds child to this element. Row carries grid placement and is
	// ignored by other containers. Non-containers return
	// ErrUnsupportedParent.
	Attach(tok dispatch.Token, child Element, row int) error
	// Detach removes child from this element's children, matched by
	// reference identity. Reports whether a child was removed.
	Detach(tok dispatch.Token, child Element) bool
	// OnAction installs the activation callback (button click, text commit).
	OnAction(tok dispatch.Token, fn func())
	Destroy(tok dispatch.Token)
}

// EventSink receives window-level input and lifecycle events. Calls arrive
// on the UI thread; implementations must not block.
type EventSink interface {
	// Key reports a key transition. Mods carries side-specific modifier
	// bits; down is false for release.
	Key(code int32, down bool, mods int32)
	// Mouse reports a button transition at window coordinates.
	Mouse(button int32, down bool, x, y int32)
	// Resized reports the new client size.
	Resized(w, h float64)
	// CloseRequested reports the user asking to close the window. Returning
	// true lets the close proceed.
	CloseRequested() bool
	// Destroyed reports the window object going away.
	Destroyed()
}
