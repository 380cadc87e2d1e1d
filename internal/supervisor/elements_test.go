package supervisor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmngadi/go-winui3/internal/config"
	"github.com/mmngadi/go-winui3/internal/diag"
	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/internal/registry"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
	"github.com/mmngadi/go-winui3/pkg/winui/headless"
)

func readyWithWindow(t *testing.T) (*Supervisor, *captureFactory) {
	t.Helper()
	s, f := newSupervisor(t, headless.Options{})
	require.Equal(t, diag.CodeOK, s.Init())
	require.Equal(t, diag.CodeOK, s.CreateWindow("app", 640, 480))
	require.True(t, s.WaitWindowReady(time.Second))
	return s, f
}

func TestElements_CreateAndText(t *testing.T) {
	s, _ := readyWithWindow(t)

	h := s.CreateElement(backend.KindTextBlock, "hello")
	require.NotEqual(t, registry.None, h)

	text, code := s.ElementText(h)
	require.Equal(t, diag.CodeOK, code)
	assert.Equal(t, "hello", text)

	require.Equal(t, diag.CodeOK, s.SetElementText(h, "updated"))
	assert.Eventually(t, func() bool {
		text, _ := s.ElementText(h)
		return text == "updated"
	}, time.Second, 5*time.Millisecond)
}

func TestElements_TextBurstLastWriteWins(t *testing.T) {
	s, _ := readyWithWindow(t)

	h := s.CreateElement(backend.KindTextBlock, "")
	require.NotEqual(t, registry.None, h)

	for i := 0; i < 100; i++ {
		require.Equal(t, diag.CodeOK, s.SetElementText(h, "intermediate"))
	}
	require.Equal(t, diag.CodeOK, s.SetElementText(h, "final"))

	assert.Eventually(t, func() bool {
		text, _ := s.ElementText(h)
		return text == "final"
	}, time.Second, 5*time.Millisecond)
}

func TestElements_StackPanelAppendsInOrder(t *testing.T) {
	s, _ := readyWithWindow(t)

	panel := s.CreateElement(backend.KindStackPanel, "")
	first := s.CreateElement(backend.KindButton, "first")
	second := s.CreateElement(backend.KindButton, "second")

	require.Equal(t, diag.CodeOK, s.AddChild(panel, first))
	require.Equal(t, diag.CodeOK, s.AddChild(panel, second))

	el, ok := s.arena.Lookup(panel)
	require.True(t, ok)
	children := el.(*headless.Element).Children()
	require.Len(t, children, 2)
	assert.Equal(t, "first", textOf(t, s, first))
	assert.Equal(t, "second", textOf(t, s, second))
}

func textOf(t *testing.T, s *Supervisor, h registry.Handle) string {
	t.Helper()
	text, code := s.ElementText(h)
	require.Equal(t, diag.CodeOK, code)
	return text
}

func TestElements_GridAssignsRows(t *testing.T) {
	s, _ := readyWithWindow(t)

	grid := s.CreateElement(backend.KindGrid, "")
	a := s.CreateElement(backend.KindTextBlock, "a")
	b := s.CreateElement(backend.KindTextBlock, "b")
	c := s.CreateElement(backend.KindTextBlock, "c")

	require.Equal(t, diag.CodeOK, s.AddChild(grid, a))
	require.Equal(t, diag.CodeOK, s.AddChild(grid, b))
	require.Equal(t, diag.CodeOK, s.AddChild(grid, c))

	gv, ok := s.arena.Lookup(grid)
	require.True(t, ok)
	g := gv.(*headless.Element)

	av, _ := s.arena.Lookup(a)
	bv, _ := s.arena.Lookup(b)
	cv, _ := s.arena.Lookup(c)
	assert.Equal(t, 0, g.RowOf(av.(backend.Element)))
	assert.Equal(t, 1, g.RowOf(bv.(backend.Element)))
	assert.Equal(t, 2, g.RowOf(cv.(backend.Element)))
}

func TestElements_NonContainerParentRefused(t *testing.T) {
	s, _ := readyWithWindow(t)

	button := s.CreateElement(backend.KindButton, "leaf")
	child := s.CreateElement(backend.KindTextBlock, "child")

	assert.Equal(t, diag.CodeUnsupported, s.AddChild(button, child))
	// Both elements stay usable after the refused attach.
	text, code := s.ElementText(child)
	require.Equal(t, diag.CodeOK, code)
	assert.Equal(t, "child", text)
}

func TestElements_StaleHandleAfterRelease(t *testing.T) {
	s, _ := readyWithWindow(t)

	h := s.CreateElement(backend.KindButton, "x")
	require.Equal(t, diag.CodeOK, s.ReleaseElement(h))

	assert.Equal(t, diag.CodeInvalidHandle, s.SetElementText(h, "y"))
	_, code := s.ElementText(h)
	assert.Equal(t, diag.CodeInvalidHandle, code)
	assert.Equal(t, diag.CodeInvalidHandle, s.ReleaseElement(h))

	// A new element may reuse the slot; the old handle still fails.
	fresh := s.CreateElement(backend.KindButton, "fresh")
	require.NotEqual(t, registry.None, fresh)
	assert.Equal(t, diag.CodeInvalidHandle, s.SetElementText(h, "z"))
}

func TestElements_ActionCallbackFiresAndOverwrites(t *testing.T) {
	s, _ := readyWithWindow(t)

	h := s.CreateElement(backend.KindButton, "click me")
	var firstCalls, secondCalls atomic.Int32
	require.Equal(t, diag.CodeOK, s.OnElementAction(h, func() { firstCalls.Add(1) }))
	require.Equal(t, diag.CodeOK, s.OnElementAction(h, func() { secondCalls.Add(1) }))

	// Barrier: both installs have run once this returns.
	_, err := dispatch.Invoke(s.loop, func(dispatch.Token) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)

	el, ok := s.arena.Lookup(h)
	require.True(t, ok)
	el.(*headless.Element).Fire()

	assert.Equal(t, int32(1), secondCalls.Load())
	// Single slot per element: the first callback was replaced.
	assert.Zero(t, firstCalls.Load())
}

func TestElements_ContentHostReplacesContent(t *testing.T) {
	s, _ := readyWithWindow(t)

	host := s.CreateElement(backend.KindContentHost, "")
	a := s.CreateElement(backend.KindTextBlock, "a")
	b := s.CreateElement(backend.KindTextBlock, "b")

	require.Equal(t, diag.CodeOK, s.AddChild(host, a))
	require.Equal(t, diag.CodeOK, s.AddChild(host, b))

	hv, ok := s.arena.Lookup(host)
	require.True(t, ok)
	children := hv.(*headless.Element).Children()
	require.Len(t, children, 1, "content host keeps only the latest child")
}

func TestElements_SetContentAttachesRoot(t *testing.T) {
	s, f := readyWithWindow(t)

	root := s.CreateElement(backend.KindStackPanel, "")
	require.Equal(t, diag.CodeOK, s.SetContent(root))

	win := f.runtime().Windows()[0]
	assert.Eventually(t, func() bool {
		return win.Snapshot().Content != nil
	}, time.Second, 5*time.Millisecond)
}

func TestElements_ReleaseDetachesFromParent(t *testing.T) {
	s, _ := readyWithWindow(t)

	panel := s.CreateElement(backend.KindStackPanel, "")
	keep := s.CreateElement(backend.KindButton, "keep")
	drop := s.CreateElement(backend.KindButton, "drop")
	require.Equal(t, diag.CodeOK, s.AddChild(panel, keep))
	require.Equal(t, diag.CodeOK, s.AddChild(panel, drop))

	pv, ok := s.arena.Lookup(panel)
	require.True(t, ok)
	p := pv.(*headless.Element)
	dv, ok := s.arena.Lookup(drop)
	require.True(t, ok)
	dropped := dv.(*headless.Element)

	require.Equal(t, diag.CodeOK, s.ReleaseElement(drop))

	assert.Eventually(t, func() bool {
		return len(p.Children()) == 1 && dropped.Destroyed()
	}, time.Second, 5*time.Millisecond)
	// The sibling stays attached and usable.
	assert.Equal(t, "keep", textOf(t, s, keep))
}

func TestElements_ReleaseDuringShutdownSkipsDetach(t *testing.T) {
	// Raising the shutdown flag directly parks the lifecycle between the
	// shutdown request and the registry sweep, where releases must not
	// touch the element tree. No teardown ever runs here, so the helper's
	// joining cleanup is skipped and the loop is stopped by hand.
	f := &captureFactory{inner: headless.NewFactory(headless.Options{})}
	s := New(f, config.Default(), zerolog.Nop(), WithBackoffBase(time.Millisecond))
	t.Cleanup(func() {
		s.loop.Quit()
		<-s.loop.Done()
	})
	require.Equal(t, diag.CodeOK, s.Init())
	require.Equal(t, diag.CodeOK, s.CreateWindow("app", 640, 480))
	require.True(t, s.WaitWindowReady(time.Second))

	panel := s.CreateElement(backend.KindStackPanel, "")
	child := s.CreateElement(backend.KindButton, "x")
	require.Equal(t, diag.CodeOK, s.AddChild(panel, child))

	pv, ok := s.arena.Lookup(panel)
	require.True(t, ok)
	p := pv.(*headless.Element)
	cv, ok := s.arena.Lookup(child)
	require.True(t, ok)
	el := cv.(*headless.Element)

	require.True(t, s.diag.RequestShutdown())
	require.Equal(t, diag.CodeOK, s.ReleaseElement(child))

	// Only the mapping went away; the tree is left for teardown to drop
	// wholesale.
	assert.Equal(t, diag.CodeInvalidHandle, s.SetElementText(child, "y"))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, p.Children(), 1)
	assert.False(t, el.Destroyed())
}

func TestElements_ClearedOnShutdown(t *testing.T) {
	s, _ := readyWithWindow(t)

	h := s.CreateElement(backend.KindButton, "x")
	require.Equal(t, 1, s.ElementCount())

	require.Equal(t, diag.CodeOK, s.Shutdown())
	assert.Equal(t, 0, s.ElementCount())
	assert.Equal(t, diag.CodeInvalidHandle, s.SetElementText(h, "y"))
}
