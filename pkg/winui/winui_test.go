package winui_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmngadi/go-winui3/internal/config"
	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/internal/supervisor"
	"github.com/mmngadi/go-winui3/pkg/winui"
	"github.com/mmngadi/go-winui3/pkg/winui/backend"
	"github.com/mmngadi/go-winui3/pkg/winui/headless"
)

// captureFactory keeps the bootstrapped headless runtime reachable so tests
// can inject events.
type captureFactory struct {
	inner *headless.Factory

	mu sync.Mutex
	rt *headless.Runtime
}

func (f *captureFactory) Bootstrap(tok dispatch.Token, v backend.Version) (backend.Runtime, error) {
	rt, err := f.inner.Bootstrap(tok, v)
	if err == nil {
		f.mu.Lock()
		f.rt = rt.(*headless.Runtime)
		f.mu.Unlock()
	}
	return rt, err
}

func (f *captureFactory) runtime() *headless.Runtime {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rt
}

func newUI(t *testing.T, opts headless.Options) (*winui.UI, *captureFactory) {
	t.Helper()
	f := &captureFactory{inner: headless.NewFactory(opts)}
	log := zerolog.Nop()
	ui, err := winui.New(winui.Options{
		Factory: f,
		Logger:  &log,
		Config:  config.Default(),
		SupervisorOptions: []supervisor.Option{
			supervisor.WithBackoffBase(time.Millisecond),
			supervisor.WithExitFunc(func(int) {}),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { ui.Shutdown() })
	return ui, f
}

func TestUI_FullLifecycle(t *testing.T) {
	ui, _ := newUI(t, headless.Options{})

	require.Equal(t, winui.ResultOK, ui.Init())
	assert.Equal(t, winui.StateReady, ui.State())

	require.Equal(t, winui.ResultOK, ui.CreateWindowAndWait("demo", 640, 480, time.Second))

	root := ui.CreateElement(winui.StackPanel, "")
	require.NotEqual(t, winui.NoHandle, root)
	label := ui.CreateElement(winui.TextBlock, "hello")
	require.Equal(t, winui.ResultOK, ui.AddChild(root, label))
	require.Equal(t, winui.ResultOK, ui.SetContent(root))

	text, code := ui.Text(label)
	require.Equal(t, winui.ResultOK, code)
	assert.Equal(t, "hello", text)

	require.Equal(t, winui.ResultOK, ui.Shutdown())
	assert.Equal(t, winui.StateStopped, ui.State())
}

func TestUI_ResultSurfaceOnFailure(t *testing.T) {
	ui, _ := newUI(t, headless.Options{
		Accept: func(backend.Version) bool { return false },
	})

	require.Equal(t, winui.ResultBootstrapFailed, ui.Init())
	code, msg := ui.LastResult()
	assert.Equal(t, winui.ResultBootstrapFailed, code)
	assert.NotEmpty(t, msg)
}

func TestUI_PollEventsDrainsInjectedInput(t *testing.T) {
	ui, f := newUI(t, headless.Options{})
	require.Equal(t, winui.ResultOK, ui.Init())
	require.Equal(t, winui.ResultOK, ui.CreateWindowAndWait("demo", 640, 480, time.Second))

	win := f.runtime().Windows()[0]
	win.InjectKey(72, true, winui.ModLControl)
	win.InjectMouse(1, true, 10, 20)

	buf := make([]winui.Event, winui.EventBufferSize)
	var events []winui.Event
	require.Eventually(t, func() bool {
		n, _ := ui.PollEvents(buf)
		events = append(events, buf[:n]...)
		return len(events) >= 3
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(winui.EventCreated), events[0].Kind)
	assert.Equal(t, int32(winui.EventKey), events[1].Kind)
	assert.Equal(t, int32(winui.EventMouse), events[2].Kind)
	assert.Zero(t, ui.DroppedEvents())
}

func TestUI_CloseCallbackOnce(t *testing.T) {
	ui, f := newUI(t, headless.Options{})
	require.Equal(t, winui.ResultOK, ui.Init())
	require.Equal(t, winui.ResultOK, ui.CreateWindowAndWait("demo", 640, 480, time.Second))

	var calls atomic.Int32
	ui.OnClose(func() { calls.Add(1) })

	win := f.runtime().Windows()[0]
	win.InjectClose(dispatch.Token{})
	win.InjectClose(dispatch.Token{})

	assert.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUI_DiagnosticSurface(t *testing.T) {
	ui, f := newUI(t, headless.Options{})

	assert.False(t, ui.WindowExists())
	assert.False(t, ui.WindowReady())
	snap := ui.Snapshot()
	assert.False(t, snap.Ready)

	require.Equal(t, winui.ResultOK, ui.Init())
	require.Equal(t, winui.ResultOK, ui.CreateWindowAndWait("demo", 640, 480, time.Second))

	assert.True(t, ui.WindowExists())
	assert.True(t, ui.WindowReady())
	w, h := ui.WindowSize()
	assert.Equal(t, float64(640), w)
	assert.Equal(t, float64(480), h)

	ui.CreateElement(winui.Button, "ok")
	snap = ui.Snapshot()
	assert.True(t, snap.Ready)
	assert.False(t, snap.ShuttingDown)
	assert.Equal(t, 1, snap.Elements)

	win := f.runtime().Windows()[0]
	win.Resize(dispatch.Token{}, 1024, 768)
	assert.Eventually(t, func() bool {
		w, h := ui.WindowSize()
		return w == 1024 && h == 768
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, winui.ResultOK, ui.Shutdown())
	assert.False(t, ui.WindowExists())
	snap = ui.Snapshot()
	assert.False(t, snap.Ready)
	assert.False(t, snap.ShuttingDown)
	assert.Zero(t, snap.Elements)
}

func TestUI_InputCallbackSeesRingEvents(t *testing.T) {
	ui, f := newUI(t, headless.Options{})
	require.Equal(t, winui.ResultOK, ui.Init())
	require.Equal(t, winui.ResultOK, ui.CreateWindowAndWait("demo", 640, 480, time.Second))

	var mu sync.Mutex
	var seen []winui.Event
	ui.OnInput(func(ev winui.Event) {
		mu.Lock()
		seen = append(seen, ev)
		mu.Unlock()
	})

	win := f.runtime().Windows()[0]
	win.InjectKey(13, true, 0)
	win.InjectMouse(1, false, 3, 4)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(winui.EventKey), seen[0].Kind)
	assert.Equal(t, int32(13), seen[0].Code)
	assert.Equal(t, int32(winui.EventMouse), seen[1].Kind)
	assert.Equal(t, int32(winui.ActionUp), seen[1].Action)
}

func TestUI_RequestCloseFiresCloseCallback(t *testing.T) {
	ui, _ := newUI(t, headless.Options{})

	require.Equal(t, winui.ResultNotReady, ui.RequestClose())

	require.Equal(t, winui.ResultOK, ui.Init())
	require.Equal(t, winui.ResultOK, ui.CreateWindowAndWait("demo", 640, 480, time.Second))

	var calls atomic.Int32
	ui.OnClose(func() { calls.Add(1) })

	require.Equal(t, winui.ResultOK, ui.RequestClose())
	assert.Eventually(t, func() bool {
		return calls.Load() == 1 && !ui.WindowExists()
	}, time.Second, 5*time.Millisecond)
}

func TestUI_BeginShutdownAsync(t *testing.T) {
	ui, _ := newUI(t, headless.Options{})
	require.Equal(t, winui.ResultOK, ui.Init())

	select {
	case r := <-ui.BeginShutdownAsync():
		assert.Equal(t, winui.ResultOK, r)
	case <-time.After(2 * time.Second):
		t.Fatal("async shutdown did not complete")
	}
}

func TestColor_PackRoundtrip(t *testing.T) {
	c := winui.ARGB(0x80, 0x11, 0x22, 0x33)
	assert.Equal(t, uint32(0x80112233), c.Packed())
	assert.Equal(t, c, winui.FromPacked(0x80112233))
	assert.Equal(t, uint8(0xff), winui.RGB(1, 2, 3).A)
}

func TestInputState_TracksKeysAndMouse(t *testing.T) {
	st := winui.NewInputState()

	st.Feed(winui.Event{Kind: winui.EventKey, Code: 65, Action: winui.ActionDown, Mods: winui.ModLShift | winui.ModRAlt})
	assert.True(t, st.KeyDown(65))
	assert.True(t, st.ShiftDown())
	assert.True(t, st.AltDown())
	assert.False(t, st.ControlDown())

	st.Feed(winui.Event{Kind: winui.EventKey, Code: 65, Action: winui.ActionUp})
	assert.False(t, st.KeyDown(65))

	st.Feed(winui.Event{Kind: winui.EventMouse, Code: 2, Action: winui.ActionDown, X: 5, Y: 9})
	assert.True(t, st.ButtonDown(2))
	x, y := st.MousePos()
	assert.Equal(t, int32(5), x)
	assert.Equal(t, int32(9), y)

	// Non-input events pass through untouched.
	st.Feed(winui.Event{Kind: winui.EventResize, W: 1, H: 1})
	assert.True(t, st.ButtonDown(2))
}

func TestInputState_FrameTransitions(t *testing.T) {
	st := winui.NewInputState()

	st.Feed(winui.Event{Kind: winui.EventKey, Code: 65, Action: winui.ActionDown})
	st.Feed(winui.Event{Kind: winui.EventKey, Code: 66, Action: winui.ActionDown})
	assert.True(t, st.KeyPressed(65))
	assert.Equal(t, []int32{65, 66}, st.PressedKeys())

	// A down event for a held key is a repeat, not a fresh press.
	st.Feed(winui.Event{Kind: winui.EventKey, Code: 65, Action: winui.ActionDown})
	assert.True(t, st.KeyRepeated(65))
	assert.Equal(t, []int32{65, 66}, st.PressedKeys())

	st.Feed(winui.Event{Kind: winui.EventResize, W: 300, H: 200})
	resized, w, h := st.WasResized()
	assert.True(t, resized)
	assert.Equal(t, float64(300), w)
	assert.Equal(t, float64(200), h)

	st.ResetTransitions()
	assert.False(t, st.KeyPressed(65))
	assert.False(t, st.KeyRepeated(65))
	assert.Empty(t, st.PressedKeys())
	resized, _, _ = st.WasResized()
	assert.False(t, resized)
	// Held state survives the frame boundary.
	assert.True(t, st.KeyDown(65))

	st.Feed(winui.Event{Kind: winui.EventKey, Code: 65, Action: winui.ActionUp})
	assert.True(t, st.KeyReleased(65))
	assert.False(t, st.KeyDown(65))

	st.Feed(winui.Event{Kind: winui.EventMouse, Code: 1, Action: winui.ActionDown})
	assert.True(t, st.ButtonPressed(1))
	st.ResetTransitions()
	st.Feed(winui.Event{Kind: winui.EventMouse, Code: 1, Action: winui.ActionUp})
	assert.True(t, st.ButtonReleased(1))
	assert.False(t, st.ButtonPressed(1))
}
