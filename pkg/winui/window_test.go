package winui_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmngadi/go-winui3/internal/dispatch"
	"github.com/mmngadi/go-winui3/pkg/winui"
	"github.com/mmngadi/go-winui3/pkg/winui/headless"
)

func TestWindowContext_TypedAccess(t *testing.T) {
	ui, _ := newUI(t, headless.Options{})
	w := winui.NewWindow(ui, "ctx", 100, 100)
	ctx := w.Context()

	ctx.Set("count", 42)
	ctx.Set("name", "demo")

	n, ok := winui.Ctx[int](ctx, "count")
	require.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = winui.Ctx[string](ctx, "count")
	assert.False(t, ok, "wrong type must not match")

	_, ok = winui.Ctx[int](ctx, "absent")
	assert.False(t, ok)

	assert.Equal(t, "demo", winui.MustCtx[string](ctx, "name"))
	assert.Panics(t, func() { winui.MustCtx[int](ctx, "absent") })
}

func TestWindow_RunDispatchesLifecycleHooks(t *testing.T) {
	ui, f := newUI(t, headless.Options{})
	require.Equal(t, winui.ResultOK, ui.Init())

	w := winui.NewWindow(ui, "hooks", 320, 240)

	var created, started, updated, stopped, destroyed atomic.Int32
	w.OnCreate = func(ctx *winui.WindowContext) {
		ctx.Set("ready", true)
		created.Add(1)
	}
	w.OnStart = func(ctx *winui.WindowContext) {
		assert.True(t, winui.MustCtx[bool](ctx, "ready"))
		started.Add(1)
	}
	w.OnUpdate = func(*winui.WindowContext, *winui.InputState) { updated.Add(1) }
	w.OnStop = func(*winui.WindowContext) { stopped.Add(1) }
	w.OnDestroy = func(*winui.WindowContext) { destroyed.Add(1) }

	done := make(chan winui.Result, 1)
	go func() { done <- w.Run(240) }()

	// Let a few frames pass, then close the window.
	require.Eventually(t, func() bool { return updated.Load() > 2 }, 2*time.Second, 5*time.Millisecond)
	f.runtime().Windows()[0].InjectClose(dispatch.Token{})

	select {
	case r := <-done:
		assert.Equal(t, winui.ResultOK, r)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after close")
	}

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, int32(1), stopped.Load())
	assert.Equal(t, int32(1), destroyed.Load())
}

func TestWindow_FrameClock(t *testing.T) {
	ui, f := newUI(t, headless.Options{})
	require.Equal(t, winui.ResultOK, ui.Init())

	w := winui.NewWindow(ui, "clock", 100, 100)
	var frames atomic.Int32
	w.OnUpdate = func(*winui.WindowContext, *winui.InputState) { frames.Add(1) }

	assert.Zero(t, w.Time(), "clock idle before Run")

	done := make(chan winui.Result, 1)
	go func() { done <- w.Run(240) }()

	require.Eventually(t, func() bool { return frames.Load() > 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Greater(t, w.FPS(), 0.0)
	assert.Greater(t, w.FrameTime(), time.Duration(0))
	assert.Greater(t, w.Time(), time.Duration(0))

	// Retargeting mid-run keeps the loop alive.
	w.SetTargetFPS(120)
	before := frames.Load()
	require.Eventually(t, func() bool { return frames.Load() > before }, 2*time.Second, 5*time.Millisecond)

	f.runtime().Windows()[0].InjectClose(dispatch.Token{})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after close")
	}
}

func TestWindow_RunReportsCreateFailure(t *testing.T) {
	ui, _ := newUI(t, headless.Options{TransientWindowFailures: 100})
	require.Equal(t, winui.ResultOK, ui.Init())

	w := winui.NewWindow(ui, "never", 320, 240)
	assert.Equal(t, winui.ResultGivingUp, w.Run(60))
}

func TestWindow_ResizeHookAndPause(t *testing.T) {
	ui, f := newUI(t, headless.Options{})
	require.Equal(t, winui.ResultOK, ui.Init())

	w := winui.NewWindow(ui, "resize", 320, 240)

	var paused, resumed atomic.Int32
	var lastW, lastH atomic.Uint64
	w.OnResized = func(_ *winui.WindowContext, width, height float64) {
		lastW.Store(uint64(width))
		lastH.Store(uint64(height))
	}
	w.OnPause = func(*winui.WindowContext) { paused.Add(1) }
	w.OnResume = func(*winui.WindowContext) { resumed.Add(1) }

	done := make(chan winui.Result, 1)
	go func() { done <- w.Run(240) }()

	require.Eventually(t, func() bool {
		return ui.State() == winui.StateReady && len(f.runtime().Windows()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	win := f.runtime().Windows()[0]

	ui.SetSize(500, 400)
	require.Eventually(t, func() bool {
		return lastW.Load() == 500 && lastH.Load() == 400
	}, 2*time.Second, 5*time.Millisecond)

	// Minimize (zero client area) pauses, restore resumes.
	win.Resize(dispatch.Token{}, 0, 0)
	require.Eventually(t, func() bool { return paused.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	win.Resize(dispatch.Token{}, 500, 400)
	require.Eventually(t, func() bool { return resumed.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	win.InjectClose(dispatch.Token{})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after close")
	}
}
