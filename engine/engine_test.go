package engine

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-harness/engine/config"
	"github.com/Carmen-Shannon/oxy-harness/engine/logging"
	"github.com/Carmen-Shannon/oxy-harness/engine/renderer"
	"github.com/Carmen-Shannon/oxy-harness/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runTimeout = 2 * time.Second

func fakeSPIRV(string) ([]byte, error) {
	return []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}, nil
}

type harness struct {
	engine  Engine
	window  window.Window
	sim     window.Simulator
	backend *renderer.HeadlessBackend
}

func newHarness(t *testing.T, options ...EngineBuilderOption) *harness {
	t.Helper()
	win, err := window.NewWindow(window.WindowTypeHeadless, window.WithWidth(320), window.WithHeight(240))
	require.NoError(t, err)

	backend := renderer.NewHeadlessBackend()
	opts := append([]EngineBuilderOption{
		WithWindow(win),
		WithBackendType(renderer.BackendTypeHeadless),
		WithRendererOptions(renderer.WithBackend(backend), renderer.WithShaderCompiler(fakeSPIRV)),
		WithFrameBudget(16 * time.Millisecond),
		WithMainTick(5 * time.Millisecond),
	}, options...)

	return &harness{
		engine:  NewEngine(opts...),
		window:  win,
		sim:     win.(window.Simulator),
		backend: backend,
	}
}

// start runs the engine on its own goroutine, standing in for the main thread.
func (h *harness) start() <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.engine.Run() }()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(runTimeout):
		t.Fatal("engine did not stop")
		return nil
	}
}

func TestQuitStopsWithinTwoFrames(t *testing.T) {
	h := newHarness(t)
	done := h.start()

	require.Eventually(t, func() bool { return h.engine.Frames() >= 5 }, runTimeout, time.Millisecond)
	atQuit := h.engine.Frames()
	h.engine.Quit()

	require.NoError(t, waitRun(t, done))
	assert.LessOrEqual(t, h.engine.Frames(), atQuit+2)
	assert.True(t, h.window.ShouldClose())
	assert.True(t, h.backend.Released())
	assert.False(t, h.engine.Coordinator().Main().Active())
	assert.False(t, h.engine.Coordinator().Render().Active())
}

func TestWindowCloseStopsRenderLoop(t *testing.T) {
	h := newHarness(t)
	done := h.start()

	require.Eventually(t, func() bool { return h.engine.Frames() >= 2 }, runTimeout, time.Millisecond)
	h.sim.SimulateClose()

	require.NoError(t, waitRun(t, done))
	assert.True(t, h.backend.Released())
	assert.True(t, h.engine.Coordinator().ShutdownRequested())
	assert.True(t, h.engine.Coordinator().WindowCloseRequested())
}

func TestFrameFailureEndsRun(t *testing.T) {
	h := newHarness(t)
	lost := errors.New("device lost")
	h.backend.FailWith(func(call string, frame int) error {
		if call == "present" && frame == 3 {
			return lost
		}
		return nil
	})

	err := waitRun(t, h.start())

	require.ErrorIs(t, err, lost)
	assert.Equal(t, uint64(2), h.engine.Frames())
	assert.True(t, h.window.ShouldClose(), "main goroutine closes the window after the render loop fails")
	assert.True(t, h.backend.Released())
}

func TestResizeAppliedOnRenderGoroutine(t *testing.T) {
	h := newHarness(t)
	done := h.start()

	require.Eventually(t, func() bool { return h.engine.Frames() >= 1 }, runTimeout, time.Millisecond)
	h.sim.SimulateResize(800, 600)

	require.Eventually(t, func() bool {
		w, ht := h.backend.Size()
		return w == 800 && ht == 600
	}, runTimeout, time.Millisecond)

	h.engine.Quit()
	require.NoError(t, waitRun(t, done))
}

func TestQuitBeforeRunIsObserved(t *testing.T) {
	h := newHarness(t)
	h.engine.Quit()

	require.NoError(t, waitRun(t, h.start()))
	assert.Zero(t, h.engine.Frames())
	assert.True(t, h.backend.Released())
}

func TestRunTwice(t *testing.T) {
	h := newHarness(t)
	h.engine.Quit()
	require.NoError(t, waitRun(t, h.start()))

	assert.ErrorIs(t, h.engine.Run(), ErrAlreadyRunning)
}

func TestInvalidConfigFailsRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mode = "cube"
	h := newHarness(t, WithConfig(&cfg))

	err := waitRun(t, h.start())

	var verr config.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, h.backend.Frames())
}

func TestQuadSceneLoadsTexture(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 16))
	for x := range 64 {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "wide.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	h := newHarness(t, WithSceneMode(renderer.SceneModeTexturedQuad), WithTexture(path, true))
	done := h.start()

	require.Eventually(t, func() bool { return h.engine.Frames() >= 1 }, runTimeout, time.Millisecond)
	h.engine.Quit()
	require.NoError(t, waitRun(t, done))

	scene := h.backend.Scene()
	require.NotNil(t, scene)
	assert.Equal(t, renderer.SceneModeTexturedQuad, scene.Mode)
	assert.Equal(t, uint32(64), scene.Texture.Width)
	assert.Equal(t, uint32(16), scene.Texture.Height)
	// 4:1 image on a 4:3 surface spans the width and a third of the height.
	assert.InDelta(t, 1.0, scene.Geometry[2], 1e-6)
	assert.InDelta(t, 1.0/3.0, scene.Geometry[1], 1e-6)
}

func TestMissingTextureFailsSetup(t *testing.T) {
	h := newHarness(t,
		WithSceneMode(renderer.SceneModeTexturedQuad),
		WithTexture(filepath.Join(t.TempDir(), "missing.png"), false),
	)

	err := waitRun(t, h.start())
	assert.ErrorContains(t, err, "load texture")
	assert.Nil(t, h.backend.Scene())
}

func TestWindowErrorsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.New(&buf, slog.LevelInfo))
	t.Cleanup(func() { logging.SetLogger(prev) })

	h := newHarness(t)
	h.sim.SimulateError(65544, "platform unavailable")
	done := h.start()

	require.Eventually(t, func() bool { return h.sim.Polls() >= 2 }, runTimeout, time.Millisecond)
	h.engine.Quit()
	require.NoError(t, waitRun(t, done))

	assert.Contains(t, buf.String(), "GLFW error: 65544 - platform unavailable")
}

func TestQuitDuringTextureFetchEndsSetup(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	h := newHarness(t, WithSceneMode(renderer.SceneModeTexturedQuad), WithTexture(srv.URL+"/slow.png", false))
	done := h.start()

	select {
	case <-arrived:
	case <-time.After(runTimeout):
		t.Fatal("texture request never reached the server")
	}
	h.engine.Quit()

	require.NoError(t, waitRun(t, done))
	assert.Nil(t, h.backend.Scene())
	assert.Zero(t, h.engine.Frames())
}

func TestZeroFrameBudgetMeansDefault(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FrameBudget = 0

	fromConfig := NewEngine(WithConfig(&cfg)).(*engine)
	fromOption := NewEngine(WithFrameBudget(0)).(*engine)

	assert.NoError(t, fromConfig.configErr)
	assert.Equal(t, DefaultFrameBudget, fromConfig.frameBudget)
	assert.Equal(t, fromOption.frameBudget, fromConfig.frameBudget)
}
