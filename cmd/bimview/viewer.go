package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/ironblock/bim-demo/internal/config"
	"github.com/ironblock/bim-demo/internal/engine/camera"
	"github.com/ironblock/bim-demo/internal/engine/debug"
	"github.com/ironblock/bim-demo/internal/engine/glsink"
	"github.com/ironblock/bim-demo/internal/engine/input"
	"github.com/ironblock/bim-demo/internal/engine/picking"
	"github.com/ironblock/bim-demo/internal/engine/window"
	"github.com/ironblock/bim-demo/internal/logger"
	"github.com/ironblock/bim-demo/internal/scene"
	"github.com/ironblock/bim-demo/internal/source"
	"github.com/ironblock/bim-demo/pkg/formats"
	"github.com/ironblock/bim-demo/pkg/math"
)

// clickSlop is how far the pointer may move between press and release for
// the release to count as a pick.
const clickSlop = 4

type viewer struct {
	cfg    *config.Config
	log    *zap.Logger
	win    *window.Window
	sink   *glsink.Sink
	input  *input.Input
	cam    *camera.OrbitCamera
	loader *scene.Loader
	opts   scene.Options

	overlay   *debug.Overlay
	shots     *debug.Screenshots
	selection *math.Box3

	model     *source.Model
	modelName string
	lastPct   int

	pressX, pressY int
	dragged        bool
}

func newViewer(cfg *config.Config) (*viewer, error) {
	opts, err := cfg.Build.SceneOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger.Named("builder")

	win, err := window.New(window.Config{
		Title:      "bimview",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, logger.Named("window"))
	if err != nil {
		return nil, err
	}

	sink, err := glsink.New(logger.Named("glsink"))
	if err != nil {
		win.Close()
		return nil, err
	}

	overlay, err := debug.NewOverlay()
	if err != nil {
		sink.Destroy()
		win.Close()
		return nil, err
	}
	overlay.Enabled = false

	v := &viewer{
		cfg:   cfg,
		log:   logger.Named("viewer"),
		win:   win,
		sink:  sink,
		input: input.New(),
		cam:   camera.NewOrbitCamera(),
		opts:  opts,

		overlay: overlay,
		shots:   debug.NewScreenshots("screenshots", "bimview"),
	}
	v.loader = scene.NewLoader(sink, opts)
	return v, nil
}

// open starts building the model at path, discarding any build in flight.
// An empty path loads a generated sample.
func (v *viewer) open(path string) error {
	var model *source.Model
	if path == "" {
		pld, err := formats.Generate(formats.DefaultGenerateOptions())
		if err != nil {
			return err
		}
		model = source.New(pld)
		v.modelName = pld.Name
	} else {
		m, err := source.Open(path)
		if err != nil {
			return err
		}
		model = m
		v.modelName = filepath.Base(path)
	}

	// Z-up dumps override the configured conversion
	opts := v.opts
	opts.Axis = model.Axis(v.opts.Axis)
	v.loader.SetOptions(opts)

	v.model = model
	v.lastPct = -1
	v.clearSelection()
	b := v.loader.Begin(model.Placements(), model)
	v.log.Info("loading model",
		zap.String("model", v.modelName),
		zap.Int("groups", b.Total()),
		zap.Stringer("axis", opts.Axis))
	return nil
}

// Run is the frame loop.
func (v *viewer) Run() error {
	if err := v.open(v.cfg.Data.ModelPath); err != nil {
		return err
	}

	for {
		if v.input.Update() {
			return nil
		}
		for _, e := range v.input.Events() {
			v.handleEvent(e)
		}
		v.handleKeys()

		if v.loader.Busy() {
			res := v.loader.Advance(v.cfg.Build.FrameBudget, v.reportProgress)
			if res.Status == scene.StepDone {
				v.onBuilt(res.Scene)
			}
		}

		viewProj := v.cam.ViewProjection(v.win.Aspect())
		v.win.Clear(0.16, 0.17, 0.19)
		v.sink.Render(viewProj, math.Vec3{X: -0.4, Y: -1, Z: -0.3})
		v.overlay.Draw(viewProj, v.overlayBoxes()...)
		v.win.SwapBuffers()
	}
}

func (v *viewer) reportProgress(p scene.BuildProgress) {
	pct := int(p.Fraction() * 100)
	if pct == v.lastPct {
		return
	}
	v.lastPct = pct
	v.win.SetTitle(fmt.Sprintf("bimview - %s - %s %d%%", v.modelName, p.Phase, pct))
}

func (v *viewer) onBuilt(s *scene.SceneModel) {
	v.win.SetTitle(fmt.Sprintf("bimview - %s", v.modelName))
	if b, ok := s.Bounds(); ok {
		v.cam.Frame(b)
	}
	v.log.Info("scene ready",
		zap.String("build", s.ID.String()),
		zap.Int("batches", len(s.Batches)),
		zap.Int("instances", s.Stats.Instances),
		zap.Duration("elapsed", s.Stats.Elapsed))
}

func (v *viewer) handleEvent(e input.Event) {
	switch e.Type {
	case input.EventMouseDown:
		if e.Button == sdl.BUTTON_LEFT {
			v.pressX, v.pressY = e.MouseX, e.MouseY
			v.dragged = false
		}
	case input.EventMouseMove:
		if e.Held&input.ButtonLeftMask != 0 {
			if abs(e.MouseX-v.pressX) > clickSlop || abs(e.MouseY-v.pressY) > clickSlop {
				v.dragged = true
			}
			v.cam.HandleDrag(float32(e.DeltaX), float32(e.DeltaY))
		}
	case input.EventMouseUp:
		if e.Button == sdl.BUTTON_LEFT && !v.dragged {
			v.pick(e.MouseX, e.MouseY)
		}
	case input.EventMouseWheel:
		v.cam.HandleZoom(float32(e.DeltaY))
	case input.EventKeyDown:
		switch e.Key {
		case sdl.SCANCODE_F:
			if s := v.loader.Current(); s != nil {
				if b, ok := s.Bounds(); ok {
					v.cam.Frame(b)
				}
			}
		case sdl.SCANCODE_R:
			if err := v.open(v.cfg.Data.ModelPath); err != nil {
				v.log.Error("reload failed", zap.Error(err))
			}
		case sdl.SCANCODE_ESCAPE:
			v.clearSelection()
		case sdl.SCANCODE_B:
			v.overlay.Enabled = !v.overlay.Enabled
		case sdl.SCANCODE_F12:
			v.screenshot()
		}
	case input.EventDrop:
		v.cfg.Data.ModelPath = e.Path
		if err := v.open(e.Path); err != nil {
			v.log.Error("open failed", zap.String("path", e.Path), zap.Error(err))
		}
	}
}

func (v *viewer) handleKeys() {
	var forward, right, up float32
	if input.IsKeyHeld(sdl.SCANCODE_W) {
		forward++
	}
	if input.IsKeyHeld(sdl.SCANCODE_S) {
		forward--
	}
	if input.IsKeyHeld(sdl.SCANCODE_D) {
		right++
	}
	if input.IsKeyHeld(sdl.SCANCODE_A) {
		right--
	}
	if input.IsKeyHeld(sdl.SCANCODE_E) {
		up++
	}
	if input.IsKeyHeld(sdl.SCANCODE_Q) {
		up--
	}
	if forward != 0 || right != 0 || up != 0 {
		v.cam.HandleMovement(forward, right, up)
	}
}

// pick resolves the instance under the pointer and logs its element.
func (v *viewer) pick(x, y int) {
	s := v.loader.Current()
	if s == nil {
		return
	}
	w, h := v.win.GetSize()
	inv := v.cam.ViewProjection(v.win.Aspect()).Inverse()
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), inv)

	hit, ok := picking.Pick(s, ray)
	if !ok {
		v.clearSelection()
		return
	}

	start := time.Now()
	elem, info, err := s.Describe(hit.Batch, hit.Instance, v.model)
	if err != nil {
		v.log.Warn("pick failed", zap.Error(err))
		return
	}
	if b, ok := s.Batch(hit.Batch); ok {
		v.sink.Highlight(b.Mesh, hit.Instance)
		v.selection = &hit.Bounds
	}
	v.log.Info("picked",
		zap.Int64("element", int64(elem)),
		zap.String("type", info.Type),
		zap.String("name", info.Name),
		zap.Uint32("batch", uint32(hit.Batch)),
		zap.Int("instance", hit.Instance),
		zap.Duration("resolve", time.Since(start)))
}

func (v *viewer) clearSelection() {
	v.sink.Highlight(scene.NoHandle, 0)
	v.selection = nil
}

// overlayBoxes returns the scene bounds and the selected instance's box.
func (v *viewer) overlayBoxes() []debug.Box {
	var boxes []debug.Box
	if s := v.loader.Current(); s != nil {
		if b, ok := s.Bounds(); ok {
			boxes = append(boxes, debug.Box{
				Bounds: math.Box3{Min: b.Min, Max: b.Max},
				Color:  [4]float32{0.4, 0.8, 0.4, 1},
			})
		}
	}
	if v.selection != nil {
		boxes = append(boxes, debug.Box{Bounds: *v.selection, Color: [4]float32{1, 0.8, 0.1, 1}})
	}
	return boxes
}

func (v *viewer) screenshot() {
	w, h := v.win.GetSize()
	path, err := v.shots.Save(debug.ReadPixels(w, h), w, h)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases the scene, GL resources and the window.
func (v *viewer) Close() {
	v.loader.Close()
	v.overlay.Destroy()
	v.sink.Destroy()
	v.win.Close()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
