package scene

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/ironblock/bim-demo/pkg/math"
)

// Default build settings.
const (
	DefaultChunkSize     = 200
	DefaultDepthBiasStep = 0.05
)

// Options controls a build.
type Options struct {
	ChunkSize     int            // groups processed per Step
	DepthBiasStep float32        // bias added per new material, wrapping at 1.0
	FreezeBatches bool           // freeze batch world matrices after finalize
	Axis          AxisConversion // applied to the root at finalize
	Logger        *zap.Logger
}

// DefaultOptions returns the default build options.
func DefaultOptions() Options {
	return Options{
		ChunkSize:     DefaultChunkSize,
		DepthBiasStep: DefaultDepthBiasStep,
		FreezeBatches: true,
		Axis:          AxisFlipZ,
	}
}

func (o Options) normalized() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.DepthBiasStep < 0 {
		o.DepthBiasStep = DefaultDepthBiasStep
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// BuildPhase is the stage a progress snapshot was taken in.
type BuildPhase int

const (
	PhaseBuilding BuildPhase = iota
	PhaseFinalizing
)

// String returns the phase name.
func (p BuildPhase) String() string {
	if p == PhaseFinalizing {
		return "finalizing"
	}
	return "building"
}

// BuildProgress is a snapshot taken between chunks.
type BuildProgress struct {
	Phase BuildPhase
	Done  int
	Total int
}

// Fraction returns Done/Total in [0, 1]. An empty build counts as complete.
func (p BuildProgress) Fraction() float32 {
	if p.Total == 0 {
		return 1
	}
	return float32(p.Done) / float32(p.Total)
}

// StepStatus is the state reported by Builder.Step.
type StepStatus int

const (
	StepInProgress StepStatus = iota
	StepDone
	StepCancelled
	StepIdle // returned by a Loader with nothing to build
)

// String returns the status name.
func (s StepStatus) String() string {
	switch s {
	case StepInProgress:
		return "in-progress"
	case StepDone:
		return "done"
	case StepCancelled:
		return "cancelled"
	case StepIdle:
		return "idle"
	default:
		return fmt.Sprintf("StepStatus(%d)", int(s))
	}
}

// StepResult is returned by every Step. Scene is set only when Status is
// StepDone. Progress is a snapshot only for StepInProgress; a StepDone
// result repeats Done==Total on every later Step and is not a new snapshot.
type StepResult struct {
	Status   StepStatus
	Progress BuildProgress
	Scene    *SceneModel
}

type builderState int

const (
	stateBuilding builderState = iota
	stateFinalizing
	stateDone
	stateCancelled
)

// Builder turns geometry groups into renderable batches one chunk per Step.
// A Builder is driven by a single caller; it never runs work in the
// background.
type Builder struct {
	opts   Options
	sink   MeshSink
	log    *zap.Logger
	groups []*GeometryGroup
	total  int
	report DedupReport

	state    builderState
	next     int
	scene    *SceneModel
	started  time.Time
	matCache map[ColorKey]Handle
	matCount int
}

// NewBuilder creates a builder over groups in the order given.
func NewBuilder(sink MeshSink, groups []*GeometryGroup, opts Options) *Builder {
	opts = opts.normalized()
	return &Builder{
		opts:     opts,
		sink:     sink,
		log:      opts.Logger,
		groups:   groups,
		total:    len(groups),
		matCache: make(map[ColorKey]Handle),
	}
}

// Prepare deduplicates placements and returns a builder for the result.
// Shapes skipped during deduplication are recorded in the build stats.
func Prepare(placements []RawPlacement, src ShapeSource, sink MeshSink, opts Options) *Builder {
	groups, report := Dedup(placements, src)
	b := NewBuilder(sink, groups, opts)
	b.report = report
	b.log.Debug("deduplicated placements",
		zap.Int("placements", report.Placements),
		zap.Int("groups", len(groups)),
		zap.Int("shapeFetches", report.ShapeFetches),
		zap.Int("skipped", report.SkippedPlacements))
	return b
}

// Total returns the number of groups the builder will process.
func (b *Builder) Total() int {
	return b.total
}

// Step processes one chunk, or finalizes once every chunk is done.
// Each chunk runs to completion before Step returns.
func (b *Builder) Step() StepResult {
	total := b.total

	switch b.state {
	case stateBuilding:
		if b.scene == nil {
			b.begin()
		}
		end := b.next + b.opts.ChunkSize
		if end > total {
			end = total
		}
		for ; b.next < end; b.next++ {
			b.buildGroup(b.groups[b.next])
			b.groups[b.next] = nil
		}
		if b.next == total {
			b.state = stateFinalizing
		}
		b.log.Debug("chunk built", zap.Int("done", b.next), zap.Int("total", total))
		return StepResult{
			Status:   StepInProgress,
			Progress: BuildProgress{Phase: PhaseBuilding, Done: b.next, Total: total},
		}

	case stateFinalizing:
		b.finalize()
		b.state = stateDone
		return b.doneResult()

	case stateDone:
		return b.doneResult()

	default:
		return StepResult{
			Status:   StepCancelled,
			Progress: BuildProgress{Phase: PhaseBuilding, Done: b.next, Total: total},
		}
	}
}

// Cancel abandons the build and releases everything it created so far.
// It returns false if the build already finished; the finished scene then
// belongs to the caller.
func (b *Builder) Cancel() bool {
	switch b.state {
	case stateDone:
		return false
	case stateCancelled:
		return true
	}
	b.state = stateCancelled
	if b.scene != nil {
		b.log.Info("build cancelled",
			zap.Int("done", b.next),
			zap.Int("total", b.total),
			zap.Int("batches", len(b.scene.Batches)))
		b.scene.Dispose()
		b.scene = nil
	}
	b.groups = nil
	b.matCache = nil
	return true
}

func (b *Builder) doneResult() StepResult {
	total := b.total
	return StepResult{
		Status:   StepDone,
		Progress: BuildProgress{Phase: PhaseFinalizing, Done: total, Total: total},
		Scene:    b.scene,
	}
}

func (b *Builder) begin() {
	b.started = time.Now()
	b.scene = newSceneModel(b.sink, b.log)
	b.log = b.scene.log
	b.scene.Stats.Groups = b.total
	b.scene.Stats.SkippedPlacements = b.report.SkippedPlacements
	b.scene.Stats.MissingShapes = b.report.MissingShapes
	for _, id := range b.report.MissingShapes {
		b.log.Warn("shape missing or empty", zap.Int64("shape", int64(id)))
	}
	b.log.Info("build started",
		zap.Int("groups", b.total),
		zap.Int("chunkSize", b.opts.ChunkSize))
}

// material returns the cached material for the group's color, creating it
// with the next depth bias on first use.
func (b *Builder) material(g *GeometryGroup) (Handle, error) {
	if h, ok := b.matCache[g.Key.Color]; ok {
		return h, nil
	}
	desc := MaterialDesc{
		Key:       g.Key.Color,
		Color:     g.Color,
		DepthBias: b.depthBias(b.matCount),
	}
	h, err := b.sink.CreateMaterial(desc)
	if err != nil {
		return NoHandle, err
	}
	b.matCount++
	b.matCache[g.Key.Color] = h
	b.scene.materials = append(b.scene.materials, h)
	b.scene.Stats.Materials++
	return h, nil
}

func (b *Builder) depthBias(n int) float32 {
	return math32.Mod(float32(n)*b.opts.DepthBiasStep, 1.0)
}

func (b *Builder) buildGroup(g *GeometryGroup) {
	if err := g.Payload.Validate(); err != nil {
		b.drop(g, err)
		return
	}

	mat, err := b.material(g)
	if err != nil {
		b.drop(g, fmt.Errorf("%w: material: %w", ErrUploadFailed, err))
		return
	}

	mesh, err := b.sink.CreateMesh(MeshDesc{
		Name:     fmt.Sprintf("shape-%d-%s", g.Key.Shape, g.Key.Color),
		Parent:   b.scene.root,
		Material: mat,
		Payload:  g.Payload,
	})
	if err != nil {
		b.drop(g, fmt.Errorf("%w: %w", ErrUploadFailed, err))
		return
	}

	placement := newPlacement(g.Instances)
	switch p := placement.(type) {
	case Singleton:
		err = b.sink.SetTransform(mesh, p.Transform)
	case Instanced:
		err = b.sink.SetInstances(mesh, p.Transforms)
	}
	if err != nil {
		b.sink.Release(mesh)
		b.drop(g, fmt.Errorf("%w: placement: %w", ErrUploadFailed, err))
		return
	}

	batch := &RenderableBatch{
		ID:          BatchID(len(b.scene.Batches) + 1),
		Key:         g.Key,
		Material:    mat,
		Mesh:        mesh,
		Placement:   placement,
		LocalBounds: math.BoxFromPositions(g.Payload.Positions),
		VertexCount: g.Payload.VertexCount(),
		IndexCount:  len(g.Payload.Indices),
		Visible:     true,
	}
	b.scene.Batches = append(b.scene.Batches, batch)

	stats := &b.scene.Stats
	stats.Instances += placement.Len()
	if placement.Mode() == ModeSingleton {
		stats.Singletons++
	} else {
		stats.Instanced++
	}
}

func (b *Builder) drop(g *GeometryGroup, err error) {
	stats := &b.scene.Stats
	stats.Dropped++
	stats.Warnings = append(stats.Warnings, BuildWarning{
		Key:       g.Key,
		Instances: len(g.Instances),
		Err:       err,
	})
	b.log.Warn("dropped geometry group",
		zap.Int64("shape", int64(g.Key.Shape)),
		zap.Stringer("color", g.Key.Color),
		zap.Int("instances", len(g.Instances)),
		zap.Error(err))
}

func (b *Builder) finalize() {
	s := b.scene
	if s == nil {
		// Step was never called in the building state.
		b.begin()
		s = b.scene
	}

	Normalize(s, b.opts.Axis)

	if b.opts.FreezeBatches {
		for _, batch := range s.Batches {
			b.sink.Freeze(batch.Mesh)
			batch.Frozen = true
		}
	}

	s.RecomputeBounds()
	s.Stats.Elapsed = time.Since(b.started)

	fields := []zap.Field{
		zap.Int("groups", s.Stats.Groups),
		zap.Int("singletons", s.Stats.Singletons),
		zap.Int("instanced", s.Stats.Instanced),
		zap.Int("instances", s.Stats.Instances),
		zap.Int("materials", s.Stats.Materials),
		zap.Int("dropped", s.Stats.Dropped),
		zap.Duration("elapsed", s.Stats.Elapsed),
	}
	if bounds, ok := s.Bounds(); ok {
		fields = append(fields, zap.Float32("diagonal", bounds.Diagonal))
	}
	b.log.Info("build finished", fields...)
}
