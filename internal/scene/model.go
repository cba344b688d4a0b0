// Package scene turns flat lists of placed geometry into instance batches.
//
// A build runs in three stages: Dedup groups placements by shape and color,
// a Builder uploads each group once through a MeshSink in fixed-size chunks,
// and finalization applies the axis conversion and computes bounds. The
// resulting SceneModel answers pick queries and releases its resources on
// Dispose.
package scene

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironblock/bim-demo/pkg/math"
)

// BuildWarning records a group that was dropped during a build.
type BuildWarning struct {
	Key       GroupKey
	Instances int
	Err       error
}

// BuildStats summarizes a finished build.
type BuildStats struct {
	Groups            int
	Singletons        int
	Instanced         int
	Instances         int
	Materials         int
	Dropped           int
	SkippedPlacements int
	MissingShapes     []ShapeID
	Warnings          []BuildWarning
	Elapsed           time.Duration
}

// SceneModel is the result of one build. It owns every resource the build
// created in the sink until Dispose is called.
type SceneModel struct {
	ID      uuid.UUID
	Batches []*RenderableBatch
	Root    math.Mat4
	Stats   BuildStats

	sink        MeshSink
	log         *zap.Logger
	root        Handle
	materials   []Handle
	bounds      BoundsInfo
	hasBounds   bool
	axisApplied bool
	disposed    bool
}

func newSceneModel(sink MeshSink, log *zap.Logger) *SceneModel {
	id := uuid.New()
	return &SceneModel{
		ID:   id,
		Root: math.Identity(),
		sink: sink,
		log:  log.With(zap.String("scene", id.String())),
		root: sink.CreateRoot(),
	}
}

// RootHandle returns the sink handle of the scene root.
func (s *SceneModel) RootHandle() Handle {
	return s.root
}

// Bounds returns the world bounds computed at the end of the build.
// ok is false when no batch contributed geometry.
func (s *SceneModel) Bounds() (info BoundsInfo, ok bool) {
	return s.bounds, s.hasBounds
}

// RecomputeBounds refreshes the cached bounds, e.g. after visibility changes.
func (s *SceneModel) RecomputeBounds() (BoundsInfo, bool) {
	s.bounds, s.hasBounds = ComputeBounds(s.Root, s.Batches)
	return s.bounds, s.hasBounds
}

// AxisApplied reports whether the coordinate conversion has been applied.
func (s *SceneModel) AxisApplied() bool {
	return s.axisApplied
}

// Disposed reports whether Dispose has run.
func (s *SceneModel) Disposed() bool {
	return s != nil && s.disposed
}
