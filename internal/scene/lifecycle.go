package scene

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Dispose releases every mesh, material and the root the scene owns.
// It is safe on a nil scene and a no-op after the first call.
func (s *SceneModel) Dispose() {
	if s == nil || s.disposed {
		return
	}
	s.disposed = true

	for _, b := range s.Batches {
		if b.Mesh != NoHandle {
			s.sink.Release(b.Mesh)
		}
	}
	for _, m := range s.materials {
		s.sink.Release(m)
	}
	if s.root != NoHandle {
		s.sink.Release(s.root)
	}

	s.log.Debug("scene disposed",
		zap.Int("batches", len(s.Batches)),
		zap.Int("materials", len(s.materials)))

	s.Batches = nil
	s.materials = nil
	s.root = NoHandle
	s.hasBounds = false
}

// Run drives b to completion on the calling goroutine, reporting progress
// after every chunk. If ctx is cancelled between chunks the build is
// cancelled and its partial resources released.
func Run(ctx context.Context, b *Builder, progress func(BuildProgress)) (*SceneModel, error) {
	for {
		if err := ctx.Err(); err != nil {
			b.Cancel()
			return nil, fmt.Errorf("%w: %w", ErrBuildCancelled, err)
		}
		res := b.Step()
		switch res.Status {
		case StepInProgress:
			if progress != nil {
				progress(res.Progress)
			}
		case StepDone:
			return res.Scene, nil
		default:
			return nil, ErrBuildCancelled
		}
	}
}

// Loader owns the scene of the currently loaded model and sequences builds:
// at most one build is in flight, and a new load cancels it and disposes the
// previous scene before starting.
type Loader struct {
	sink     MeshSink
	opts     Options
	log      *zap.Logger
	current  *SceneModel
	inflight *Builder
}

// NewLoader creates a loader that builds into sink.
func NewLoader(sink MeshSink, opts Options) *Loader {
	opts = opts.normalized()
	return &Loader{
		sink: sink,
		opts: opts,
		log:  opts.Logger.Named("loader"),
	}
}

// Begin starts building a new model. Any build still in flight is cancelled
// and discarded, and the current scene is disposed.
func (l *Loader) Begin(placements []RawPlacement, src ShapeSource) *Builder {
	if l.inflight != nil {
		l.log.Info("discarding in-flight build")
		l.discardInflight()
	}
	l.current.Dispose()
	l.current = nil

	l.inflight = Prepare(placements, src, l.sink, l.opts)
	return l.inflight
}

// SetOptions replaces the options used by the next Begin. A build already in
// flight keeps the options it started with.
func (l *Loader) SetOptions(opts Options) {
	if opts.Logger == nil {
		opts.Logger = l.opts.Logger
	}
	l.opts = opts.normalized()
}

// Busy reports whether a build is in flight.
func (l *Loader) Busy() bool {
	return l.inflight != nil
}

// Current returns the last completed scene, or nil.
func (l *Loader) Current() *SceneModel {
	return l.current
}

// Step advances the in-flight build by one step. When the build completes the
// scene becomes current.
func (l *Loader) Step() StepResult {
	if l.inflight == nil {
		return StepResult{Status: StepIdle, Scene: l.current}
	}
	res := l.inflight.Step()
	switch res.Status {
	case StepDone:
		l.current = res.Scene
		l.inflight = nil
	case StepCancelled:
		l.inflight = nil
	}
	return res
}

// Advance steps the in-flight build at least once and keeps stepping while
// budget allows. progress receives every in-progress snapshot.
func (l *Loader) Advance(budget time.Duration, progress func(BuildProgress)) StepResult {
	start := time.Now()
	for {
		res := l.Step()
		if res.Status != StepInProgress {
			return res
		}
		if progress != nil {
			progress(res.Progress)
		}
		if time.Since(start) >= budget {
			return res
		}
	}
}

// Close cancels any in-flight build and disposes the current scene.
func (l *Loader) Close() {
	if l.inflight != nil {
		l.discardInflight()
	}
	l.current.Dispose()
	l.current = nil
}

// discardInflight cancels the in-flight build. A build the caller already
// stepped to completion never became current, so its scene is disposed here.
func (l *Loader) discardInflight() {
	if !l.inflight.Cancel() {
		if res := l.inflight.Step(); res.Scene != nil && res.Scene != l.current {
			res.Scene.Dispose()
		}
	}
	l.inflight = nil
}
