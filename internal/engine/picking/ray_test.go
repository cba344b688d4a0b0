package picking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironblock/bim-demo/internal/scene"
	"github.com/ironblock/bim-demo/pkg/math"
)

func unitBox() math.Box3 {
	return math.Box3{Max: math.Vec3{X: 1, Y: 1, Z: 1}}
}

func TestScreenToRayIdentity(t *testing.T) {
	r := ScreenToRay(50, 50, 100, 100, math.Identity())

	assert.InDelta(t, 0, r.Origin.X, 1e-6)
	assert.InDelta(t, 0, r.Origin.Y, 1e-6)
	assert.InDelta(t, -1, r.Origin.Z, 1e-6)
	assert.InDelta(t, 1, r.Direction.Z, 1e-6)
}

func TestScreenToRayFlipsY(t *testing.T) {
	r := ScreenToRay(0, 0, 100, 100, math.Identity())
	assert.InDelta(t, -1, r.Origin.X, 1e-6)
	assert.InDelta(t, 1, r.Origin.Y, 1e-6)
}

func TestIntersectBox(t *testing.T) {
	tests := []struct {
		name  string
		ray   Ray
		wantT float32
		hit   bool
	}{
		{"front", Ray{math.Vec3{X: -5, Y: 0.5, Z: 0.5}, math.Vec3{X: 1}}, 5, true},
		{"behind", Ray{math.Vec3{X: 5, Y: 0.5, Z: 0.5}, math.Vec3{X: 1}}, 0, false},
		{"inside", Ray{math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, math.Vec3{Y: 1}}, 0.5, true},
		{"parallel miss", Ray{math.Vec3{X: -5, Y: 2, Z: 0.5}, math.Vec3{X: 1}}, 0, false},
		{"from above", Ray{math.Vec3{X: 0.5, Y: 10, Z: 0.5}, math.Vec3{Y: -1}}, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectBox(unitBox())
			assert.Equal(t, tt.hit, hit)
			if tt.hit {
				assert.InDelta(t, tt.wantT, got, 1e-5)
			}
		})
	}

	_, hit := Ray{Direction: math.Vec3{X: 1}}.IntersectBox(math.EmptyBox())
	assert.False(t, hit)
}

func cube() *scene.ShapePayload {
	return &scene.ShapePayload{
		Positions: []float32{
			0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
			0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
		},
		Indices: []uint32{0, 2, 1, 0, 3, 2, 4, 5, 6, 4, 6, 7},
	}
}

func buildRow(t *testing.T) *scene.SceneModel {
	t.Helper()
	placements := []scene.RawPlacement{
		{Element: 1, Shape: 1, Transform: math.Translate(0, 0, 0)},
		{Element: 2, Shape: 1, Transform: math.Translate(2, 0, 0)},
		{Element: 3, Shape: 2, Transform: math.Translate(4, 0, 0)},
	}
	src := scene.ShapeSourceFunc(func(scene.ShapeID) (*scene.ShapePayload, bool) {
		return cube(), true
	})
	opts := scene.DefaultOptions()
	opts.Axis = scene.AxisNone
	s, err := scene.Run(context.Background(), scene.Prepare(placements, src, scene.NewMemorySink(), opts), nil)
	require.NoError(t, err)
	return s
}

func TestPick(t *testing.T) {
	s := buildRow(t)

	tests := []struct {
		name     string
		ray      Ray
		wantHit  bool
		wantElem scene.ElementID
		wantInst int
	}{
		{"nearest from left", Ray{math.Vec3{X: -5, Y: 0.5, Z: 0.5}, math.Vec3{X: 1}}, true, 1, 0},
		{"nearest from right", Ray{math.Vec3{X: 10, Y: 0.5, Z: 0.5}, math.Vec3{X: -1}}, true, 3, 0},
		{"second instance", Ray{math.Vec3{X: 2.5, Y: 10, Z: 0.5}, math.Vec3{Y: -1}}, true, 2, 1},
		{"gap", Ray{math.Vec3{X: 1.5, Y: 10, Z: 0.5}, math.Vec3{Y: -1}}, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := Pick(s, tt.ray)
			require.Equal(t, tt.wantHit, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantInst, hit.Instance)
			elem, err := s.Resolve(hit.Batch, hit.Instance)
			require.NoError(t, err)
			assert.Equal(t, tt.wantElem, elem)
		})
	}
}

func TestPickSkipsHiddenAndDisposed(t *testing.T) {
	s := buildRow(t)
	ray := Ray{math.Vec3{X: -5, Y: 0.5, Z: 0.5}, math.Vec3{X: 1}}

	s.Batches[0].Visible = false
	hit, ok := Pick(s, ray)
	require.True(t, ok)
	elem, err := s.Resolve(hit.Batch, hit.Instance)
	require.NoError(t, err)
	assert.Equal(t, scene.ElementID(3), elem)

	s.Dispose()
	_, ok = Pick(s, ray)
	assert.False(t, ok)
}
