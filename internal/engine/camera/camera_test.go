package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/ironblock/bim-demo/internal/scene"
	"github.com/ironblock/bim-demo/pkg/math"
)

func TestFrame(t *testing.T) {
	box := math.Box3{Min: math.Vec3{}, Max: math.Vec3{X: 3, Y: 3, Z: 1}}
	info := scene.NewBoundsInfo(box)

	c := NewOrbitCamera()
	c.Frame(info)

	assert.Equal(t, math.Vec3{X: 1.5, Y: 1.5, Z: 0.5}, c.Center)
	assert.InDelta(t, math32.Sqrt(19)*0.01, c.MinDistance, 1e-5)
	assert.InDelta(t, math32.Sqrt(19)*10, c.MaxDistance, 1e-4)
	assert.Greater(t, c.Distance, info.Diagonal/2)
	assert.Less(t, c.Distance, c.MaxDistance)

	// Camera sits outside the bounds' bounding sphere
	assert.Greater(t, c.Position().Sub(c.Center).Length(), info.Diagonal/2)
}

func TestFrameDegenerateBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.Frame(scene.BoundsInfo{Center: math.Vec3{X: 5}})

	assert.Equal(t, float32(5), c.Center.X)
	assert.Greater(t, c.Distance, float32(0))
	assert.GreaterOrEqual(t, c.Distance, c.MinDistance)
}

func TestZoomClamps(t *testing.T) {
	c := NewOrbitCamera()
	for i := 0; i < 100; i++ {
		c.HandleZoom(5)
	}
	assert.Equal(t, c.MinDistance, c.Distance)

	for i := 0; i < 200; i++ {
		c.HandleZoom(-5)
	}
	assert.Equal(t, c.MaxDistance, c.Distance)
}

func TestDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 10000)
	assert.Equal(t, c.MaxPitch, c.RotationX)
	c.HandleDrag(0, -100000)
	assert.Equal(t, c.MinPitch, c.RotationX)
}

func TestPositionDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 1, Y: 2, Z: 3}
	assert.InDelta(t, c.Distance, c.Position().Sub(c.Center).Length(), 1e-4)
}
