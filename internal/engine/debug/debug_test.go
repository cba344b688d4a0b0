package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironblock/bim-demo/pkg/math"
)

func TestBoxLines(t *testing.T) {
	b := math.Box3{Min: math.Vec3{X: 0, Y: 0, Z: 0}, Max: math.Vec3{X: 2, Y: 3, Z: 4}}
	verts := BoxLines(b, 0.5)
	require.Len(t, verts, BoxLineVertexCount*3)

	for i := 0; i < len(verts); i += 3 {
		assert.Contains(t, []float32{-0.5, 2.5}, verts[i], "x of vertex %d", i/3)
		assert.Contains(t, []float32{-0.5, 3.5}, verts[i+1], "y of vertex %d", i/3)
		assert.Contains(t, []float32{-0.5, 4.5}, verts[i+2], "z of vertex %d", i/3)
	}

	// every edge changes exactly one coordinate
	for e := 0; e < BoxLineVertexCount/2; e++ {
		a, c := verts[e*6:e*6+3], verts[e*6+3:e*6+6]
		changed := 0
		for k := 0; k < 3; k++ {
			if a[k] != c[k] {
				changed++
			}
		}
		assert.Equal(t, 1, changed, "edge %d", e)
	}
}

func TestBoxLinesEmpty(t *testing.T) {
	assert.Nil(t, BoxLines(math.EmptyBox(), 1))
}

func TestScreenshotsSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewScreenshots(dir, "bimview")
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	// bottom row red, top row blue
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	path, err := s.Save(pixels, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bimview_2024-03-01_12-30-00.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	r, _, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), b, "top row comes from the last framebuffer row")
	r, _, _, _ = img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestScreenshotsSizeMismatch(t *testing.T) {
	s := NewScreenshots(t.TempDir(), "x")
	_, err := s.Save(make([]byte, 7), 2, 1)
	assert.Error(t, err)
}
