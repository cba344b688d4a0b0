package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -2}
	b := Vec3{3, -1, 0}
	if got, want := a.Min(b), (Vec3{1, -1, -2}); got != want {
		t.Errorf("Vec3.Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3{3, 5, 0}); got != want {
		t.Errorf("Vec3.Max() = %v, want %v", got, want)
	}
}

func TestBox3Empty(t *testing.T) {
	box := EmptyBox()
	if !box.IsEmpty() {
		t.Fatal("EmptyBox should be empty")
	}
	box = box.ExtendPoint(Vec3{1, 2, 3})
	if box.IsEmpty() {
		t.Fatal("box with a point should not be empty")
	}
	if box.Size() != (Vec3{}) {
		t.Errorf("single point box size = %v, want zero", box.Size())
	}
}

func TestBox3Union(t *testing.T) {
	a := Box3{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	b := Box3{Min: Vec3{2, -1, 0}, Max: Vec3{3, 0, 4}}
	got := a.Union(b)
	want := Box3{Min: Vec3{0, -1, 0}, Max: Vec3{3, 1, 4}}
	if got != want {
		t.Errorf("Union() = %v, want %v", got, want)
	}
	if got := a.Union(EmptyBox()); got != a {
		t.Errorf("Union with empty box changed box: %v", got)
	}
}

func TestBox3TransformMirrored(t *testing.T) {
	box := Box3{Min: Vec3{0, 0, 0}, Max: Vec3{1, 2, 3}}
	got := box.Transform(Scale(1, 1, -1))
	want := Box3{Min: Vec3{0, 0, -3}, Max: Vec3{1, 2, 0}}
	if got != want {
		t.Errorf("Transform() = %v, want %v", got, want)
	}
}

func TestBoxFromPositions(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, -1, 2,
		-3, 4, 1,
	}
	got := BoxFromPositions(positions)
	want := Box3{Min: Vec3{-3, -1, 0}, Max: Vec3{1, 4, 2}}
	if got != want {
		t.Errorf("BoxFromPositions() = %v, want %v", got, want)
	}
	if !BoxFromPositions(nil).IsEmpty() {
		t.Error("BoxFromPositions(nil) should be empty")
	}
}
