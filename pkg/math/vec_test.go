package math

import "testing"

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	z := x.Cross(y)
	if z.X != 0 || z.Y != 0 || z.Z != 1 {
		t.Errorf("X cross Y should be Z, got %v", z)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if v.Length() != 7 {
		t.Errorf("Length of (2,3,6) should be 7, got %v", v.Length())
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -2}
	b := Vec3{3, -1, 0}
	if got := a.Min(b); got != (Vec3{1, -1, -2}) {
		t.Errorf("Min: got %v", got)
	}
	if got := a.Max(b); got != (Vec3{3, 5, 0}) {
		t.Errorf("Max: got %v", got)
	}
}
