package grove

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestFrustumIdentityBoundaryInclusive(t *testing.T) {
	f := NewFrustum(mgl64.Ident4())

	if !f.ContainsPoint(mgl64.Vec3{-1, 0, 0}) {
		t.Error("(-1,0,0) on the left plane should be inside")
	}
	if f.ContainsPoint(mgl64.Vec3{-1.0001, 0, 0}) {
		t.Error("(-1.0001,0,0) should be outside")
	}
	if !f.ContainsPoint(mgl64.Vec3{1, 1, 1}) {
		t.Error("corner (1,1,1) should be inside")
	}
	if f.ContainsPoint(mgl64.Vec3{0, 0, 1.5}) {
		t.Error("(0,0,1.5) beyond the far plane should be outside")
	}
}

func TestFrustumPlaneOrder(t *testing.T) {
	f := NewFrustum(mgl64.Ident4())
	cases := []struct {
		plane  int
		inside mgl64.Vec3
		normal mgl64.Vec3
	}{
		{FrustumLeft, mgl64.Vec3{-0.9, 0, 0}, mgl64.Vec3{1, 0, 0}},
		{FrustumRight, mgl64.Vec3{0.9, 0, 0}, mgl64.Vec3{-1, 0, 0}},
		{FrustumBottom, mgl64.Vec3{0, -0.9, 0}, mgl64.Vec3{0, 1, 0}},
		{FrustumTop, mgl64.Vec3{0, 0.9, 0}, mgl64.Vec3{0, -1, 0}},
		{FrustumNear, mgl64.Vec3{0, 0, -0.9}, mgl64.Vec3{0, 0, 1}},
		{FrustumFar, mgl64.Vec3{0, 0, 0.9}, mgl64.Vec3{0, 0, -1}},
	}
	for _, c := range cases {
		p := f.Planes[c.plane]
		assertVec(t, "normal", p.Normal, c.normal, epsilon)
		assertNear(t, "D", p.D, 1)
		assertNear(t, "distance", p.Distance(c.inside), 0.1)
	}
}

func TestFrustumPerspective(t *testing.T) {
	proj := perspectiveLH(mgl64.DegToRad(90), 1, 1, 100)
	f := NewFrustum(proj)

	tests := []struct {
		name string
		p    mgl64.Vec3
		want bool
	}{
		{"center", mgl64.Vec3{0, 0, 50}, true},
		{"before near", mgl64.Vec3{0, 0, 0.5}, false},
		{"behind", mgl64.Vec3{0, 0, -10}, false},
		{"beyond far", mgl64.Vec3{0, 0, 101}, false},
		{"outside right", mgl64.Vec3{60, 0, 50}, false},
		{"inside edge", mgl64.Vec3{49, 0, 50}, true},
		{"above", mgl64.Vec3{0, 51, 50}, false},
	}
	for _, tt := range tests {
		if got := f.ContainsPoint(tt.p); got != tt.want {
			t.Errorf("%s: ContainsPoint(%v) = %v, want %v", tt.name, tt.p, got, tt.want)
		}
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	f := NewFrustum(mgl64.Ident4())
	if !f.IntersectsSphere(mgl64.Vec3{-1.5, 0, 0}, 0.6) {
		t.Error("sphere overlapping the left plane should intersect")
	}
	if f.IntersectsSphere(mgl64.Vec3{-1.5, 0, 0}, 0.4) {
		t.Error("sphere clear of the left plane should not intersect")
	}
}

func TestPlaneNormalize(t *testing.T) {
	p := Plane{Normal: mgl64.Vec3{0, 2, 0}, D: 4}.Normalize()
	assertVec(t, "normal", p.Normal, mgl64.Vec3{0, 1, 0}, epsilon)
	assertNear(t, "D", p.D, 2)
	assertNear(t, "distance", p.Distance(mgl64.Vec3{0, 1, 0}), 3)

	zero := Plane{D: 1}.Normalize()
	assertNear(t, "zero D", zero.D, 1)
}

func TestRayIntersectGround(t *testing.T) {
	r := Ray{Origin: mgl64.Vec3{1, 10, 2}, Direction: mgl64.Vec3{0, -1, 0}}
	p, ok := r.IntersectGround(0)
	if !ok {
		t.Fatal("downward ray missed the ground")
	}
	assertVec(t, "hit", p, mgl64.Vec3{1, 0, 2}, epsilon)

	diag := Ray{Origin: mgl64.Vec3{0, 4, 0}, Direction: mgl64.Vec3{1, -1, 0}.Normalize()}
	p, ok = diag.IntersectGround(1)
	if !ok {
		t.Fatal("diagonal ray missed y=1")
	}
	assertVec(t, "diagonal hit", p, mgl64.Vec3{3, 1, 0}, 1e-9)

	if _, ok := (Ray{Origin: mgl64.Vec3{0, 1, 0}, Direction: mgl64.Vec3{1, 0, 0}}).IntersectGround(0); ok {
		t.Error("parallel ray reported a hit")
	}
	if _, ok := (Ray{Origin: mgl64.Vec3{0, 1, 0}, Direction: mgl64.Vec3{0, 1, 0}}).IntersectGround(0); ok {
		t.Error("ray pointing away reported a hit")
	}
}

func TestRayAt(t *testing.T) {
	r := Ray{Origin: mgl64.Vec3{1, 1, 1}, Direction: mgl64.Vec3{0, 0, 1}}
	assertVec(t, "At(2.5)", r.At(2.5), mgl64.Vec3{1, 1, 3.5}, epsilon)
}
