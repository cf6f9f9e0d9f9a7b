package grove

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// Plane is the set of points p with Normal·p + D == 0. Points with a
// positive signed distance lie on the normal side.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Distance returns the signed distance of p scaled by the normal length.
// Planes extracted from a view-projection matrix are not normalized, so only
// the sign is meaningful unless Normalize has been called.
func (p Plane) Distance(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Normalize scales the plane so its normal has unit length.
func (p Plane) Normalize() Plane {
	l := p.Normal.Len()
	if l == 0 {
		return p
	}
	return Plane{Normal: p.Normal.Mul(1 / l), D: p.D / l}
}

// Frustum is a convex volume bounded by six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum extracts the six planes of a combined view-projection matrix.
// For each clip axis i the lower plane is row3 + row_i and the upper plane
// is row3 - row_i.
func NewFrustum(viewProj mgl64.Mat4) Frustum {
	w := viewProj.Row(3)
	var f Frustum
	for i := 0; i < 3; i++ {
		r := viewProj.Row(i)
		f.Planes[2*i] = planeFromVec4(w.Add(r))
		f.Planes[2*i+1] = planeFromVec4(w.Sub(r))
	}
	return f
}

func planeFromVec4(v mgl64.Vec4) Plane {
	return Plane{Normal: v.Vec3(), D: v[3]}
}

// ContainsPoint reports whether p is inside or on the boundary of every plane.
func (f *Frustum) ContainsPoint(p mgl64.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether a sphere touches the frustum. The test is
// conservative near the corners.
func (f *Frustum) IntersectsSphere(center mgl64.Vec3, radius float64) bool {
	for i := range f.Planes {
		pl := f.Planes[i].Normalize()
		if pl.Distance(center) < -radius {
			return false
		}
	}
	return true
}

// Ray is a half-line used for picking.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectGround returns where the ray crosses the horizontal plane at
// height y. ok is false when the ray is parallel to the plane or points away
// from it.
func (r Ray) IntersectGround(y float64) (point mgl64.Vec3, ok bool) {
	if math.Abs(r.Direction.Y()) < 1e-12 {
		return mgl64.Vec3{}, false
	}
	t := (y - r.Origin.Y()) / r.Direction.Y()
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return r.At(t), true
}
