package grove

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is the position/rotation/scale node owned by every Entity.
//
// Setters only store the value and set the dirty flag. The world matrix is
// recomputed lazily by the owning Entity's Update (or Scene.PostLoad), so a
// cached matrix is stale between a setter call and that recompute.
//
// Coordinates are left-handed: +X right, +Y up, +Z forward.
type Transform struct {
	owner    *Entity
	parent   *Transform
	children []*Transform

	// Local TRS. Rotation is Euler angles in degrees.
	position mgl64.Vec3
	rotation mgl64.Vec3
	scale    mgl64.Vec3

	world mgl64.Mat4
	dirty bool
}

func newTransform(owner *Entity) *Transform {
	return &Transform{
		owner: owner,
		scale: mgl64.Vec3{1, 1, 1},
		world: mgl64.Ident4(),
		dirty: true,
	}
}

// Owner returns the entity this transform belongs to.
func (t *Transform) Owner() *Entity { return t.owner }

// Parent returns the parent transform, or nil for a root.
func (t *Transform) Parent() *Transform { return t.parent }

// Children returns the child transforms. The returned slice MUST NOT be mutated.
func (t *Transform) Children() []*Transform { return t.children }

// Position returns the local position.
func (t *Transform) Position() mgl64.Vec3 { return t.position }

// Rotation returns the local Euler rotation in degrees.
func (t *Transform) Rotation() mgl64.Vec3 { return t.rotation }

// Scale returns the local scale.
func (t *Transform) Scale() mgl64.Vec3 { return t.scale }

// SetPosition sets the local position and marks the transform dirty.
func (t *Transform) SetPosition(p mgl64.Vec3) {
	t.position = p
	t.dirty = true
}

// SetRotation sets the local Euler rotation (degrees) and marks the transform dirty.
func (t *Transform) SetRotation(r mgl64.Vec3) {
	t.rotation = r
	t.dirty = true
}

// SetScale sets the local scale and marks the transform dirty.
func (t *Transform) SetScale(s mgl64.Vec3) {
	t.scale = s
	t.dirty = true
}

// Translate offsets the local position by d.
func (t *Transform) Translate(d mgl64.Vec3) {
	t.SetPosition(t.position.Add(d))
}

// MarkDirty forces recomputation on the next update.
func (t *Transform) MarkDirty() { t.dirty = true }

// IsDirty reports whether the cached world matrix is stale.
func (t *Transform) IsDirty() bool { return t.dirty }

// WorldMatrix returns the cached world matrix. It is only valid while
// IsDirty reports false.
func (t *Transform) WorldMatrix() mgl64.Mat4 { return t.world }

// WorldPosition returns the translation part of the cached world matrix.
func (t *Transform) WorldPosition() mgl64.Vec3 { return t.world.Col(3).Vec3() }

// Forward returns the world-space +Z axis of this transform, normalized.
func (t *Transform) Forward() mgl64.Vec3 { return axis(t.world, 2) }

// Right returns the world-space +X axis of this transform, normalized.
func (t *Transform) Right() mgl64.Vec3 { return axis(t.world, 0) }

// Up returns the world-space +Y axis of this transform, normalized.
func (t *Transform) Up() mgl64.Vec3 { return axis(t.world, 1) }

func axis(m mgl64.Mat4, col int) mgl64.Vec3 {
	v := m.Col(col).Vec3()
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}

// LocalToWorld converts a point in this transform's local space to world space.
func (t *Transform) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, t.world)
}

// WorldToLocal converts a world-space point into this transform's local space.
// Returns p unchanged if the world matrix is singular.
func (t *Transform) WorldToLocal(p mgl64.Vec3) mgl64.Vec3 {
	if det := t.world.Det(); det > -1e-12 && det < 1e-12 {
		return p
	}
	return mgl64.TransformCoordinate(p, t.world.Inv())
}

// CalculateModelMatrix recomputes the world matrix from the local values and
// the parent's world matrix, then clears the dirty flag. The parent's matrix
// is assumed valid; a missing parent is treated as identity. Callers must
// recompute parents before children within a frame.
func (t *Transform) CalculateModelMatrix() {
	local := computeLocalMatrix(t.position, t.rotation, t.scale)
	if t.parent != nil {
		t.world = t.parent.world.Mul4(local)
	} else {
		t.world = local
	}
	t.dirty = false
}

// SetParent re-links this transform under parent (nil detaches). Local
// values are preserved, so the world pose changes unless the caller
// compensates. Returns ErrHierarchyCycle if parent is t or a descendant of t.
func (t *Transform) SetParent(parent *Transform) error {
	if parent == t.parent {
		return nil
	}
	if parent != nil && isAncestorTransform(t, parent) {
		return ErrHierarchyCycle
	}
	if t.parent != nil {
		t.parent.removeChild(t)
	}
	t.parent = parent
	if parent != nil {
		parent.children = append(parent.children, t)
	}
	t.dirty = true
	return nil
}

// detach unlinks t from its parent and all its children without touching
// their owners. Used on shutdown.
func (t *Transform) detach() {
	if t.parent != nil {
		t.parent.removeChild(t)
		t.parent = nil
	}
	for _, c := range t.children {
		c.parent = nil
		c.dirty = true
	}
	t.children = nil
}

// removeChild removes child from t.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (t *Transform) removeChild(child *Transform) {
	for i, c := range t.children {
		if c == child {
			copy(t.children[i:], t.children[i+1:])
			t.children[len(t.children)-1] = nil
			t.children = t.children[:len(t.children)-1]
			return
		}
	}
}

// isAncestorTransform reports whether candidate is node or one of its ancestors.
func isAncestorTransform(candidate, node *Transform) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// computeLocalMatrix composes scale, then Euler rotation, then translation.
//
//	local = T * Rz * Ry * Rx * S
//
// so a column vector is scaled, rotated about X, Y, Z in that order, and
// translated last.
func computeLocalMatrix(pos, rotDeg, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(pos.X(), pos.Y(), pos.Z()).
		Mul4(eulerMatrix(rotDeg)).
		Mul4(mgl64.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// eulerMatrix converts Euler degrees to a homogeneous rotation (X, then Y, then Z).
func eulerMatrix(deg mgl64.Vec3) mgl64.Mat4 {
	m := mgl64.Ident4()
	if deg.X() != 0 {
		m = mgl64.HomogRotate3DX(mgl64.DegToRad(deg.X()))
	}
	if deg.Y() != 0 {
		m = mgl64.HomogRotate3DY(mgl64.DegToRad(deg.Y())).Mul4(m)
	}
	if deg.Z() != 0 {
		m = mgl64.HomogRotate3DZ(mgl64.DegToRad(deg.Z())).Mul4(m)
	}
	return m
}
