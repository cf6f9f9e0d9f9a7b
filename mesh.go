package grove

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is a mesh vertex in local space.
type Vertex struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extents returns half the box size along each axis.
func (b AABB) Extents() mgl64.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Mesh is an indexed triangle list. Meshes are shared between renderers and
// never owned by one.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint16

	bounds      AABB
	boundsDirty bool
}

// NewMesh creates a mesh from the given vertices and triangle-list indices.
func NewMesh(name string, vertices []Vertex, indices []uint16) *Mesh {
	return &Mesh{Name: name, Vertices: vertices, Indices: indices, boundsDirty: true}
}

// InvalidateBounds marks the cached bounds as needing recomputation.
// Call this after modifying Vertices.
func (m *Mesh) InvalidateBounds() {
	m.boundsDirty = true
}

// Bounds returns the local-space bounding box, recomputing it if dirty.
func (m *Mesh) Bounds() AABB {
	if m.boundsDirty {
		m.bounds = computeMeshBounds(m.Vertices)
		m.boundsDirty = false
	}
	return m.bounds
}

// computeMeshBounds scans vertex positions and returns the local AABB.
func computeMeshBounds(verts []Vertex) AABB {
	if len(verts) == 0 {
		return AABB{}
	}
	b := AABB{Min: verts[0].Position, Max: verts[0].Position}
	for i := 1; i < len(verts); i++ {
		p := verts[i].Position
		for k := 0; k < 3; k++ {
			b.Min[k] = math.Min(b.Min[k], p[k])
			b.Max[k] = math.Max(b.Max[k], p[k])
		}
	}
	return b
}

// NewHexagonMesh builds a flat-top hexagon of circumradius size lying on the
// XZ plane, facing +Y. Corner i sits at 60*i degrees from +X.
func NewHexagonMesh(size float64) *Mesh {
	up := mgl64.Vec3{0, 1, 0}
	verts := make([]Vertex, 0, 7)
	verts = append(verts, Vertex{Position: mgl64.Vec3{}, Normal: up})
	for i := 0; i < 6; i++ {
		verts = append(verts, Vertex{Position: hexCorner(size, i), Normal: up})
	}
	// Fan triangulation: vertex 0 is the hub.
	inds := make([]uint16, 0, 18)
	for i := 0; i < 6; i++ {
		next := (i+1)%6 + 1
		inds = append(inds, 0, uint16(next), uint16(i+1))
	}
	return NewMesh("hexagon", verts, inds)
}

// hexCorner returns corner i of a flat-top hexagon centered on the origin.
func hexCorner(size float64, i int) mgl64.Vec3 {
	rad := mgl64.DegToRad(60 * float64(i))
	return mgl64.Vec3{size * math.Cos(rad), 0, size * math.Sin(rad)}
}

// cubeFaces lists the outward normal and two in-plane axes of each cube face.
var cubeFaces = [6][3]mgl64.Vec3{
	{{1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, 0, 1}, {-1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {1, 0, 0}, {0, 1, 0}},
}

// NewCubeMesh builds an axis-aligned cube with the given edge length,
// centered on the origin. Each face has its own four vertices so normals
// stay flat.
func NewCubeMesh(size float64) *Mesh {
	h := size / 2
	verts := make([]Vertex, 0, 24)
	inds := make([]uint16, 0, 36)
	for _, f := range cubeFaces {
		n, u, v := f[0], f[1], f[2]
		base := uint16(len(verts))
		center := n.Mul(h)
		for _, c := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := center.Add(u.Mul(c[0] * h)).Add(v.Mul(c[1] * h))
			verts = append(verts, Vertex{Position: p, Normal: n})
		}
		inds = append(inds, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh("cube", verts, inds)
}
