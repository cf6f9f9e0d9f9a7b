package grove

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axial is a hex cell coordinate in the axial (q, r) system.
type Axial struct {
	Q, R int
}

// Cube is the equivalent cube coordinate; X+Y+Z is always zero.
type Cube struct {
	X, Y, Z int
}

// HexDirection indexes the six neighbors of a cell.
type HexDirection int

const (
	HexDirectionEast HexDirection = iota
	HexDirectionNorthEast
	HexDirectionNorthWest
	HexDirectionWest
	HexDirectionSouthWest
	HexDirectionSouthEast
)

// hexDirections are the axial offsets of the six neighbors.
var hexDirections = [6]Axial{
	{1, 0}, {1, -1}, {0, -1},
	{-1, 0}, {-1, 1}, {0, 1},
}

// Directions returns the six axial neighbor offsets.
func Directions() [6]Axial { return hexDirections }

// Valid reports whether d is one of the six directions.
func (d HexDirection) Valid() bool { return d >= 0 && d < 6 }

// Cube converts a to cube coordinates.
func (a Axial) Cube() Cube {
	return Cube{X: a.Q, Y: -a.Q - a.R, Z: a.R}
}

// Axial converts c to axial coordinates.
func (c Cube) Axial() Axial {
	return Axial{Q: c.X, R: c.Z}
}

// Add returns a + b.
func (a Axial) Add(b Axial) Axial {
	return Axial{Q: a.Q + b.Q, R: a.R + b.R}
}

// Sub returns a - b.
func (a Axial) Sub(b Axial) Axial {
	return Axial{Q: a.Q - b.Q, R: a.R - b.R}
}

// Neighbor returns the adjacent coordinate in direction d. An invalid
// direction returns a unchanged.
func (a Axial) Neighbor(d HexDirection) Axial {
	if !d.Valid() {
		return a
	}
	return a.Add(hexDirections[d])
}

// Distance returns the number of steps between a and b.
func (a Axial) Distance(b Axial) int {
	return HexDistance(a, b)
}

// HexDistance is half the sum of absolute cube coordinate differences.
func HexDistance(a, b Axial) int {
	ac, bc := a.Cube(), b.Cube()
	return (absInt(ac.X-bc.X) + absInt(ac.Y-bc.Y) + absInt(ac.Z-bc.Z)) / 2
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// key packs a into a single map key.
func (a Axial) key() uint64 {
	return uint64(uint32(int32(a.Q)))<<32 | uint64(uint32(int32(a.R)))
}

// AxialToWorld returns the center of cell a in a flat-top layout with the
// given circumradius, on the XZ plane.
func AxialToWorld(a Axial, size float64) mgl64.Vec3 {
	q, r := float64(a.Q), float64(a.R)
	return mgl64.Vec3{
		size * 1.5 * q,
		0,
		size * math.Sqrt(3) * (r + q/2),
	}
}

// WorldToAxial inverts AxialToWorld and rounds to the nearest cell.
func WorldToAxial(p mgl64.Vec3, size float64) Axial {
	q := (2.0 / 3.0 * p.X()) / size
	r := (-1.0/3.0*p.X() + math.Sqrt(3)/3*p.Z()) / size
	return cubeRound(q, -q-r, r).Axial()
}

// cubeRound rounds fractional cube coordinates, fixing the component with
// the largest rounding error so the sum stays zero.
func cubeRound(x, y, z float64) Cube {
	rx, ry, rz := math.Round(x), math.Round(y), math.Round(z)
	dx, dy, dz := math.Abs(rx-x), math.Abs(ry-y), math.Abs(rz-z)
	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy > dz:
		ry = -rx - rz
	default:
		rz = -rx - ry
	}
	return Cube{X: int(rx), Y: int(ry), Z: int(rz)}
}
