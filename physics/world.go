// Package physics is a small rigid-body world implementing grove.Physics:
// gravity, linear damping, a ground plane and sphere-bounded contact
// resolution between bodies.
package physics

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/grove"
)

var (
	// ErrInvalidTimeStep is returned by Simulate for dt <= 0.
	ErrInvalidTimeStep = errors.New("physics: time step must be positive")
	// ErrInvalidShape is returned for non-positive shape dimensions.
	ErrInvalidShape = errors.New("physics: shape dimensions must be positive")
	// ErrInvalidMass is returned for a dynamic body without positive mass.
	ErrInvalidMass = errors.New("physics: dynamic body needs a positive mass")
)

const (
	solverPasses = 3
	maxSpeed     = 50.0
)

// Config holds world parameters.
type Config struct {
	Gravity mgl64.Vec3
	// Damping is the fraction of velocity lost per second, in [0, 1].
	Damping float64
	// Restitution scales velocity reflected on contact.
	Restitution float64
	// Ground enables a floor at GroundY that dynamic bodies rest on.
	Ground  bool
	GroundY float64
}

// DefaultConfig returns earth gravity with light damping and a floor at 0.
func DefaultConfig() Config {
	return Config{
		Gravity:     mgl64.Vec3{0, -9.81, 0},
		Damping:     0.01,
		Restitution: 0.3,
		Ground:      true,
	}
}

// FromConfig converts the engine physics section.
func FromConfig(c grove.PhysicsConfig) Config {
	cfg := DefaultConfig()
	cfg.Gravity = mgl64.Vec3(c.Gravity)
	cfg.Damping = c.Damping
	cfg.GroundY = c.GroundY
	return cfg
}

// World is the simulation. It is not safe for concurrent use.
type World struct {
	cfg    Config
	bodies []*Body
	steps  uint64
}

var _ grove.Physics = (*World)(nil)

// NewWorld creates an empty world.
func NewWorld(cfg Config) *World {
	return &World{cfg: cfg}
}

// Body is a rigid body in a World.
type Body struct {
	dynamic  bool
	mass     float64
	position mgl64.Vec3
	velocity mgl64.Vec3
	shape    grove.Shape
	owner    *grove.Entity
}

var _ grove.RigidBody = (*Body)(nil)

func (b *Body) IsDynamic() bool { return b.dynamic }
func (b *Body) Position() mgl64.Vec3 { return b.position }
func (b *Body) SetPosition(p mgl64.Vec3) { b.position = p }
func (b *Body) Velocity() mgl64.Vec3 { return b.velocity }
func (b *Body) SetVelocity(v mgl64.Vec3) { b.velocity = v }
func (b *Body) SetShape(s grove.Shape) { b.shape = s }
func (b *Body) Owner() *grove.Entity { return b.owner }
func (b *Body) Mass() float64 { return b.mass }

// radius is the bounding sphere radius used for contacts.
func (b *Body) radius() float64 {
	if b.shape == nil {
		return 0
	}
	h := b.shape.HalfExtents()
	return math.Max(h.X(), math.Max(h.Y(), h.Z()))
}

// bottom is the half height used against the ground plane.
func (b *Body) bottom() float64 {
	if b.shape == nil {
		return 0
	}
	return b.shape.HalfExtents().Y()
}

type shape struct {
	half mgl64.Vec3
}

func (s shape) HalfExtents() mgl64.Vec3 { return s.half }

// CreateRigidBody adds a body to the world.
func (w *World) CreateRigidBody(dynamic bool, mass float64, owner *grove.Entity) (grove.RigidBody, error) {
	if dynamic && mass <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMass, mass)
	}
	b := &Body{dynamic: dynamic, mass: mass, owner: owner}
	w.bodies = append(w.bodies, b)
	return b, nil
}

// RemoveRigidBody removes b from the world. Unknown bodies are ignored.
func (w *World) RemoveRigidBody(b grove.RigidBody) {
	if i := slices.IndexFunc(w.bodies, func(x *Body) bool { return grove.RigidBody(x) == b }); i >= 0 {
		w.bodies = slices.Delete(w.bodies, i, i+1)
	}
}

// CreateBoxShape returns a box collider.
func (w *World) CreateBoxShape(half mgl64.Vec3) (grove.Shape, error) {
	if half.X() <= 0 || half.Y() <= 0 || half.Z() <= 0 {
		return nil, fmt.Errorf("%w: box %v", ErrInvalidShape, half)
	}
	return shape{half: half}, nil
}

// CreateSphereShape returns a sphere collider.
func (w *World) CreateSphereShape(radius float64) (grove.Shape, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: sphere radius %v", ErrInvalidShape, radius)
	}
	return shape{half: mgl64.Vec3{radius, radius, radius}}, nil
}

// CreateCapsuleShape returns a Y-aligned capsule collider. height is the
// length of the cylinder part.
func (w *World) CreateCapsuleShape(radius, height float64) (grove.Shape, error) {
	if radius <= 0 || height < 0 {
		return nil, fmt.Errorf("%w: capsule %v x %v", ErrInvalidShape, radius, height)
	}
	return shape{half: mgl64.Vec3{radius, radius + height/2, radius}}, nil
}

// CreateMeshShape returns a collider bounding the mesh.
func (w *World) CreateMeshShape(m *grove.Mesh) (grove.Shape, error) {
	if m == nil || len(m.Vertices) == 0 {
		return nil, fmt.Errorf("%w: empty mesh", ErrInvalidShape)
	}
	return shape{half: m.Bounds().Extents()}, nil
}

// Bodies returns the bodies in creation order.
func (w *World) Bodies() []*Body { return w.bodies }

// Steps returns how many times Simulate has succeeded.
func (w *World) Steps() uint64 { return w.steps }

// Simulate advances the world by dt seconds: integrate velocities, then run
// a few passes of ground and body contact resolution.
func (w *World) Simulate(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) {
		return fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
	}
	keep := math.Max(0, 1-w.cfg.Damping*dt)
	for _, b := range w.bodies {
		if !b.dynamic {
			continue
		}
		b.velocity = b.velocity.Add(w.cfg.Gravity.Mul(dt)).Mul(keep)
		b.velocity = clampVec(b.velocity, maxSpeed)
		b.position = b.position.Add(b.velocity.Mul(dt))
	}

	for pass := 0; pass < solverPasses; pass++ {
		if w.cfg.Ground {
			w.resolveGround()
		}
		w.resolveContacts(pass == 0)
	}
	w.steps++
	return nil
}

func (w *World) resolveGround() {
	for _, b := range w.bodies {
		if !b.dynamic {
			continue
		}
		floor := w.cfg.GroundY + b.bottom()
		if b.position.Y() < floor {
			b.position[1] = floor
			if b.velocity.Y() < 0 {
				b.velocity[1] = -b.velocity.Y() * w.cfg.Restitution
			}
		}
	}
}

// resolveContacts separates overlapping bounding spheres. Static bodies
// do not move; impulses apply on the first pass only.
func (w *World) resolveContacts(impulse bool) {
	for i := 0; i < len(w.bodies); i++ {
		a := w.bodies[i]
		for j := i + 1; j < len(w.bodies); j++ {
			b := w.bodies[j]
			if !a.dynamic && !b.dynamic {
				continue
			}
			d := b.position.Sub(a.position)
			minDist := a.radius() + b.radius()
			distSq := d.Dot(d)
			if minDist == 0 || distSq >= minDist*minDist || distSq < 1e-9 {
				continue
			}
			dist := math.Sqrt(distSq)
			n := d.Mul(1 / dist)
			overlap := minDist - dist

			wa, wb := a.inverseMass(), b.inverseMass()
			total := wa + wb
			a.position = a.position.Sub(n.Mul(overlap * wa / total))
			b.position = b.position.Add(n.Mul(overlap * wb / total))

			if !impulse {
				continue
			}
			dvn := a.velocity.Sub(b.velocity).Dot(n)
			if dvn <= 0 {
				continue
			}
			imp := (1 + w.cfg.Restitution) * dvn / total
			a.velocity = a.velocity.Sub(n.Mul(imp * wa))
			b.velocity = b.velocity.Add(n.Mul(imp * wb))
		}
	}
}

func (b *Body) inverseMass() float64 {
	if !b.dynamic || b.mass <= 0 {
		return 0
	}
	return 1 / b.mass
}

func clampVec(v mgl64.Vec3, limit float64) mgl64.Vec3 {
	if l := v.Len(); l > limit {
		return v.Mul(limit / l)
	}
	return v
}
