package grove

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Physics is the rigid-body collaborator a Scene steps once per Update.
type Physics interface {
	CreateRigidBody(dynamic bool, mass float64, owner *Entity) (RigidBody, error)
	RemoveRigidBody(b RigidBody)
	CreateBoxShape(halfExtents mgl64.Vec3) (Shape, error)
	CreateSphereShape(radius float64) (Shape, error)
	CreateCapsuleShape(radius, height float64) (Shape, error)
	CreateMeshShape(m *Mesh) (Shape, error)
	Simulate(dt float64) error
}

// RigidBody is a simulated body handle.
type RigidBody interface {
	IsDynamic() bool
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	SetShape(s Shape)
}

// Shape is a collision shape handle. HalfExtents bounds the shape.
type Shape interface {
	HalfExtents() mgl64.Vec3
}

// ShapeKind selects the collider PhysicalBody creates.
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeBox
	ShapeSphere
	ShapeCapsule
	ShapeMesh
)

var shapeKindNames = map[ShapeKind]string{
	ShapeNone:    "none",
	ShapeBox:     "box",
	ShapeSphere:  "sphere",
	ShapeCapsule: "capsule",
	ShapeMesh:    "mesh",
}

func (k ShapeKind) String() string { return shapeKindNames[k] }

// PhysicalBody binds a rigid body to its owner's transform.
//
// Dynamic bodies own the pose: each OnUpdate copies the body position into
// the owner's local position (converted through the parent, if any).
// Static bodies follow the owner: every transform recompute pushes the
// owner's world position into the body.
type PhysicalBody struct {
	BaseComponent
	Dynamic bool
	Mass    float64
	Shape   ShapeKind
	// HalfExtents sizes box shapes. Radius and Height size spheres and
	// capsules.
	HalfExtents mgl64.Vec3
	Radius      float64
	Height      float64

	body RigidBody
}

// OnInitialize creates the body and its shape. Fails with ErrNoPhysics when
// the scene has no physics collaborator.
func (b *PhysicalBody) OnInitialize() error {
	p := b.Owner().Scene().Physics()
	if p == nil {
		return ErrNoPhysics
	}
	body, err := p.CreateRigidBody(b.Dynamic, b.Mass, b.Owner())
	if err != nil {
		return fmt.Errorf("create rigid body: %w", err)
	}
	shape, err := b.createShape(p)
	if err != nil {
		p.RemoveRigidBody(body)
		return fmt.Errorf("create %s shape: %w", b.Shape, err)
	}
	if shape != nil {
		body.SetShape(shape)
	}
	t := b.Owner().Transform()
	if t.parent != nil {
		body.SetPosition(t.parent.LocalToWorld(t.position))
	} else {
		body.SetPosition(t.position)
	}
	b.body = body
	return nil
}

func (b *PhysicalBody) createShape(p Physics) (Shape, error) {
	switch b.Shape {
	case ShapeBox:
		return p.CreateBoxShape(b.HalfExtents)
	case ShapeSphere:
		return p.CreateSphereShape(b.Radius)
	case ShapeCapsule:
		return p.CreateCapsuleShape(b.Radius, b.Height)
	case ShapeMesh:
		r := GetComponent[*MeshRenderer](b.Owner())
		if r == nil || r.Mesh == nil {
			return nil, fmt.Errorf("entity %q has no mesh", b.Owner().Name)
		}
		return p.CreateMeshShape(r.Mesh)
	}
	return nil, nil
}

// OnShutdown removes the body from the simulation.
func (b *PhysicalBody) OnShutdown() {
	if b.body == nil {
		return
	}
	if p := b.Owner().Scene().Physics(); p != nil {
		p.RemoveRigidBody(b.body)
	}
	b.body = nil
}

// OnUpdate writes a dynamic body's simulated position back to the owner.
func (b *PhysicalBody) OnUpdate(dt float64) {
	if b.body == nil || !b.body.IsDynamic() {
		return
	}
	t := b.Owner().Transform()
	pos := b.body.Position()
	if t.parent != nil {
		pos = t.parent.WorldToLocal(pos)
	}
	if pos != t.position {
		t.SetPosition(pos)
	}
}

// OnOwnerTransformUpdated moves a static body to the owner's world position.
func (b *PhysicalBody) OnOwnerTransformUpdated() {
	if b.body == nil || b.body.IsDynamic() {
		return
	}
	b.body.SetPosition(b.Owner().Transform().WorldPosition())
}

// Body returns the rigid body handle, or nil before initialize.
func (b *PhysicalBody) Body() RigidBody { return b.body }

// AddImpulse changes a dynamic body's velocity by impulse/mass.
func (b *PhysicalBody) AddImpulse(impulse mgl64.Vec3) {
	if b.body == nil || !b.body.IsDynamic() {
		return
	}
	m := b.Mass
	if m <= 0 {
		m = 1
	}
	b.body.SetVelocity(b.body.Velocity().Add(impulse.Mul(1 / m)))
}

// Copy copies the body description; the copy creates its own body.
func (b *PhysicalBody) Copy(newOwner *Entity) Component {
	return &PhysicalBody{
		Dynamic: b.Dynamic, Mass: b.Mass, Shape: b.Shape,
		HalfExtents: b.HalfExtents, Radius: b.Radius, Height: b.Height,
	}
}

type physicalBodyData struct {
	Dynamic     bool       `yaml:"dynamic"`
	Mass        float64    `yaml:"mass"`
	Shape       string     `yaml:"shape"`
	HalfExtents [3]float64 `yaml:"half_extents,omitempty"`
	Radius      float64    `yaml:"radius,omitempty"`
	Height      float64    `yaml:"height,omitempty"`
}

// TypeName implements Persister.
func (b *PhysicalBody) TypeName() string { return "physical_body" }

// Save implements Persister.
func (b *PhysicalBody) Save(node *yaml.Node) error {
	return node.Encode(physicalBodyData{
		Dynamic: b.Dynamic, Mass: b.Mass, Shape: b.Shape.String(),
		HalfExtents: b.HalfExtents, Radius: b.Radius, Height: b.Height,
	})
}

// Load implements Persister.
func (b *PhysicalBody) Load(node *yaml.Node) error {
	var d physicalBodyData
	if err := node.Decode(&d); err != nil {
		return err
	}
	b.Shape = ShapeNone
	for k, name := range shapeKindNames {
		if name == d.Shape {
			b.Shape = k
		}
	}
	if b.Shape == ShapeNone && d.Shape != "" && d.Shape != "none" {
		b.Logger().Warn("unknown physics shape", zap.String("shape", d.Shape))
	}
	b.Dynamic, b.Mass = d.Dynamic, d.Mass
	b.HalfExtents, b.Radius, b.Height = d.HalfExtents, d.Radius, d.Height
	return nil
}
