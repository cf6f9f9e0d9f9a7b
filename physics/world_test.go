package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/grove"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBody(t *testing.T, w *World, dynamic bool, pos mgl64.Vec3, radius float64) *Body {
	t.Helper()
	rb, err := w.CreateRigidBody(dynamic, 1, nil)
	require.NoError(t, err)
	s, err := w.CreateSphereShape(radius)
	require.NoError(t, err)
	rb.SetShape(s)
	rb.SetPosition(pos)
	return rb.(*Body)
}

func TestSimulateRejectsBadTimeStep(t *testing.T) {
	w := NewWorld(DefaultConfig())
	for _, dt := range []float64{0, -0.1, math.NaN()} {
		assert.ErrorIs(t, w.Simulate(dt), ErrInvalidTimeStep, "dt=%v", dt)
	}
	assert.Zero(t, w.Steps())
	require.NoError(t, w.Simulate(0.01))
	assert.Equal(t, uint64(1), w.Steps())
}

func TestFreeFall(t *testing.T) {
	w := NewWorld(DefaultConfig())
	b := newBody(t, w, true, mgl64.Vec3{0, 10, 0}, 0.5)

	for range 10 {
		require.NoError(t, w.Simulate(0.05))
	}
	assert.Less(t, b.Position().Y(), 9.0)
	assert.Greater(t, b.Position().Y(), 0.5)
	assert.Less(t, b.Velocity().Y(), 0.0)
	assert.Zero(t, b.Position().X())
}

func TestBodyRestsOnGround(t *testing.T) {
	w := NewWorld(DefaultConfig())
	b := newBody(t, w, true, mgl64.Vec3{0, 0.5, 0}, 0.5)

	for range 200 {
		require.NoError(t, w.Simulate(1.0 / 60))
		require.GreaterOrEqual(t, b.Position().Y(), 0.5)
	}
	assert.InDelta(t, 0.5, b.Position().Y(), 0.01)
}

func TestGroundDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ground = false
	w := NewWorld(cfg)
	b := newBody(t, w, true, mgl64.Vec3{0, 0.5, 0}, 0.5)
	for range 30 {
		require.NoError(t, w.Simulate(1.0 / 60))
	}
	assert.Less(t, b.Position().Y(), 0.0)
}

func TestStaticBodyDoesNotMove(t *testing.T) {
	w := NewWorld(DefaultConfig())
	b := newBody(t, w, false, mgl64.Vec3{0, 3, 0}, 1)
	require.NoError(t, w.Simulate(0.5))
	assert.Equal(t, mgl64.Vec3{0, 3, 0}, b.Position())
	assert.Equal(t, mgl64.Vec3{}, b.Velocity())
}

func TestContactSeparation(t *testing.T) {
	w := NewWorld(Config{})
	a := newBody(t, w, true, mgl64.Vec3{0, 0, 0}, 0.5)
	b := newBody(t, w, true, mgl64.Vec3{0.6, 0, 0}, 0.5)

	require.NoError(t, w.Simulate(0.01))
	assert.InDelta(t, 1.0, b.Position().Sub(a.Position()).Len(), 1e-9)
	assert.InDelta(t, -0.2, a.Position().X(), 1e-9, "equal masses share the correction")
}

func TestContactAgainstStatic(t *testing.T) {
	w := NewWorld(Config{Restitution: 0.5})
	wall := newBody(t, w, false, mgl64.Vec3{}, 0.5)
	ball := newBody(t, w, true, mgl64.Vec3{0.6, 0, 0}, 0.5)
	ball.SetVelocity(mgl64.Vec3{-1, 0, 0})

	require.NoError(t, w.Simulate(0.01))
	assert.Equal(t, mgl64.Vec3{}, wall.Position())
	assert.InDelta(t, 1.0, ball.Position().X(), 1e-9)
	assert.InDelta(t, 0.5, ball.Velocity().X(), 1e-9, "ball bounces off the wall")
}

func TestContactAgainstStaticInelastic(t *testing.T) {
	w := NewWorld(Config{})
	newBody(t, w, false, mgl64.Vec3{}, 0.5)
	ball := newBody(t, w, true, mgl64.Vec3{0.6, 0, 0}, 0.5)
	ball.SetVelocity(mgl64.Vec3{-1, 0, 0})

	require.NoError(t, w.Simulate(0.01))
	assert.InDelta(t, 0, ball.Velocity().X(), 1e-9, "no restitution stops the ball")
}

func TestInvalidBodiesAndShapes(t *testing.T) {
	w := NewWorld(DefaultConfig())
	_, err := w.CreateRigidBody(true, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidMass)
	_, err = w.CreateRigidBody(false, 0, nil)
	assert.NoError(t, err, "static bodies need no mass")

	_, err = w.CreateBoxShape(mgl64.Vec3{1, 0, 1})
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = w.CreateSphereShape(-1)
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = w.CreateCapsuleShape(0, 1)
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = w.CreateMeshShape(nil)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestShapeExtents(t *testing.T) {
	w := NewWorld(DefaultConfig())
	capsule, err := w.CreateCapsuleShape(0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{0.5, 1.5, 0.5}, capsule.HalfExtents())

	mesh, err := w.CreateMeshShape(grove.NewCubeMesh(2))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mesh.HalfExtents().Y(), 1e-9)
}

func TestRemoveRigidBody(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := newBody(t, w, true, mgl64.Vec3{}, 1)
	b := newBody(t, w, true, mgl64.Vec3{5, 0, 0}, 1)
	w.RemoveRigidBody(a)
	w.RemoveRigidBody(a)
	require.Len(t, w.Bodies(), 1)
	assert.Same(t, b, w.Bodies()[0])
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(grove.PhysicsConfig{Enabled: true, Gravity: [3]float64{0, -1, 0}, Damping: 0.5, GroundY: 2})
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, cfg.Gravity)
	assert.Equal(t, 0.5, cfg.Damping)
	assert.Equal(t, 2.0, cfg.GroundY)
	assert.True(t, cfg.Ground)
	assert.Equal(t, DefaultConfig().Restitution, cfg.Restitution)
}

// --- scene integration ---

func TestPhysicalBodyFallsInScene(t *testing.T) {
	s := grove.NewScene()
	w := NewWorld(DefaultConfig())
	s.SetPhysics(w)

	e := s.Spawn("ball")
	e.Transform().SetPosition(mgl64.Vec3{0, 3, 0})
	pb := &grove.PhysicalBody{Dynamic: true, Mass: 1, Shape: grove.ShapeSphere, Radius: 0.5}
	require.NoError(t, e.Attach(pb))
	require.Len(t, w.Bodies(), 1)
	assert.Same(t, e, w.Bodies()[0].Owner())

	for range 120 {
		s.Update(1.0 / 60)
	}
	y := e.Transform().Position().Y()
	assert.GreaterOrEqual(t, y, 0.5-1e-9)
	assert.Less(t, y, 1.0)

	s.Destroy(e)
	assert.Empty(t, w.Bodies())
}

func TestStaticPhysicalBodyFollowsTransform(t *testing.T) {
	s := grove.NewScene()
	w := NewWorld(DefaultConfig())
	s.SetPhysics(w)

	e := s.Spawn("wall")
	pb := &grove.PhysicalBody{Shape: grove.ShapeBox, HalfExtents: mgl64.Vec3{1, 1, 1}}
	require.NoError(t, e.Attach(pb))

	e.Transform().SetPosition(mgl64.Vec3{5, 0, 0})
	s.Update(1.0 / 60)
	assert.Equal(t, mgl64.Vec3{5, 0, 0}, pb.Body().Position())
}

func TestPhysicalBodyErrors(t *testing.T) {
	s := grove.NewScene()
	err := s.Spawn("a").Attach(&grove.PhysicalBody{Dynamic: true, Mass: 1})
	assert.ErrorIs(t, err, grove.ErrNoPhysics)

	w := NewWorld(DefaultConfig())
	s.SetPhysics(w)
	err = s.Spawn("b").Attach(&grove.PhysicalBody{Dynamic: true})
	assert.ErrorIs(t, err, ErrInvalidMass)

	err = s.Spawn("c").Attach(&grove.PhysicalBody{Dynamic: true, Mass: 1, Shape: grove.ShapeMesh})
	assert.Error(t, err)
	assert.Empty(t, w.Bodies(), "failed shape creation removes the body")
}

func TestPhysicalBodyImpulse(t *testing.T) {
	s := grove.NewScene()
	s.SetPhysics(NewWorld(Config{}))
	e := s.Spawn("puck")
	pb := &grove.PhysicalBody{Dynamic: true, Mass: 2, Shape: grove.ShapeSphere, Radius: 0.25}
	require.NoError(t, e.Attach(pb))

	pb.AddImpulse(mgl64.Vec3{4, 0, 0})
	assert.Equal(t, mgl64.Vec3{2, 0, 0}, pb.Body().Velocity())
	s.Update(0.5)
	assert.InDelta(t, 1.0, e.Transform().Position().X(), 1e-9)
}
