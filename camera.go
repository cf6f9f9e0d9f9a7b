package grove

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Default projection parameters applied to zero fields on initialize.
const (
	DefaultFieldOfView = 60.0
	DefaultNear        = 0.1
	DefaultFar         = 1000.0
)

// Camera derives view and projection matrices from its owner's transform,
// builds a view frustum, and partitions the scene's mesh renderers into
// visible opaque, transparent and overlay buckets each frame.
//
// The view, projection and frustum are valid after Resize (called on
// initialize, by Scene.Resize and by Scene.PostLoad) and are refreshed
// whenever the owner's world matrix is recomputed.
type Camera struct {
	BaseComponent

	// FieldOfView is the vertical field of view in degrees. Near and Far are
	// the clip distances. Call Resize after changing any of them.
	FieldOfView float64
	Near        float64
	Far         float64

	renderOrder int

	view           mgl64.Mat4
	projection     mgl64.Mat4
	viewProjection mgl64.Mat4
	frustum        Frustum
	aspect         float64
	registered     bool

	opaque      []*MeshRenderer
	transparent []*MeshRenderer
	overlay     []*MeshRenderer
	culled      int

	fovTween *gween.Tween
}

// OnInitialize fills default projection parameters, registers with the
// scene and computes the matrices.
func (c *Camera) OnInitialize() error {
	s := c.Owner().Scene()
	if s == nil {
		return ErrNilOwner
	}
	if c.FieldOfView <= 0 {
		c.FieldOfView = DefaultFieldOfView
	}
	if c.Near <= 0 {
		c.Near = DefaultNear
	}
	if c.Far <= c.Near {
		c.Far = math.Max(DefaultFar, c.Near*2)
	}
	s.registerCamera(c)
	c.updateView()
	c.Resize()
	return nil
}

// OnShutdown unregisters the camera. A main camera that shuts down is
// replaced on the next Scene.MainCamera call.
func (c *Camera) OnShutdown() {
	if s := c.Owner().Scene(); s != nil {
		s.unregisterCamera(c)
	}
	c.fovTween = nil
	c.clearBuckets()
}

// OnOwnerTransformUpdated refreshes the view matrix and frustum.
func (c *Camera) OnOwnerTransformUpdated() {
	c.updateView()
	c.ConstructFrustum()
}

// OnUpdate advances a running field-of-view animation.
func (c *Camera) OnUpdate(dt float64) {
	if c.fovTween == nil {
		return
	}
	v, done := c.fovTween.Update(float32(dt))
	c.FieldOfView = float64(v)
	if done {
		c.fovTween = nil
	}
	c.Resize()
}

// AnimateFieldOfView tweens the field of view to target over duration
// seconds. A nil easeFn uses linear easing.
func (c *Camera) AnimateFieldOfView(target float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.fovTween = gween.New(float32(c.FieldOfView), float32(target), duration, easeFn)
}

// IsAnimating reports whether a field-of-view tween is running.
func (c *Camera) IsAnimating() bool { return c.fovTween != nil }

// RenderOrder returns the registry sort key. Higher orders render first.
func (c *Camera) RenderOrder() int { return c.renderOrder }

// SetRenderOrder changes the sort key and re-sorts the scene's camera list.
func (c *Camera) SetRenderOrder(order int) {
	if c.renderOrder == order {
		return
	}
	c.renderOrder = order
	if c.registered {
		c.Owner().Scene().sortCameras()
	}
}

// Resize recomputes the projection from the scene's aspect ratio and
// rebuilds the frustum.
func (c *Camera) Resize() {
	c.aspect = 1
	if o := c.Owner(); o != nil && o.Scene() != nil {
		c.aspect = o.Scene().AspectRatio()
	}
	c.projection = perspectiveLH(mgl64.DegToRad(c.FieldOfView), c.aspect, c.Near, c.Far)
	c.ConstructFrustum()
}

// perspectiveLH builds a left-handed perspective projection mapping view
// depth [near, far] to NDC z [-1, 1].
func perspectiveLH(fovy, aspect, near, far float64) mgl64.Mat4 {
	f := 1 / math.Tan(fovy/2)
	nf := far - near
	return mgl64.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / nf, 1,
		0, 0, -2 * far * near / nf, 0,
	}
}

// updateView rebuilds the view matrix from the owner's world position and
// axes. Scale on the owner does not affect the view.
func (c *Camera) updateView() {
	o := c.Owner()
	if o == nil || o.Transform() == nil {
		return
	}
	t := o.Transform()
	eye := t.WorldPosition()
	right, up, fwd := t.Right(), t.Up(), t.Forward()
	c.view = mgl64.Mat4FromRows(
		mgl64.Vec4{right.X(), right.Y(), right.Z(), -right.Dot(eye)},
		mgl64.Vec4{up.X(), up.Y(), up.Z(), -up.Dot(eye)},
		mgl64.Vec4{fwd.X(), fwd.Y(), fwd.Z(), -fwd.Dot(eye)},
		mgl64.Vec4{0, 0, 0, 1},
	)
}

// ConstructFrustum rebuilds the six frustum planes from projection * view.
func (c *Camera) ConstructFrustum() {
	c.viewProjection = c.projection.Mul4(c.view)
	c.frustum = NewFrustum(c.viewProjection)
}

// IsInsideFrustum reports whether p lies inside or on every frustum plane.
func (c *Camera) IsInsideFrustum(p mgl64.Vec3) bool {
	return c.frustum.ContainsPoint(p)
}

// DetermineVisibleRenderers tests every renderer's owner world position
// against the frustum and buckets the visible ones by render queue class.
// Disabled renderers and renderers on inactive entities are skipped.
func (c *Camera) DetermineVisibleRenderers(renderers []*MeshRenderer) {
	c.clearBuckets()
	for _, r := range renderers {
		o := r.Owner()
		if o == nil || o.Transform() == nil || !r.Enabled() || !o.IsActiveInHierarchy() {
			continue
		}
		if !c.IsInsideFrustum(o.Transform().WorldPosition()) {
			c.culled++
			continue
		}
		c.DivideRenderersByRenderQueue(r)
	}
}

// DivideRenderersByRenderQueue places r in the bucket matching its
// material's render queue.
func (c *Camera) DivideRenderersByRenderQueue(r *MeshRenderer) {
	switch r.RenderQueue().Class() {
	case RenderClassOpaque:
		c.opaque = append(c.opaque, r)
	case RenderClassTransparent:
		c.transparent = append(c.transparent, r)
	default:
		c.overlay = append(c.overlay, r)
	}
}

func (c *Camera) clearBuckets() {
	clear(c.opaque)
	clear(c.transparent)
	clear(c.overlay)
	c.opaque = c.opaque[:0]
	c.transparent = c.transparent[:0]
	c.overlay = c.overlay[:0]
	c.culled = 0
}

// Render binds the camera, culls renderers and draws the opaque bucket.
// Transparent and overlay buckets are collected but not drawn.
func (c *Camera) Render(g Graphics, renderers []*MeshRenderer) {
	g.SetCamera(c.view, c.projection)
	c.DetermineVisibleRenderers(renderers)
	for _, r := range c.opaque {
		r.Owner().PreRender(g)
		r.OnRender(g)
	}
	if s := c.Owner().Scene(); s != nil && s.debug {
		s.stats.visible += len(c.opaque) + len(c.transparent) + len(c.overlay)
		s.stats.culled += c.culled
		s.stats.opaque += len(c.opaque)
		s.stats.transparent += len(c.transparent)
	}
}

// VisibleOpaque returns the opaque bucket of the last culling pass.
func (c *Camera) VisibleOpaque() []*MeshRenderer { return c.opaque }

// VisibleTransparent returns the transparent bucket of the last culling pass.
func (c *Camera) VisibleTransparent() []*MeshRenderer { return c.transparent }

// VisibleOverlay returns the overlay bucket of the last culling pass.
func (c *Camera) VisibleOverlay() []*MeshRenderer { return c.overlay }

// Culled returns how many renderers the last culling pass rejected.
func (c *Camera) Culled() int { return c.culled }

// View returns the view matrix.
func (c *Camera) View() mgl64.Mat4 { return c.view }

// Projection returns the projection matrix.
func (c *Camera) Projection() mgl64.Mat4 { return c.projection }

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() mgl64.Mat4 { return c.viewProjection }

// Frustum returns the current frustum.
func (c *Camera) Frustum() Frustum { return c.frustum }

// AspectRatio returns the aspect ratio used by the last Resize.
func (c *Camera) AspectRatio() float64 { return c.aspect }

// WorldToScreen projects a world point to pixel coordinates of the scene's
// surface, origin top-left. ok is false for points behind the camera.
func (c *Camera) WorldToScreen(p mgl64.Vec3) (x, y float64, ok bool) {
	clip := c.viewProjection.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	w, h := c.surfaceSize()
	nx, ny := clip.X()/clip.W(), clip.Y()/clip.W()
	return (nx + 1) / 2 * w, (1 - ny) / 2 * h, true
}

// ScreenPointToRay returns the world-space ray through pixel (x, y).
func (c *Camera) ScreenPointToRay(x, y float64) Ray {
	w, h := c.surfaceSize()
	nx := 2*x/w - 1
	ny := 1 - 2*y/h
	inv := c.viewProjection.Inv()
	near := mgl64.TransformCoordinate(mgl64.Vec3{nx, ny, -1}, inv)
	far := mgl64.TransformCoordinate(mgl64.Vec3{nx, ny, 1}, inv)
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

func (c *Camera) surfaceSize() (float64, float64) {
	if s := c.Owner().Scene(); s != nil && s.width > 0 && s.height > 0 {
		return float64(s.width), float64(s.height)
	}
	return 1, 1
}

// Copy copies the projection parameters and render order.
func (c *Camera) Copy(newOwner *Entity) Component {
	return &Camera{
		FieldOfView: c.FieldOfView,
		Near:        c.Near,
		Far:         c.Far,
		renderOrder: c.renderOrder,
	}
}

type cameraData struct {
	FieldOfView float64 `yaml:"fov"`
	Near        float64 `yaml:"near"`
	Far         float64 `yaml:"far"`
	RenderOrder int     `yaml:"render_order,omitempty"`
}

// TypeName implements Persister.
func (c *Camera) TypeName() string { return "camera" }

// Save implements Persister.
func (c *Camera) Save(node *yaml.Node) error {
	return node.Encode(cameraData{FieldOfView: c.FieldOfView, Near: c.Near, Far: c.Far, RenderOrder: c.renderOrder})
}

// Load implements Persister.
func (c *Camera) Load(node *yaml.Node) error {
	var d cameraData
	if err := node.Decode(&d); err != nil {
		return err
	}
	if d.Far > 0 && d.Far <= d.Near {
		c.Logger().Warn("camera far plane not beyond near plane",
			zap.Float64("near", d.Near), zap.Float64("far", d.Far))
	}
	c.FieldOfView, c.Near, c.Far, c.renderOrder = d.FieldOfView, d.Near, d.Far, d.RenderOrder
	return nil
}
