package grove

import (
	"slices"
	"time"
	"weak"

	"go.uber.org/zap"
)

const defaultEntityCap = 256

// Scene owns the live entities, the camera and mesh-renderer registries and
// the optional collaborators (physics, event sink, resources). It drives the
// per-frame Update and Render passes.
//
// Spawned entities are staged and join the live set at the start of the next
// Update. Destroy requests made while an Update pass runs are applied when
// the pass completes.
type Scene struct {
	logger    *zap.Logger
	debug     bool
	sink      EventSink
	physics   Physics
	resources *Resources

	entities     []*Entity
	newEntities  []*Entity
	destroyQueue []*Entity
	updating     bool
	rendering    bool
	prune        bool

	cameras    []*Camera
	mainCamera weak.Pointer[Camera]
	renderers  []*MeshRenderer

	width, height int

	// ClearColor is passed to Graphics.BeginScene every frame.
	ClearColor Color

	frame uint64
	stats debugStats
}

// NewScene creates an empty scene with a no-op logger and an empty
// resource cache.
func NewScene() *Scene {
	return &Scene{
		logger:     nopLogger,
		resources:  NewResources(),
		entities:   make([]*Entity, 0, defaultEntityCap),
		ClearColor: Color{0.1, 0.1, 0.12, 1},
	}
}

// SetLogger replaces the scene logger. A nil logger restores the no-op logger.
func (s *Scene) SetLogger(l *zap.Logger) {
	if l == nil {
		l = nopLogger
	}
	s.logger = l
}

// Logger returns the scene logger.
func (s *Scene) Logger() *zap.Logger { return s.logger }

// SetDebugMode enables per-frame stats logging and hierarchy warnings.
func (s *Scene) SetDebugMode(enabled bool) { s.debug = enabled }

// SetEventSink sets the lifecycle event sink. Pass nil to disable.
func (s *Scene) SetEventSink(sink EventSink) { s.sink = sink }

// SetPhysics sets the physics collaborator stepped at the start of Update.
func (s *Scene) SetPhysics(p Physics) { s.physics = p }

// Physics returns the physics collaborator, or nil.
func (s *Scene) Physics() Physics { return s.physics }

// Resources returns the scene's resource cache.
func (s *Scene) Resources() *Resources { return s.resources }

// SetResources replaces the resource cache.
func (s *Scene) SetResources(r *Resources) { s.resources = r }

// Frame returns the number of Update calls so far.
func (s *Scene) Frame() uint64 { return s.frame }

func (s *Scene) emit(ev Event) {
	if s.sink != nil {
		s.sink.EmitEvent(ev)
	}
}

// --- Entities ---

// Spawn creates and initializes an entity. It joins the live set, and
// receives its first Update, at the start of the next Scene.Update.
func (s *Scene) Spawn(name string) *Entity {
	return s.spawn(name)
}

func (s *Scene) spawn(name string) *Entity {
	e := newEntity(s, name)
	e.Initialize()
	s.newEntities = append(s.newEntities, e)
	s.emit(Event{Type: EventEntitySpawned, EntityID: e.ID, EntityName: e.Name})
	return e
}

// SpawnCopy spawns a deep copy of template (see Entity.Copy). Returns nil if
// template belongs to another scene or has been destroyed.
func (s *Scene) SpawnCopy(template *Entity) *Entity {
	if template == nil || template.scene != s {
		return nil
	}
	return template.Copy()
}

// Destroy shuts e and all its descendants down and removes them from the
// scene. During an Update pass the request is queued until the pass ends.
func (s *Scene) Destroy(e *Entity) {
	if e == nil || e.scene != s || e.shutdown {
		return
	}
	if s.updating {
		s.destroyQueue = append(s.destroyQueue, e)
		return
	}
	s.destroyNow(e)
}

func (s *Scene) destroyNow(e *Entity) {
	if e.shutdown {
		return
	}
	for _, child := range slices.Clone(e.children) {
		s.destroyNow(child)
	}
	e.Shutdown()
}

// release drops a shut down entity from the scene. While entities are being
// iterated the live list is pruned once the pass ends.
func (s *Scene) release(e *Entity) {
	s.newEntities = removeEntity(s.newEntities, e)
	if s.updating || s.rendering {
		s.prune = true
	} else {
		s.entities = removeEntity(s.entities, e)
	}
	s.emit(Event{Type: EventEntityDestroyed, EntityID: e.ID, EntityName: e.Name})
}

func (s *Scene) pruneEntities() {
	if !s.prune {
		return
	}
	s.prune = false
	s.entities = slices.DeleteFunc(s.entities, (*Entity).IsShutdown)
}

func (s *Scene) flushDestroys() {
	for len(s.destroyQueue) > 0 {
		q := s.destroyQueue
		s.destroyQueue = nil
		for _, e := range q {
			s.destroyNow(e)
		}
	}
}

func removeEntity(list []*Entity, e *Entity) []*Entity {
	for i, x := range list {
		if x == e {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

func (s *Scene) mergeNewEntities() {
	if len(s.newEntities) == 0 {
		return
	}
	s.entities = append(s.entities, s.newEntities...)
	clear(s.newEntities)
	s.newEntities = s.newEntities[:0]
}

// Entities returns the live entities in update order. Entities spawned since
// the last Update are not included. The returned slice MUST NOT be mutated.
func (s *Scene) Entities() []*Entity { return s.entities }

// Find returns the first live or staged entity with the given name.
func (s *Scene) Find(name string) *Entity {
	for _, list := range [2][]*Entity{s.entities, s.newEntities} {
		for _, e := range list {
			if e.Name == name {
				return e
			}
		}
	}
	return nil
}

// FindByID returns the live or staged entity with the given ID.
func (s *Scene) FindByID(id uint32) *Entity {
	for _, list := range [2][]*Entity{s.entities, s.newEntities} {
		for _, e := range list {
			if e.ID == id {
				return e
			}
		}
	}
	return nil
}

// Clear destroys every entity.
func (s *Scene) Clear() {
	all := append(slices.Clone(s.entities), s.newEntities...)
	for _, e := range all {
		s.Destroy(e)
	}
}

// --- Frame ---

// Update merges staged entities, applies queued destroys, steps physics and
// updates every live entity that is enabled in hierarchy, in insertion order.
func (s *Scene) Update(dt float64) {
	var start time.Time
	if s.debug {
		start = time.Now()
		s.stats = debugStats{}
	}
	s.frame++

	s.mergeNewEntities()
	s.flushDestroys()

	if s.physics != nil {
		if err := s.physics.Simulate(dt); err != nil {
			s.logger.Warn("physics step skipped", zap.Float64("dt", dt), zap.Error(err))
		}
	}

	s.updating = true
	n := len(s.entities)
	for i := 0; i < n; i++ {
		e := s.entities[i]
		if e.shutdown || !e.IsActiveInHierarchy() {
			continue
		}
		e.Update(dt)
		s.stats.updated++
	}
	s.updating = false

	s.pruneEntities()
	s.flushDestroys()

	if s.debug {
		s.stats.updateTime = time.Since(start)
	}
}

// Render runs one pass per enabled camera, in descending render order. Each
// pass binds the camera, draws its visible opaque mesh renderers and then
// dispatches OnRender to the other renderer components of every active
// entity.
func (s *Scene) Render(g Graphics) {
	var start time.Time
	if s.debug {
		start = time.Now()
	}
	g.BeginScene(s.ClearColor)
	s.rendering = true
	for _, cam := range s.cameras {
		o := cam.Owner()
		if !cam.Enabled() || o == nil || !o.IsActiveInHierarchy() {
			continue
		}
		cam.Render(g, s.renderers)
		for _, e := range s.entities {
			if e.shutdown || !e.IsActiveInHierarchy() {
				continue
			}
			e.Render(g)
		}
	}
	s.rendering = false
	s.pruneEntities()
	g.EndScene()

	if s.debug {
		s.stats.renderTime = time.Since(start)
		s.debugLog(s.stats)
	}
}

// PostLoad merges staged entities, recomputes every world matrix top-down
// and resizes every camera. Call it after building or loading a scene.
func (s *Scene) PostLoad() {
	s.mergeNewEntities()
	for _, e := range s.entities {
		if e.parent == nil {
			e.RecalculateTransform()
		}
	}
	for _, c := range s.cameras {
		c.Resize()
	}
}

// --- Surface ---

// Resize records the output surface size and resizes every registered
// camera. The window layer calls it when the surface changes.
func (s *Scene) Resize(width, height int) {
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	for _, c := range s.cameras {
		c.Resize()
	}
}

// Size returns the output surface size.
func (s *Scene) Size() (width, height int) { return s.width, s.height }

// AspectRatio returns width/height, or 1 before the first Resize.
func (s *Scene) AspectRatio() float64 {
	if s.width <= 0 || s.height <= 0 {
		return 1
	}
	return float64(s.width) / float64(s.height)
}

// --- Registries ---

// Cameras returns the registered cameras sorted by descending render order.
// The returned slice MUST NOT be mutated.
func (s *Scene) Cameras() []*Camera { return s.cameras }

// Renderers returns the registered mesh renderers.
// The returned slice MUST NOT be mutated.
func (s *Scene) Renderers() []*MeshRenderer { return s.renderers }

// MainCamera returns the main camera. The first registered camera becomes
// main; if it has since shut down, the first surviving camera in registry
// order replaces it. Returns nil when no camera is registered.
func (s *Scene) MainCamera() *Camera {
	if c := s.mainCamera.Value(); c != nil && c.registered {
		return c
	}
	if len(s.cameras) == 0 {
		s.mainCamera = weak.Pointer[Camera]{}
		return nil
	}
	c := s.cameras[0]
	s.setMainCamera(c)
	return c
}

// SetMainCamera selects c as main camera. c must be registered.
func (s *Scene) SetMainCamera(c *Camera) bool {
	if c == nil || !c.registered || c.Owner().Scene() != s {
		return false
	}
	s.setMainCamera(c)
	return true
}

func (s *Scene) setMainCamera(c *Camera) {
	if s.mainCamera.Value() == c {
		return
	}
	s.mainCamera = weak.Make(c)
	o := c.Owner()
	s.emit(Event{Type: EventMainCameraChanged, EntityID: o.ID, EntityName: o.Name, Component: componentTypeName(c)})
}

func (s *Scene) registerCamera(c *Camera) {
	if c.registered {
		return
	}
	c.registered = true
	s.cameras = append(s.cameras, c)
	s.sortCameras()
	o := c.Owner()
	s.emit(Event{Type: EventCameraRegistered, EntityID: o.ID, EntityName: o.Name, Component: componentTypeName(c)})
	if cur := s.mainCamera.Value(); cur == nil || !cur.registered {
		s.setMainCamera(c)
	}
}

func (s *Scene) unregisterCamera(c *Camera) {
	if !c.registered {
		return
	}
	c.registered = false
	if i := slices.Index(s.cameras, c); i >= 0 {
		s.cameras = slices.Delete(s.cameras, i, i+1)
	}
	o := c.Owner()
	s.emit(Event{Type: EventCameraUnregistered, EntityID: o.ID, EntityName: o.Name, Component: componentTypeName(c)})
}

// sortCameras keeps descending render order, stable for equal orders.
func (s *Scene) sortCameras() {
	slices.SortStableFunc(s.cameras, func(a, b *Camera) int {
		return b.renderOrder - a.renderOrder
	})
}

func (s *Scene) registerRenderer(r *MeshRenderer) {
	if slices.Contains(s.renderers, r) {
		return
	}
	s.renderers = append(s.renderers, r)
}

func (s *Scene) unregisterRenderer(r *MeshRenderer) {
	if i := slices.Index(s.renderers, r); i >= 0 {
		s.renderers = slices.Delete(s.renderers, i, i+1)
	}
}
