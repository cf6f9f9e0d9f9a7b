package grove

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// copySuffix is appended to the name of an entity produced by Copy.
const copySuffix = " (Copy)"

// ErrComponentAttached is returned when attaching a component that already
// belongs to an entity.
var ErrComponentAttached = errors.New("grove: component is already attached")

// entityIDCounter is a plain counter; entities are only created on the frame loop goroutine.
var entityIDCounter uint32

func nextEntityID() uint32 {
	entityIDCounter++
	return entityIDCounter
}

// Entity is the unit of composition in the scene graph. It exclusively owns
// one Transform and an ordered list of Components. Parent/child links are
// non-owning; entity lifetime is governed by the Scene.
//
// While an Update pass is iterating the component list, structural changes
// are deferred: additions go to a pending-add list and removals to a
// pending-remove list, both drained at the start of the next Update.
type Entity struct {
	// Identity
	ID   uint32
	GUID uuid.UUID
	Name string

	scene     *Scene
	transform *Transform

	// Hierarchy
	parent   *Entity
	children []*Entity

	components    []Component
	pendingAdd    []Component
	pendingRemove []Component

	enabled         bool
	initialized     bool
	updating        bool
	shutdown        bool
	shutdownPending bool
}

func newEntity(scene *Scene, name string) *Entity {
	e := &Entity{
		ID:      nextEntityID(),
		GUID:    uuid.New(),
		Name:    name,
		scene:   scene,
		enabled: true,
	}
	e.transform = newTransform(e)
	return e
}

// Initialize marks the entity ready. Called synchronously by Scene.Spawn.
func (e *Entity) Initialize() {
	e.initialized = true
}

// IsInitialized reports whether Initialize has run.
func (e *Entity) IsInitialized() bool { return e.initialized }

// Scene returns the scene that spawned this entity.
func (e *Entity) Scene() *Scene { return e.scene }

// Logger returns the scene logger, or a no-op logger for detached entities.
func (e *Entity) Logger() *zap.Logger {
	if e.scene == nil {
		return nopLogger
	}
	return e.scene.logger
}

// Transform returns the entity's transform, or nil after Shutdown.
func (e *Entity) Transform() *Transform { return e.transform }

// Parent returns the parent entity, or nil for a root.
func (e *Entity) Parent() *Entity { return e.parent }

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (e *Entity) Children() []*Entity { return e.children }

// Components returns the live component list. Components attached during the
// current update pass are not included until the next Update.
// The returned slice MUST NOT be mutated by the caller.
func (e *Entity) Components() []Component { return e.components }

// IsShutdown reports whether Shutdown has completed.
func (e *Entity) IsShutdown() bool { return e.shutdown }

// IsUpdating reports whether the entity is iterating its components.
func (e *Entity) IsUpdating() bool { return e.updating }

// Enabled returns the entity's own enabled flag.
func (e *Entity) Enabled() bool { return e.enabled }

// IsActiveInHierarchy reports whether this entity and all its ancestors are enabled.
func (e *Entity) IsActiveInHierarchy() bool {
	for p := e; p != nil; p = p.parent {
		if !p.enabled {
			return false
		}
	}
	return true
}

// SetEnabled toggles the entity. Components of this entity and of every
// descendant whose enabled-in-hierarchy state flips receive OnOwnerEnableChanged.
func (e *Entity) SetEnabled(enabled bool) {
	if e.enabled == enabled {
		return
	}
	was := e.IsActiveInHierarchy()
	e.enabled = enabled
	if now := e.IsActiveInHierarchy(); now != was {
		e.notifyEnableChanged(now)
	}
}

func (e *Entity) notifyEnableChanged(active bool) {
	e.eachAttached(func(c Component) {
		if l, ok := c.(EnableListener); ok {
			l.OnOwnerEnableChanged(active)
		}
	})
	for _, child := range e.children {
		if child.enabled {
			child.notifyEnableChanged(active)
		}
	}
}

// --- Hierarchy ---

// SetParent re-parents this entity (nil makes it a root). Local transform
// values are preserved. Returns ErrHierarchyCycle if parent is e or one of
// its descendants, ErrForeignScene if parent lives in another scene.
func (e *Entity) SetParent(parent *Entity) error {
	if e.shutdown || (parent != nil && parent.shutdown) {
		return ErrEntityShutdown
	}
	if parent == e.parent {
		return nil
	}
	if parent != nil {
		if parent.scene != e.scene {
			return ErrForeignScene
		}
		if isAncestor(e, parent) {
			return ErrHierarchyCycle
		}
	}

	was := e.IsActiveInHierarchy()
	var pt *Transform
	if parent != nil {
		pt = parent.transform
	}
	if err := e.transform.SetParent(pt); err != nil {
		return err
	}
	if e.parent != nil {
		e.parent.removeChildByPtr(e)
	}
	e.parent = parent
	if parent != nil {
		parent.children = append(parent.children, e)
	}
	if now := e.IsActiveInHierarchy(); now != was {
		e.notifyEnableChanged(now)
	}
	if e.scene != nil && e.scene.debug {
		e.scene.debugCheckTreeDepth(e)
		if parent != nil {
			e.scene.debugCheckChildCount(parent)
		}
	}
	return nil
}

// AddChild is shorthand for child.SetParent(e).
func (e *Entity) AddChild(child *Entity) error {
	if child == nil {
		return nil
	}
	return child.SetParent(e)
}

// Find returns the first descendant (depth-first) with the given name.
func (e *Entity) Find(name string) *Entity {
	for _, c := range e.children {
		if c.Name == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Entity) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from e.children without clearing child.parent.
func (e *Entity) removeChildByPtr(child *Entity) {
	for i, c := range e.children {
		if c == child {
			copy(e.children[i:], e.children[i+1:])
			e.children[len(e.children)-1] = nil
			e.children = e.children[:len(e.children)-1]
			return
		}
	}
}

// --- Components ---

// Attach initializes c immediately and adds it to the entity. During an
// update pass the component lands in the pending-add list and receives its
// first OnUpdate on the next frame; it is still returned by GetComponent
// right away. If OnInitialize fails the component is not attached.
func (e *Entity) Attach(c Component) error {
	if e.shutdown {
		return ErrEntityShutdown
	}
	b := c.base()
	if b.attached {
		return ErrComponentAttached
	}
	b.owner = e
	b.removing = false
	if init, ok := c.(Initializer); ok {
		if err := init.OnInitialize(); err != nil {
			b.owner = nil
			name := componentTypeName(c)
			e.Logger().Error("component initialization failed",
				zap.String("entity", e.Name), zap.String("component", name), zap.Error(err))
			return fmt.Errorf("initialize %s on %q: %w", name, e.Name, err)
		}
	}
	b.attached = true
	if e.updating {
		e.pendingAdd = append(e.pendingAdd, c)
	} else {
		e.components = append(e.components, c)
	}
	if e.scene != nil {
		e.scene.emit(Event{Type: EventComponentAdded, EntityID: e.ID, EntityName: e.Name, Component: componentTypeName(c)})
	}
	return nil
}

// AddComponent constructs a zero T bound to e, initializes it and attaches it.
//
//	cam, err := grove.AddComponent[grove.Camera](entity)
func AddComponent[T any, PT interface {
	*T
	Component
}](e *Entity) (PT, error) {
	c := PT(new(T))
	if err := e.Attach(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetComponent returns the first attached component of type T, including
// components still pending addition. Returns the zero T if none exists.
func GetComponent[T Component](e *Entity) T {
	for _, list := range [2][]Component{e.components, e.pendingAdd} {
		for _, c := range list {
			if t, ok := c.(T); ok && !c.base().removing {
				return t
			}
		}
	}
	var zero T
	return zero
}

// GetComponents returns every attached component of type T.
func GetComponents[T Component](e *Entity) []T {
	var out []T
	e.eachAttached(func(c Component) {
		if t, ok := c.(T); ok && !c.base().removing {
			out = append(out, t)
		}
	})
	return out
}

// eachAttached visits live components followed by pending additions.
func (e *Entity) eachAttached(fn func(Component)) {
	for _, c := range e.components {
		fn(c)
	}
	for _, c := range e.pendingAdd {
		fn(c)
	}
}

// RemoveComponent detaches c. During an update pass the removal is queued
// and c receives no further OnUpdate in the current pass; otherwise c is
// shut down and erased immediately. Removing a component that is not
// attached to e is a no-op and returns false.
func (e *Entity) RemoveComponent(c Component) bool {
	if c == nil {
		return false
	}
	b := c.base()
	if b.owner != e || !b.attached || b.removing {
		return false
	}
	if e.updating {
		b.removing = true
		e.pendingRemove = append(e.pendingRemove, c)
		return true
	}
	e.detachComponent(c)
	return true
}

// detachComponent erases c from the live and pending lists and shuts it down.
func (e *Entity) detachComponent(c Component) {
	e.components = removeComponentByPtr(e.components, c)
	e.pendingAdd = removeComponentByPtr(e.pendingAdd, c)
	b := c.base()
	if !b.attached {
		return
	}
	if s, ok := c.(Shutdowner); ok {
		s.OnShutdown()
	}
	b.attached = false
	b.removing = false
	b.owner = nil
	if e.scene != nil {
		e.scene.emit(Event{Type: EventComponentRemoved, EntityID: e.ID, EntityName: e.Name, Component: componentTypeName(c)})
	}
}

func removeComponentByPtr(list []Component, c Component) []Component {
	for i, x := range list {
		if x == c {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

// --- Frame ---

// Update drains pending removals then pending additions, recomputes the
// transform if dirty (propagating to children parent-first), and dispatches
// OnUpdate to every enabled live component. Components attached during this
// pass get their first OnUpdate next frame.
func (e *Entity) Update(dt float64) {
	if e.transform == nil || e.shutdown {
		return
	}

	if len(e.pendingRemove) > 0 {
		for i, c := range e.pendingRemove {
			e.detachComponent(c)
			e.pendingRemove[i] = nil
		}
		e.pendingRemove = e.pendingRemove[:0]
	}
	if len(e.pendingAdd) > 0 {
		e.components = append(e.components, e.pendingAdd...)
		clear(e.pendingAdd)
		e.pendingAdd = e.pendingAdd[:0]
	}

	if e.transform.dirty {
		e.transform.CalculateModelMatrix()
		e.onTransformUpdated()
	}

	e.updating = true
	for _, c := range e.components {
		if c.base().removing || !c.Enabled() {
			continue
		}
		if u, ok := c.(Updater); ok {
			u.OnUpdate(dt)
		}
	}
	e.updating = false

	if e.shutdownPending {
		e.shutdownPending = false
		e.Shutdown()
	}
}

// RecalculateTransform recomputes this entity's world matrix and every
// descendant's, notifying listeners. Used at load time.
func (e *Entity) RecalculateTransform() {
	if e.transform == nil {
		return
	}
	e.transform.CalculateModelMatrix()
	e.onTransformUpdated()
}

// onTransformUpdated notifies components and recomputes children, parent-first.
func (e *Entity) onTransformUpdated() {
	e.eachAttached(func(c Component) {
		if c.base().removing {
			return
		}
		if l, ok := c.(TransformListener); ok {
			l.OnOwnerTransformUpdated()
		}
	})
	for _, child := range e.children {
		if child.transform == nil {
			continue
		}
		child.transform.CalculateModelMatrix()
		child.onTransformUpdated()
	}
}

// cullable marks renderers that the Camera filters before OnRender.
type cullable interface {
	cullable()
}

// Render dispatches OnRender to enabled renderer components, binding the
// world matrix once before the first of them. Renderers that the Camera
// culls (MeshRenderer) are skipped here and drawn by Camera.Render.
func (e *Entity) Render(g Graphics) {
	if e.transform == nil || e.shutdown {
		return
	}
	bound := false
	for _, c := range e.components {
		if !c.Enabled() || c.base().removing {
			continue
		}
		if _, ok := c.(cullable); ok {
			continue
		}
		r, ok := c.(Renderer)
		if !ok {
			continue
		}
		if !bound {
			e.PreRender(g)
			bound = true
		}
		r.OnRender(g)
	}
}

// PreRender supplies this entity's world matrix for the next draw.
func (e *Entity) PreRender(g Graphics) {
	if e.transform == nil {
		return
	}
	g.SetObject(e.transform.world)
}

// --- Copy / shutdown ---

// Copy spawns a deep copy of e in the same scene. The copy is named with a
// copy suffix, every component is copied through Copier (or shallowly), and
// each child entity is copied recursively and parented under the copy.
// Pending add/remove queues are not copied. Returns nil for entities
// without a scene or after shutdown.
func (e *Entity) Copy() *Entity {
	if e.scene == nil || e.shutdown {
		return nil
	}
	return e.copyAs(e.Name+copySuffix, nil)
}

// copyAs parents the copy before attaching components so that components
// resolving state from their parent (Hexagon) see it on initialize.
func (e *Entity) copyAs(name string, parent *Entity) *Entity {
	cp := e.scene.spawn(name)
	if parent != nil {
		_ = cp.SetParent(parent)
	}
	cp.enabled = e.enabled
	cp.transform.position = e.transform.position
	cp.transform.rotation = e.transform.rotation
	cp.transform.scale = e.transform.scale
	cp.transform.dirty = true

	for _, c := range e.components {
		if c.base().removing {
			continue
		}
		nc := copyComponent(c, cp)
		if nc == nil {
			continue
		}
		// Attach logs initialization failures; the copy keeps going.
		_ = cp.Attach(nc)
	}
	for _, child := range e.children {
		child.copyAs(child.Name, cp)
	}
	return cp
}

// Shutdown shuts every component down (last attached first), unlinks the
// parent and children, releases the transform and removes the entity from
// its scene. Children are orphaned, not shut down; use Scene.Destroy to
// take a subtree down. Shutdown requested from inside this entity's own
// update pass runs when the pass completes.
func (e *Entity) Shutdown() {
	if e.shutdown {
		return
	}
	if e.updating {
		e.shutdownPending = true
		return
	}

	for i := len(e.pendingAdd) - 1; i >= 0; i-- {
		e.detachComponent(e.pendingAdd[i])
	}
	for i := len(e.components) - 1; i >= 0; i-- {
		e.detachComponent(e.components[i])
	}
	e.components = nil
	e.pendingAdd = nil
	e.pendingRemove = nil

	for _, child := range e.children {
		child.parent = nil
	}
	e.children = nil
	if e.parent != nil {
		e.parent.removeChildByPtr(e)
		e.parent = nil
	}
	e.transform.detach()
	e.transform = nil
	e.shutdown = true

	if e.scene != nil {
		e.scene.release(e)
	}
}
