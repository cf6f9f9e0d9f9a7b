package grove

import "errors"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default material tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Lerp blends c toward other by t in [0, 1].
func (c Color) Lerp(other Color, t float64) Color {
	return Color{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// RenderQueue orders materials into draw buckets. Values up to
// RenderQueueOpaque draw in the opaque pass, values up to
// RenderQueueTransparent are transparent, anything above is overlay.
type RenderQueue int

const (
	RenderQueueOpaque      RenderQueue = 1000
	RenderQueueTransparent RenderQueue = 2000
	RenderQueueOverlay     RenderQueue = 3000
)

// RenderClass is the bucket a RenderQueue value falls into.
type RenderClass uint8

const (
	RenderClassOpaque      RenderClass = iota // queue <= 1000
	RenderClassTransparent                    // queue <= 2000
	RenderClassOverlay                        // everything above
)

// Class returns the draw bucket for q.
func (q RenderQueue) Class() RenderClass {
	switch {
	case q <= RenderQueueOpaque:
		return RenderClassOpaque
	case q <= RenderQueueTransparent:
		return RenderClassTransparent
	default:
		return RenderClassOverlay
	}
}

func (c RenderClass) String() string {
	switch c {
	case RenderClassOpaque:
		return "opaque"
	case RenderClassTransparent:
		return "transparent"
	case RenderClassOverlay:
		return "overlay"
	}
	return "unknown"
}

// EventType identifies an engine lifecycle event.
type EventType uint8

const (
	EventEntitySpawned     EventType = iota // entity created and initialized
	EventEntityDestroyed                    // entity shut down and removed from the scene
	EventComponentAdded                     // component initialized and attached
	EventComponentRemoved                   // component shut down and detached
	EventCameraRegistered                   // camera joined the scene's camera registry
	EventCameraUnregistered                 // camera left the registry
	EventMainCameraChanged                  // MainCamera resolved to a different camera
)

func (t EventType) String() string {
	switch t {
	case EventEntitySpawned:
		return "entity_spawned"
	case EventEntityDestroyed:
		return "entity_destroyed"
	case EventComponentAdded:
		return "component_added"
	case EventComponentRemoved:
		return "component_removed"
	case EventCameraRegistered:
		return "camera_registered"
	case EventCameraUnregistered:
		return "camera_unregistered"
	case EventMainCameraChanged:
		return "main_camera_changed"
	}
	return "unknown"
}

// Event carries lifecycle data for an EventSink.
type Event struct {
	Type       EventType
	EntityID   uint32
	EntityName string
	// Component is the component's type name for component and camera events.
	Component string
}

// EventSink is the interface for optional lifecycle event forwarding.
// When set on a Scene, spawn/destroy/attach/detach events are emitted to it.
type EventSink interface {
	EmitEvent(event Event)
}

var (
	// ErrNilOwner is returned when a component or grid is bound to a nil entity.
	ErrNilOwner = errors.New("grove: nil owner entity")
	// ErrHierarchyCycle is returned when re-parenting would make an entity its own ancestor.
	ErrHierarchyCycle = errors.New("grove: parenting would create a cycle")
	// ErrEntityShutdown is returned when mutating an entity that has been shut down.
	ErrEntityShutdown = errors.New("grove: entity is shut down")
	// ErrForeignScene is returned when linking entities that belong to different scenes.
	ErrForeignScene = errors.New("grove: entities belong to different scenes")
	// ErrInvalidGridSize is returned by CreateGrid for non-positive dimensions.
	ErrInvalidGridSize = errors.New("grove: grid width, height and size must be positive")
	// ErrNoPhysics is returned when a PhysicalBody initializes in a scene without physics.
	ErrNoPhysics = errors.New("grove: scene has no physics collaborator")
	// ErrUnknownComponentType is returned when loading a component type that was never registered.
	ErrUnknownComponentType = errors.New("grove: unknown component type")
	// ErrNoLoader is returned by Load when no loader is registered for the requested type.
	ErrNoLoader = errors.New("grove: no loader registered for type")
)
