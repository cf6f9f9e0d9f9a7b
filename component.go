package grove

import (
	"reflect"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Component is a behavior attached to exactly one Entity. Implementations
// embed BaseComponent, which supplies the owner back-reference and the
// enabled flag, and opt into lifecycle hooks by implementing any of the
// capability interfaces below.
type Component interface {
	Owner() *Entity
	Enabled() bool
	SetEnabled(enabled bool)
	base() *BaseComponent
}

// Initializer is called exactly once, synchronously, when the component is
// attached. A non-nil error aborts the attach.
type Initializer interface {
	OnInitialize() error
}

// Shutdowner is called when the component is detached or its owner is shut down.
type Shutdowner interface {
	OnShutdown()
}

// Updater receives OnUpdate once per frame while the component and its
// owner are enabled in hierarchy.
type Updater interface {
	OnUpdate(dt float64)
}

// Renderer receives OnRender once per render pass.
type Renderer interface {
	OnRender(g Graphics)
}

// TransformListener is notified after the owner's world matrix is recomputed.
type TransformListener interface {
	OnOwnerTransformUpdated()
}

// EnableListener is notified when the owner's enabled-in-hierarchy state flips.
type EnableListener interface {
	OnOwnerEnableChanged(enabled bool)
}

// Copier produces an independent copy bound to newOwner. Components that do
// not implement it are copied shallowly (see copyComponent).
type Copier interface {
	Copy(newOwner *Entity) Component
}

// Persister saves and restores type-specific state for scene files.
// TypeName must match the name passed to RegisterComponentType.
type Persister interface {
	TypeName() string
	Save(node *yaml.Node) error
	Load(node *yaml.Node) error
}

// BaseComponent holds the state shared by every component.
type BaseComponent struct {
	owner    *Entity
	disabled bool // zero value means enabled
	attached bool // initialized and not yet shut down
	removing bool // queued for removal during an update pass
}

// Owner returns the owning entity (nil before attach and after shutdown).
func (b *BaseComponent) Owner() *Entity { return b.owner }

// Enabled reports whether OnUpdate/OnRender run for this component.
func (b *BaseComponent) Enabled() bool { return !b.disabled }

// SetEnabled toggles update/render dispatch. It does not change the
// lifecycle state.
func (b *BaseComponent) SetEnabled(enabled bool) { b.disabled = !enabled }

// IsAttached reports whether the component has been initialized and not yet
// shut down.
func (b *BaseComponent) IsAttached() bool { return b.attached }

// Logger is a shorthand for the owner's scene logger.
func (b *BaseComponent) Logger() *zap.Logger {
	if b.owner == nil {
		return nopLogger
	}
	return b.owner.Logger()
}

func (b *BaseComponent) base() *BaseComponent { return b }

// componentTypeName returns a short name for c used in logs and events.
func componentTypeName(c Component) string {
	if p, ok := c.(Persister); ok {
		return p.TypeName()
	}
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// copyComponent copies c for newOwner. Copier implementations handle their
// own fields; everything else gets a shallow struct copy with the owner and
// lifecycle flags reset, keeping the enabled state.
func copyComponent(c Component, newOwner *Entity) Component {
	var cp Component
	if cc, ok := c.(Copier); ok {
		cp = cc.Copy(newOwner)
	} else {
		v := reflect.ValueOf(c)
		if v.Kind() != reflect.Pointer {
			return nil
		}
		nv := reflect.New(v.Elem().Type())
		nv.Elem().Set(v.Elem())
		var ok bool
		cp, ok = nv.Interface().(Component)
		if !ok {
			return nil
		}
	}
	if cp == nil {
		return nil
	}
	b := cp.base()
	b.owner = newOwner
	b.disabled = !c.Enabled()
	b.attached = false
	b.removing = false
	return cp
}
