package ecs

import (
	"github.com/phanxgames/grove"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// LifecycleEventType is the Donburi event type for grove lifecycle events.
var LifecycleEventType = events.NewEventType[grove.Event]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Events are queued on LifecycleEventType and delivered by ProcessEvents.
func NewDonburiSink(world donburi.World) grove.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event grove.Event) {
	LifecycleEventType.Publish(s.world, event)
}

// EntityInfo is the Donburi component mirroring a grove entity.
type EntityInfo struct {
	ID   uint32
	Name string
	// Components holds the type names of attached components in attach order.
	Components []string
}

// EntityInfoComponent is the Donburi component type for EntityInfo.
var EntityInfoComponent = donburi.NewComponentType[EntityInfo]()

// Mirror keeps one Donburi entity per live grove entity. It forwards every
// event to LifecycleEventType as well.
type Mirror struct {
	world    donburi.World
	entities map[uint32]donburi.Entity
}

// NewDonburiMirror creates a mirroring sink. Set it on the scene before
// spawning entities; entities spawned earlier are not mirrored.
func NewDonburiMirror(world donburi.World) *Mirror {
	return &Mirror{world: world, entities: make(map[uint32]donburi.Entity)}
}

// EmitEvent implements grove.EventSink.
func (m *Mirror) EmitEvent(event grove.Event) {
	switch event.Type {
	case grove.EventEntitySpawned:
		e := m.world.Create(EntityInfoComponent)
		EntityInfoComponent.SetValue(m.world.Entry(e), EntityInfo{ID: event.EntityID, Name: event.EntityName})
		m.entities[event.EntityID] = e
	case grove.EventEntityDestroyed:
		if e, ok := m.entities[event.EntityID]; ok {
			if m.world.Valid(e) {
				m.world.Remove(e)
			}
			delete(m.entities, event.EntityID)
		}
	case grove.EventComponentAdded:
		if info := m.Info(event.EntityID); info != nil {
			info.Components = append(info.Components, event.Component)
		}
	case grove.EventComponentRemoved:
		if info := m.Info(event.EntityID); info != nil {
			for i, name := range info.Components {
				if name == event.Component {
					info.Components = append(info.Components[:i], info.Components[i+1:]...)
					break
				}
			}
		}
	}
	LifecycleEventType.Publish(m.world, event)
}

// Entity returns the Donburi entity mirroring the grove entity id.
func (m *Mirror) Entity(id uint32) (donburi.Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Info returns the mirrored data for the grove entity id, or nil.
func (m *Mirror) Info(id uint32) *EntityInfo {
	e, ok := m.entities[id]
	if !ok || !m.world.Valid(e) {
		return nil
	}
	return EntityInfoComponent.Get(m.world.Entry(e))
}

// Len returns the number of mirrored entities.
func (m *Mirror) Len() int { return len(m.entities) }
