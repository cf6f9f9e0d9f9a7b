// Package ecs bridges grove scene lifecycle events into a [Donburi] world.
//
// [NewDonburiSink] publishes every engine event (entity spawn/destroy,
// component attach/detach, camera registration) as a typed Donburi event.
// Subscribe to [LifecycleEventType] in your ECS systems to receive them.
//
// [NewDonburiMirror] additionally keeps one Donburi entity per live grove
// entity, carrying an [EntityInfo] component, so ECS queries can iterate
// the scene.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	scene.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
