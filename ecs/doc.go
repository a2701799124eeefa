// Package ecs provides ECS adapters for comet's pointer trail.
//
// The primary adapter is [NewDonburiStore], which bridges simulator output
// into a [Donburi] world: every frame is published as a [FrameEventType]
// event and mirrored onto a trail entity's [TrailComponent], and hover
// transitions are published as [HoverEventType] events.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	detach := host.Simulator().Attach(store)
//	defer detach()
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
