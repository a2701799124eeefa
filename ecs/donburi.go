package ecs

import (
	"github.com/phanxgames/comet"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// HoverEvent reports a hover transition of the trail head.
type HoverEvent struct {
	Hovering bool
	// Tick is the frame counter at the time of the transition.
	Tick uint64
}

// FrameEventType is the Donburi event type for trail frames. Each event
// owns its Segments slice.
var FrameEventType = events.NewEventType[comet.Frame]()

// HoverEventType is the Donburi event type for hover transitions.
var HoverEventType = events.NewEventType[HoverEvent]()

// TrailComponent holds the latest frame on the store's trail entity.
var TrailComponent = donburi.NewComponentType[comet.Frame]()

// DonburiStore is a comet.FrameSink backed by a Donburi world.
type DonburiStore struct {
	world  donburi.World
	entity donburi.Entity
	tick   uint64
}

// NewDonburiStore creates a FrameSink backed by a Donburi world, with one
// entity carrying TrailComponent. Events are queued and can be consumed
// with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) *DonburiStore {
	return &DonburiStore{
		world:  world,
		entity: world.Create(TrailComponent),
	}
}

// Entity returns the trail entity.
func (s *DonburiStore) Entity() donburi.Entity { return s.entity }

// PublishFrame implements comet.FrameSink.
func (s *DonburiStore) PublishFrame(f *comet.Frame) {
	s.tick = f.Tick
	if s.world.Valid(s.entity) {
		TrailComponent.SetValue(s.world.Entry(s.entity), f.Clone())
	}
	FrameEventType.Publish(s.world, f.Clone())
}

// PublishHover implements comet.FrameSink.
func (s *DonburiStore) PublishHover(hovering bool) {
	HoverEventType.Publish(s.world, HoverEvent{Hovering: hovering, Tick: s.tick})
}

var _ comet.FrameSink = (*DonburiStore)(nil)
