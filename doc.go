// Package comet is a pointer trail for [Ebitengine]: a smoothed head that
// follows the pointer, stretches along its direction of travel, and drags a
// chain of fading segments behind it.
//
// The simulation is independent of any display. A [Simulator] consumes
// pointer events from an [InputSource] and advances on a [Scheduler]; each
// tick produces a [Frame] of transforms that a renderer draws. [Host] wires
// all of it into an ebiten.Game.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	host, err := comet.NewHost(comet.DefaultConfig(), comet.HostOptions{
//		Width: 640, Height: 480,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	btn := comet.NewButton("play", 260, 220, 120, 40, comet.RGBA8(60, 60, 90, 1))
//	host.Root().AddChild(btn)
//	comet.Run(host, comet.RunConfig{Title: "Comet", Width: 640, Height: 480, HideCursor: true})
//
// Hovering an interactive node (a button, link, form control, or any node
// with CursorInteractive set, including their descendants) enlarges the head
// and shifts its accent color; pressing shrinks it briefly. The cues are
// eased with [gween].
//
// # Headless use
//
// Without a window, drive the simulator directly with a [Dispatcher] and a
// [Ticker]:
//
//	sim, _ := comet.NewSimulator(comet.DefaultConfig())
//	d, t := comet.NewDispatcher(), comet.NewTicker()
//	sim.Start(d, t, comet.StaticEnvironment{})
//	d.DispatchPointerMove(100, 0)
//	t.Advance(1.0 / 60)
//	f := sim.Frame()
//
// [Replay] runs a recorded pointer [Script] the same way and returns every
// frame.
//
// # Accessibility
//
// A coarse pointer (touch) disables the trail: Start registers nothing and
// returns [ErrCoarsePointer]. Reduced motion keeps the hover and press cues
// but never advances the trail. Hiding the view pauses ticking without
// losing state.
//
// Frames can be published into a [Donburi] world with the comet/ecs
// adapter.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package comet
