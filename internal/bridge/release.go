package bridge

import (
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
)

// padReleaseDelay is how long a gamepad button stays pressed before the
// automatic release.
const padReleaseDelay = 100 * time.Millisecond

// releaseSlot carries the one pending mouse release. Click and drag press
// on the current frame and release on the next; the slot holds at most one
// entry and is consumed at the top of the next tick.
type releaseSlot struct {
	x, y   float64
	button int
}

type padRelease struct {
	device, button int
	at             time.Time
}

func (b *Bridge) scheduleRelease(x, y float64, button int) {
	b.deferredRelease = &releaseSlot{x: x, y: y, button: button}
}

func (b *Bridge) applyDeferredRelease() {
	if b.deferredRelease == nil {
		return
	}
	slot := b.deferredRelease
	b.deferredRelease = nil
	b.pushPointer(engine.InputEvent{
		Kind: engine.KindMouseButton, X: slot.x, Y: slot.y,
		Button: slot.button, Pressed: false,
	})
}

func (b *Bridge) schedulePadRelease(device, button int) {
	b.padReleases = append(b.padReleases, padRelease{
		device: device, button: button, at: time.Now().Add(padReleaseDelay),
	})
}

func (b *Bridge) applyPadReleases() {
	if len(b.padReleases) == 0 {
		return
	}
	now := time.Now()
	keep := b.padReleases[:0]
	for _, r := range b.padReleases {
		if now.Before(r.at) {
			keep = append(keep, r)
			continue
		}
		b.push(engine.InputEvent{
			Kind: engine.KindJoyButton, Device: r.device,
			Button: r.button, Pressed: false,
		})
	}
	b.padReleases = keep
}
