// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// MasterBusName is the bus every gain computation starts from. A bus graph
// without it is rejected at initialization.
const MasterBusName = "master"

// DuckCurve shapes the transition between full gain and the duck floor.
// It receives the transition progress in [0,1] and returns the eased
// progress, also in [0,1]. The default is linear.
type DuckCurve func(progress float64) float64

// LinearDuckCurve is the default ducking curve: gain moves toward the
// floor at a constant rate.
func LinearDuckCurve(progress float64) float64 { return progress }

// BusDef is the static definition of one mixing bus, as loaded from a bus
// graph file. Definitions are resolved into Bus nodes once, at engine
// initialization, and never mutated afterwards.
type BusDef struct {
	Name string `json:"name"`

	// Gain is the bus-local static gain multiplier. Zero or omitted means
	// the default of 1; muting is done through the engine, not here.
	Gain float32 `json:"gain,omitempty"`

	// ChildBuses names the buses whose gain is multiplied by this bus's
	// resultant gain.
	ChildBuses []string `json:"child_buses,omitempty"`

	// DuckBuses names the buses suppressed while a sound plays on this
	// bus.
	DuckBuses []string `json:"duck_buses,omitempty"`

	// DuckGain is the floor the ducked buses are eased toward. Zero means
	// full suppression.
	DuckGain float32 `json:"duck_gain,omitempty"`

	// DuckFadeInMS is how long, in milliseconds, the ducked buses take to
	// reach the floor once this bus becomes active. Zero snaps instantly.
	DuckFadeInMS int `json:"duck_fade_in_ms,omitempty"`

	// DuckFadeOutMS is the recovery time back to full gain after this bus
	// goes silent. Zero snaps instantly.
	DuckFadeOutMS int `json:"duck_fade_out_ms,omitempty"`
}

// busDefList mirrors the on-disk bus graph file layout.
type busDefList struct {
	Buses []BusDef `json:"buses"`
}

// LoadBusDefs reads a JSON bus graph definition file.
func LoadBusDefs(path string) ([]BusDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bus definitions: %w", err)
	}

	var list busDefList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing bus definitions %s: %w", path, err)
	}
	return list.Buses, nil
}

// Bus is a node in the mixing hierarchy. It aggregates gain for every
// sound routed to it or to one of its descendants, and suppresses its duck
// targets while it has sounds playing.
//
// The engine owns all Bus nodes for its lifetime; the graph is linked once
// at initialization and is acyclic by construction.
type Bus struct {
	def BusDef

	children    []*Bus
	duckTargets []*Bus

	// gain is the final multiplier for sounds on this bus, recomputed
	// top-down from the master bus every frame.
	gain float32

	// duckGain is the transient suppression applied to this bus by other
	// buses ducking it. Reset to 1 before each frame's recomputation.
	duckGain float32

	// soundCount tracks live sounds routed through this bus. It is the
	// only liveness signal ducking needs.
	soundCount int

	// transition is the progress of this bus's duck fade, in [0,1].
	transition float64
}

func newBus(def BusDef) *Bus {
	if def.Gain == 0 {
		def.Gain = 1
	}
	return &Bus{
		def:      def,
		duckGain: 1,
	}
}

// Name returns the bus's identity in the graph.
func (b *Bus) Name() string { return b.def.Name }

// Gain returns the final gain after all modifiers have been applied
// (parent gain, duck gain, bus-local gain).
func (b *Bus) Gain() float32 { return b.gain }

// SoundCount returns the number of live sounds routed through this bus.
func (b *Bus) SoundCount() int { return b.soundCount }

// resetDuckGain restores the duck gain to 1. It must run for every bus
// before a frame's duck recomputation.
func (b *Bus) resetDuckGain() { b.duckGain = 1 }

// incrementSoundCounter and decrementSoundCounter track playback liveness.
// Every playing-sound insertion and removal must be paired with exactly
// one call.
func (b *Bus) incrementSoundCounter() { b.soundCount++ }

func (b *Bus) decrementSoundCounter() {
	if b.soundCount > 0 {
		b.soundCount--
	}
}

// updateDuckGain advances this bus's duck transition by dt and applies the
// resulting suppression to every duck target. A target keeps the lowest
// suppression applied to it this frame, so overlapping duckers do not
// cancel each other out.
func (b *Bus) updateDuckGain(dt time.Duration, curve DuckCurve) {
	if b.soundCount > 0 && b.transition < 1 {
		fadeIn := time.Duration(b.def.DuckFadeInMS) * time.Millisecond
		if fadeIn > 0 {
			b.transition += dt.Seconds() / fadeIn.Seconds()
			if b.transition > 1 {
				b.transition = 1
			}
		} else {
			b.transition = 1
		}
	} else if b.soundCount == 0 && b.transition > 0 {
		fadeOut := time.Duration(b.def.DuckFadeOutMS) * time.Millisecond
		if fadeOut > 0 {
			b.transition -= dt.Seconds() / fadeOut.Seconds()
			if b.transition < 0 {
				b.transition = 0
			}
		} else {
			b.transition = 0
		}
	}

	eased := float32(curve(b.transition))
	duck := 1*(1-eased) + b.def.DuckGain*eased
	for _, target := range b.duckTargets {
		if duck < target.duckGain {
			target.duckGain = duck
		}
	}
}

// updateGain recomputes the final gain top-down. Called on the master bus
// with the engine's master gain (or 0 when muted); recurses into children
// with this bus's resultant gain as their parent gain.
func (b *Bus) updateGain(parentGain float32) {
	b.gain = b.def.Gain * parentGain * b.duckGain
	for _, child := range b.children {
		child.updateGain(b.gain)
	}
}

// buildBusGraph resolves bus definitions into linked Bus nodes. It returns
// the nodes in definition order, an index by name, and the master bus. Any
// reference to an unknown bus name is fatal.
func buildBusGraph(defs []BusDef) ([]*Bus, map[string]*Bus, *Bus, error) {
	ordered := make([]*Bus, 0, len(defs))
	byName := make(map[string]*Bus, len(defs))
	for _, def := range defs {
		if _, exists := byName[def.Name]; exists {
			return nil, nil, nil, fmt.Errorf("%w: %q", ErrDuplicateBus, def.Name)
		}
		bus := newBus(def)
		ordered = append(ordered, bus)
		byName[def.Name] = bus
	}

	for _, bus := range ordered {
		for _, name := range bus.def.ChildBuses {
			child, ok := byName[name]
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: %q listed in child_buses of %q", ErrUnknownBus, name, bus.def.Name)
			}
			bus.children = append(bus.children, child)
		}
		for _, name := range bus.def.DuckBuses {
			target, ok := byName[name]
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: %q listed in duck_buses of %q", ErrUnknownBus, name, bus.def.Name)
			}
			bus.duckTargets = append(bus.duckTargets, target)
		}
	}

	master, ok := byName[MasterBusName]
	if !ok {
		return nil, nil, nil, ErrNoMasterBus
	}
	return ordered, byName, master, nil
}
