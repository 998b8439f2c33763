// SPDX-License-Identifier: EPL-2.0

// Package audmix is a real-time audio mixing engine for games and
// interactive applications.
//
// The engine arbitrates a fixed pool of playback channels by priority,
// routes sounds through a hierarchical bus graph with time-based ducking,
// and recomputes gains once per frame. It is driven from the application's
// update loop; audio rendering happens on the mixer backend's own thread.
//
// # Quick Start
//
//	mix := mixer.NewSoftMixer()
//	engine := audmix.New(mix)
//
//	buses, _ := audmix.LoadBusDefs("buses.json")
//	err := engine.Initialize(audmix.Config{
//	    Frequency:     48000,
//	    Channels:      2,
//	    BufferSize:    1024,
//	    MixerChannels: 16,
//	    Buses:         buses,
//	})
//
//	engine.LoadSoundBank("sounds.json")
//	handle := engine.GetSoundHandle("explosion")
//
//	for running {
//	    // game logic; play sounds as events happen
//	    engine.PlaySound(handle)
//	    engine.AdvanceFrame(worldTime)
//	}
//
//	engine.Shutdown()
//
// # Channels and Priority
//
// The engine owns a fixed number of buffered channels plus one stream
// slot. When every buffered channel is busy, a new sound either evicts
// the weakest playing sound (stream first, then lowest priority, then
// oldest) or is rejected. Rejection is silent and normal: PlaySound
// returns InvalidChannel and the caller moves on. Demand is shed, never
// queued.
//
// # Buses and Ducking
//
// Sounds are routed through named buses arranged in a tree under
// "master". Each frame a bus's gain is its static gain times its parent's
// gain times its duck gain. A bus with active sounds suppresses its duck
// targets toward a configured floor over a configured fade time, and
// releases them when it goes silent. Typical use: dialogue ducks music.
//
// # Sound Banks
//
// Sounds are defined in JSON sound bank files and loaded with
// LoadSoundBank. Banks are reference-counted by path, and the sound
// collections they share are reference-counted across banks, so
// overlapping banks can be loaded and unloaded freely.
//
// # Frame Loop
//
// AdvanceFrame must be called once per frame with the world time. It
// advances duck transitions, recomputes the bus tree top-down and pushes
// the resulting gain to every playing sound's channel.
//
// See the mixer subpackage for the software mixer backend and the formats
// subpackages for audio decoders.
package audmix
