// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/aiff"
	"github.com/ik5/audmix/formats/mp3"
	"github.com/ik5/audmix/formats/vorbis"
	"github.com/ik5/audmix/formats/wav"
)

// ChannelFadeOut is how long a stopped channel takes to ramp to silence.
// Stop skips the ramp when the channel is already silent.
const ChannelFadeOut = 10 * time.Millisecond

// Config carries everything Initialize needs to bring the engine up.
type Config struct {
	// Frequency is the output sample rate in Hz.
	Frequency int

	// Channels is the output channel count (1=mono, 2=stereo).
	Channels int

	// BufferSize is the mixing buffer length in frames.
	BufferSize int

	// MixerChannels is the buffered channel capacity. Sounds beyond this
	// capacity compete by priority.
	MixerChannels int

	// Buses is the mixing hierarchy. It must contain a bus named "master".
	Buses []BusDef

	// DuckCurve shapes duck transitions. Nil means LinearDuckCurve.
	DuckCurve DuckCurve

	// Formats overrides the decoder registry. Nil means the default
	// registry with wav, mp3, ogg and aiff decoders.
	Formats *audio.Registry
}

// defaultFormats builds the registry used when Config.Formats is nil.
func defaultFormats() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	return r
}

// Engine is the central coordinator: it owns the bus graph, the playing
// sound registry, the loaded sound banks, and the mixer backend. All
// methods must be called from a single goroutine, conventionally the
// game's update loop; the mixer backend is responsible for its own output
// thread safety.
type Engine struct {
	mixer     Mixer
	cfg       Config
	duckCurve DuckCurve

	buses     []*Bus
	busByName map[string]*Bus
	master    *Bus

	registry  soundRegistry
	allocator channelAllocator

	collections map[string]*SoundCollection
	banks       map[string]*soundBank
	formats     *audio.Registry

	mute       bool
	masterGain float32

	// worldTime is the timestamp of the last AdvanceFrame, used to stamp
	// playing sounds and to derive frame deltas.
	worldTime time.Duration

	initialized bool
}

// New creates an engine bound to the given mixer backend. The engine is
// unusable until Initialize succeeds.
func New(mixer Mixer) *Engine {
	return &Engine{mixer: mixer}
}

// Initialize opens the mixer, allocates channels and resolves the bus
// graph. It fails fast on a malformed bus graph; a failed Initialize
// leaves the engine uninitialized and the mixer closed.
func (e *Engine) Initialize(cfg Config) error {
	if e.initialized {
		return ErrAlreadyInitialized
	}

	buses, byName, master, err := buildBusGraph(cfg.Buses)
	if err != nil {
		return fmt.Errorf("building bus graph: %w", err)
	}

	if err := e.mixer.Open(OutputConfig{
		Frequency:  cfg.Frequency,
		Channels:   cfg.Channels,
		BufferSize: cfg.BufferSize,
	}); err != nil {
		return fmt.Errorf("opening mixer: %w", err)
	}
	e.mixer.AllocateChannels(cfg.MixerChannels)

	e.cfg = cfg
	e.duckCurve = cfg.DuckCurve
	if e.duckCurve == nil {
		e.duckCurve = LinearDuckCurve
	}
	e.formats = cfg.Formats
	if e.formats == nil {
		e.formats = defaultFormats()
	}

	e.buses = buses
	e.busByName = byName
	e.master = master
	e.allocator = channelAllocator{mixer: e.mixer, registry: &e.registry}
	e.collections = make(map[string]*SoundCollection)
	e.banks = make(map[string]*soundBank)
	e.masterGain = 1
	e.initialized = true

	logrus.WithFields(logrus.Fields{
		"frequency": cfg.Frequency,
		"channels":  cfg.MixerChannels,
		"buses":     len(buses),
	}).Info("Audio engine initialized")
	return nil
}

// Shutdown halts all playback, drops all state and closes the mixer. The
// engine may be initialized again afterwards.
func (e *Engine) Shutdown() {
	if !e.initialized {
		return
	}

	for ch := 0; ch < e.mixer.AllocatedChannels(); ch++ {
		if e.mixer.ChannelPlaying(ch) {
			e.mixer.HaltChannel(ch)
		}
	}
	if e.mixer.StreamPlaying() {
		e.mixer.HaltStream()
	}
	e.registry.clear()

	e.collections = nil
	e.banks = nil
	e.buses = nil
	e.busByName = nil
	e.master = nil
	e.initialized = false

	e.mixer.Close()
	logrus.Info("Audio engine shut down")
}

// GetSoundHandle resolves a sound name to its loaded collection. The
// handle stays valid until every bank referencing the sound is unloaded.
// Resolve once and reuse; PlaySoundName does this lookup on every call.
func (e *Engine) GetSoundHandle(name string) *SoundCollection {
	return e.collections[name]
}

// Bus returns the named bus, or nil when no such bus exists.
func (e *Engine) Bus(name string) *Bus {
	return e.busByName[name]
}

// PlaySound starts one instance of the given sound. It returns the channel
// the sound plays on, or InvalidChannel when the sound lost the priority
// arbitration or failed to start. A rejected play is not an error; it is
// the designed behavior under channel pressure.
func (e *Engine) PlaySound(handle *SoundCollection) ChannelID {
	if handle == nil {
		logrus.Error("Cannot play sound: invalid handle")
		return InvalidChannel
	}
	if !e.initialized {
		logrus.Error("Cannot play sound: engine not initialized")
		return InvalidChannel
	}

	ch := e.allocator.resolveChannel(&handle.def)
	if !ch.Valid() {
		logrus.WithFields(logrus.Fields{
			"sound": handle.def.Name,
		}).Debug("Sound rejected, no channel available at its priority")
		return InvalidChannel
	}

	sample := handle.selectSample()
	gain := sample.sampleGain() * handle.def.Gain

	// Set the gain before starting so the first rendered frame is already
	// at the right level.
	sample.setGain(e.mixer, ch, gain)
	if err := sample.play(e.mixer, ch, handle.def.Loop); err != nil {
		logrus.WithFields(logrus.Fields{
			"sound": handle.def.Name,
			"error": err,
		}).Error("Could not start sound")
		return InvalidChannel
	}

	e.registry.insert(playingSound{
		collection: handle,
		channel:    ch,
		startTime:  e.worldTime,
		gain:       gain,
	})
	return ch
}

// PlaySoundName is PlaySound with a name lookup. Prefer PlaySound with a
// handle from GetSoundHandle in hot paths.
func (e *Engine) PlaySoundName(name string) ChannelID {
	handle := e.collections[name]
	if handle == nil {
		logrus.WithFields(logrus.Fields{
			"sound": name,
		}).Error("Cannot play sound: not found in any loaded bank")
		return InvalidChannel
	}
	return e.PlaySound(handle)
}

// Playing reports whether the given channel currently plays a sound the
// engine knows about.
func (e *Engine) Playing(ch ChannelID) bool {
	if !e.initialized || !ch.Valid() {
		return false
	}
	return e.allocator.channelPlaying(ch)
}

// Stop ends playback on the given channel with a short fade-out so the
// waveform is not cut mid-swing. A channel that is already silent is
// halted immediately.
func (e *Engine) Stop(ch ChannelID) {
	if !e.initialized || !ch.Valid() {
		return
	}

	entry := e.registry.find(ch)
	if entry != nil && entry.gain == 0 {
		e.halt(ch)
		return
	}
	if err := e.fadeOut(ch, ChannelFadeOut); err != nil {
		logrus.WithFields(logrus.Fields{
			"channel": int(ch),
			"error":   err,
		}).Debug("Fade out failed, channel already stopped")
	}
}

// Pause suspends or resumes all playback. Paused time does not advance
// duck transitions; callers pause their world clock alongside.
func (e *Engine) Pause(pause bool) {
	if !e.initialized {
		return
	}
	if pause {
		e.mixer.PauseAll()
	} else {
		e.mixer.ResumeAll()
	}
}

// SetMute silences the master bus without touching per-channel gains.
// Unmuting restores levels on the next AdvanceFrame.
func (e *Engine) SetMute(mute bool) { e.mute = mute }

// Muted reports whether the engine is muted.
func (e *Engine) Muted() bool { return e.mute }

// SetMasterGain scales every bus from the top of the hierarchy. Takes
// effect on the next AdvanceFrame.
func (e *Engine) SetMasterGain(gain float32) { e.masterGain = gain }

// MasterGain returns the current master gain.
func (e *Engine) MasterGain() float32 { return e.masterGain }

// AdvanceFrame recomputes all bus gains for the frame ending at time t and
// pushes the resulting gain to every playing sound. Call once per game
// frame with a monotonically non-decreasing clock.
func (e *Engine) AdvanceFrame(t time.Duration) {
	if !e.initialized {
		return
	}

	dt := t - e.worldTime
	if dt < 0 {
		dt = 0
	}
	e.worldTime = t

	// Prune finished sounds first so bus counters reflect what is really
	// audible before ducking is recomputed.
	e.registry.eraseFinished(e.allocator.channelPlaying)

	// Duck gains are recomputed from scratch each frame: reset them all,
	// then let every bus suppress its targets.
	for _, bus := range e.buses {
		bus.resetDuckGain()
	}
	for _, bus := range e.buses {
		bus.updateDuckGain(dt, e.duckCurve)
	}

	topGain := e.masterGain
	if e.mute {
		topGain = 0
	}
	e.master.updateGain(topGain)

	for i := range e.registry.sounds {
		ps := &e.registry.sounds[i]
		gain := ps.collection.bus.Gain()
		if gain == ps.gain {
			continue
		}
		ps.gain = gain
		if ps.channel.IsStream() {
			e.mixer.SetStreamVolume(gain)
		} else {
			e.mixer.SetChannelVolume(int(ps.channel), gain)
		}
	}
}

func (e *Engine) halt(ch ChannelID) {
	if ch.IsStream() {
		e.mixer.HaltStream()
	} else {
		e.mixer.HaltChannel(int(ch))
	}
}

func (e *Engine) fadeOut(ch ChannelID, d time.Duration) error {
	if ch.IsStream() {
		return e.mixer.FadeOutStream(d)
	}
	return e.mixer.FadeOutChannel(int(ch), d)
}
