// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"errors"
	"time"

	"github.com/ik5/audmix/audio"
)

// mockMixer is a Mixer that records control calls instead of rendering
// audio. Channels "play" until halted so tests can drive the allocator
// deterministically.
type mockMixer struct {
	opened    bool
	cfg       OutputConfig
	allocated int

	playing   map[int]bool
	streamOn  bool
	volumes   map[int]float32
	streamVol float32

	halted   []int
	faded    []int
	paused   bool
	failPlay bool
}

func newMockMixer() *mockMixer {
	return &mockMixer{
		playing: make(map[int]bool),
		volumes: make(map[int]float32),
	}
}

func (m *mockMixer) Open(cfg OutputConfig) error {
	m.opened = true
	m.cfg = cfg
	return nil
}

func (m *mockMixer) Close() {
	m.opened = false
	m.playing = make(map[int]bool)
	m.streamOn = false
}

func (m *mockMixer) AllocateChannels(n int) { m.allocated = n }
func (m *mockMixer) AllocatedChannels() int { return m.allocated }

func (m *mockMixer) PlayingChannels() int {
	count := 0
	for _, on := range m.playing {
		if on {
			count++
		}
	}
	return count
}

func (m *mockMixer) ChannelPlaying(ch int) bool { return m.playing[ch] }
func (m *mockMixer) StreamPlaying() bool        { return m.streamOn }

func (m *mockMixer) PlayBuffer(ch int, clip *audio.Clip, loop bool) error {
	if m.failPlay {
		return errors.New("backend refused playback")
	}
	m.playing[ch] = true
	return nil
}

func (m *mockMixer) PlayStream(src audio.Source, loop bool) error {
	if m.failPlay {
		return errors.New("backend refused playback")
	}
	if src != nil {
		src.Close()
	}
	m.streamOn = true
	return nil
}

func (m *mockMixer) SetChannelVolume(ch int, gain float32) { m.volumes[ch] = gain }
func (m *mockMixer) SetStreamVolume(gain float32)          { m.streamVol = gain }

func (m *mockMixer) HaltChannel(ch int) {
	m.playing[ch] = false
	m.halted = append(m.halted, ch)
}

func (m *mockMixer) HaltStream() { m.streamOn = false }

func (m *mockMixer) FadeOutChannel(ch int, d time.Duration) error {
	if !m.playing[ch] {
		return errors.New("channel not playing")
	}
	m.playing[ch] = false
	m.faded = append(m.faded, ch)
	return nil
}

func (m *mockMixer) FadeOutStream(d time.Duration) error {
	if !m.streamOn {
		return errors.New("stream not playing")
	}
	m.streamOn = false
	return nil
}

func (m *mockMixer) PauseAll()  { m.paused = true }
func (m *mockMixer) ResumeAll() { m.paused = false }

// mockSample is a sampleSource that plays through the mixer without any
// real audio data.
type mockSample struct {
	gain float32
	w    float32
}

func (s *mockSample) play(m Mixer, ch ChannelID, loop bool) error {
	if ch.IsStream() {
		return m.PlayStream(nil, loop)
	}
	return m.PlayBuffer(int(ch), nil, loop)
}

func (s *mockSample) setGain(m Mixer, ch ChannelID, gain float32) {
	if ch.IsStream() {
		m.SetStreamVolume(gain)
		return
	}
	m.SetChannelVolume(int(ch), gain)
}

func (s *mockSample) sampleGain() float32 { return s.gain }
func (s *mockSample) weight() float32     { return s.w }

// newTestCollection builds a collection around a mock sample, bypassing
// file loading.
func newTestCollection(name string, priority float32, stream bool, bus *Bus) *SoundCollection {
	return &SoundCollection{
		def: SoundDef{
			Name:     name,
			Bus:      bus.Name(),
			Priority: priority,
			Stream:   stream,
			Gain:     1,
		},
		bus:        bus,
		samples:    []sampleSource{&mockSample{gain: 1, w: 1}},
		sumWeights: 1,
	}
}

// testBusGraph returns a small graph: master -> music, effects, voice;
// voice ducks music to 0.2 over 100ms in, 200ms out.
func testBusGraph() []BusDef {
	return []BusDef{
		{Name: "master", ChildBuses: []string{"music", "effects", "voice"}},
		{Name: "music"},
		{Name: "effects"},
		{
			Name:          "voice",
			DuckBuses:     []string{"music"},
			DuckGain:      0.2,
			DuckFadeInMS:  100,
			DuckFadeOutMS: 200,
		},
	}
}
