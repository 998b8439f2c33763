// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// voice is one playback slot inside the software mixer: a sample source
// already adapted to the output format, its gain, and fade-out state.
type voice struct {
	src  audio.Source
	gain float32

	// fadeLeft counts down remaining fade-out frames; fadeTotal is the
	// ramp length. A voice with fadeTotal > 0 stops when fadeLeft reaches 0.
	fadeLeft  int
	fadeTotal int

	playing bool
}

// effectiveGain is the voice gain scaled by fade-out progress.
func (v *voice) effectiveGain() float32 {
	if v.fadeTotal == 0 {
		return v.gain
	}
	return v.gain * float32(v.fadeLeft) / float32(v.fadeTotal)
}

func (v *voice) stop() {
	if v.src != nil {
		v.src.Close()
		v.src = nil
	}
	v.playing = false
	v.fadeLeft = 0
	v.fadeTotal = 0
}

// SoftMixer is a pure-Go software mixing backend. It renders every playing
// voice into an interleaved 16-bit little-endian PCM stream through its
// io.Reader side, which an output device (see Device) pulls from its own
// playback goroutine.
//
// All control methods and Read are safe for concurrent use; the engine
// drives control from the game loop while the device drives Read.
type SoftMixer struct {
	mu sync.Mutex

	cfg    audmix.OutputConfig
	open   bool
	paused bool

	voices []voice
	stream voice

	mixBuf []float32
	srcBuf []float32
}

// NewSoftMixer returns an unopened software mixer.
func NewSoftMixer() *SoftMixer {
	return &SoftMixer{}
}

// Open prepares the mixer to render at the given output format.
func (m *SoftMixer) Open(cfg audmix.OutputConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open {
		return ErrAlreadyOpen
	}
	if cfg.Frequency <= 0 || cfg.Channels <= 0 {
		return fmt.Errorf("%w: frequency %d, channels %d", ErrInvalidConfig, cfg.Frequency, cfg.Channels)
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}

	m.cfg = cfg
	m.open = true
	m.paused = false
	return nil
}

// Close stops all playback and releases every voice.
func (m *SoftMixer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.voices {
		m.voices[i].stop()
	}
	m.stream.stop()
	m.open = false
}

// Config returns the output format the mixer was opened with.
func (m *SoftMixer) Config() audmix.OutputConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// AllocateChannels resizes the buffered voice pool, halting anything that
// plays on a dropped voice.
func (m *SoftMixer) AllocateChannels(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n < 0 {
		n = 0
	}
	for i := range m.voices {
		m.voices[i].stop()
	}
	m.voices = make([]voice, n)
}

// AllocatedChannels returns the buffered voice pool size.
func (m *SoftMixer) AllocatedChannels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// PlayingChannels returns how many buffered voices are playing.
func (m *SoftMixer) PlayingChannels() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for i := range m.voices {
		if m.voices[i].playing {
			count++
		}
	}
	return count
}

// ChannelPlaying reports whether the buffered voice at ch is playing.
func (m *SoftMixer) ChannelPlaying(ch int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch < 0 || ch >= len(m.voices) {
		return false
	}
	return m.voices[ch].playing
}

// StreamPlaying reports whether the stream voice is playing.
func (m *SoftMixer) StreamPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream.playing
}

// adapt chains a source to the mixer's output format: optional looping,
// then sample rate conversion, then channel layout conversion.
func (m *SoftMixer) adapt(src audio.Source, loop bool) audio.Source {
	if loop {
		src = audio.NewLoopSource(src, nil)
	}
	if src.SampleRate() != m.cfg.Frequency {
		src = audio.NewResampler(src, m.cfg.Frequency)
	}
	if src.Channels() != m.cfg.Channels {
		src = audio.NewChannelConverter(src, m.cfg.Channels)
	}
	return src
}

// PlayBuffer starts an in-memory clip on the buffered voice at ch. The
// voice's current gain is kept; callers set it before or after starting.
func (m *SoftMixer) PlayBuffer(ch int, clip *audio.Clip, loop bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return ErrNotOpen
	}
	if ch < 0 || ch >= len(m.voices) {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	if clip == nil {
		return ErrNilClip
	}

	v := &m.voices[ch]
	v.stop()
	v.src = m.adapt(clip.NewReader(), loop)
	v.playing = true
	return nil
}

// PlayStream starts a streamed source on the stream voice. The source is
// owned by the mixer from here on and closed when playback ends.
func (m *SoftMixer) PlayStream(src audio.Source, loop bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		if src != nil {
			src.Close()
		}
		return ErrNotOpen
	}
	if src == nil {
		return ErrNilClip
	}

	m.stream.stop()
	m.stream.src = m.adapt(src, loop)
	m.stream.playing = true
	return nil
}

// SetChannelVolume sets the buffered voice's gain. Gains persist across
// playbacks so a gain set just before PlayBuffer applies from the first
// rendered frame.
func (m *SoftMixer) SetChannelVolume(ch int, gain float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch < 0 || ch >= len(m.voices) {
		return
	}
	m.voices[ch].gain = clampGain(gain)
}

// SetStreamVolume sets the stream voice's gain.
func (m *SoftMixer) SetStreamVolume(gain float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stream.gain = clampGain(gain)
}

// HaltChannel stops the buffered voice at ch immediately.
func (m *SoftMixer) HaltChannel(ch int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch < 0 || ch >= len(m.voices) {
		return
	}
	m.voices[ch].stop()
}

// HaltStream stops the stream voice immediately.
func (m *SoftMixer) HaltStream() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stream.stop()
}

// FadeOutChannel ramps the buffered voice at ch to silence over d and then
// stops it.
func (m *SoftMixer) FadeOutChannel(ch int, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch < 0 || ch >= len(m.voices) {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	return m.fadeOut(&m.voices[ch], d)
}

// FadeOutStream ramps the stream voice to silence over d and then stops it.
func (m *SoftMixer) FadeOutStream(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fadeOut(&m.stream, d)
}

func (m *SoftMixer) fadeOut(v *voice, d time.Duration) error {
	if !v.playing {
		return ErrNotPlaying
	}

	frames := int(d.Seconds() * float64(m.cfg.Frequency))
	if frames < 1 {
		frames = 1
	}
	v.fadeTotal = frames
	v.fadeLeft = frames
	return nil
}

// PauseAll suspends rendering; Read returns silence without consuming any
// voice until ResumeAll.
func (m *SoftMixer) PauseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

// ResumeAll continues rendering after PauseAll.
func (m *SoftMixer) ResumeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
}

func clampGain(gain float32) float32 {
	if gain < 0 {
		return 0
	}
	return gain
}

// Read renders the next chunk of mixed audio as interleaved 16-bit
// little-endian PCM. It always fills p completely, padding with silence
// when no voice is playing, so an output device never starves.
func (m *SoftMixer) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(p) / (2 * m.cfg.Channels)
	if !m.open || frames == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	samples := frames * m.cfg.Channels
	if cap(m.mixBuf) < samples {
		m.mixBuf = make([]float32, samples)
		m.srcBuf = make([]float32, samples)
	}
	m.mixBuf = m.mixBuf[:samples]
	m.srcBuf = m.srcBuf[:samples]
	for i := range m.mixBuf {
		m.mixBuf[i] = 0
	}

	if !m.paused {
		for i := range m.voices {
			m.renderVoice(&m.voices[i], frames)
		}
		m.renderVoice(&m.stream, frames)
	}

	for i, s := range m.mixBuf {
		v := utils.Float32ToInt16(s)
		p[2*i] = byte(v)
		p[2*i+1] = byte(uint16(v) >> 8)
	}
	// Zero any trailing bytes beyond whole frames.
	for i := samples * 2; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// renderVoice accumulates one voice into the mix buffer, applying gain and
// the fade-out ramp per frame.
func (m *SoftMixer) renderVoice(v *voice, frames int) {
	if !v.playing || v.src == nil {
		return
	}

	channels := m.cfg.Channels
	want := frames * channels
	read := 0
	var srcErr error
	for read < want {
		n, err := v.src.ReadSamples(m.srcBuf[read:want])
		read += n
		if err != nil || n == 0 {
			srcErr = err
			break
		}
	}

	gotFrames := read / channels
	for f := 0; f < gotFrames; f++ {
		gain := v.effectiveGain()
		if v.fadeTotal > 0 && v.fadeLeft > 0 {
			v.fadeLeft--
		}
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			m.mixBuf[base+ch] += m.srcBuf[base+ch] * gain
		}
	}

	if v.fadeTotal > 0 && v.fadeLeft == 0 {
		v.stop()
		return
	}
	if srcErr == io.EOF || (read < want && srcErr == nil && read == 0) {
		v.stop()
	}
}
